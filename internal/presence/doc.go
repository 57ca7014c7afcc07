// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

// Package presence tracks which anonymous sessions are currently watching or
// listening to each stream.
//
// # Model
//
// A viewer is live on a stream while their record's last_seen_at is within
// the liveness timeout of the current time. Liveness is evaluated when a
// count is read, so a client that vanishes without calling leave simply ages
// out of the count. A background purge deletes long-dead records to reclaim
// space; counts never depend on it.
//
// # Components
//
//   - Tracker: the domain operations (Join, Heartbeat, Leave, CountActive,
//     Purge) over an injectable clock and a Store.
//   - Store: the persistence contract. database.DB (DuckDB) is the default
//     implementation; BadgerStore keeps presence in an embedded Badger
//     key-value store with per-entry TTL; MemoryStore is used by tests.
//
// # Concurrency
//
// Every Store implementation guarantees one record per (session, stream) and
// resolves concurrent heartbeats to the maximum timestamp.
package presence
