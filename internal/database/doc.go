// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

// Package database provides the DuckDB-backed presence and engagement stores
// for OnAir.
//
// # Overview
//
// A single embedded DuckDB database holds two tables:
//
//   - presence: one row per (session_token, stream_type) recording when a
//     viewer joined and when they were last seen. Writes are upserts that keep
//     the maximum last_seen_at, so out-of-order heartbeats never move a
//     viewer backwards in time.
//   - engagement_events: an append-only log of reactions, comments, and song
//     requests. Ids come from a sequence so insertion order is monotonic.
//
// # Architecture
//
//   - database.go: lifecycle (open, initialize, ping, close)
//   - database_connection.go: pool configuration and error classification
//   - database_schema.go: table and index creation
//   - migrations.go: versioned migrations tracked in schema_migrations
//   - database_utils.go: per-operation contexts, checkpointing, retries
//   - presence.go: presence.Store implementation
//   - engagement.go: engagement.Store implementation
//
// # Error Handling
//
// Every I/O failure, including a context deadline, is returned wrapped in
// models.ErrStoreUnavailable via models.StoreError. Callers that need to tell
// a missing song request apart from an outage check models.ErrNotFound first.
//
// # Concurrency
//
// DB is safe for concurrent use. DuckDB uses optimistic concurrency, so two
// writers touching the same presence row may see a transaction conflict; such
// writes are retried with a short exponential backoff.
//
// # Testing
//
// Tests use in-memory databases (Path ":memory:") created through setupTestDB,
// which serializes database creation to keep CGO memory usage bounded.
package database
