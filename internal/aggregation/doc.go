// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

/*
Package aggregation is the read and write facade over the presence tracker
and the engagement log. HTTP handlers talk to a Service and never to a store.

# Writes

Join, Heartbeat, Leave and the engagement submissions pass straight through
and return the underlying error, so a caller can tell a validation failure
(400) from an unavailable store (503).

# Reads

Reads never fail. Each read runs under a short timeout and a circuit breaker
shared by all reads. When the store errors, times out, or the breaker is
open, the read logs a warning, increments
onair_aggregation_degraded_reads_total and answers with the last good value
for the same arguments, or with zero/empty when there is none.

Engagement snapshots are cached per stream for a couple of seconds, and
concurrent misses for the same stream share one store scan. HandleAppended
drops a stream's cached snapshot when the event bus reports a new event on
it.
*/
package aggregation
