// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

/*
Package cache provides a thread-safe in-memory cache with TTL support.

OnAir keeps two kinds of short-lived state here:
  - Engagement snapshots (2 second TTL), so that many pollers of the same
    stream share a single store scan.
  - Last known good read results (5 minute TTL), returned by the aggregation
    service when the store is slow or unavailable.

# Usage Example

	snapshots := cache.New[Snapshot](2 * time.Second)
	defer snapshots.Stop()

	if snap, ok := snapshots.Get(cache.Key("snapshot", "tv")); ok {
	    return snap
	}

# Expiration

Expiry is checked lazily on Get. A background goroutine also sweeps expired
entries every cleanup interval; call Stop to end it. Tests inject a clock
with WithClock so that expiry can be exercised without sleeping.

# Thread Safety

All methods are safe for concurrent use.
*/
package cache
