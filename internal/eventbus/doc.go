// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

// Package eventbus is the in-process publish/subscribe channel between the
// engagement log and its readers.
//
// It wraps a Watermill GoChannel pub/sub and a Watermill Router. The
// engagement log publishes an "engagement.appended" message after every
// append or song request update; the aggregation service consumes it to drop
// the cached snapshot for that stream. Nothing leaves the process: clients
// still poll.
//
// Delivery is best effort. A message published while no handler is running
// is dropped, and a consumer error is logged and retried by the router's
// Retry middleware before being given up on.
package eventbus
