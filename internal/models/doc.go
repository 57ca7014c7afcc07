// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

// Package models provides the data structures shared by the presence,
// engagement and aggregation layers.
//
// # Types
//
//   - StreamType: the broadcast channel (tv or radio) that presence and engagement are scoped to
//   - PresenceRecord: one session watching or listening to one stream
//   - EngagementEvent: a reaction, live comment or song request
//
// # Errors
//
// The error taxonomy shared across packages lives in errors.go:
//
//   - *ValidationError for malformed input (HTTP 400)
//   - ErrNotFound for mutations targeting a missing id (HTTP 404)
//   - ErrStoreUnavailable for transient datastore failures (HTTP 503 on writes,
//     degraded zero/empty results on reads)
package models
