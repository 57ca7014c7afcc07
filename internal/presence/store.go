// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package presence

import (
	"context"
	"time"

	"github.com/tomtom215/onair/internal/models"
)

// Store persists presence records.
//
// Implementations must keep at most one record per (session, stream) and
// must never move last_seen_at backwards.
type Store interface {
	// Upsert records session on stream at now. A new record gets
	// joined_at = last_seen_at = now and created is true. An existing record
	// keeps max(last_seen_at, now); refreshJoined also resets joined_at.
	Upsert(ctx context.Context, session string, stream models.StreamType, now time.Time, refreshJoined bool) (rec *models.PresenceRecord, created bool, err error)

	// Delete removes the record. A missing record is not an error.
	Delete(ctx context.Context, session string, stream models.StreamType) error

	// CountSince counts records on stream with last_seen_at >= cutoff.
	CountSince(ctx context.Context, stream models.StreamType, cutoff time.Time) (int, error)

	// Get returns the record, or nil and no error when absent.
	Get(ctx context.Context, session string, stream models.StreamType) (*models.PresenceRecord, error)

	// PurgeBefore deletes records last seen before cutoff.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
