// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package engagement

import (
	"context"
	"time"

	"github.com/tomtom215/onair/internal/models"
)

// Store persists engagement events. database.DB is the production implementation.
type Store interface {
	// InsertEvent appends e and returns its id. Ids increase with insertion order.
	InsertEvent(ctx context.Context, e *models.EngagementEvent) (int64, error)

	// RecentEvents returns up to limit events for stream, newest first with
	// ties broken by ascending id. A nil kind matches every kind.
	RecentEvents(ctx context.Context, stream models.StreamType, kind *models.EventKind, limit int) ([]models.EngagementEvent, error)

	// TallyReactions counts reactions per emoji with created_at in [since, until].
	TallyReactions(ctx context.Context, stream models.StreamType, since, until time.Time) (map[string]int, error)

	// UpdateSongRequest changes status, and priority when non-nil. It returns
	// models.ErrNotFound when id is not a song request.
	UpdateSongRequest(ctx context.Context, id int64, status models.SongRequestStatus, priority *int) (*models.EngagementEvent, error)

	// ListSongRequests returns song requests in queue order: priority
	// descending, then created_at ascending, then id ascending. An empty
	// statuses slice matches every status.
	ListSongRequests(ctx context.Context, stream models.StreamType, statuses []models.SongRequestStatus, limit int) ([]models.EngagementEvent, error)
}

// Notifier is told about every successfully appended event.
type Notifier interface {
	NotifyAppended(ctx context.Context, e *models.EngagementEvent) error
}
