// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package engagement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/onair/internal/models"
)

// ErrStoreClosed is returned by MemoryStore after Close.
var ErrStoreClosed = errors.New("engagement store is closed")

// MemoryStore is an in-memory Store for testing.
// Not recommended for production as events are lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	events []models.EngagementEvent
	nextID int64
	closed bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return models.StoreError(op, err)
	}
	if s.closed {
		return models.StoreError(op, ErrStoreClosed)
	}
	return nil
}

func cloneEvent(e models.EngagementEvent) models.EngagementEvent {
	if e.Artist != nil {
		a := *e.Artist
		e.Artist = &a
	}
	return e
}

// InsertEvent implements Store.
func (s *MemoryStore) InsertEvent(ctx context.Context, e *models.EngagementEvent) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "memory insert"); err != nil {
		return 0, err
	}

	stored := cloneEvent(*e)
	stored.ID = s.nextID
	s.nextID++
	s.events = append(s.events, stored)
	return stored.ID, nil
}

// RecentEvents implements Store.
func (s *MemoryStore) RecentEvents(ctx context.Context, stream models.StreamType, kind *models.EventKind, limit int) ([]models.EngagementEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "memory recent"); err != nil {
		return nil, err
	}

	out := make([]models.EngagementEvent, 0)
	for _, e := range s.events {
		if e.StreamType != stream || (kind != nil && e.Kind != *kind) {
			continue
		}
		out = append(out, cloneEvent(e))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TallyReactions implements Store.
func (s *MemoryStore) TallyReactions(ctx context.Context, stream models.StreamType, since, until time.Time) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "memory tally"); err != nil {
		return nil, err
	}

	tally := make(map[string]int)
	for _, e := range s.events {
		if e.Kind != models.KindReaction || e.StreamType != stream {
			continue
		}
		if e.CreatedAt.Before(since) || e.CreatedAt.After(until) {
			continue
		}
		tally[e.Emoji]++
	}
	return tally, nil
}

// UpdateSongRequest implements Store.
func (s *MemoryStore) UpdateSongRequest(ctx context.Context, id int64, status models.SongRequestStatus, priority *int) (*models.EngagementEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "memory update"); err != nil {
		return nil, err
	}

	for i := range s.events {
		e := &s.events[i]
		if e.ID != id || e.Kind != models.KindSongRequest {
			continue
		}
		e.Status = status
		if priority != nil {
			e.Priority = *priority
		}
		out := cloneEvent(*e)
		return &out, nil
	}
	return nil, fmt.Errorf("song request %d: %w", id, models.ErrNotFound)
}

// ListSongRequests implements Store.
func (s *MemoryStore) ListSongRequests(ctx context.Context, stream models.StreamType, statuses []models.SongRequestStatus, limit int) ([]models.EngagementEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "memory list"); err != nil {
		return nil, err
	}

	match := func(st models.SongRequestStatus) bool {
		if len(statuses) == 0 {
			return true
		}
		for _, want := range statuses {
			if st == want {
				return true
			}
		}
		return false
	}

	out := make([]models.EngagementEvent, 0)
	for _, e := range s.events {
		if e.Kind == models.KindSongRequest && e.StreamType == stream && match(e.Status) {
			out = append(out, cloneEvent(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close marks the store closed. Subsequent calls fail with ErrStoreUnavailable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
