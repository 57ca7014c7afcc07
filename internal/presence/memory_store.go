// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package presence

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tomtom215/onair/internal/models"
)

// ErrStoreClosed is returned by MemoryStore after Close.
var ErrStoreClosed = errors.New("presence store is closed")

type memoryKey struct {
	session string
	stream  models.StreamType
}

// MemoryStore is an in-memory Store for testing.
// Not recommended for production as records are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[memoryKey]models.PresenceRecord
	closed  bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[memoryKey]models.PresenceRecord)}
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(ctx context.Context, session string, stream models.StreamType, now time.Time, refreshJoined bool) (*models.PresenceRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, models.StoreError("memory upsert", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, models.StoreError("memory upsert", ErrStoreClosed)
	}

	key := memoryKey{session, stream}
	rec, exists := s.records[key]
	if !exists {
		rec = models.PresenceRecord{
			ID:           ulid.Make().String(),
			SessionToken: session,
			StreamType:   stream,
			JoinedAt:     now,
			LastSeenAt:   now,
		}
	} else {
		if refreshJoined {
			rec.JoinedAt = now
		}
		if now.After(rec.LastSeenAt) {
			rec.LastSeenAt = now
		}
	}
	s.records[key] = rec

	out := rec
	return &out, !exists, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, session string, stream models.StreamType) error {
	if err := ctx.Err(); err != nil {
		return models.StoreError("memory delete", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.StoreError("memory delete", ErrStoreClosed)
	}
	delete(s.records, memoryKey{session, stream})
	return nil
}

// CountSince implements Store.
func (s *MemoryStore) CountSince(ctx context.Context, stream models.StreamType, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, models.StoreError("memory count", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, models.StoreError("memory count", ErrStoreClosed)
	}

	count := 0
	for key, rec := range s.records {
		if key.stream == stream && !rec.LastSeenAt.Before(cutoff) {
			count++
		}
	}
	return count, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, session string, stream models.StreamType) (*models.PresenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.StoreError("memory get", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, models.StoreError("memory get", ErrStoreClosed)
	}

	rec, ok := s.records[memoryKey{session, stream}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// PurgeBefore implements Store.
func (s *MemoryStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, models.StoreError("memory purge", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, models.StoreError("memory purge", ErrStoreClosed)
	}

	removed := 0
	for key, rec := range s.records {
		if rec.LastSeenAt.Before(cutoff) {
			delete(s.records, key)
			removed++
		}
	}
	return removed, nil
}

// Ping implements Pinger.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Subsequent calls fail with ErrStoreUnavailable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.records = nil
	return nil
}
