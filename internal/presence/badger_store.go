// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package presence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"

	"github.com/tomtom215/onair/internal/logging"
	"github.com/tomtom215/onair/internal/metrics"
	"github.com/tomtom215/onair/internal/models"
)

const (
	badgerBackend   = "badger"
	badgerKeyPrefix = "presence/"

	// badgerMaxConflictRetries bounds retries of an Update txn that lost an
	// optimistic-concurrency race with another writer on the same key.
	badgerMaxConflictRetries = 8
)

// badgerRecord is the JSON value stored under each presence key.
type badgerRecord struct {
	ID         string    `json:"id"`
	JoinedAt   time.Time `json:"joined_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// BadgerStore is a Store backed by an embedded Badger key-value database.
//
// Keys are presence/{stream}/{session}. Each write sets the entry TTL to the
// retention period, so Badger drops abandoned records on its own; PurgeBefore
// remains available for explicit cleanup.
type BadgerStore struct {
	db        *badger.DB
	retention time.Duration

	// afterPurgeScan runs between the scan and delete phases of PurgeBefore.
	// Tests use it to interleave a heartbeat.
	afterPurgeScan func()
}

// OpenBadger opens a Badger database at path. An empty path opens an
// in-memory database.
func OpenBadger(path string) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create badger directory: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return db, nil
}

// NewBadgerStore wraps db. retention is the per-entry TTL; zero disables TTL.
func NewBadgerStore(db *badger.DB, retention time.Duration) *BadgerStore {
	return &BadgerStore{db: db, retention: retention}
}

func badgerKey(session string, stream models.StreamType) []byte {
	return []byte(badgerKeyPrefix + string(stream) + "/" + session)
}

func badgerStreamPrefix(stream models.StreamType) []byte {
	return []byte(badgerKeyPrefix + string(stream) + "/")
}

func (s *BadgerStore) observe(operation string, start time.Time, err error) error {
	metrics.RecordStoreOperation(badgerBackend, operation, time.Since(start), err)
	return models.StoreError(operation, err)
}

func readRecord(item *badger.Item) (badgerRecord, error) {
	var rec badgerRecord
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	return rec, err
}

// Upsert implements Store.
func (s *BadgerStore) Upsert(ctx context.Context, session string, stream models.StreamType, now time.Time, refreshJoined bool) (*models.PresenceRecord, bool, error) {
	start := time.Now()
	now = now.UTC()
	key := badgerKey(session, stream)

	var (
		stored  badgerRecord
		created bool
	)
	update := func(txn *badger.Txn) error {
		created = false
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			created = true
			stored = badgerRecord{
				ID:         ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
				JoinedAt:   now,
				LastSeenAt: now,
			}
		case err != nil:
			return err
		default:
			if stored, err = readRecord(item); err != nil {
				return err
			}
			if refreshJoined {
				stored.JoinedAt = now
			}
			if now.After(stored.LastSeenAt) {
				stored.LastSeenAt = now
			}
		}

		data, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		entry := badger.NewEntry(key, data)
		if s.retention > 0 {
			entry = entry.WithTTL(s.retention)
		}
		return txn.SetEntry(entry)
	}

	var err error
	for attempt := 0; attempt <= badgerMaxConflictRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			break
		}
		err = s.db.Update(update)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		logging.Debug().Int("attempt", attempt+1).Msg("Badger presence upsert conflict, retrying")
	}
	if err = s.observe("presence_upsert", start, err); err != nil {
		return nil, false, err
	}

	return &models.PresenceRecord{
		ID:           stored.ID,
		SessionToken: session,
		StreamType:   stream,
		JoinedAt:     stored.JoinedAt,
		LastSeenAt:   stored.LastSeenAt,
	}, created, nil
}

// Delete implements Store.
func (s *BadgerStore) Delete(ctx context.Context, session string, stream models.StreamType) error {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return s.observe("presence_delete", start, err)
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(session, stream))
	})
	return s.observe("presence_delete", start, err)
}

// CountSince implements Store.
func (s *BadgerStore) CountSince(ctx context.Context, stream models.StreamType, cutoff time.Time) (int, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return 0, s.observe("presence_count", start, err)
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = badgerStreamPrefix(stream)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := readRecord(it.Item())
			if err != nil {
				logging.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Skipping undecodable presence entry")
				continue
			}
			if !rec.LastSeenAt.Before(cutoff) {
				count++
			}
		}
		return nil
	})
	if err = s.observe("presence_count", start, err); err != nil {
		return 0, err
	}
	return count, nil
}

// Get implements Store.
func (s *BadgerStore) Get(ctx context.Context, session string, stream models.StreamType) (*models.PresenceRecord, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, s.observe("presence_get", start, err)
	}

	var (
		rec   badgerRecord
		found bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(session, stream))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		rec, err = readRecord(item)
		return err
	})
	if err = s.observe("presence_get", start, err); err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &models.PresenceRecord{
		ID:           rec.ID,
		SessionToken: session,
		StreamType:   stream,
		JoinedAt:     rec.JoinedAt,
		LastSeenAt:   rec.LastSeenAt,
	}, nil
}

// PurgeBefore implements Store. Candidates are collected in a read txn, then
// each is re-read and deleted in its own Update txn so a heartbeat landing
// after the scan keeps its record. Per-key txns never hit ErrTxnTooBig.
func (s *BadgerStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return 0, s.observe("presence_purge", start, err)
	}

	var candidates [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			rec, err := readRecord(item)
			if err != nil || rec.LastSeenAt.Before(cutoff) {
				candidates = append(candidates, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, s.observe("presence_purge", start, err)
	}

	if s.afterPurgeScan != nil {
		s.afterPurgeScan()
	}

	removed := 0
	for _, key := range candidates {
		if err := ctx.Err(); err != nil {
			return removed, s.observe("presence_purge", start, err)
		}
		deleted, err := s.deleteIfStale(key, cutoff)
		if err != nil {
			return removed, s.observe("presence_purge", start, err)
		}
		if deleted {
			removed++
		}
	}

	return removed, s.observe("presence_purge", start, nil)
}

// deleteIfStale deletes key when its record is still older than cutoff or
// cannot be decoded.
func (s *BadgerStore) deleteIfStale(key []byte, cutoff time.Time) (bool, error) {
	var deleted bool
	update := func(txn *badger.Txn) error {
		deleted = false
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if rec, err := readRecord(item); err == nil && !rec.LastSeenAt.Before(cutoff) {
			return nil
		}
		deleted = true
		return txn.Delete(key)
	}

	var err error
	for attempt := 0; attempt <= badgerMaxConflictRetries; attempt++ {
		err = s.db.Update(update)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	return deleted, err
}

// Ping implements Pinger.
func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return badger.ErrDBClosed
	}
	return nil
}
