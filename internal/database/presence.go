// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tomtom215/onair/internal/models"
)

// Upsert statements differ only in whether joined_at is refreshed. last_seen_at
// always keeps the later of the stored and incoming values so concurrent,
// out-of-order heartbeats converge on the maximum.
const (
	upsertPresenceJoinSQL = `
		INSERT INTO presence (session_token, stream_type, id, joined_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_token, stream_type) DO UPDATE SET
			joined_at = EXCLUDED.joined_at,
			last_seen_at = GREATEST(presence.last_seen_at, EXCLUDED.last_seen_at)
		RETURNING id, joined_at, last_seen_at`

	upsertPresenceHeartbeatSQL = `
		INSERT INTO presence (session_token, stream_type, id, joined_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_token, stream_type) DO UPDATE SET
			last_seen_at = GREATEST(presence.last_seen_at, EXCLUDED.last_seen_at)
		RETURNING id, joined_at, last_seen_at`
)

// Upsert records that session is present on stream at now. When no row exists
// one is created with joined_at = last_seen_at = now and created is true.
// refreshJoined resets joined_at on an existing row.
func (db *DB) Upsert(ctx context.Context, session string, stream models.StreamType, now time.Time, refreshJoined bool) (*models.PresenceRecord, bool, error) {
	ctx, cancel := db.opContext(ctx)
	defer cancel()

	now = now.UTC()
	newID := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()

	query := upsertPresenceHeartbeatSQL
	if refreshJoined {
		query = upsertPresenceJoinSQL
	}

	rec := &models.PresenceRecord{SessionToken: session, StreamType: stream}
	start := time.Now()
	err := db.withRetry(ctx, func() error {
		return db.conn.QueryRowContext(ctx, query, session, string(stream), newID, now, now).
			Scan(&rec.ID, &rec.JoinedAt, &rec.LastSeenAt)
	})
	if err = db.observe("presence_upsert", start, err); err != nil {
		return nil, false, err
	}

	rec.JoinedAt = rec.JoinedAt.UTC()
	rec.LastSeenAt = rec.LastSeenAt.UTC()
	return rec, rec.ID == newID, nil
}

// Delete removes the presence row for (session, stream). Deleting a row that
// does not exist is not an error.
func (db *DB) Delete(ctx context.Context, session string, stream models.StreamType) error {
	ctx, cancel := db.opContext(ctx)
	defer cancel()

	start := time.Now()
	err := db.withRetry(ctx, func() error {
		_, err := db.conn.ExecContext(ctx,
			`DELETE FROM presence WHERE session_token = ? AND stream_type = ?`,
			session, string(stream))
		return err
	})
	return db.observe("presence_delete", start, err)
}

// CountSince returns the number of sessions on stream whose last_seen_at is
// at or after cutoff.
func (db *DB) CountSince(ctx context.Context, stream models.StreamType, cutoff time.Time) (int, error) {
	ctx, cancel := db.opContext(ctx)
	defer cancel()

	var count int
	start := time.Now()
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM presence WHERE stream_type = ? AND last_seen_at >= ?`,
		string(stream), cutoff.UTC()).Scan(&count)
	if err = db.observe("presence_count", start, err); err != nil {
		return 0, err
	}
	return count, nil
}

// Get returns the presence row for (session, stream), or nil if absent.
func (db *DB) Get(ctx context.Context, session string, stream models.StreamType) (*models.PresenceRecord, error) {
	ctx, cancel := db.opContext(ctx)
	defer cancel()

	rec := &models.PresenceRecord{SessionToken: session, StreamType: stream}
	start := time.Now()
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, joined_at, last_seen_at FROM presence WHERE session_token = ? AND stream_type = ?`,
		session, string(stream)).Scan(&rec.ID, &rec.JoinedAt, &rec.LastSeenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.observe("presence_get", start, nil)
	}
	if err = db.observe("presence_get", start, err); err != nil {
		return nil, err
	}

	rec.JoinedAt = rec.JoinedAt.UTC()
	rec.LastSeenAt = rec.LastSeenAt.UTC()
	return rec, nil
}

// PurgeBefore deletes presence rows last seen before cutoff and returns how
// many were removed.
func (db *DB) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, cancel := db.opContext(ctx)
	defer cancel()

	var removed int64
	start := time.Now()
	err := db.withRetry(ctx, func() error {
		result, err := db.conn.ExecContext(ctx,
			`DELETE FROM presence WHERE last_seen_at < ?`, cutoff.UTC())
		if err != nil {
			return err
		}
		removed, err = result.RowsAffected()
		return err
	})
	if err = db.observe("presence_purge", start, err); err != nil {
		return 0, err
	}
	return int(removed), nil
}
