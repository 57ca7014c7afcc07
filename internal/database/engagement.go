// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/onair/internal/models"
)

// eventColumns is the column list shared by every engagement_events read.
const eventColumns = `id, kind, stream_type, session_token, created_at,
	emoji, author_display_name, message,
	title, artist, requester_name, status, priority`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func scanEvent(row rowScanner) (models.EngagementEvent, error) {
	var (
		e                                models.EngagementEvent
		kind, stream                     string
		emoji, author, message           sql.NullString
		title, artist, requester, status sql.NullString
	)
	if err := row.Scan(&e.ID, &kind, &stream, &e.SessionToken, &e.CreatedAt,
		&emoji, &author, &message,
		&title, &artist, &requester, &status, &e.Priority); err != nil {
		return e, err
	}

	e.Kind = models.EventKind(kind)
	e.StreamType = models.StreamType(stream)
	e.CreatedAt = e.CreatedAt.UTC()
	e.Emoji = emoji.String
	e.AuthorDisplayName = author.String
	e.Message = message.String
	e.Title = title.String
	if artist.Valid {
		a := artist.String
		e.Artist = &a
	}
	e.RequesterName = requester.String
	e.Status = models.SongRequestStatus(status.String)
	return e, nil
}

func scanEvents(rows *sql.Rows) ([]models.EngagementEvent, error) {
	events := make([]models.EngagementEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan engagement event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// InsertEvent appends e to the log and returns its id. e.CreatedAt must be set.
func (db *DB) InsertEvent(ctx context.Context, e *models.EngagementEvent) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("engagement event is nil")
	}

	ctx, cancel := db.opContext(ctx)
	defer cancel()

	var id int64
	start := time.Now()
	err := db.withRetry(ctx, func() error {
		return db.conn.QueryRowContext(ctx, `
			INSERT INTO engagement_events (
				kind, stream_type, session_token, created_at,
				emoji, author_display_name, message,
				title, artist, requester_name, status, priority
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			string(e.Kind), string(e.StreamType), e.SessionToken, e.CreatedAt.UTC(),
			nullString(e.Emoji), nullString(e.AuthorDisplayName), nullString(e.Message),
			nullString(e.Title), nullStringPtr(e.Artist), nullString(e.RequesterName),
			nullString(string(e.Status)), e.Priority,
		).Scan(&id)
	})
	if err = db.observe("event_insert", start, err); err != nil {
		return 0, err
	}
	return id, nil
}

// RecentEvents returns up to limit events for stream, newest first with ties
// broken by ascending id. A nil kind returns all kinds.
func (db *DB) RecentEvents(ctx context.Context, stream models.StreamType, kind *models.EventKind, limit int) ([]models.EngagementEvent, error) {
	ctx, cancel := db.opContext(ctx)
	defer cancel()

	query := `SELECT ` + eventColumns + ` FROM engagement_events WHERE stream_type = ?`
	args := []any{string(stream)}
	if kind != nil {
		query += ` AND kind = ?`
		args = append(args, string(*kind))
	}
	query += ` ORDER BY created_at DESC, id ASC LIMIT ?`
	args = append(args, limit)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.observe("event_recent", start, err)
	}
	defer closeWithLog(rows, "rows")

	events, err := scanEvents(rows)
	if err = db.observe("event_recent", start, err); err != nil {
		return nil, err
	}
	return events, nil
}

// TallyReactions counts reactions on stream per emoji with created_at in
// [since, until]. Emoji with no reactions are absent from the map.
func (db *DB) TallyReactions(ctx context.Context, stream models.StreamType, since, until time.Time) (map[string]int, error) {
	ctx, cancel := db.opContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT emoji, COUNT(*)
		FROM engagement_events
		WHERE stream_type = ? AND kind = ? AND created_at >= ? AND created_at <= ?
		GROUP BY emoji`,
		string(stream), string(models.KindReaction), since.UTC(), until.UTC())
	if err != nil {
		return nil, db.observe("reaction_tally", start, err)
	}
	defer closeWithLog(rows, "rows")

	tally := make(map[string]int)
	for rows.Next() {
		var (
			emoji string
			count int
		)
		if err := rows.Scan(&emoji, &count); err != nil {
			return nil, db.observe("reaction_tally", start, fmt.Errorf("failed to scan tally row: %w", err))
		}
		tally[emoji] = count
	}
	if err = db.observe("reaction_tally", start, rows.Err()); err != nil {
		return nil, err
	}
	return tally, nil
}

// UpdateSongRequest sets the status, and the priority when non-nil, of song
// request id. It returns models.ErrNotFound when no song request has that id.
func (db *DB) UpdateSongRequest(ctx context.Context, id int64, status models.SongRequestStatus, priority *int) (*models.EngagementEvent, error) {
	ctx, cancel := db.opContext(ctx)
	defer cancel()

	query := `UPDATE engagement_events SET status = ? WHERE id = ? AND kind = ? RETURNING ` + eventColumns
	args := []any{string(status), id, string(models.KindSongRequest)}
	if priority != nil {
		query = `UPDATE engagement_events SET status = ?, priority = ? WHERE id = ? AND kind = ? RETURNING ` + eventColumns
		args = []any{string(status), *priority, id, string(models.KindSongRequest)}
	}

	var updated models.EngagementEvent
	start := time.Now()
	err := db.withRetry(ctx, func() error {
		var scanErr error
		updated, scanErr = scanEvent(db.conn.QueryRowContext(ctx, query, args...))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("song request %d: %w", id, models.ErrNotFound)
	}
	if err = db.observe("song_request_update", start, err); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListSongRequests returns up to limit song requests for stream in queue
// order: priority descending, then oldest first, then ascending id. An empty
// statuses slice matches every status.
func (db *DB) ListSongRequests(ctx context.Context, stream models.StreamType, statuses []models.SongRequestStatus, limit int) ([]models.EngagementEvent, error) {
	ctx, cancel := db.opContext(ctx)
	defer cancel()

	query := `SELECT ` + eventColumns + ` FROM engagement_events WHERE stream_type = ? AND kind = ?`
	args := []any{string(stream), string(models.KindSongRequest)}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, s := range statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY priority DESC, created_at ASC, id ASC LIMIT ?`
	args = append(args, limit)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.observe("song_request_list", start, err)
	}
	defer closeWithLog(rows, "rows")

	events, err := scanEvents(rows)
	if err = db.observe("song_request_list", start, err); err != nil {
		return nil, err
	}
	return events, nil
}
