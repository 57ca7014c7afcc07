// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/onair/internal/logging"
)

// DuckDBStore persists audit events to the moderation_audit table.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a store over an open DuckDB connection. Call
// CreateTable once before use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the moderation_audit table and its indexes.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS moderation_audit (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			type TEXT NOT NULL,
			outcome TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			actor_role TEXT,
			target_id TEXT NOT NULL,
			target_type TEXT NOT NULL,
			target_stream_type TEXT,
			action TEXT NOT NULL,
			description TEXT,
			before_values TEXT,
			after_values TEXT,
			source_ip TEXT,
			request_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_moderation_audit_timestamp ON moderation_audit(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_moderation_audit_target ON moderation_audit(target_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute audit schema statement: %w", err)
		}
	}

	logging.Info().Msg("Moderation audit table created/verified")
	return nil
}

// Save inserts an event.
func (s *DuckDBStore) Save(ctx context.Context, event *Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	before, err := marshalValues(event.Before)
	if err != nil {
		return err
	}
	after, err := marshalValues(event.After)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO moderation_audit (
			id, timestamp, type, outcome, actor_id, actor_role,
			target_id, target_type, target_stream_type, action, description,
			before_values, after_values, source_ip, request_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp.UTC(), string(event.Type), string(event.Outcome),
		event.Actor.ID, event.Actor.Role,
		event.Target.ID, event.Target.Type, event.Target.StreamType,
		event.Action, event.Description,
		before, after, event.SourceIP, event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("failed to save audit event: %w", err)
	}
	return nil
}

// Query returns matching events, newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	var (
		where []string
		args  []any
	)
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.ActorID != "" {
		where = append(where, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if filter.TargetID != "" {
		where = append(where, "target_id = ?")
		args = append(args, filter.TargetID)
	}
	if !filter.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, filter.Since.UTC())
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, timestamp, type, outcome, actor_id, actor_role,
		target_id, target_type, target_stream_type, action, description,
		before_values, after_values, source_ip, request_id
		FROM moderation_audit`)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY timestamp DESC, id DESC LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		var (
			e                                 Event
			typ, outcome                      string
			role, stream, desc, before, after sql.NullString
			sourceIP, requestID               sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &typ, &outcome, &e.Actor.ID, &role,
			&e.Target.ID, &e.Target.Type, &stream, &e.Action, &desc,
			&before, &after, &sourceIP, &requestID); err != nil {
			logging.Warn().Err(err).Msg("Failed to scan audit event row")
			continue
		}
		e.Type = EventType(typ)
		e.Outcome = Outcome(outcome)
		e.Actor.Role = role.String
		e.Target.StreamType = stream.String
		e.Description = desc.String
		e.SourceIP = sourceIP.String
		e.RequestID = requestID.String
		e.Before = unmarshalValues(before)
		e.After = unmarshalValues(after)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

// Delete removes events older than the given time.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM moderation_audit WHERE timestamp < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit events: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}
	if count > 0 {
		logging.Info().Int64("deleted", count).Time("older_than", olderThan).Msg("Deleted old audit events")
	}
	return count, nil
}

func marshalValues(v map[string]any) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal audit values: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalValues(s sql.NullString) map[string]any {
	if !s.Valid || s.String == "" {
		return nil
	}
	var v map[string]any
	if err := json.Unmarshal([]byte(s.String), &v); err != nil {
		logging.Warn().Err(err).Msg("Failed to unmarshal audit values")
		return nil
	}
	return v
}
