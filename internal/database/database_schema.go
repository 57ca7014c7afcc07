// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

/*
database_schema.go - Database Schema Management

Tables:
  - presence: one row per (session_token, stream_type). The primary key is the
    uniqueness guarantee the presence upsert relies on.
  - engagement_events: append-only log of reactions, comments, and song
    requests. Per-kind columns are nullable; kind discriminates.

Index Strategy:
  - engagement_events (stream_type, created_at) serves recent-event and tally
    scans.
  - presence carries no secondary index. DuckDB refuses ON CONFLICT DO UPDATE
    assignments to indexed columns, and last_seen_at is updated on every
    heartbeat. Count queries are columnar scans with zone-map pruning.

Later additions live in migrations.go.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS presence (
			session_token TEXT NOT NULL,
			stream_type TEXT NOT NULL,
			id TEXT NOT NULL,
			joined_at TIMESTAMP NOT NULL,
			last_seen_at TIMESTAMP NOT NULL,
			PRIMARY KEY (session_token, stream_type)
		)`,

		`CREATE SEQUENCE IF NOT EXISTS engagement_events_id_seq START 1`,

		`CREATE TABLE IF NOT EXISTS engagement_events (
			id BIGINT PRIMARY KEY DEFAULT nextval('engagement_events_id_seq'),
			kind TEXT NOT NULL,
			stream_type TEXT NOT NULL,
			session_token TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,

			-- reaction
			emoji TEXT,

			-- comment
			author_display_name TEXT,
			message TEXT,

			-- song_request
			title TEXT,
			artist TEXT,
			requester_name TEXT,
			status TEXT,
			priority INTEGER NOT NULL DEFAULT 0
		)`,
	}
}

// createIndexes creates indexes for the read paths
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_engagement_stream_created ON engagement_events(stream_type, created_at)`,
	}

	for _, idx := range indexes {
		if _, err := db.conn.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", idx, err)
		}
	}
	return nil
}
