// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/onair/internal/logging"
	"github.com/tomtom215/onair/internal/metrics"
	"github.com/tomtom215/onair/internal/models"
)

// opContext derives a context bounded by the per-operation timeout. A caller
// deadline that is already shorter wins.
func (db *DB) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, db.opTimeout)
}

// observe records metrics for a finished store operation and converts err
// into the store error taxonomy. ErrNotFound passes through unchanged.
func (db *DB) observe(operation string, start time.Time, err error) error {
	metrics.RecordStoreOperation(backendName, operation, time.Since(start), err)
	if err == nil || errors.Is(err, models.ErrNotFound) {
		return err
	}
	if isConnectionError(err) {
		logging.Warn().Err(err).Str("operation", operation).Msg("Database connection error")
	}
	return models.StoreError(operation, err)
}

// withRetry runs fn, retrying DuckDB transaction conflicts with exponential
// backoff. The context bounds the total time spent.
func (db *DB) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= db.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := db.retryDelay << uint(attempt-1)
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry aborted after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(backoff):
			}
		}

		err = fn()
		if err == nil || !isTransactionConflict(err) {
			return err
		}
		logging.Debug().Err(err).Int("attempt", attempt+1).Msg("Transaction conflict, retrying")
	}
	return fmt.Errorf("transaction conflict after %d retries: %w", db.maxRetries, err)
}

// Checkpoint forces DuckDB to flush the WAL into the main database file.
func (db *DB) Checkpoint(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// GetDatabasePath returns the configured database path.
func (db *DB) GetDatabasePath() string {
	return db.cfg.Path
}

// GetRecordCounts returns the number of presence rows and engagement events.
func (db *DB) GetRecordCounts(ctx context.Context) (presence int64, events int64, err error) {
	ctx, cancel := db.opContext(ctx)
	defer cancel()

	start := time.Now()
	err = db.conn.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM presence), (SELECT COUNT(*) FROM engagement_events)`).
		Scan(&presence, &events)
	return presence, events, db.observe("record_counts", start, err)
}
