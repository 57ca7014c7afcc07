// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/onair/internal/config"
	"github.com/tomtom215/onair/internal/logging"
)

// DefaultOpTimeout bounds a single store operation when no timeout is configured.
const DefaultOpTimeout = 300 * time.Millisecond

// backendName labels store metrics for this backend.
const backendName = "duckdb"

// DB wraps the DuckDB connection and provides the presence and engagement
// data access methods.
type DB struct {
	conn      *sql.DB
	cfg       *config.DatabaseConfig
	opTimeout time.Duration

	// Retry policy for DuckDB transaction conflicts
	maxRetries int
	retryDelay time.Duration
}

// New opens (or creates) the DuckDB database described by cfg and initializes
// the schema. opTimeout bounds every subsequent store operation; zero selects
// DefaultOpTimeout.
func New(cfg *config.DatabaseConfig, opTimeout time.Duration) (*DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is nil")
	}
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}

	if cfg.Path != ":memory:" {
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "512MB"
	}

	// Extension autoloading is disabled: OnAir needs none, and autoinstall
	// would reach out to the network on first start.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:       conn,
		cfg:        cfg,
		opTimeout:  opTimeout,
		maxRetries: 5,
		retryDelay: time.Millisecond,
	}

	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, err
	}

	logging.Info().
		Str("path", cfg.Path).
		Int("threads", numThreads).
		Str("max_memory", maxMemory).
		Dur("op_timeout", opTimeout).
		Msg("Database initialized")

	return db, nil
}

// Conn returns the underlying connection pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// OpTimeout returns the per-operation timeout.
func (db *DB) OpTimeout() time.Duration {
	return db.opTimeout
}

// Close checkpoints the WAL and closes the connection pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}
	cancel()

	return db.conn.Close()
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// initialize creates tables, applies migrations, and creates indexes.
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return err
	}

	if err := db.runVersionedMigrations(); err != nil {
		return err
	}

	if err := db.createIndexes(); err != nil {
		return err
	}

	// Flush schema changes out of the WAL so a crash right after startup
	// never replays DDL.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint after schema initialization")
	}

	return nil
}
