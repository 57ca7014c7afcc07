// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

/*
Package config provides centralized configuration management for OnAir.

Configuration is loaded in layers by LoadWithKoanf:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file (CONFIG_PATH, ./config.yaml, /etc/onair/config.yaml)
 3. Environment variables, mapped explicitly by envTransformFunc

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT: Bind address and port (default: 0.0.0.0:8080)
  - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_SHUTDOWN_TIMEOUT

Database:
  - DUCKDB_PATH: Database file path (default: /data/onair.duckdb)
  - DUCKDB_MAX_MEMORY, DUCKDB_THREADS

Presence:
  - PRESENCE_BACKEND: duckdb or badger (default: duckdb)
  - PRESENCE_BADGER_PATH: Badger directory when the badger backend is selected
  - LIVENESS_TIMEOUT: Maximum gap since the last heartbeat (default: 90s)
  - HEARTBEAT_INTERVAL: Interval advertised to clients (default: 30s)
  - PRESENCE_PURGE_INTERVAL, PRESENCE_RETENTION_FACTOR, STORE_OP_TIMEOUT

Engagement:
  - REACTION_TALLY_WINDOW (default: 60s)
  - REACTIONS_TV, REACTIONS_RADIO: Comma-separated emoji vocabularies
  - SUBMIT_RATE, SUBMIT_BURST: Per-session submission token bucket

Aggregation:
  - AGGREGATION_READ_TIMEOUT, SNAPSHOT_TTL, FALLBACK_TTL
  - BREAKER_FAILURES, BREAKER_TIMEOUT

API and security:
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - CORS_ORIGINS: Comma-separated allowed origins
  - JWT_SECRET: Enables the admin routes (min 32 chars)

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Thread Safety

Config is immutable after Load() and safe for concurrent read access.
*/
package config
