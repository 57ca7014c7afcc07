// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
//
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Presence    PresenceConfig    `koanf:"presence"`
	Engagement  EngagementConfig  `koanf:"engagement"`
	Aggregation AggregationConfig `koanf:"aggregation"`
	API         APIConfig         `koanf:"api"`
	Session     SessionConfig     `koanf:"session"`
	Security    SecurityConfig    `koanf:"security"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use NumCPU
}

// Presence store backends.
const (
	PresenceBackendDuckDB = "duckdb"
	PresenceBackendBadger = "badger"
)

// PresenceConfig controls heartbeat liveness and the presence store.
//
// LivenessTimeout must exceed HeartbeatInterval by a margin that tolerates one
// or two missed beats. The defaults (90s vs 30s) allow three.
type PresenceConfig struct {
	// Backend selects the presence store: "duckdb" (default) or "badger".
	Backend    string `koanf:"backend"`
	BadgerPath string `koanf:"badger_path"`

	LivenessTimeout   time.Duration `koanf:"liveness_timeout"`
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`

	// PurgeInterval is how often stale rows are deleted. Purging only reclaims
	// space; counts exclude stale rows at read time regardless.
	PurgeInterval time.Duration `koanf:"purge_interval"`

	// RetentionFactor multiplies LivenessTimeout to get the age after which a
	// row is purged.
	RetentionFactor int `koanf:"retention_factor"`

	// StoreOpTimeout bounds every individual store operation.
	StoreOpTimeout time.Duration `koanf:"store_op_timeout"`
}

// RetentionPeriod is the age after which presence rows are purged.
func (p PresenceConfig) RetentionPeriod() time.Duration {
	factor := p.RetentionFactor
	if factor < 1 {
		factor = 1
	}
	return p.LivenessTimeout * time.Duration(factor)
}

// EngagementConfig holds reaction, comment and song request settings.
type EngagementConfig struct {
	TallyWindow    time.Duration `koanf:"tally_window"`
	DefaultLimit   int           `koanf:"default_limit"`
	MaxLimit       int           `koanf:"max_limit"`
	ReactionsTV    []string      `koanf:"reactions_tv"`
	ReactionsRadio []string      `koanf:"reactions_radio"`

	// SubmitRate and SubmitBurst configure the per-session token bucket for
	// reaction, comment and song request submissions.
	SubmitRate  float64 `koanf:"submit_rate"`
	SubmitBurst int     `koanf:"submit_burst"`
}

// AggregationConfig controls the degraded-read behavior of the aggregation service.
type AggregationConfig struct {
	// ReadTimeout bounds each store read made on behalf of a poll.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// SnapshotTTL is how long an engagement snapshot is served from cache.
	SnapshotTTL time.Duration `koanf:"snapshot_ttl"`

	// FallbackTTL is how long a last-known-good value may be served when the
	// store is unavailable.
	FallbackTTL time.Duration `koanf:"fallback_ttl"`

	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`

	// PollInterval is the read cadence advertised to clients.
	PollInterval time.Duration `koanf:"poll_interval"`
}

// SessionConfig controls how anonymous session tokens travel.
type SessionConfig struct {
	CookieName   string        `koanf:"cookie_name"`
	HeaderName   string        `koanf:"header_name"`
	CookieMaxAge time.Duration `koanf:"cookie_max_age"`
}

// SecurityConfig holds admin authentication settings.
type SecurityConfig struct {
	// JWTSecret signs admin bearer tokens. When empty, admin routes are not mounted.
	JWTSecret     string        `koanf:"jwt_secret"`
	AdminTokenTTL time.Duration `koanf:"admin_token_ttl"`
}

// AdminEnabled reports whether admin routes should be served.
func (s SecurityConfig) AdminEnabled() bool {
	return s.JWTSecret != ""
}

// LoggingConfig holds logging configuration for zerolog.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// Load reads configuration from defaults, an optional config file and the
// environment. See LoadWithKoanf for the layering rules.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
