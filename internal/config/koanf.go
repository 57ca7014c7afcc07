// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/onair/config.yaml",
	"/etc/onair/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default emoji vocabularies per stream.
var (
	DefaultReactionsTV    = []string{"❤️", "👏", "😂", "😮", "🔥", "👍"}
	DefaultReactionsRadio = []string{"❤️", "🎵", "🎶", "🔥", "👏", "💃"}
)

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/onair.duckdb",
			MaxMemory: "512MB",
			Threads:   0,
		},
		Presence: PresenceConfig{
			Backend:           PresenceBackendDuckDB,
			BadgerPath:        "/data/presence",
			LivenessTimeout:   90 * time.Second,
			HeartbeatInterval: 30 * time.Second,
			PurgeInterval:     time.Minute,
			RetentionFactor:   4,
			StoreOpTimeout:    300 * time.Millisecond,
		},
		Engagement: EngagementConfig{
			TallyWindow:    60 * time.Second,
			DefaultLimit:   50,
			MaxLimit:       200,
			ReactionsTV:    append([]string(nil), DefaultReactionsTV...),
			ReactionsRadio: append([]string(nil), DefaultReactionsRadio...),
			SubmitRate:     1,
			SubmitBurst:    5,
		},
		Aggregation: AggregationConfig{
			ReadTimeout:     250 * time.Millisecond,
			SnapshotTTL:     2 * time.Second,
			FallbackTTL:     5 * time.Minute,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		API: APIConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			PollInterval:      5 * time.Second,
		},
		Session: SessionConfig{
			CookieName:   "onair_session",
			HeaderName:   "X-Session-Token",
			CookieMaxAge: 24 * time.Hour,
		},
		Security: SecurityConfig{
			JWTSecret:     "",
			AdminTokenTTL: 12 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence is ENV > File > Defaults. The result is validated before it is returned.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// LIVENESS_TIMEOUT -> presence.liveness_timeout
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"api.cors_origins",
	"engagement.reactions_tv",
	"engagement.reactions_radio",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Presence
	"presence_backend":          "presence.backend",
	"presence_badger_path":      "presence.badger_path",
	"liveness_timeout":          "presence.liveness_timeout",
	"heartbeat_interval":        "presence.heartbeat_interval",
	"presence_purge_interval":   "presence.purge_interval",
	"presence_retention_factor": "presence.retention_factor",
	"store_op_timeout":          "presence.store_op_timeout",

	// Engagement
	"reaction_tally_window":    "engagement.tally_window",
	"engagement_default_limit": "engagement.default_limit",
	"engagement_max_limit":     "engagement.max_limit",
	"reactions_tv":             "engagement.reactions_tv",
	"reactions_radio":          "engagement.reactions_radio",
	"submit_rate":              "engagement.submit_rate",
	"submit_burst":             "engagement.submit_burst",

	// Aggregation
	"aggregation_read_timeout": "aggregation.read_timeout",
	"snapshot_ttl":             "aggregation.snapshot_ttl",
	"fallback_ttl":             "aggregation.fallback_ttl",
	"breaker_failures":         "aggregation.breaker_failures",
	"breaker_timeout":          "aggregation.breaker_timeout",

	// API
	"rate_limit_requests": "api.rate_limit_reqs",
	"rate_limit_window":   "api.rate_limit_window",
	"disable_rate_limit":  "api.rate_limit_disabled",
	"cors_origins":        "api.cors_origins",
	"poll_interval":       "api.poll_interval",

	// Session
	"session_cookie_name":    "session.cookie_name",
	"session_header_name":    "session.header_name",
	"session_cookie_max_age": "session.cookie_max_age",

	// Security
	"jwt_secret":      "security.jwt_secret",
	"admin_token_ttl": "security.admin_token_ttl",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
//   - LIVENESS_TIMEOUT -> presence.liveness_timeout
//
// Unmapped variables return "" and are skipped, so unrelated environment
// variables never leak into the configuration.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
