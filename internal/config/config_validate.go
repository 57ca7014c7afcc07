// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package config

import (
	"fmt"
	"strings"
)

// Validate checks that the configuration is complete and internally consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validatePresence(); err != nil {
		return err
	}
	if err := c.validateEngagement(); err != nil {
		return err
	}
	if err := c.validateAggregation(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be non-negative, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validatePresence() error {
	p := c.Presence
	switch p.Backend {
	case PresenceBackendDuckDB:
	case PresenceBackendBadger:
		if p.BadgerPath == "" {
			return fmt.Errorf("PRESENCE_BADGER_PATH is required when PRESENCE_BACKEND=badger")
		}
	default:
		return fmt.Errorf("PRESENCE_BACKEND must be %q or %q, got %q",
			PresenceBackendDuckDB, PresenceBackendBadger, p.Backend)
	}

	if p.LivenessTimeout <= 0 {
		return fmt.Errorf("LIVENESS_TIMEOUT must be positive, got %v", p.LivenessTimeout)
	}
	if p.HeartbeatInterval <= 0 {
		return fmt.Errorf("HEARTBEAT_INTERVAL must be positive, got %v", p.HeartbeatInterval)
	}
	if p.HeartbeatInterval >= p.LivenessTimeout {
		return fmt.Errorf("HEARTBEAT_INTERVAL (%v) must be shorter than LIVENESS_TIMEOUT (%v)",
			p.HeartbeatInterval, p.LivenessTimeout)
	}
	if p.PurgeInterval <= 0 {
		return fmt.Errorf("PRESENCE_PURGE_INTERVAL must be positive, got %v", p.PurgeInterval)
	}
	if p.RetentionFactor < 1 {
		return fmt.Errorf("PRESENCE_RETENTION_FACTOR must be at least 1, got %d", p.RetentionFactor)
	}
	if p.StoreOpTimeout <= 0 {
		return fmt.Errorf("STORE_OP_TIMEOUT must be positive, got %v", p.StoreOpTimeout)
	}
	return nil
}

func (c *Config) validateEngagement() error {
	e := c.Engagement
	if e.TallyWindow <= 0 {
		return fmt.Errorf("REACTION_TALLY_WINDOW must be positive, got %v", e.TallyWindow)
	}
	if e.DefaultLimit < 1 || e.MaxLimit < e.DefaultLimit {
		return fmt.Errorf("engagement limits invalid: default=%d max=%d", e.DefaultLimit, e.MaxLimit)
	}
	if len(e.ReactionsTV) == 0 {
		return fmt.Errorf("REACTIONS_TV must list at least one emoji")
	}
	if len(e.ReactionsRadio) == 0 {
		return fmt.Errorf("REACTIONS_RADIO must list at least one emoji")
	}
	if e.SubmitRate < 0 || e.SubmitBurst < 0 {
		return fmt.Errorf("SUBMIT_RATE and SUBMIT_BURST must be non-negative")
	}
	return nil
}

func (c *Config) validateAggregation() error {
	a := c.Aggregation
	if a.ReadTimeout <= 0 {
		return fmt.Errorf("AGGREGATION_READ_TIMEOUT must be positive, got %v", a.ReadTimeout)
	}
	if a.SnapshotTTL < 0 || a.FallbackTTL < 0 {
		return fmt.Errorf("SNAPSHOT_TTL and FALLBACK_TTL must be non-negative")
	}
	if a.BreakerFailures == 0 {
		return fmt.Errorf("BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters (got %d)", len(c.Security.JWTSecret))
	}
	if c.Security.AdminTokenTTL <= 0 {
		return fmt.Errorf("ADMIN_TOKEN_TTL must be positive, got %v", c.Security.AdminTokenTTL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error (got %q)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console (got %q)", c.Logging.Format)
	}
	return nil
}
