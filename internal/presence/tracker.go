// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package presence

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/onair/internal/config"
	"github.com/tomtom215/onair/internal/logging"
	"github.com/tomtom215/onair/internal/metrics"
	"github.com/tomtom215/onair/internal/models"
	"github.com/tomtom215/onair/internal/session"
)

// Default cadences, used when the corresponding config value is unset.
const (
	DefaultLivenessTimeout   = 90 * time.Second
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultStoreOpTimeout    = 300 * time.Millisecond
	DefaultRetentionFactor   = 4
)

// Tracker implements join, heartbeat, leave and live counting on top of a Store.
type Tracker struct {
	store     Store
	liveness  time.Duration
	heartbeat time.Duration
	retention time.Duration
	opTimeout time.Duration
	now       func() time.Time
	logger    zerolog.Logger

	// hbLogger is sampled: self-healing heartbeats arrive in bursts after a
	// restart, one per connected viewer.
	hbLogger zerolog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now. Tests use it to step time deterministically.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates a Tracker over store using the cadences in cfg.
func NewTracker(store Store, cfg config.PresenceConfig, opts ...Option) *Tracker {
	t := &Tracker{
		store:     store,
		liveness:  cfg.LivenessTimeout,
		heartbeat: cfg.HeartbeatInterval,
		opTimeout: cfg.StoreOpTimeout,
		now:       time.Now,
		logger:    logging.WithComponent("presence"),
		hbLogger:  logging.Sampled("presence", 10, time.Minute),
	}
	if t.liveness <= 0 {
		t.liveness = DefaultLivenessTimeout
	}
	if t.heartbeat <= 0 {
		t.heartbeat = DefaultHeartbeatInterval
	}
	if t.opTimeout <= 0 {
		t.opTimeout = DefaultStoreOpTimeout
	}
	factor := cfg.RetentionFactor
	if factor < 1 {
		factor = DefaultRetentionFactor
	}
	t.retention = t.liveness * time.Duration(factor)

	for _, opt := range opts {
		opt(t)
	}
	return t
}

// LivenessTimeout is the window within which a heartbeat keeps a viewer live.
func (t *Tracker) LivenessTimeout() time.Duration { return t.liveness }

// HeartbeatInterval is the cadence clients are told to heartbeat at.
func (t *Tracker) HeartbeatInterval() time.Duration { return t.heartbeat }

// RetentionPeriod is the age after which Purge deletes a record.
func (t *Tracker) RetentionPeriod() time.Duration { return t.retention }

// Store returns the underlying store.
func (t *Tracker) Store() Store { return t.store }

func validate(sessionToken string, stream models.StreamType) error {
	if err := session.Validate(sessionToken); err != nil {
		return err
	}
	if !stream.Valid() {
		return models.NewValidationError("streamType", "must be one of: tv, radio")
	}
	return nil
}

// Join marks session as present on stream, creating or refreshing its record
// with joined_at = last_seen_at = now. Repeated joins are idempotent.
func (t *Tracker) Join(ctx context.Context, sessionToken string, stream models.StreamType) error {
	if err := validate(sessionToken, stream); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()

	if _, _, err := t.store.Upsert(ctx, sessionToken, stream, t.now(), true); err != nil {
		return models.StoreError("presence join", err)
	}
	metrics.RecordPresenceOperation("join", string(stream))
	return nil
}

// Heartbeat advances last_seen_at for session on stream. A heartbeat for an
// unknown session creates the record, so a client whose join was lost (or
// whose record was purged) heals on its next beat.
func (t *Tracker) Heartbeat(ctx context.Context, sessionToken string, stream models.StreamType) error {
	if err := validate(sessionToken, stream); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()

	_, created, err := t.store.Upsert(ctx, sessionToken, stream, t.now(), false)
	if err != nil {
		return models.StoreError("presence heartbeat", err)
	}
	if created {
		t.hbLogger.Debug().Str("stream", string(stream)).Msg("Heartbeat without prior join, record created")
	}
	metrics.RecordPresenceOperation("heartbeat", string(stream))
	return nil
}

// Leave removes session from stream. Leaving when not present is a no-op.
func (t *Tracker) Leave(ctx context.Context, sessionToken string, stream models.StreamType) error {
	if err := validate(sessionToken, stream); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()

	if err := t.store.Delete(ctx, sessionToken, stream); err != nil {
		return models.StoreError("presence leave", err)
	}
	metrics.RecordPresenceOperation("leave", string(stream))
	return nil
}

// CountActive returns the number of sessions on stream seen within timeout of
// now. A non-positive timeout selects the configured liveness timeout.
func (t *Tracker) CountActive(ctx context.Context, stream models.StreamType, timeout time.Duration) (int, error) {
	if !stream.Valid() {
		return 0, models.NewValidationError("streamType", "must be one of: tv, radio")
	}
	if timeout <= 0 {
		timeout = t.liveness
	}

	ctx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()

	count, err := t.store.CountSince(ctx, stream, t.now().Add(-timeout))
	if err != nil {
		return 0, models.StoreError("presence count", err)
	}
	metrics.SetActiveViewers(string(stream), count)
	return count, nil
}

// Purge deletes records older than the retention period. It only reclaims
// space; CountActive already ignores stale records.
func (t *Tracker) Purge(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()

	removed, err := t.store.PurgeBefore(ctx, t.now().Add(-t.retention))
	if err != nil {
		return 0, models.StoreError("presence purge", err)
	}
	metrics.RecordPresencePurge(removed)
	if removed > 0 {
		t.logger.Debug().Int("removed", removed).Msg("Purged stale presence records")
	}
	return removed, nil
}

// Ping reports whether the underlying store is reachable, when it supports it.
func (t *Tracker) Ping(ctx context.Context) error {
	p, ok := t.store.(Pinger)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return models.StoreError("presence ping", err)
	}
	return nil
}
