// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package aggregation

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/onair/internal/cache"
	"github.com/tomtom215/onair/internal/config"
	"github.com/tomtom215/onair/internal/engagement"
	"github.com/tomtom215/onair/internal/eventbus"
	"github.com/tomtom215/onair/internal/logging"
	"github.com/tomtom215/onair/internal/metrics"
	"github.com/tomtom215/onair/internal/models"
	"github.com/tomtom215/onair/internal/presence"
)

// Defaults used when the corresponding config value is unset.
const (
	DefaultReadTimeout     = 250 * time.Millisecond
	DefaultSnapshotTTL     = 2 * time.Second
	DefaultFallbackTTL     = 5 * time.Minute
	DefaultBreakerFailures = 5
	DefaultBreakerTimeout  = 30 * time.Second

	breakerName = "store_reads"
)

// Snapshot is everything a polling client renders for one stream.
type Snapshot struct {
	StreamType         models.StreamType        `json:"streamType"`
	ReactionTally      models.ReactionTally     `json:"reactionTally"`
	TallyWindowSeconds int                      `json:"tallyWindowSeconds"`
	RecentComments     []models.EngagementEvent `json:"recentComments"`
	RecentSongRequests []models.EngagementEvent `json:"recentSongRequests"`
	GeneratedAt        time.Time                `json:"generatedAt"`
}

// Service combines presence and engagement behind one degrade-on-failure API.
type Service struct {
	tracker *presence.Tracker
	log     *engagement.Log

	readTimeout time.Duration
	breaker     *gobreaker.CircuitBreaker[any]
	snapshots   *cache.Cache[*Snapshot]
	fallback    *cache.Cache[any]
	inflight    singleflight.Group

	// snapshotGen counts invalidations per stream. A scan only caches its
	// result if no invalidation happened while it ran.
	genMu       sync.Mutex
	snapshotGen map[models.StreamType]uint64

	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service. Call Close to stop its cache sweepers.
func NewService(tracker *presence.Tracker, log *engagement.Log, cfg config.AggregationConfig, opts ...Option) *Service {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = DefaultSnapshotTTL
	}
	if cfg.FallbackTTL <= 0 {
		cfg.FallbackTTL = DefaultFallbackTTL
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = DefaultBreakerFailures
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = DefaultBreakerTimeout
	}

	s := &Service{
		tracker:     tracker,
		log:         log,
		readTimeout: cfg.ReadTimeout,
		snapshots:   cache.New[*Snapshot](cfg.SnapshotTTL),
		fallback:    cache.New[any](cfg.FallbackTTL),
		snapshotGen: make(map[models.StreamType]uint64),
		now:         time.Now,
		logger:      logging.WithComponent("aggregation"),
	}
	for _, opt := range opts {
		opt(s)
	}

	failures := cfg.BreakerFailures
	s.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// Bad input says nothing about store health.
			return err == nil || models.IsValidation(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			s.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(float64(gobreaker.StateClosed))

	return s
}

// Close releases the caches.
func (s *Service) Close() {
	s.snapshots.Stop()
	s.fallback.Stop()
}

// Tracker returns the presence tracker.
func (s *Service) Tracker() *presence.Tracker { return s.tracker }

// Log returns the engagement log.
func (s *Service) Log() *engagement.Log { return s.log }

// BreakerState returns the current read breaker state.
func (s *Service) BreakerState() gobreaker.State { return s.breaker.State() }

// Join marks session as watching stream.
func (s *Service) Join(ctx context.Context, session string, stream models.StreamType) error {
	return s.tracker.Join(ctx, session, stream)
}

// Heartbeat refreshes session's presence on stream.
func (s *Service) Heartbeat(ctx context.Context, session string, stream models.StreamType) error {
	return s.tracker.Heartbeat(ctx, session, stream)
}

// Leave removes session from stream.
func (s *Service) Leave(ctx context.Context, session string, stream models.StreamType) error {
	return s.tracker.Leave(ctx, session, stream)
}

// SubmitReaction appends a reaction and returns the stored event.
func (s *Service) SubmitReaction(ctx context.Context, stream models.StreamType, session, emoji string) (*models.EngagementEvent, error) {
	return s.appendEvent(ctx, models.NewReaction(stream, session, emoji))
}

// SubmitComment appends a comment and returns the stored event.
func (s *Service) SubmitComment(ctx context.Context, stream models.StreamType, session, author, message string) (*models.EngagementEvent, error) {
	return s.appendEvent(ctx, models.NewComment(stream, session, author, message))
}

// SubmitSongRequest appends a pending song request and returns the stored event.
func (s *Service) SubmitSongRequest(ctx context.Context, stream models.StreamType, session, title string, artist *string, requester string) (*models.EngagementEvent, error) {
	return s.appendEvent(ctx, models.NewSongRequest(stream, session, title, artist, requester))
}

func (s *Service) appendEvent(ctx context.Context, e *models.EngagementEvent) (*models.EngagementEvent, error) {
	if _, err := s.log.Append(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateSongRequestStatus changes a song request's status and optionally its priority.
func (s *Service) UpdateSongRequestStatus(ctx context.Context, id int64, status models.SongRequestStatus, priority *int) (*models.EngagementEvent, error) {
	return s.log.UpdateSongRequestStatus(ctx, id, status, priority)
}

// GetViewerCount returns the number of live sessions on stream.
func (s *Service) GetViewerCount(ctx context.Context, stream models.StreamType) int {
	if !stream.Valid() {
		return 0
	}
	return degradedRead(ctx, s, "viewer_count", cache.Key("viewers", string(stream)), 0,
		func(ctx context.Context) (int, error) {
			return s.tracker.CountActive(ctx, stream, s.tracker.LivenessTimeout())
		})
}

// RecentEvents returns recent events for stream, newest first. A nil kind
// returns every kind.
func (s *Service) RecentEvents(ctx context.Context, stream models.StreamType, kind *models.EventKind, limit int) []models.EngagementEvent {
	if !stream.Valid() || (kind != nil && !kind.Valid()) {
		return []models.EngagementEvent{}
	}
	limit = s.log.ClampLimit(limit)
	kindKey := "all"
	if kind != nil {
		kindKey = string(*kind)
	}
	return degradedRead(ctx, s, "recent_events",
		cache.Key("recent", string(stream), kindKey, strconv.Itoa(limit)), []models.EngagementEvent{},
		func(ctx context.Context) ([]models.EngagementEvent, error) {
			return s.log.Recent(ctx, stream, kind, limit)
		})
}

// ReactionTally counts reactions on stream over window. A non-positive
// window selects the configured default.
func (s *Service) ReactionTally(ctx context.Context, stream models.StreamType, window time.Duration) models.ReactionTally {
	if !stream.Valid() {
		return models.ReactionTally{}
	}
	if window <= 0 {
		window = s.log.TallyWindow()
	}
	return degradedRead(ctx, s, "reaction_tally",
		cache.Key("tally", string(stream), window.String()), models.ReactionTally{},
		func(ctx context.Context) (models.ReactionTally, error) {
			return s.log.Tally(ctx, stream, window)
		})
}

// ListSongRequests returns song requests for stream in queue order.
func (s *Service) ListSongRequests(ctx context.Context, stream models.StreamType, limit int) []models.EngagementEvent {
	if !stream.Valid() {
		return []models.EngagementEvent{}
	}
	limit = s.log.ClampLimit(limit)
	return degradedRead(ctx, s, "song_requests",
		cache.Key("songs", string(stream), strconv.Itoa(limit)), []models.EngagementEvent{},
		func(ctx context.Context) ([]models.EngagementEvent, error) {
			return s.log.ListSongRequests(ctx, stream, limit)
		})
}

// GetEngagementSnapshot returns the reaction tally, recent comments and
// recent song requests for stream. Each part degrades independently.
func (s *Service) GetEngagementSnapshot(ctx context.Context, stream models.StreamType) *Snapshot {
	key := cache.Key("snapshot", string(stream))
	if snap, ok := s.snapshots.Get(key); ok {
		metrics.RecordSnapshotCache("hit")
		return snap
	}
	metrics.RecordSnapshotCache("miss")

	v, _, _ := s.inflight.Do(key, func() (any, error) {
		gen := s.snapshotGeneration(stream)

		// Detached from the caller so one canceled poller does not fail the
		// others sharing this scan.
		scanCtx := context.WithoutCancel(ctx)
		songKind := models.KindSongRequest
		commentKind := models.KindComment

		snap := &Snapshot{
			StreamType:         stream,
			ReactionTally:      s.ReactionTally(scanCtx, stream, 0),
			TallyWindowSeconds: int(s.log.TallyWindow() / time.Second),
			RecentComments:     s.RecentEvents(scanCtx, stream, &commentKind, 0),
			RecentSongRequests: s.RecentEvents(scanCtx, stream, &songKind, 0),
			GeneratedAt:        s.now().UTC(),
		}
		s.genMu.Lock()
		if s.snapshotGen[stream] == gen {
			s.snapshots.Set(key, snap)
		}
		s.genMu.Unlock()
		return snap, nil
	})
	return v.(*Snapshot)
}

func (s *Service) snapshotGeneration(stream models.StreamType) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.snapshotGen[stream]
}

// InvalidateSnapshot drops the cached snapshot for stream. A scan already
// running is not cached, and later callers start a fresh one.
func (s *Service) InvalidateSnapshot(stream models.StreamType) {
	key := cache.Key("snapshot", string(stream))

	s.genMu.Lock()
	s.snapshotGen[stream]++
	s.snapshots.Delete(key)
	s.genMu.Unlock()

	s.inflight.Forget(key)
	metrics.RecordSnapshotCache("invalidated")
}

// HandleAppended is the event bus consumer that keeps snapshots fresh.
func (s *Service) HandleAppended(_ context.Context, ev eventbus.AppendedEvent) error {
	if ev.StreamType.Valid() {
		s.InvalidateSnapshot(ev.StreamType)
	}
	return nil
}

// Ready reports whether the presence store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()
	return s.tracker.Ping(ctx)
}

// degradedRead runs fn under the read timeout and breaker. On success the
// result is remembered under key; on failure the remembered value, or empty,
// is returned instead.
func degradedRead[T any](ctx context.Context, s *Service, op, key string, empty T, fn func(context.Context) (T, error)) T {
	readCtx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	result, err := s.breaker.Execute(func() (any, error) {
		return fn(readCtx)
	})
	if err == nil {
		v := result.(T)
		s.fallback.Set(key, v)
		return v
	}

	metrics.RecordDegradedRead(op)
	event := logging.CtxWarn(ctx).Err(err).Str("operation", op).Str("key", key)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		event = event.Bool("breaker_open", true)
	}

	if cached, ok := s.fallback.Get(key); ok {
		event.Msg("Read degraded, serving last known value")
		return cached.(T)
	}
	event.Msg("Read degraded, no last known value")
	return empty
}
