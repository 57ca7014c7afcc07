// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tomtom215/onair/internal/config"
	"github.com/tomtom215/onair/internal/logging"
	"github.com/tomtom215/onair/internal/metrics"
	"github.com/tomtom215/onair/internal/models"
	"github.com/tomtom215/onair/internal/session"
)

// Field limits, in runes.
const (
	MaxAuthorLength    = 50
	MaxMessageLength   = 500
	MaxTitleLength     = 200
	MaxArtistLength    = 200
	MaxRequesterLength = 100

	MinPriority = -100
	MaxPriority = 100

	// AnonymousAuthor replaces an empty comment author display name.
	AnonymousAuthor = "Anonymous"
)

// Defaults used when the corresponding config value is unset.
const (
	DefaultTallyWindow = 60 * time.Second
	DefaultLimit       = 50
	DefaultMaxLimit    = 200
)

// Log validates engagement events and appends them to a Store.
type Log struct {
	store        Store
	vocab        *Vocabulary
	notifier     Notifier
	now          func() time.Time
	tallyWindow  time.Duration
	defaultLimit int
	maxLimit     int
	logger       zerolog.Logger
}

// Option configures a Log.
type Option func(*Log)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// WithNotifier sets the Notifier told about appended events.
func WithNotifier(n Notifier) Option {
	return func(l *Log) {
		l.notifier = n
	}
}

// NewLog creates a Log over store.
func NewLog(store Store, cfg config.EngagementConfig, opts ...Option) *Log {
	l := &Log{
		store:        store,
		vocab:        NewVocabulary(cfg),
		now:          time.Now,
		tallyWindow:  cfg.TallyWindow,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
		logger:       logging.WithComponent("engagement"),
	}
	if l.tallyWindow <= 0 {
		l.tallyWindow = DefaultTallyWindow
	}
	if l.maxLimit <= 0 {
		l.maxLimit = DefaultMaxLimit
	}
	if l.defaultLimit <= 0 || l.defaultLimit > l.maxLimit {
		l.defaultLimit = min(DefaultLimit, l.maxLimit)
	}

	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Vocabulary returns the per-stream reaction vocabulary.
func (l *Log) Vocabulary() *Vocabulary { return l.vocab }

// TallyWindow returns the default tally window.
func (l *Log) TallyWindow() time.Duration { return l.tallyWindow }

// ClampLimit maps a requested page size onto [1, max], with non-positive
// values selecting the default.
func (l *Log) ClampLimit(limit int) int {
	if limit <= 0 {
		return l.defaultLimit
	}
	if limit > l.maxLimit {
		return l.maxLimit
	}
	return limit
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func tooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}

// normalize validates e and applies defaults. Submitted text is stored as
// sent; surrounding whitespace only matters for the emptiness checks.
func (l *Log) normalize(e *models.EngagementEvent) error {
	if !e.Kind.Valid() {
		return models.NewValidationError("kind", "must be one of: reaction, comment, song_request")
	}
	if !e.StreamType.Valid() {
		return models.NewValidationError("streamType", "must be one of: tv, radio")
	}
	if err := session.Validate(e.SessionToken); err != nil {
		return err
	}

	switch e.Kind {
	case models.KindReaction:
		// Exact match only: a padded emoji would split the tally.
		if strings.TrimSpace(e.Emoji) == "" {
			return models.NewValidationError("emoji", "is required")
		}
		if !l.vocab.Allowed(e.StreamType, e.Emoji) {
			return models.NewValidationError("emoji", fmt.Sprintf("is not an allowed reaction on %s", e.StreamType))
		}

	case models.KindComment:
		if isBlank(e.AuthorDisplayName) {
			e.AuthorDisplayName = AnonymousAuthor
		}
		if tooLong(e.AuthorDisplayName, MaxAuthorLength) {
			return models.NewValidationError("username", fmt.Sprintf("must be at most %d characters", MaxAuthorLength))
		}
		if isBlank(e.Message) {
			return models.NewValidationError("message", "is required")
		}
		if tooLong(e.Message, MaxMessageLength) {
			return models.NewValidationError("message", fmt.Sprintf("must be at most %d characters", MaxMessageLength))
		}

	case models.KindSongRequest:
		if isBlank(e.Title) {
			return models.NewValidationError("songTitle", "is required")
		}
		if tooLong(e.Title, MaxTitleLength) {
			return models.NewValidationError("songTitle", fmt.Sprintf("must be at most %d characters", MaxTitleLength))
		}
		if e.Artist != nil {
			if isBlank(*e.Artist) {
				e.Artist = nil
			} else if tooLong(*e.Artist, MaxArtistLength) {
				return models.NewValidationError("artistName", fmt.Sprintf("must be at most %d characters", MaxArtistLength))
			}
		}
		if isBlank(e.RequesterName) {
			return models.NewValidationError("requesterName", "is required")
		}
		if tooLong(e.RequesterName, MaxRequesterLength) {
			return models.NewValidationError("requesterName", fmt.Sprintf("must be at most %d characters", MaxRequesterLength))
		}
		if e.Status == "" {
			e.Status = models.SongRequestPending
		}
		if !e.Status.Valid() {
			return models.NewValidationError("status", "must be one of: pending, queued, played, rejected")
		}
		e.Priority = ClampPriority(e.Priority)
	}
	return nil
}

// ClampPriority bounds p to [MinPriority, MaxPriority].
func ClampPriority(p int) int {
	return max(MinPriority, min(MaxPriority, p))
}

// Append validates e, stamps CreatedAt, persists it and returns the new id.
// e is updated in place with the normalized fields and the assigned id.
func (l *Log) Append(ctx context.Context, e *models.EngagementEvent) (int64, error) {
	if e == nil {
		return 0, models.NewValidationError("", "event is required")
	}
	if err := l.normalize(e); err != nil {
		var (
			ve    *models.ValidationError
			field string
		)
		if errors.As(err, &ve) {
			field = ve.Field
		}
		metrics.RecordEngagementRejected(string(e.Kind), field)
		return 0, err
	}

	e.CreatedAt = l.now().UTC()
	id, err := l.store.InsertEvent(ctx, e)
	if err != nil {
		return 0, models.StoreError("engagement append", err)
	}
	e.ID = id
	metrics.RecordEngagementEvent(string(e.Kind), string(e.StreamType))

	if l.notifier != nil {
		if err := l.notifier.NotifyAppended(ctx, e); err != nil {
			l.logger.Warn().Err(err).
				Int64("id", id).
				Str("kind", string(e.Kind)).
				Str("stream", string(e.StreamType)).
				Msg("Failed to publish engagement event")
		}
	}
	return id, nil
}

// Recent returns up to limit events for stream, newest first. A nil kind
// returns every kind.
func (l *Log) Recent(ctx context.Context, stream models.StreamType, kind *models.EventKind, limit int) ([]models.EngagementEvent, error) {
	if !stream.Valid() {
		return nil, models.NewValidationError("streamType", "must be one of: tv, radio")
	}
	if kind != nil && !kind.Valid() {
		return nil, models.NewValidationError("kind", "must be one of: reaction, comment, song_request")
	}

	events, err := l.store.RecentEvents(ctx, stream, kind, l.ClampLimit(limit))
	if err != nil {
		return nil, models.StoreError("engagement recent", err)
	}
	return events, nil
}

// Tally counts reactions on stream per emoji over the trailing window. A
// non-positive window selects the configured default.
func (l *Log) Tally(ctx context.Context, stream models.StreamType, window time.Duration) (models.ReactionTally, error) {
	if !stream.Valid() {
		return nil, models.NewValidationError("streamType", "must be one of: tv, radio")
	}
	if window <= 0 {
		window = l.tallyWindow
	}

	now := l.now()
	tally, err := l.store.TallyReactions(ctx, stream, now.Add(-window), now)
	if err != nil {
		return nil, models.StoreError("engagement tally", err)
	}
	return models.ReactionTally(tally), nil
}

// UpdateSongRequestStatus sets the status of song request id, and its
// priority when non-nil. It returns models.ErrNotFound for an unknown id.
func (l *Log) UpdateSongRequestStatus(ctx context.Context, id int64, status models.SongRequestStatus, priority *int) (*models.EngagementEvent, error) {
	if id <= 0 {
		return nil, models.NewValidationError("id", "must be a positive integer")
	}
	if !status.Valid() {
		return nil, models.NewValidationError("status", "must be one of: pending, queued, played, rejected")
	}
	if priority != nil {
		p := ClampPriority(*priority)
		priority = &p
	}

	updated, err := l.store.UpdateSongRequest(ctx, id, status, priority)
	if err != nil {
		return nil, models.StoreError("song request update", err)
	}
	l.logger.Info().
		Int64("id", id).
		Str("status", string(status)).
		Int("priority", updated.Priority).
		Msg("Song request updated")

	if l.notifier != nil {
		if err := l.notifier.NotifyAppended(ctx, updated); err != nil {
			l.logger.Warn().Err(err).Int64("id", id).Msg("Failed to publish song request update")
		}
	}
	return updated, nil
}

// ListSongRequests returns song requests for stream in queue order.
func (l *Log) ListSongRequests(ctx context.Context, stream models.StreamType, limit int) ([]models.EngagementEvent, error) {
	if !stream.Valid() {
		return nil, models.NewValidationError("streamType", "must be one of: tv, radio")
	}

	requests, err := l.store.ListSongRequests(ctx, stream, nil, l.ClampLimit(limit))
	if err != nil {
		return nil, models.StoreError("song request list", err)
	}
	return requests, nil
}
