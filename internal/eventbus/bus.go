// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package eventbus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/onair/internal/logging"
	"github.com/tomtom215/onair/internal/metrics"
	"github.com/tomtom215/onair/internal/models"
)

// TopicEngagementAppended carries an AppendedEvent for every engagement
// event appended or updated.
const TopicEngagementAppended = "engagement.appended"

// AppendedEvent is the payload of TopicEngagementAppended.
type AppendedEvent struct {
	ID         int64             `json:"id"`
	Kind       models.EventKind  `json:"kind"`
	StreamType models.StreamType `json:"stream_type"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Config holds event bus settings.
type Config struct {
	// OutputChannelBuffer is the per-subscriber buffer of the GoChannel pub/sub.
	OutputChannelBuffer int64

	// CloseTimeout is how long Close waits for in-flight handlers.
	CloseTimeout time.Duration

	// Retry configuration for consumer handlers
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		OutputChannelBuffer:  256,
		CloseTimeout:         5 * time.Second,
		RetryMaxRetries:      2,
		RetryInitialInterval: 10 * time.Millisecond,
	}
}

// Bus publishes and routes in-process engagement messages.
//
// A watermill Router cannot be run twice, so each Run that returns leaves a
// fresh router with the same handlers in place for the next one.
type Bus struct {
	cfg     Config
	pubsub  *gochannel.GoChannel
	logger  watermill.LoggerAdapter
	running atomic.Bool

	mu       sync.Mutex
	router   *message.Router
	handlers []handlerRegistration
	closed   bool
}

type handlerRegistration struct {
	name string
	fn   message.NoPublishHandlerFunc
}

// New creates a Bus. Register handlers with OnAppended before calling Run.
func New(cfg Config) (*Bus, error) {
	def := DefaultConfig()
	if cfg.OutputChannelBuffer <= 0 {
		cfg.OutputChannelBuffer = def.OutputChannelBuffer
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = def.CloseTimeout
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = def.RetryInitialInterval
	}

	logger := watermill.NewSlogLogger(logging.NewComponentSlogLogger("eventbus"))

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.OutputChannelBuffer,
	}, logger)

	b := &Bus{cfg: cfg, pubsub: pubsub, logger: logger}
	router, err := b.newRouter()
	if err != nil {
		return nil, err
	}
	b.router = router
	return b, nil
}

// newRouter builds a router carrying every registered handler.
func (b *Bus) newRouter() (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: b.cfg.CloseTimeout}, b.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      b.cfg.RetryMaxRetries,
		InitialInterval: b.cfg.RetryInitialInterval,
		Logger:          b.logger,
	}
	router.AddMiddleware(retry.Middleware)

	for _, h := range b.handlers {
		router.AddConsumerHandler(h.name, TopicEngagementAppended, b.pubsub, h.fn)
	}
	return router, nil
}

// NotifyAppended publishes e on TopicEngagementAppended.
func (b *Bus) NotifyAppended(ctx context.Context, e *models.EngagementEvent) error {
	payload, err := json.Marshal(AppendedEvent{
		ID:         e.ID,
		Kind:       e.Kind,
		StreamType: e.StreamType,
		CreatedAt:  e.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal appended event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("stream_type", string(e.StreamType))
	msg.Metadata.Set("kind", string(e.Kind))
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}

	if err := b.pubsub.Publish(TopicEngagementAppended, msg); err != nil {
		return fmt.Errorf("publish %s: %w", TopicEngagementAppended, err)
	}
	metrics.RecordEventBusMessage(TopicEngagementAppended, "published")
	return nil
}

// OnAppended registers fn as a consumer of TopicEngagementAppended under the
// unique handler name. It must be called before Run.
func (b *Bus) OnAppended(name string, fn func(ctx context.Context, ev AppendedEvent) error) {
	handler := func(msg *message.Message) error {
		var ev AppendedEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			// A malformed payload will never decode; drop it rather than retry.
			logging.Warn().Err(err).Str("handler", name).Msg("Dropping undecodable event bus message")
			return nil
		}
		metrics.RecordEventBusMessage(TopicEngagementAppended, "consumed")

		ctx := msg.Context()
		if id := msg.Metadata.Get("correlation_id"); id != "" {
			ctx = logging.ContextWithCorrelationID(ctx, id)
		}
		return fn(ctx, ev)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handlerRegistration{name: name, fn: handler})
	b.router.AddConsumerHandler(name, TopicEngagementAppended, b.pubsub, handler)
}

// Run starts the router and blocks until ctx is canceled or Close is called.
// Run may be called again after it returns, unless the Bus was closed.
func (b *Bus) Run(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("event bus closed")
	}
	router := b.router
	b.mu.Unlock()

	b.running.Store(true)
	err := router.Run(ctx)
	b.running.Store(false)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		fresh, rerr := b.newRouter()
		if rerr != nil {
			logging.Error().Err(rerr).Msg("Failed to rebuild event bus router")
			if err == nil {
				err = rerr
			}
		} else {
			b.router = fresh
		}
	}
	return err
}

// Running returns a channel closed once the current router's handlers are
// subscribed.
func (b *Bus) Running() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.router.Running()
}

// IsRunning reports whether Run is active.
func (b *Bus) IsRunning() bool {
	return b.running.Load()
}

// Close stops the router and the pub/sub.
func (b *Bus) Close() error {
	b.mu.Lock()
	b.closed = true
	router := b.router
	b.mu.Unlock()

	routerErr := router.Close()
	pubsubErr := b.pubsub.Close()
	if routerErr != nil {
		return routerErr
	}
	return pubsubErr
}
