// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/onair/internal/logging"
	"github.com/tomtom215/onair/internal/metrics"
	"github.com/tomtom215/onair/internal/session"
)

// Defaults for the per-session submission limiter.
const (
	DefaultSubmitRate  = 1.0
	DefaultSubmitBurst = 5

	limiterIdleTimeout = time.Hour
)

// SessionRateLimiter throttles submissions per listener session with a token
// bucket. Requests without a client-presented session (including ones whose
// token was minted on this request) are keyed by client IP.
type SessionRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rateLimiterEntry
	rate     rate.Limit
	burst    int
	now      func() time.Time

	onLimited http.HandlerFunc

	stopClean chan struct{}
	stopOnce  sync.Once
}

// rateLimiterEntry wraps a rate limiter with last access time
type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewSessionRateLimiter allows perSecond submissions per session with the
// given burst. onLimited writes the rejection; nil writes a bare 429.
func NewSessionRateLimiter(perSecond float64, burst int, onLimited http.HandlerFunc) *SessionRateLimiter {
	if perSecond <= 0 {
		perSecond = DefaultSubmitRate
	}
	if burst <= 0 {
		burst = DefaultSubmitBurst
	}
	if onLimited == nil {
		onLimited = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
		}
	}
	return &SessionRateLimiter{
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      rate.Limit(perSecond),
		burst:     burst,
		now:       time.Now,
		onLimited: onLimited,
		stopClean: make(chan struct{}),
	}
}

// Allow reports whether key may submit now.
func (rl *SessionRateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	entry, exists := rl.limiters[key]
	if !exists {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.AllowN(now, 1)
}

// Middleware rejects requests whose session has exhausted its bucket.
func (rl *SessionRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := limiterKey(r)
		if !rl.Allow(key) {
			metrics.SessionRateLimited.Inc()
			logging.Ctx(r.Context()).Debug().Str("path", r.URL.Path).Msg("Submission rate limited")
			rl.onLimited(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func limiterKey(r *http.Request) string {
	if token, ok := session.FromContext(r.Context()); ok && !session.Issued(r.Context()) {
		return "session:" + token
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// StartCleanup removes idle limiters every interval until Stop is called.
func (rl *SessionRateLimiter) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stopClean:
				return
			}
		}
	}()
}

// cleanup removes limiters that haven't been used in the last hour
func (rl *SessionRateLimiter) cleanup() {
	threshold := rl.now().Add(-limiterIdleTimeout)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, key)
		}
	}
}

// Len returns the number of tracked sessions.
func (rl *SessionRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *SessionRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopClean) })
}
