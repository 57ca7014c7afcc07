// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/onair/internal/metrics"
	"github.com/tomtom215/onair/internal/session"
)

type limiterClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *limiterClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *limiterClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(perSecond float64, burst int) (*SessionRateLimiter, *limiterClock) {
	clock := &limiterClock{now: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)}
	rl := NewSessionRateLimiter(perSecond, burst, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	rl.now = clock.Now
	return rl, clock
}

func TestSessionRateLimiterAllow(t *testing.T) {
	rl, clock := newTestLimiter(1, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("session:a") {
			t.Fatalf("request %d within burst was rejected", i+1)
		}
	}
	if rl.Allow("session:a") {
		t.Error("request beyond burst was allowed")
	}
	if !rl.Allow("session:b") {
		t.Error("other session was throttled")
	}

	clock.Advance(time.Second)
	if !rl.Allow("session:a") {
		t.Error("request after refill was rejected")
	}
}

func TestSessionRateLimiterMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(1, 1)
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/live-reactions", nil)
		if token != "" {
			req = req.WithContext(session.WithToken(req.Context(), token))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	before := testutil.ToFloat64(metrics.SessionRateLimited)

	if code := send("listener-1"); code != http.StatusCreated {
		t.Fatalf("first submission status = %d, want 201", code)
	}
	if code := send("listener-1"); code != http.StatusTooManyRequests {
		t.Fatalf("second submission status = %d, want 429", code)
	}
	if code := send("listener-2"); code != http.StatusCreated {
		t.Errorf("other session status = %d, want 201", code)
	}
	// No session: keyed by remote address (httptest uses 192.0.2.1).
	if code := send(""); code != http.StatusCreated {
		t.Errorf("anonymous first submission status = %d, want 201", code)
	}
	if code := send(""); code != http.StatusTooManyRequests {
		t.Errorf("anonymous second submission status = %d, want 429", code)
	}

	if got := testutil.ToFloat64(metrics.SessionRateLimited) - before; got != 2 {
		t.Errorf("rate limited counter increased by %v, want 2", got)
	}
}

func TestSessionRateLimiterKeysMintedTokensByIP(t *testing.T) {
	rl, _ := newTestLimiter(1, 2)
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	accepted := 0
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/live-reactions", nil)
		req = req.WithContext(session.WithIssuedToken(req.Context(), session.NewToken()))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusCreated {
			accepted++
		}
	}

	if accepted != 2 {
		t.Errorf("accepted %d submissions with fresh minted tokens, want burst of 2", accepted)
	}
	if rl.Len() != 1 {
		t.Errorf("tracked %d limiters, want 1 (shared IP bucket)", rl.Len())
	}
}

func TestSessionRateLimiterDefaults(t *testing.T) {
	rl := NewSessionRateLimiter(0, 0, nil)
	defer rl.Stop()

	for i := 0; i < DefaultSubmitBurst; i++ {
		if !rl.Allow("k") {
			t.Fatalf("request %d within default burst rejected", i+1)
		}
	}

	rec := httptest.NewRecorder()
	rl.onLimited(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("default onLimited status = %d, want 429", rec.Code)
	}
}

func TestSessionRateLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter(1, 1)
	defer rl.Stop()

	rl.Allow("old")
	clock.Advance(2 * time.Hour)
	rl.Allow("fresh")

	rl.cleanup()
	if rl.Len() != 1 {
		t.Errorf("Len() = %d after cleanup, want 1", rl.Len())
	}

	rl.StartCleanup(time.Millisecond)
	rl.Stop()
	rl.Stop()
}
