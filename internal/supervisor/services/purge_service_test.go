// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakePurger struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (f *fakePurger) Purge(ctx context.Context) (int, error) {
	f.calls.Add(1)
	if f.fail.Load() {
		return 0, errors.New("store unavailable")
	}
	return 2, nil
}

func waitForCalls(t *testing.T, f *fakePurger, n int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for f.calls.Load() < n {
		if time.Now().After(deadline) {
			t.Fatalf("purge called %d times, want at least %d", f.calls.Load(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPresencePurgeServiceTicks(t *testing.T) {
	purger := &fakePurger{}
	svc := NewPresencePurgeService(purger, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	waitForCalls(t, purger, 3)
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}

func TestPresencePurgeServiceSurvivesFailures(t *testing.T) {
	purger := &fakePurger{}
	purger.fail.Store(true)
	svc := NewPresencePurgeService(purger, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	waitForCalls(t, purger, 3)

	select {
	case err := <-errCh:
		t.Fatalf("Serve returned early: %v", err)
	default:
	}
}

func TestNewPresencePurgeServiceDefaultInterval(t *testing.T) {
	svc := NewPresencePurgeService(&fakePurger{}, 0)
	if svc.interval != DefaultPurgeInterval {
		t.Errorf("interval = %v, want %v", svc.interval, DefaultPurgeInterval)
	}
	if svc.String() != "presence-purge" {
		t.Errorf("String() = %q", svc.String())
	}
}
