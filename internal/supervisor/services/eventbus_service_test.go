// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/onair/internal/eventbus"
)

type fakeBus struct {
	err   error
	block bool
}

func (f *fakeBus) Run(ctx context.Context) error {
	if f.block {
		<-ctx.Done()
		return nil
	}
	return f.err
}

func TestEventBusServiceServe(t *testing.T) {
	t.Run("cancel is a clean stop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- NewEventBusService(&fakeBus{block: true}).Serve(ctx) }()
		cancel()

		if err := <-errCh; !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	})

	t.Run("router error is wrapped", func(t *testing.T) {
		runErr := errors.New("subscribe failed")
		err := NewEventBusService(&fakeBus{err: runErr}).Serve(context.Background())
		if !errors.Is(err, runErr) {
			t.Errorf("Serve() = %v, want wrapped router error", err)
		}
	})

	t.Run("unexpected stop is a failure", func(t *testing.T) {
		err := NewEventBusService(&fakeBus{}).Serve(context.Background())
		if err == nil || !strings.Contains(err.Error(), "stopped unexpectedly") {
			t.Errorf("Serve() = %v, want unexpected stop error", err)
		}
	})
}

func TestEventBusServiceRunsRealBus(t *testing.T) {
	bus, err := eventbus.New(eventbus.DefaultConfig())
	if err != nil {
		t.Fatalf("eventbus.New: %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })

	// A router with no handlers stops on its own.
	bus.OnAppended("noop", func(context.Context, eventbus.AppendedEvent) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- NewEventBusService(bus).Serve(ctx) }()

	select {
	case <-bus.Running():
	case <-time.After(2 * time.Second):
		t.Fatal("bus router did not start")
	}
	if !bus.IsRunning() {
		t.Error("IsRunning() = false while serving")
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestEventBusServiceRestartsOnSameBus(t *testing.T) {
	bus, err := eventbus.New(eventbus.DefaultConfig())
	if err != nil {
		t.Fatalf("eventbus.New: %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })
	bus.OnAppended("noop", func(context.Context, eventbus.AppendedEvent) error { return nil })

	svc := NewEventBusService(bus)
	for round := 1; round <= 2; round++ {
		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		select {
		case <-bus.Running():
		case <-time.After(2 * time.Second):
			cancel()
			t.Fatalf("round %d: bus router did not start", round)
		}

		cancel()
		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("round %d: Serve() = %v, want context.Canceled", round, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("round %d: Serve did not return", round)
		}
	}
}
