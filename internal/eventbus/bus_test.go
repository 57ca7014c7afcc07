// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/onair/internal/models"
)

func startBus(t *testing.T, bus *Bus) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Run(ctx) }()

	select {
	case <-bus.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}

	t.Cleanup(func() {
		cancel()
		_ = bus.Close()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("router did not stop")
		}
	})
}

func TestNotifyAppendedDelivers(t *testing.T) {
	bus, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	received := make(chan AppendedEvent, 1)
	bus.OnAppended("test", func(_ context.Context, ev AppendedEvent) error {
		received <- ev
		return nil
	})
	startBus(t, bus)

	if !bus.IsRunning() {
		t.Error("IsRunning() = false after start")
	}

	created := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	e := &models.EngagementEvent{ID: 42, Kind: models.KindComment, StreamType: models.StreamRadio, CreatedAt: created}
	if err := bus.NotifyAppended(context.Background(), e); err != nil {
		t.Fatalf("NotifyAppended() error = %v", err)
	}

	select {
	case ev := <-received:
		if ev.ID != 42 || ev.Kind != models.KindComment || ev.StreamType != models.StreamRadio {
			t.Errorf("received %+v", ev)
		}
		if !ev.CreatedAt.Equal(created) {
			t.Errorf("CreatedAt = %v, want %v", ev.CreatedAt, created)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestNotifyWithoutSubscribersIsNotAnError(t *testing.T) {
	bus, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer bus.Close()

	e := &models.EngagementEvent{ID: 1, Kind: models.KindReaction, StreamType: models.StreamTV}
	if err := bus.NotifyAppended(context.Background(), e); err != nil {
		t.Errorf("NotifyAppended() error = %v", err)
	}
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	bus, err := New(Config{RetryMaxRetries: 0})
	if err != nil {
		t.Fatal(err)
	}

	calls := make(chan struct{}, 10)
	bus.OnAppended("panicky", func(_ context.Context, ev AppendedEvent) error {
		calls <- struct{}{}
		if ev.ID == 1 {
			panic("boom")
		}
		return nil
	})
	startBus(t, bus)

	for _, id := range []int64{1, 2} {
		e := &models.EngagementEvent{ID: id, Kind: models.KindReaction, StreamType: models.StreamTV}
		if err := bus.NotifyAppended(context.Background(), e); err != nil {
			t.Fatal(err)
		}
	}

	// The second message still arrives after the first handler panicked.
	deadline := time.After(5 * time.Second)
	for seen := 0; seen < 2; {
		select {
		case <-calls:
			seen++
		case <-deadline:
			t.Fatalf("saw %d handler calls, want at least 2", seen)
		}
	}
}

func TestRunAgainAfterStop(t *testing.T) {
	bus, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = bus.Close() })

	received := make(chan int64, 1)
	bus.OnAppended("restartable", func(_ context.Context, ev AppendedEvent) error {
		received <- ev.ID
		return nil
	})

	first, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Run(first) }()
	select {
	case <-bus.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("first run did not start")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first run did not stop")
	}

	// A supervisor restart calls Run again on the same Bus.
	startBus(t, bus)

	e := &models.EngagementEvent{ID: 7, Kind: models.KindReaction, StreamType: models.StreamTV}
	if err := bus.NotifyAppended(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	select {
	case id := <-received:
		if id != 7 {
			t.Errorf("received ID %d, want 7", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler not subscribed after restart")
	}
}

func TestRunAfterCloseFails(t *testing.T) {
	bus, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := bus.Run(context.Background()); err == nil {
		t.Error("Run() after Close succeeded")
	}
}
