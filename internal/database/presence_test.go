// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/onair/internal/models"
)

// baseTime has microsecond precision so it survives a DuckDB TIMESTAMP round trip.
var baseTime = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func TestPresenceUpsertCreatesAndUpdates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rec, created, err := db.Upsert(ctx, "s1", models.StreamTV, baseTime, true)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if !created {
		t.Error("first Upsert() should report created")
	}
	if rec.ID == "" {
		t.Error("record ID should be set")
	}
	if !rec.JoinedAt.Equal(baseTime) || !rec.LastSeenAt.Equal(baseTime) {
		t.Errorf("timestamps = (%v, %v), want both %v", rec.JoinedAt, rec.LastSeenAt, baseTime)
	}

	later := baseTime.Add(10 * time.Second)
	rec2, created, err := db.Upsert(ctx, "s1", models.StreamTV, later, false)
	if err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	if created {
		t.Error("second Upsert() should not report created")
	}
	if rec2.ID != rec.ID {
		t.Errorf("ID changed from %s to %s", rec.ID, rec2.ID)
	}
	if !rec2.JoinedAt.Equal(baseTime) {
		t.Errorf("heartbeat changed JoinedAt to %v", rec2.JoinedAt)
	}
	if !rec2.LastSeenAt.Equal(later) {
		t.Errorf("LastSeenAt = %v, want %v", rec2.LastSeenAt, later)
	}

	rejoin := baseTime.Add(20 * time.Second)
	rec3, _, err := db.Upsert(ctx, "s1", models.StreamTV, rejoin, true)
	if err != nil {
		t.Fatalf("rejoin Upsert() error = %v", err)
	}
	if !rec3.JoinedAt.Equal(rejoin) {
		t.Errorf("rejoin JoinedAt = %v, want %v", rec3.JoinedAt, rejoin)
	}

	count, err := db.CountSince(ctx, models.StreamTV, baseTime)
	if err != nil {
		t.Fatalf("CountSince() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountSince() = %d, want 1 (one record per session and stream)", count)
	}
}

func TestPresenceLastSeenNeverMovesBackwards(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	newer := baseTime.Add(time.Millisecond)
	if _, _, err := db.Upsert(ctx, "s1", models.StreamRadio, newer, false); err != nil {
		t.Fatalf("Upsert(newer) error = %v", err)
	}
	rec, _, err := db.Upsert(ctx, "s1", models.StreamRadio, baseTime, false)
	if err != nil {
		t.Fatalf("Upsert(older) error = %v", err)
	}
	if !rec.LastSeenAt.Equal(newer) {
		t.Errorf("LastSeenAt = %v, want %v", rec.LastSeenAt, newer)
	}
}

func TestPresenceConcurrentHeartbeats(t *testing.T) {
	db := setupTestDB(t)
	db.maxRetries = 20
	ctx := context.Background()

	if _, _, err := db.Upsert(ctx, "s1", models.StreamTV, baseTime, true); err != nil {
		t.Fatalf("join: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ts := baseTime.Add(time.Duration(i) * time.Millisecond)
			if _, _, err := db.Upsert(ctx, "s1", models.StreamTV, ts, false); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Upsert() error = %v", err)
	}

	rec, err := db.Get(ctx, "s1", models.StreamTV)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec == nil {
		t.Fatal("Get() returned nil record")
	}
	want := baseTime.Add((workers - 1) * time.Millisecond)
	if !rec.LastSeenAt.Equal(want) {
		t.Errorf("LastSeenAt = %v, want max %v", rec.LastSeenAt, want)
	}

	n, err := db.CountSince(ctx, models.StreamTV, baseTime.Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountSince() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountSince() = %d, want exactly 1 record", n)
	}
}

func TestPresenceStreamsAreIndependent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, stream := range models.AllStreams() {
		if _, _, err := db.Upsert(ctx, "shared", stream, baseTime, true); err != nil {
			t.Fatalf("Upsert(%s) error = %v", stream, err)
		}
	}
	if _, _, err := db.Upsert(ctx, "tv-only", models.StreamTV, baseTime, true); err != nil {
		t.Fatalf("Upsert error = %v", err)
	}

	tests := []struct {
		stream models.StreamType
		want   int
	}{
		{models.StreamTV, 2},
		{models.StreamRadio, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.stream), func(t *testing.T) {
			got, err := db.CountSince(ctx, tt.stream, baseTime)
			if err != nil {
				t.Fatalf("CountSince() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CountSince() = %d, want %d", got, tt.want)
			}
		})
	}

	if err := db.Delete(ctx, "shared", models.StreamTV); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got, _ := db.CountSince(ctx, models.StreamRadio, baseTime); got != 1 {
		t.Errorf("radio count after tv leave = %d, want 1", got)
	}
}

func TestPresenceCountCutoff(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, _, err := db.Upsert(ctx, "stale", models.StreamTV, baseTime, true); err != nil {
		t.Fatal(err)
	}
	if _, _, err := db.Upsert(ctx, "fresh", models.StreamTV, baseTime.Add(60*time.Second), true); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		cutoff time.Time
		want   int
	}{
		{"before both", baseTime.Add(-time.Second), 2},
		{"exactly at stale", baseTime, 2},
		{"after stale", baseTime.Add(time.Second), 1},
		{"after both", baseTime.Add(61 * time.Second), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.CountSince(ctx, models.StreamTV, tt.cutoff)
			if err != nil {
				t.Fatalf("CountSince() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CountSince() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPresenceDeleteAndGet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rec, err := db.Get(ctx, "nobody", models.StreamTV)
	if err != nil {
		t.Fatalf("Get() on absent error = %v", err)
	}
	if rec != nil {
		t.Errorf("Get() on absent = %+v, want nil", rec)
	}

	if err := db.Delete(ctx, "nobody", models.StreamTV); err != nil {
		t.Errorf("Delete() on absent error = %v, want nil", err)
	}

	if _, _, err := db.Upsert(ctx, "s1", models.StreamTV, baseTime, true); err != nil {
		t.Fatal(err)
	}
	if err := db.Delete(ctx, "s1", models.StreamTV); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := db.Delete(ctx, "s1", models.StreamTV); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}
	if rec, _ := db.Get(ctx, "s1", models.StreamTV); rec != nil {
		t.Errorf("Get() after Delete = %+v, want nil", rec)
	}
}

func TestPresencePurgeBefore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i, session := range []string{"a", "b", "c"} {
		ts := baseTime.Add(time.Duration(i) * time.Minute)
		if _, _, err := db.Upsert(ctx, session, models.StreamRadio, ts, true); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := db.PurgeBefore(ctx, baseTime.Add(90*time.Second))
	if err != nil {
		t.Fatalf("PurgeBefore() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("PurgeBefore() removed %d, want 2", removed)
	}

	if rec, _ := db.Get(ctx, "c", models.StreamRadio); rec == nil {
		t.Error("fresh record should survive purge")
	}

	removed, err = db.PurgeBefore(ctx, baseTime.Add(90*time.Second))
	if err != nil {
		t.Fatalf("second PurgeBefore() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("second PurgeBefore() removed %d, want 0", removed)
	}
}
