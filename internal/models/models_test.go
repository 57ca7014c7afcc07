// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestParseStreamType(t *testing.T) {
	tests := []struct {
		input   string
		want    StreamType
		wantErr bool
	}{
		{"tv", StreamTV, false},
		{"radio", StreamRadio, false},
		{" TV ", StreamTV, false},
		{"Radio", StreamRadio, false},
		{"", "", true},
		{"podcast", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStreamType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStreamType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr && !IsValidation(err) {
				t.Errorf("expected ValidationError, got %T", err)
			}
			if got != tt.want {
				t.Errorf("ParseStreamType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPresenceRecordIsLive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	timeout := 90 * time.Second

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"fresh", 0, true},
		{"ten seconds", 10 * time.Second, true},
		{"exactly at timeout", timeout, true},
		{"just past timeout", timeout + time.Millisecond, false},
		{"ninety five seconds", 95 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := PresenceRecord{LastSeenAt: now.Add(-tt.age)}
			if got := rec.IsLive(now, timeout); got != tt.want {
				t.Errorf("IsLive() with age %v = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

func TestKindAndStatusValid(t *testing.T) {
	for _, k := range []EventKind{KindReaction, KindComment, KindSongRequest} {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
	}
	if EventKind("poll").Valid() {
		t.Error("unknown kind should be invalid")
	}
	for _, s := range []SongRequestStatus{SongRequestPending, SongRequestQueued, SongRequestPlayed, SongRequestRejected} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if SongRequestStatus("skipped").Valid() {
		t.Error("unknown status should be invalid")
	}
}

func TestNewSongRequestDefaults(t *testing.T) {
	ev := NewSongRequest(StreamRadio, "s1", "X", nil, "Bob")
	if ev.Status != SongRequestPending {
		t.Errorf("Status = %q, want pending", ev.Status)
	}
	if ev.Priority != 0 {
		t.Errorf("Priority = %d, want 0", ev.Priority)
	}
}

func TestEngagementEventJSONHidesSession(t *testing.T) {
	ev := NewComment(StreamTV, "secret-session", "Ann", "hello")
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(data); strings.Contains(got, "secret-session") {
		t.Errorf("session token leaked into JSON: %s", got)
	}
	if got := string(data); strings.Contains(got, "emoji") {
		t.Errorf("empty reaction field serialized: %s", got)
	}
}

func TestStoreError(t *testing.T) {
	cause := context.DeadlineExceeded
	err := StoreError("count presence", cause)

	if !errors.Is(err, ErrStoreUnavailable) {
		t.Error("expected ErrStoreUnavailable")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected cause to remain reachable")
	}
	if StoreError("noop", nil) != nil {
		t.Error("StoreError(nil) should be nil")
	}

	// Wrapping twice does not nest the sentinel.
	again := StoreError("outer", err)
	if again != err {
		t.Errorf("expected already-wrapped error to pass through, got %v", again)
	}
	if IsValidation(fmt.Errorf("wrap: %w", err)) {
		t.Error("store error must not be a validation error")
	}

	notFound := fmt.Errorf("song request 7: %w", ErrNotFound)
	if got := StoreError("update", notFound); errors.Is(got, ErrStoreUnavailable) {
		t.Error("ErrNotFound must not be reported as unavailable")
	}
	ve := NewValidationError("emoji", "is required")
	if got := StoreError("append", ve); got != error(ve) {
		t.Errorf("validation error should pass through, got %v", got)
	}
}

func TestReactionTallyTotal(t *testing.T) {
	tally := ReactionTally{"❤️": 2, "🔥": 3}
	if got := tally.Total(); got != 5 {
		t.Errorf("Total() = %d, want 5", got)
	}
}

func TestEngagementEventJSONKeys(t *testing.T) {
	artist := "Nina"
	created := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	request := NewSongRequest(StreamRadio, "secret-session", "Heroes", &artist, "Cy")
	request.Priority = 3

	tests := []struct {
		name    string
		event   *EngagementEvent
		want    []string
		notWant []string
	}{
		{
			name:    "reaction",
			event:   NewReaction(StreamTV, "secret-session", "🔥"),
			want:    []string{`"streamType":"tv"`, `"createdAt":`, `"emoji":"🔥"`},
			notWant: []string{"priority", "secret-session", "stream_type"},
		},
		{
			name:    "comment",
			event:   NewComment(StreamTV, "secret-session", "Ana", "hi"),
			want:    []string{`"authorDisplayName":"Ana"`, `"message":"hi"`},
			notWant: []string{"priority", "author_display_name"},
		},
		{
			name:    "song request",
			event:   request,
			want:    []string{`"requesterName":"Cy"`, `"priority":3`, `"status":"pending"`},
			notWant: []string{"requester_name", "secret-session"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.event.CreatedAt = created
			data, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			body := string(data)
			for _, key := range tt.want {
				if !strings.Contains(body, key) {
					t.Errorf("%s missing %s", body, key)
				}
			}
			for _, key := range tt.notWant {
				if strings.Contains(body, key) {
					t.Errorf("%s should not contain %s", body, key)
				}
			}
		})
	}
}
