// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package engagement

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/onair/internal/config"
	"github.com/tomtom215/onair/internal/models"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.EngagementEvent
	err    error
}

func (n *recordingNotifier) NotifyAppended(_ context.Context, e *models.EngagementEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, *e)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLog(t *testing.T) (*Log, *MemoryStore, *recordingNotifier, *testClock) {
	t.Helper()
	store := NewMemoryStore()
	notifier := &recordingNotifier{}
	clock := &testClock{now: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)}
	cfg := config.EngagementConfig{TallyWindow: 60 * time.Second, DefaultLimit: 50, MaxLimit: 200}
	return NewLog(store, cfg, WithNotifier(notifier), WithClock(clock.Now)), store, notifier, clock
}

func strPtr(s string) *string { return &s }

// Scenario C: two hearts from different sessions tally to 2.
func TestAppendReactionsAndTally(t *testing.T) {
	l, _, notifier, _ := newTestLog(t)
	ctx := context.Background()

	for _, s := range []string{"S1", "S2"} {
		if _, err := l.Append(ctx, models.NewReaction(models.StreamTV, s, "❤️")); err != nil {
			t.Fatalf("Append(%s) error = %v", s, err)
		}
	}

	tally, err := l.Tally(ctx, models.StreamTV, 60*time.Second)
	if err != nil {
		t.Fatalf("Tally() error = %v", err)
	}
	if len(tally) != 1 || tally["❤️"] != 2 {
		t.Errorf("Tally() = %v, want map[❤️:2]", tally)
	}
	if notifier.count() != 2 {
		t.Errorf("notifier saw %d events, want 2", notifier.count())
	}
}

func TestTallyWindow(t *testing.T) {
	l, _, _, clock := newTestLog(t)
	ctx := context.Background()

	if _, err := l.Append(ctx, models.NewReaction(models.StreamRadio, "S1", "🎵")); err != nil {
		t.Fatal(err)
	}
	clock.Advance(61 * time.Second)
	if _, err := l.Append(ctx, models.NewReaction(models.StreamRadio, "S2", "🔥")); err != nil {
		t.Fatal(err)
	}

	tally, err := l.Tally(ctx, models.StreamRadio, 0)
	if err != nil {
		t.Fatalf("Tally() error = %v", err)
	}
	if tally["🎵"] != 0 || tally["🔥"] != 1 {
		t.Errorf("default-window tally = %v", tally)
	}

	wide, err := l.Tally(ctx, models.StreamRadio, 5*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if wide.Total() != 2 {
		t.Errorf("wide tally total = %d, want 2", wide.Total())
	}
}

func TestAppendReactionVocabulary(t *testing.T) {
	l, store, _, _ := newTestLog(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		stream  models.StreamType
		emoji   string
		wantErr bool
	}{
		{"tv heart", models.StreamTV, "❤️", false},
		{"tv laugh", models.StreamTV, "😂", false},
		{"radio note", models.StreamRadio, "🎵", false},
		{"radio rejects tv-only", models.StreamRadio, "😂", true},
		{"tv rejects radio-only", models.StreamTV, "💃", true},
		{"unknown", models.StreamTV, "🦄", true},
		{"empty", models.StreamTV, "  ", true},
		{"padded emoji is not in the vocabulary", models.StreamTV, " ❤️ ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Append(ctx, models.NewReaction(tt.stream, "S1", tt.emoji))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Append() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !models.IsValidation(err) {
				t.Errorf("error %v is not a ValidationError", err)
			}
		})
	}

	// Rejected events are not persisted.
	all, _ := store.RecentEvents(ctx, models.StreamTV, nil, 100)
	radio, _ := store.RecentEvents(ctx, models.StreamRadio, nil, 100)
	if len(all)+len(radio) != 3 {
		t.Errorf("stored %d events, want 3", len(all)+len(radio))
	}
}

func TestAppendComment(t *testing.T) {
	l, _, _, clock := newTestLog(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		author     string
		message    string
		wantErr    bool
		wantAuthor string
		wantMsg    string
	}{
		{"normal", "Ada", "hello", false, "Ada", "hello"},
		{"kept verbatim", "  Ada ", "  hi there  ", false, "  Ada ", "  hi there  "},
		{"anonymous", "", "hi", false, AnonymousAuthor, "hi"},
		{"whitespace author", "   ", "hi", false, AnonymousAuthor, "hi"},
		{"empty message", "Ada", "", true, "", ""},
		{"whitespace message", "Ada", "   ", true, "", ""},
		{"message at limit", "Ada", strings.Repeat("é", MaxMessageLength), false, "Ada", strings.Repeat("é", MaxMessageLength)},
		{"message too long", "Ada", strings.Repeat("a", MaxMessageLength+1), true, "", ""},
		{"author too long", strings.Repeat("a", MaxAuthorLength+1), "hi", true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := models.NewComment(models.StreamTV, "S1", tt.author, tt.message)
			id, err := l.Append(ctx, e)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Append() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !models.IsValidation(err) {
					t.Errorf("error %v is not a ValidationError", err)
				}
				return
			}
			if id <= 0 || e.ID != id {
				t.Errorf("id = %d, e.ID = %d", id, e.ID)
			}
			if e.AuthorDisplayName != tt.wantAuthor || e.Message != tt.wantMsg {
				t.Errorf("normalized = (%q, %q), want (%q, %q)", e.AuthorDisplayName, e.Message, tt.wantAuthor, tt.wantMsg)
			}
			if !e.CreatedAt.Equal(clock.Now()) {
				t.Errorf("CreatedAt = %v, want %v", e.CreatedAt, clock.Now())
			}
		})
	}
}

// Scenario D: a new song request lists as pending with priority 0.
func TestAppendSongRequestDefaults(t *testing.T) {
	l, _, _, _ := newTestLog(t)
	ctx := context.Background()

	if _, err := l.Append(ctx, models.NewSongRequest(models.StreamRadio, "S1", "X", nil, "Bob")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	list, err := l.ListSongRequests(ctx, models.StreamRadio, 0)
	if err != nil {
		t.Fatalf("ListSongRequests() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d requests, want 1", len(list))
	}
	if list[0].Status != models.SongRequestPending || list[0].Priority != 0 {
		t.Errorf("request = %+v, want pending/0", list[0])
	}
	if list[0].Title != "X" || list[0].RequesterName != "Bob" || list[0].Artist != nil {
		t.Errorf("request fields = %+v", list[0])
	}
}

func TestAppendSongRequestValidation(t *testing.T) {
	l, _, _, _ := newTestLog(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		title     string
		artist    *string
		requester string
		priority  int
		wantErr   string
		check     func(t *testing.T, e *models.EngagementEvent)
	}{
		{name: "missing title", title: " ", requester: "Bob", wantErr: "songTitle"},
		{name: "missing requester", title: "X", requester: "", wantErr: "requesterName"},
		{name: "title too long", title: strings.Repeat("t", MaxTitleLength+1), requester: "Bob", wantErr: "songTitle"},
		{name: "artist too long", title: "X", artist: strPtr(strings.Repeat("a", MaxArtistLength+1)), requester: "Bob", wantErr: "artistName"},
		{name: "requester too long", title: "X", requester: strings.Repeat("r", MaxRequesterLength+1), wantErr: "requesterName"},
		{
			name: "blank artist dropped", title: "X", artist: strPtr("  "), requester: "Bob",
			check: func(t *testing.T, e *models.EngagementEvent) {
				if e.Artist != nil {
					t.Errorf("Artist = %q, want nil", *e.Artist)
				}
			},
		},
		{
			name: "artist kept verbatim", title: " X ", artist: strPtr(" Nina "), requester: " Bob ",
			check: func(t *testing.T, e *models.EngagementEvent) {
				if e.Artist == nil || *e.Artist != " Nina " {
					t.Errorf("Artist = %v, want %q", e.Artist, " Nina ")
				}
				if e.Title != " X " || e.RequesterName != " Bob " {
					t.Errorf("Title/RequesterName = %q/%q, want verbatim", e.Title, e.RequesterName)
				}
			},
		},
		{
			name: "priority clamped high", title: "X", requester: "Bob", priority: 1000,
			check: func(t *testing.T, e *models.EngagementEvent) {
				if e.Priority != MaxPriority {
					t.Errorf("Priority = %d, want %d", e.Priority, MaxPriority)
				}
			},
		},
		{
			name: "priority clamped low", title: "X", requester: "Bob", priority: -1000,
			check: func(t *testing.T, e *models.EngagementEvent) {
				if e.Priority != MinPriority {
					t.Errorf("Priority = %d, want %d", e.Priority, MinPriority)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := models.NewSongRequest(models.StreamRadio, "S1", tt.title, tt.artist, tt.requester)
			e.Priority = tt.priority
			_, err := l.Append(ctx, e)
			if tt.wantErr != "" {
				var ve *models.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("error = %v, want ValidationError", err)
				}
				if ve.Field != tt.wantErr {
					t.Errorf("field = %q, want %q", ve.Field, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Append() error = %v", err)
			}
			if tt.check != nil {
				tt.check(t, e)
			}
		})
	}
}

func TestAppendCommonValidation(t *testing.T) {
	l, _, _, _ := newTestLog(t)
	ctx := context.Background()

	if _, err := l.Append(ctx, nil); !models.IsValidation(err) {
		t.Errorf("Append(nil) error = %v", err)
	}
	if _, err := l.Append(ctx, models.NewReaction("podcast", "S1", "❤️")); !models.IsValidation(err) {
		t.Errorf("unknown stream error = %v", err)
	}
	if _, err := l.Append(ctx, models.NewReaction(models.StreamTV, "", "❤️")); !models.IsValidation(err) {
		t.Errorf("missing session error = %v", err)
	}
	if _, err := l.Append(ctx, &models.EngagementEvent{Kind: "poll", StreamType: models.StreamTV, SessionToken: "S1"}); !models.IsValidation(err) {
		t.Errorf("unknown kind error = %v", err)
	}
}

func TestAppendNotifierFailureIsNotFatal(t *testing.T) {
	l, _, notifier, _ := newTestLog(t)
	notifier.err = errors.New("bus down")

	if _, err := l.Append(context.Background(), models.NewReaction(models.StreamTV, "S1", "🔥")); err != nil {
		t.Errorf("Append() error = %v, want nil when notification fails", err)
	}
}

func TestRecentOrderingAndLimits(t *testing.T) {
	l, _, _, clock := newTestLog(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := l.Append(ctx, models.NewComment(models.StreamTV, "S1", "", "msg")); err != nil {
			t.Fatal(err)
		}
		clock.Advance(time.Second)
	}
	if _, err := l.Append(ctx, models.NewReaction(models.StreamTV, "S1", "👍")); err != nil {
		t.Fatal(err)
	}

	kind := models.KindComment
	comments, err := l.Recent(ctx, models.StreamTV, &kind, 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("Recent() returned %d, want 3", len(comments))
	}
	for i := 1; i < len(comments); i++ {
		if comments[i].CreatedAt.After(comments[i-1].CreatedAt) {
			t.Errorf("comments not newest first at %d", i)
		}
	}

	all, err := l.Recent(ctx, models.StreamTV, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 6 || all[0].Kind != models.KindReaction {
		t.Errorf("Recent(all) = %d events, first kind %s", len(all), all[0].Kind)
	}

	if _, err := l.Recent(ctx, "podcast", nil, 10); !models.IsValidation(err) {
		t.Errorf("Recent(unknown stream) error = %v", err)
	}
}

func TestClampLimit(t *testing.T) {
	l, _, _, _ := newTestLog(t)

	tests := []struct {
		in, want int
	}{
		{0, 50},
		{-5, 50},
		{1, 1},
		{200, 200},
		{201, 200},
		{10000, 200},
	}
	for _, tt := range tests {
		if got := l.ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestUpdateSongRequestStatus(t *testing.T) {
	l, _, notifier, _ := newTestLog(t)
	ctx := context.Background()

	e := models.NewSongRequest(models.StreamRadio, "S1", "X", nil, "Bob")
	id, err := l.Append(ctx, e)
	if err != nil {
		t.Fatal(err)
	}

	p := 500
	updated, err := l.UpdateSongRequestStatus(ctx, id, models.SongRequestQueued, &p)
	if err != nil {
		t.Fatalf("UpdateSongRequestStatus() error = %v", err)
	}
	if updated.Status != models.SongRequestQueued || updated.Priority != MaxPriority {
		t.Errorf("updated = %s/%d, want queued/%d", updated.Status, updated.Priority, MaxPriority)
	}
	if notifier.count() != 2 {
		t.Errorf("notifier saw %d events, want 2 (append + update)", notifier.count())
	}

	if _, err := l.UpdateSongRequestStatus(ctx, id, "maybe", nil); !models.IsValidation(err) {
		t.Errorf("invalid status error = %v", err)
	}
	if _, err := l.UpdateSongRequestStatus(ctx, 0, models.SongRequestPlayed, nil); !models.IsValidation(err) {
		t.Errorf("invalid id error = %v", err)
	}
	_, err = l.UpdateSongRequestStatus(ctx, 9999, models.SongRequestPlayed, nil)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing id error = %v, want ErrNotFound", err)
	}
	if errors.Is(err, models.ErrStoreUnavailable) {
		t.Error("missing id must not look like an outage")
	}
}

func TestStoreFailures(t *testing.T) {
	l, store, _, _ := newTestLog(t)
	ctx := context.Background()
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	_, err := l.Append(ctx, models.NewReaction(models.StreamTV, "S1", "❤️"))
	if !errors.Is(err, models.ErrStoreUnavailable) {
		t.Errorf("Append() error = %v, want ErrStoreUnavailable", err)
	}
	if _, err := l.Tally(ctx, models.StreamTV, 0); !errors.Is(err, models.ErrStoreUnavailable) {
		t.Errorf("Tally() error = %v", err)
	}
	if _, err := l.Recent(ctx, models.StreamTV, nil, 0); !errors.Is(err, models.ErrStoreUnavailable) {
		t.Errorf("Recent() error = %v", err)
	}
	if _, err := l.ListSongRequests(ctx, models.StreamTV, 0); !errors.Is(err, models.ErrStoreUnavailable) {
		t.Errorf("ListSongRequests() error = %v", err)
	}
}
