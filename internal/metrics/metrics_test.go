// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStoreOperation(t *testing.T) {
	tests := []struct {
		name      string
		backend   string
		operation string
		err       error
		wantErr   bool
	}{
		{"duckdb upsert ok", "duckdb", "upsert_presence", nil, false},
		{"badger count failure", "badger", "count_presence", errors.New("closed"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(StoreErrors.WithLabelValues(tt.backend, tt.operation))
			RecordStoreOperation(tt.backend, tt.operation, 2*time.Millisecond, tt.err)
			after := testutil.ToFloat64(StoreErrors.WithLabelValues(tt.backend, tt.operation))

			if tt.wantErr && after != before+1 {
				t.Errorf("StoreErrors = %v, want %v", after, before+1)
			}
			if !tt.wantErr && after != before {
				t.Errorf("StoreErrors changed on success: %v -> %v", before, after)
			}
		})
	}
}

func TestSetActiveViewers(t *testing.T) {
	SetActiveViewers("tv", 42)
	if got := testutil.ToFloat64(PresenceActiveViewers.WithLabelValues("tv")); got != 42 {
		t.Errorf("active viewers = %v, want 42", got)
	}
	SetActiveViewers("tv", 0)
	if got := testutil.ToFloat64(PresenceActiveViewers.WithLabelValues("tv")); got != 0 {
		t.Errorf("active viewers = %v, want 0", got)
	}
}

func TestRecordPresencePurge(t *testing.T) {
	before := testutil.ToFloat64(PresencePurged)
	RecordPresencePurge(0)
	RecordPresencePurge(3)
	if got := testutil.ToFloat64(PresencePurged); got != before+3 {
		t.Errorf("purged = %v, want %v", got, before+3)
	}
}

func TestCounters(t *testing.T) {
	checks := []struct {
		name   string
		record func()
		read   func() float64
	}{
		{
			name:   "presence operation",
			record: func() { RecordPresenceOperation("join", "radio") },
			read:   func() float64 { return testutil.ToFloat64(PresenceOperations.WithLabelValues("join", "radio")) },
		},
		{
			name:   "engagement event",
			record: func() { RecordEngagementEvent("reaction", "tv") },
			read:   func() float64 { return testutil.ToFloat64(EngagementEvents.WithLabelValues("reaction", "tv")) },
		},
		{
			name:   "engagement rejected",
			record: func() { RecordEngagementRejected("comment", "message") },
			read:   func() float64 { return testutil.ToFloat64(EngagementRejected.WithLabelValues("comment", "message")) },
		},
		{
			name:   "degraded read",
			record: func() { RecordDegradedRead("viewer_count") },
			read:   func() float64 { return testutil.ToFloat64(AggregationDegradedReads.WithLabelValues("viewer_count")) },
		},
		{
			name:   "snapshot cache",
			record: func() { RecordSnapshotCache("hit") },
			read:   func() float64 { return testutil.ToFloat64(SnapshotCache.WithLabelValues("hit")) },
		},
		{
			name:   "event bus",
			record: func() { RecordEventBusMessage("engagement.appended", "published") },
			read: func() float64 {
				return testutil.ToFloat64(EventBusMessages.WithLabelValues("engagement.appended", "published"))
			},
		},
	}

	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			before := c.read()
			c.record()
			if got := c.read(); got != before+1 {
				t.Errorf("counter = %v, want %v", got, before+1)
			}
		})
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active requests = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active requests = %v, want %v", got, before)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/active-users/count/tv", "200"))
	RecordAPIRequest("GET", "/api/v1/active-users/count/tv", "200", 3*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/active-users/count/tv", "200"))
	if after != before+1 {
		t.Errorf("requests = %v, want %v", after, before+1)
	}
}
