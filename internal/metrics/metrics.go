// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onair_store_operation_duration_seconds",
			Help:    "Duration of presence and engagement store operations in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"backend", "operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onair_store_errors_total",
			Help: "Total number of failed store operations",
		},
		[]string{"backend", "operation"},
	)

	// Presence Metrics
	PresenceOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onair_presence_operations_total",
			Help: "Total number of presence operations by type and stream",
		},
		[]string{"operation", "stream"}, // operation: join, heartbeat, leave, self_heal
	)

	PresenceActiveViewers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "onair_presence_active_viewers",
			Help: "Active viewers per stream as of the last successful count",
		},
		[]string{"stream"},
	)

	PresencePurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onair_presence_purged_total",
			Help: "Total number of stale presence records purged",
		},
	)

	// Engagement Metrics
	EngagementEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onair_engagement_events_total",
			Help: "Total number of accepted engagement events",
		},
		[]string{"kind", "stream"},
	)

	EngagementRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onair_engagement_rejected_total",
			Help: "Total number of engagement submissions rejected by validation",
		},
		[]string{"kind", "reason"},
	)

	// Aggregation Metrics
	AggregationDegradedReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onair_aggregation_degraded_reads_total",
			Help: "Total number of reads answered with fallback data because the store failed",
		},
		[]string{"operation"},
	)

	SnapshotCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onair_aggregation_snapshot_cache_total",
			Help: "Engagement snapshot cache lookups by result",
		},
		[]string{"result"}, // hit, miss, invalidated
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "onair_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onair_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Bus Metrics
	EventBusMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onair_eventbus_messages_total",
			Help: "In-process event bus messages by topic and direction",
		},
		[]string{"topic", "direction"}, // direction: published, consumed, failed
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onair_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onair_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "onair_api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	SessionRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onair_session_rate_limited_total",
			Help: "Total number of submissions rejected by the per-session rate limiter",
		},
	)
)

// RecordStoreOperation records the duration and outcome of a store operation.
func RecordStoreOperation(backend, operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		StoreErrors.WithLabelValues(backend, operation).Inc()
	}
}

// RecordPresenceOperation counts a presence write.
func RecordPresenceOperation(operation, stream string) {
	PresenceOperations.WithLabelValues(operation, stream).Inc()
}

// SetActiveViewers publishes the latest successful viewer count for a stream.
func SetActiveViewers(stream string, count int) {
	PresenceActiveViewers.WithLabelValues(stream).Set(float64(count))
}

// RecordPresencePurge counts purged presence records.
func RecordPresencePurge(n int) {
	if n > 0 {
		PresencePurged.Add(float64(n))
	}
}

// RecordEngagementEvent counts an accepted engagement event.
func RecordEngagementEvent(kind, stream string) {
	EngagementEvents.WithLabelValues(kind, stream).Inc()
}

// RecordEngagementRejected counts a submission rejected by validation.
func RecordEngagementRejected(kind, reason string) {
	EngagementRejected.WithLabelValues(kind, reason).Inc()
}

// RecordDegradedRead counts a read that fell back to cached or zero data.
func RecordDegradedRead(operation string) {
	AggregationDegradedReads.WithLabelValues(operation).Inc()
}

// RecordSnapshotCache counts a snapshot cache lookup result.
func RecordSnapshotCache(result string) {
	SnapshotCache.WithLabelValues(result).Inc()
}

// RecordEventBusMessage counts a bus message for topic in direction.
func RecordEventBusMessage(topic, direction string) {
	EventBusMessages.WithLabelValues(topic, direction).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
