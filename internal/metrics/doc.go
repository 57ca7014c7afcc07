// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

/*
Package metrics provides Prometheus metrics collection and export for observability.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - Presence and engagement store operations (DuckDB and Badger)
  - Presence joins, heartbeats, leaves and purges
  - Engagement submissions and rejections
  - Degraded aggregation reads and snapshot cache efficiency
  - Circuit breaker state transitions
  - Per-session submission throttling

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Usage

All collectors are registered on the default registry via promauto. Callers use
the Record* helpers rather than touching collectors directly:

	start := time.Now()
	n, err := store.CountSince(ctx, stream, cutoff)
	metrics.RecordStoreOperation("duckdb", "count_presence", time.Since(start), err)
*/
package metrics
