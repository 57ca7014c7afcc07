// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

// Package logging provides centralized zerolog-based structured logging for OnAir.
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production (machine-parseable)
//   - Console output format for development (human-readable)
//   - Context-aware logging with request and correlation ID propagation
//   - An slog adapter for Suture v4 and Watermill integration
//
// # Quick Start
//
//	import "github.com/tomtom215/onair/internal/logging"
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("stream", "tv").Msg("Presence purge complete")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Viewer count degraded")
//
// # Components
//
// Long-lived services create a component logger once and reuse it:
//
//	logger := logging.WithComponent("aggregation")
//	logger.Debug().Str("stream", "radio").Msg("Snapshot cache miss")
package logging
