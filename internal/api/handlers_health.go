// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/onair/internal/logging"
)

// HealthLive returns 200 while the process is alive, regardless of
// dependencies. Used for liveness probes.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeRawJSON(w, http.StatusOK, map[string]interface{}{
		"status": "alive",
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady returns 200 only when the presence store answers a ping,
// otherwise 503. Used for readiness probes.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Ready(r.Context())

	statusCode := http.StatusOK
	status := "ready"
	if err != nil {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
		logging.CtxWarn(r.Context()).Err(err).Msg("Readiness check failed")
	}

	writeRawJSON(w, statusCode, map[string]interface{}{
		"status":          status,
		"store_connected": err == nil,
		"breaker_state":   h.svc.BreakerState().String(),
	})
}

func writeRawJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
