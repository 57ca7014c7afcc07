// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/onair/internal/models"
)

type presenceOp func(ctx context.Context, session string, stream models.StreamType) error

// presenceWrite decodes {streamType}, applies op for the request's session
// and answers 200 with an empty body.
func (h *Handler) presenceWrite(name string, op presenceOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PresenceRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondDecodeError(w, r, err)
			return
		}

		if err := op(r.Context(), sessionToken(r), models.StreamType(req.StreamType)); err != nil {
			h.respondWriteError(w, r, name, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// Join handles POST /active-users/join.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	h.presenceWrite("join", h.svc.Join)(w, r)
}

// Heartbeat handles POST /active-users/heartbeat.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	h.presenceWrite("heartbeat", h.svc.Heartbeat)(w, r)
}

// Leave handles POST /active-users/leave.
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	h.presenceWrite("leave", h.svc.Leave)(w, r)
}

// ViewerCount handles GET /active-users/count/{streamType}. It never fails
// on store errors; the aggregation service degrades to the last known count.
func (h *Handler) ViewerCount(w http.ResponseWriter, r *http.Request) {
	stream, ok := streamParam(r)
	if !ok {
		respondInvalidStream(w, r)
		return
	}

	NewResponseWriter(w, r).Success(ViewerCountResponse{
		StreamType: stream,
		Count:      h.svc.GetViewerCount(r.Context(), stream),
	})
}
