// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package api

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/onair/internal/audit"
	"github.com/tomtom215/onair/internal/auth"
	"github.com/tomtom215/onair/internal/logging"
	"github.com/tomtom215/onair/internal/middleware"
	"github.com/tomtom215/onair/internal/models"
)

// maxAuditLimit caps GET /admin/audit-events.
const maxAuditLimit = 500

// SubmitSongRequest handles POST /song-requests.
func (h *Handler) SubmitSongRequest(w http.ResponseWriter, r *http.Request) {
	var req SongRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDecodeError(w, r, err)
		return
	}

	ev, err := h.svc.SubmitSongRequest(r.Context(), models.StreamType(req.StreamType),
		sessionToken(r), req.ResolvedTitle(), req.ArtistName, req.RequesterName)
	if err != nil {
		h.respondWriteError(w, r, "submit_song_request", err)
		return
	}
	NewResponseWriter(w, r).Created(ev)
}

// ListSongRequests handles GET /song-requests?streamType=&limit=.
// The list is in queue order: priority descending, then oldest first.
func (h *Handler) ListSongRequests(w http.ResponseWriter, r *http.Request) {
	stream := models.StreamType(r.URL.Query().Get("streamType"))
	if !stream.Valid() {
		respondInvalidStream(w, r)
		return
	}

	requests := h.svc.ListSongRequests(r.Context(), stream, parseLimit(r))
	NewResponseWriter(w, r).List(requests, len(requests))
}

// UpdateSongRequest handles PATCH /song-requests/{id}. Admin only.
func (h *Handler) UpdateSongRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		NewResponseWriter(w, r).ValidationError("id must be a positive integer",
			map[string]string{"field": "id"})
		return
	}

	var req SongRequestUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		respondDecodeError(w, r, err)
		return
	}

	ev, err := h.svc.UpdateSongRequestStatus(r.Context(), id, models.SongRequestStatus(req.Status), req.Priority)
	if err != nil {
		h.respondWriteError(w, r, "update_song_request", err)
		return
	}

	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		logging.Ctx(r.Context()).Info().
			Int64("id", ev.ID).
			Str("status", string(ev.Status)).
			Int("priority", ev.Priority).
			Str("admin", claims.Subject).
			Msg("Song request updated")
		h.recordModeration(r, claims, ev)
	}

	NewResponseWriter(w, r).Success(SongRequestUpdateResponse{
		ID:       ev.ID,
		Status:   ev.Status,
		Priority: ev.Priority,
	})
}

// recordModeration writes an audit event for an admin song request change.
func (h *Handler) recordModeration(r *http.Request, claims *auth.Claims, ev *models.EngagementEvent) {
	if h.audit == nil {
		return
	}

	typ := audit.EventTypeSongRequestUpdated
	if ev.Status == models.SongRequestRejected {
		typ = audit.EventTypeSongRequestRejected
	}

	h.audit.Log(&audit.Event{
		Type:   typ,
		Actor:  audit.Actor{ID: claims.Subject, Role: claims.Role},
		Target: audit.Target{ID: strconv.FormatInt(ev.ID, 10), Type: "song_request", StreamType: string(ev.StreamType)},
		Action: "update",
		After: map[string]any{
			"status":   string(ev.Status),
			"priority": ev.Priority,
		},
		SourceIP:  clientIP(r),
		RequestID: middleware.GetRequestID(r.Context()),
	})
}

// ListAuditEvents handles GET /admin/audit-events?actor=&target=&since=&limit=.
// Admin only. since is an RFC 3339 timestamp.
func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.QueryFilter{
		ActorID:  q.Get("actor"),
		TargetID: q.Get("target"),
		Limit:    parseLimit(r),
	}
	if filter.Limit > maxAuditLimit {
		filter.Limit = maxAuditLimit
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			NewResponseWriter(w, r).ValidationError("since must be an RFC 3339 timestamp",
				map[string]string{"field": "since"})
			return
		}
		filter.Since = since
	}

	events, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to query audit events")
		NewResponseWriter(w, r).InternalError("Failed to query audit events")
		return
	}
	NewResponseWriter(w, r).List(events, len(events))
}

// clientIP returns the caller address. RealIP has already replaced RemoteAddr
// with X-Forwarded-For / X-Real-IP when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
