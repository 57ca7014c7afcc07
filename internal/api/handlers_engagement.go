// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/onair/internal/models"
)

// maxTallyWindow caps ?window= on the tally route.
const maxTallyWindow = time.Hour

// submitSession picks the body's userSession when set, else the request's.
func submitSession(r *http.Request, bodySession string) string {
	if bodySession != "" {
		return bodySession
	}
	return sessionToken(r)
}

// SubmitReaction handles POST /live-reactions.
func (h *Handler) SubmitReaction(w http.ResponseWriter, r *http.Request) {
	var req ReactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDecodeError(w, r, err)
		return
	}

	ev, err := h.svc.SubmitReaction(r.Context(), models.StreamType(req.StreamType),
		submitSession(r, req.UserSession), req.Emoji)
	if err != nil {
		h.respondWriteError(w, r, "submit_reaction", err)
		return
	}
	NewResponseWriter(w, r).Created(ev)
}

// RecentReactions handles GET /live-reactions/{streamType}.
func (h *Handler) RecentReactions(w http.ResponseWriter, r *http.Request) {
	h.recent(w, r, models.KindReaction)
}

// SubmitComment handles POST /live-comments.
func (h *Handler) SubmitComment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDecodeError(w, r, err)
		return
	}

	ev, err := h.svc.SubmitComment(r.Context(), models.StreamType(req.StreamType),
		submitSession(r, req.UserSession), req.Username, req.Message)
	if err != nil {
		h.respondWriteError(w, r, "submit_comment", err)
		return
	}
	NewResponseWriter(w, r).Created(ev)
}

// RecentComments handles GET /live-comments/{streamType}.
func (h *Handler) RecentComments(w http.ResponseWriter, r *http.Request) {
	h.recent(w, r, models.KindComment)
}

func (h *Handler) recent(w http.ResponseWriter, r *http.Request, kind models.EventKind) {
	stream, ok := streamParam(r)
	if !ok {
		respondInvalidStream(w, r)
		return
	}

	events := h.svc.RecentEvents(r.Context(), stream, &kind, parseLimit(r))
	NewResponseWriter(w, r).List(events, len(events))
}

// ReactionTally handles GET /live-reactions/{streamType}/tally?window=<seconds>.
func (h *Handler) ReactionTally(w http.ResponseWriter, r *http.Request) {
	stream, ok := streamParam(r)
	if !ok {
		respondInvalidStream(w, r)
		return
	}

	window := h.svc.Log().TallyWindow()
	if v := r.URL.Query().Get("window"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 || time.Duration(secs)*time.Second > maxTallyWindow {
			NewResponseWriter(w, r).ValidationError(
				"window must be between 1 and "+strconv.Itoa(int(maxTallyWindow/time.Second))+" seconds",
				map[string]string{"field": "window"})
			return
		}
		window = time.Duration(secs) * time.Second
	}

	NewResponseWriter(w, r).Success(TallyResponse{
		StreamType:    stream,
		Tally:         h.svc.ReactionTally(r.Context(), stream, window),
		WindowSeconds: int(window / time.Second),
	})
}

// EngagementSnapshot handles GET /engagement/{streamType}.
func (h *Handler) EngagementSnapshot(w http.ResponseWriter, r *http.Request) {
	stream, ok := streamParam(r)
	if !ok {
		respondInvalidStream(w, r)
		return
	}
	NewResponseWriter(w, r).Success(h.svc.GetEngagementSnapshot(r.Context(), stream))
}
