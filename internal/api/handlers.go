// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/onair/internal/aggregation"
	"github.com/tomtom215/onair/internal/audit"
	"github.com/tomtom215/onair/internal/config"
	"github.com/tomtom215/onair/internal/models"
	"github.com/tomtom215/onair/internal/session"
	"github.com/tomtom215/onair/internal/validation"
)

// Handler serves every OnAir route on top of the aggregation service.
type Handler struct {
	svc *aggregation.Service
	cfg *config.Config

	// retryAfter is advertised on 503 write failures.
	retryAfter time.Duration
	startTime  time.Time

	// audit is nil when moderation auditing is not wired.
	audit *audit.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc *aggregation.Service, cfg *config.Config) *Handler {
	return &Handler{
		svc:        svc,
		cfg:        cfg,
		retryAfter: svc.Tracker().HeartbeatInterval(),
		startTime:  time.Now(),
	}
}

// WithAuditLogger records admin moderation actions to l.
func (h *Handler) WithAuditLogger(l *audit.Logger) *Handler {
	h.audit = l
	return h
}

// streamParam reads and validates the {streamType} path parameter.
func streamParam(r *http.Request) (models.StreamType, bool) {
	st := models.StreamType(chi.URLParam(r, "streamType"))
	return st, st.Valid()
}

// sessionToken returns the token the session middleware placed on the
// request. Routes that need one are always mounted behind that middleware.
func sessionToken(r *http.Request) string {
	tok, _ := session.FromContext(r.Context())
	return tok
}

// respondDecodeError answers a decodeJSON failure.
func respondDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)

	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
	case errors.Is(err, errBodyTooLarge):
		rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, err.Error())
	default:
		rw.BadRequest(err.Error())
	}
}

func respondInvalidStream(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).ValidationError("streamType must be one of: tv, radio",
		map[string]string{"field": "streamType"})
}

// ClientConfig returns the cadences and reaction vocabulary players use.
func (h *Handler) ClientConfig(w http.ResponseWriter, r *http.Request) {
	vocab := h.svc.Log().Vocabulary()
	tracker := h.svc.Tracker()

	NewResponseWriter(w, r).Success(ClientConfigResponse{
		HeartbeatIntervalSeconds: int(tracker.HeartbeatInterval() / time.Second),
		LivenessTimeoutSeconds:   int(tracker.LivenessTimeout() / time.Second),
		PollIntervalSeconds:      int(h.cfg.API.PollInterval / time.Second),
		Reactions: map[string][]string{
			string(models.StreamTV):    vocab.Emojis(models.StreamTV),
			string(models.StreamRadio): vocab.Emojis(models.StreamRadio),
		},
	})
}
