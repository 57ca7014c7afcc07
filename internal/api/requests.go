// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/onair/internal/models"
	"github.com/tomtom215/onair/internal/validation"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 16 << 10

// PresenceRequest is the body of join, heartbeat and leave.
type PresenceRequest struct {
	StreamType string `json:"streamType" validate:"required,streamtype"`
}

// ReactionRequest is the body of POST /live-reactions.
type ReactionRequest struct {
	Emoji       string `json:"emoji" validate:"required"`
	StreamType  string `json:"streamType" validate:"required,streamtype"`
	UserSession string `json:"userSession,omitempty" validate:"omitempty,sessiontoken"`
}

// CommentRequest is the body of POST /live-comments.
type CommentRequest struct {
	Message     string `json:"message" validate:"required"`
	Username    string `json:"username"`
	StreamType  string `json:"streamType" validate:"required,streamtype"`
	UserSession string `json:"userSession,omitempty" validate:"omitempty,sessiontoken"`
}

// SongRequestRequest is the body of POST /song-requests. Older players send
// the title as "title"; SongTitle wins when both are present.
type SongRequestRequest struct {
	SongTitle     string  `json:"songTitle"`
	Title         string  `json:"title"`
	ArtistName    *string `json:"artistName,omitempty"`
	RequesterName string  `json:"requesterName" validate:"required"`
	StreamType    string  `json:"streamType" validate:"required,streamtype"`
}

// ResolvedTitle returns the song title from whichever field carried it.
func (r *SongRequestRequest) ResolvedTitle() string {
	if strings.TrimSpace(r.SongTitle) != "" {
		return r.SongTitle
	}
	return r.Title
}

// SongRequestUpdate is the body of PATCH /song-requests/{id}.
type SongRequestUpdate struct {
	Status   string `json:"status" validate:"required,songstatus"`
	Priority *int   `json:"priority,omitempty"`
}

// SongRequestUpdateResponse is returned after an admin update.
type SongRequestUpdateResponse struct {
	ID       int64                    `json:"id"`
	Status   models.SongRequestStatus `json:"status"`
	Priority int                      `json:"priority"`
}

// ViewerCountResponse is returned by GET /active-users/count/{streamType}.
type ViewerCountResponse struct {
	StreamType models.StreamType `json:"streamType"`
	Count      int               `json:"count"`
}

// TallyResponse is returned by GET /live-reactions/{streamType}/tally.
type TallyResponse struct {
	StreamType    models.StreamType    `json:"streamType"`
	Tally         models.ReactionTally `json:"tally"`
	WindowSeconds int                  `json:"windowSeconds"`
}

// ClientConfigResponse advertises the cadences and vocabulary players use.
type ClientConfigResponse struct {
	HeartbeatIntervalSeconds int                 `json:"heartbeatIntervalSeconds"`
	LivenessTimeoutSeconds   int                 `json:"livenessTimeoutSeconds"`
	PollIntervalSeconds      int                 `json:"pollIntervalSeconds"`
	Reactions                map[string][]string `json:"reactions"`
}

// errBodyTooLarge is returned by decodeJSON when the body exceeds maxBodyBytes.
var errBodyTooLarge = errors.New("request body too large")

// decodeJSON reads a bounded JSON body into dst and runs struct validation.
// The returned error is either a *validation.RequestValidationError or a
// plain decode error suitable for a 400 message.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return errBodyTooLarge
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		default:
			return errors.New("invalid JSON body")
		}
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		return verr
	}
	return nil
}

// parseLimit reads ?limit=. Missing or malformed values yield 0 so the
// engagement log applies its default.
func parseLimit(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
