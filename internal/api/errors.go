// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tomtom215/onair/internal/logging"
	"github.com/tomtom215/onair/internal/models"
)

func itoa(n int) string { return strconv.Itoa(n) }

// respondWriteError maps a write-path error from the aggregation service to
// a response. Clients see generic messages; causes go to the log.
func (h *Handler) respondWriteError(w http.ResponseWriter, r *http.Request, op string, err error) {
	rw := NewResponseWriter(w, r)

	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		rw.ValidationError(ve.Error(), map[string]string{"field": ve.Field})

	case errors.Is(err, models.ErrNotFound):
		rw.NotFound("Resource not found")

	case errors.Is(err, models.ErrStoreUnavailable):
		logging.CtxWarn(r.Context()).Err(err).Str("operation", op).Msg("Write rejected, store unavailable")
		rw.ServiceUnavailable("Temporarily unavailable, retry on next interval", h.retryAfter)

	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("operation", op).Msg("Unexpected write failure")
		rw.InternalError("Internal server error")
	}
}
