// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

/*
Package validation provides request DTO validation using go-playground/validator v10.

A single validator instance is shared process wide; it caches struct
metadata, so building one per request would be wasteful. Field names in
errors are taken from the json tag, so a client sees "streamType" rather than
"StreamType".

# Custom Tags

	streamtype    value is a known stream ("tv" or "radio")
	sessiontoken  value is a well-formed session token
	songstatus    value is a known song request status

# Usage

	type joinRequest struct {
	    StreamType string `json:"streamType" validate:"required,streamtype"`
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
	    apiErr := verr.ToAPIError()
	    respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
	    return
	}

Domain checks that depend on configuration, such as the per-stream reaction
vocabulary, stay in the engagement package.
*/
package validation
