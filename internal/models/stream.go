// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package models

import "strings"

// StreamType identifies one of the two broadcast channels.
type StreamType string

// Supported streams.
const (
	StreamTV    StreamType = "tv"
	StreamRadio StreamType = "radio"
)

// AllStreams returns every supported stream in a stable order.
func AllStreams() []StreamType {
	return []StreamType{StreamTV, StreamRadio}
}

// Valid reports whether s is a supported stream.
func (s StreamType) Valid() bool {
	return s == StreamTV || s == StreamRadio
}

func (s StreamType) String() string {
	return string(s)
}

// ParseStreamType parses a stream name case-insensitively.
func ParseStreamType(raw string) (StreamType, error) {
	s := StreamType(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", NewValidationError("streamType", "must be one of: tv, radio")
	}
	return s, nil
}
