// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package audit

import (
	"context"
	"time"
)

// EventType categorizes an audit event.
type EventType string

const (
	// EventTypeSongRequestUpdated records an admin status/priority change.
	EventTypeSongRequestUpdated EventType = "song_request.updated"
	// EventTypeSongRequestRejected is recorded instead of updated when the
	// new status is "rejected".
	EventTypeSongRequestRejected EventType = "song_request.rejected"
)

// Outcome is the result of the audited action.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is a single moderation audit record.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Outcome   Outcome   `json:"outcome"`

	Actor  Actor  `json:"actor"`
	Target Target `json:"target"`

	Action      string `json:"action"`
	Description string `json:"description,omitempty"`

	// Before and After hold the changed fields, e.g. {"status": "pending"}.
	Before map[string]any `json:"before,omitempty"`
	After  map[string]any `json:"after,omitempty"`

	SourceIP  string `json:"sourceIp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Actor identifies who performed the action.
type Actor struct {
	// ID is the admin token subject.
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
}

// Target identifies what the action was performed on.
type Target struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	StreamType string `json:"streamType,omitempty"`
}

// QueryFilter narrows a Query. Zero values match everything.
type QueryFilter struct {
	Type     EventType
	ActorID  string
	TargetID string
	Since    time.Time
	Limit    int
}

// matches reports whether e passes the filter, ignoring Limit.
func (f QueryFilter) matches(e *Event) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.ActorID != "" && e.Actor.ID != f.ActorID {
		return false
	}
	if f.TargetID != "" && e.Target.ID != f.TargetID {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}

// Store persists audit events. Query returns newest first.
type Store interface {
	Save(ctx context.Context, event *Event) error
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}
