// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package models

import "time"

// EventKind discriminates the three engagement event kinds.
type EventKind string

// Engagement event kinds.
const (
	KindReaction    EventKind = "reaction"
	KindComment     EventKind = "comment"
	KindSongRequest EventKind = "song_request"
)

// Valid reports whether k is a known kind.
func (k EventKind) Valid() bool {
	switch k {
	case KindReaction, KindComment, KindSongRequest:
		return true
	}
	return false
}

// SongRequestStatus is the lifecycle state of a song request.
type SongRequestStatus string

// Song request statuses.
const (
	SongRequestPending  SongRequestStatus = "pending"
	SongRequestQueued   SongRequestStatus = "queued"
	SongRequestPlayed   SongRequestStatus = "played"
	SongRequestRejected SongRequestStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s SongRequestStatus) Valid() bool {
	switch s {
	case SongRequestPending, SongRequestQueued, SongRequestPlayed, SongRequestRejected:
		return true
	}
	return false
}

// EngagementEvent is a reaction, live comment or song request.
//
// Events are immutable once created, except Status and Priority of a song
// request, which only an administrator may change. Kind-specific fields are
// empty for the other kinds.
type EngagementEvent struct {
	ID           int64      `json:"id"`
	Kind         EventKind  `json:"kind"`
	StreamType   StreamType `json:"streamType"`
	SessionToken string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`

	// Reaction
	Emoji string `json:"emoji,omitempty"`

	// Comment
	AuthorDisplayName string `json:"authorDisplayName,omitempty"`
	Message           string `json:"message,omitempty"`

	// Song request
	Title         string            `json:"title,omitempty"`
	Artist        *string           `json:"artist,omitempty"`
	RequesterName string            `json:"requesterName,omitempty"`
	Status        SongRequestStatus `json:"status,omitempty"`
	Priority      int               `json:"priority,omitempty"`
}

// NewReaction builds an unsaved reaction event.
func NewReaction(stream StreamType, session, emoji string) *EngagementEvent {
	return &EngagementEvent{
		Kind:         KindReaction,
		StreamType:   stream,
		SessionToken: session,
		Emoji:        emoji,
	}
}

// NewComment builds an unsaved comment event.
func NewComment(stream StreamType, session, author, message string) *EngagementEvent {
	return &EngagementEvent{
		Kind:              KindComment,
		StreamType:        stream,
		SessionToken:      session,
		AuthorDisplayName: author,
		Message:           message,
	}
}

// NewSongRequest builds an unsaved song request. artist may be nil.
func NewSongRequest(stream StreamType, session, title string, artist *string, requester string) *EngagementEvent {
	return &EngagementEvent{
		Kind:          KindSongRequest,
		StreamType:    stream,
		SessionToken:  session,
		Title:         title,
		Artist:        artist,
		RequesterName: requester,
		Status:        SongRequestPending,
	}
}

// ReactionTally maps emoji to the number of reactions in a window.
type ReactionTally map[string]int

// Total returns the sum of all counts.
func (t ReactionTally) Total() int {
	total := 0
	for _, n := range t {
		total += n
	}
	return total
}
