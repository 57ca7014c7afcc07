// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package models

import "time"

// PresenceRecord asserts that a session is currently viewing or listening to a stream.
//
// There is at most one record per (SessionToken, StreamType); join and heartbeat
// upsert on that pair. ID and JoinedAt survive heartbeats.
type PresenceRecord struct {
	ID           string     `json:"id"`
	SessionToken string     `json:"-"`
	StreamType   StreamType `json:"streamType"`
	JoinedAt     time.Time  `json:"joinedAt"`
	LastSeenAt   time.Time  `json:"lastSeenAt"`
}

// IsLive reports whether the record was seen within timeout of now.
// A record exactly timeout old is still live.
func (p *PresenceRecord) IsLive(now time.Time, timeout time.Duration) bool {
	return now.Sub(p.LastSeenAt) <= timeout
}
