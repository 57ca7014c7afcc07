// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

// Package engagement implements the append-only log of audience engagement:
// emoji reactions, chat comments, and song requests.
//
// Log validates and normalizes each event by kind before persisting it:
//
//   - Reactions must use an emoji from the stream's vocabulary.
//   - Comments carry a trimmed, non-empty message of at most 500 runes and an
//     author display name of at most 50 runes that defaults to "Anonymous".
//   - Song requests need a title and a requester name. Artist is optional.
//     Status starts as pending and priority is clamped to [-100, 100].
//
// Events are immutable once appended, except that an administrator may move
// a song request through its status lifecycle and change its priority.
//
// After a successful append, Log notifies its Notifier (the in-process event
// bus in production) so cached snapshots for the stream can be dropped.
// Notification is best effort and never fails the append.
package engagement
