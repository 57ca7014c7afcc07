// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

// Package audit records moderation actions taken through the admin API.
//
// Every song request status or priority change made by an administrator is
// written as an Event naming the admin (the JWT subject), the target request
// and the before/after values. Writes are asynchronous: Logger.Log never
// blocks the request path and drops events when its buffer is full.
//
// # Stores
//
//   - MemoryStore: bounded ring used in tests and when no database is wired
//   - DuckDBStore: persists events to the moderation_audit table
//
// # Usage
//
//	store := audit.NewDuckDBStore(db.Conn())
//	if err := store.CreateTable(ctx); err != nil {
//	    return err
//	}
//	logger := audit.NewLogger(store, nil)
//	defer logger.Close()
//
//	logger.Log(&audit.Event{
//	    Type:   audit.EventTypeSongRequestUpdated,
//	    Actor:  audit.Actor{ID: claims.Subject},
//	    Target: audit.Target{ID: "42", Type: "song_request"},
//	    Action: "update",
//	})
package audit
