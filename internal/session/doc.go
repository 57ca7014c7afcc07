// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

// Package session issues and resolves the anonymous session tokens that
// identify a browser tab to the presence and engagement endpoints.
//
// A token is an opaque string. The server never authenticates it; it only
// uses it to keep one presence record per tab and stream. Tokens travel in
// the X-Session-Token header or the onair_session cookie, header first.
//
// Middleware resolves the token for every request, issuing a fresh UUID and
// setting the cookie when the client has none, and stores it on the request
// context. Handlers read it with FromContext and pass it explicitly to the
// services they call; there is no process-wide "current session".
package session
