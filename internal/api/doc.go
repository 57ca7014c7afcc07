// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

/*
Package api provides the HTTP surface of OnAir using the Chi router.

Every route is served under /api/v1 and, for existing players, under the same
path without the prefix (for example /active-users/join).

# Endpoints

Presence (session from X-Session-Token header or onair_session cookie):

	POST /active-users/join               {streamType}         200, empty body
	POST /active-users/heartbeat          {streamType}         200, empty body
	POST /active-users/leave              {streamType}         200, empty body
	GET  /active-users/count/{streamType}                      {count}

Engagement:

	POST  /live-reactions                 {emoji, streamType, userSession?}
	GET   /live-reactions/{streamType}?limit=N
	GET   /live-reactions/{streamType}/tally?window=60
	POST  /live-comments                  {message, username, streamType, userSession?}
	GET   /live-comments/{streamType}?limit=N
	POST  /song-requests                  {songTitle|title, artistName?, requesterName, streamType}
	GET   /song-requests?streamType=&limit=
	PATCH /song-requests/{id}             {status, priority?}   admin bearer token
	GET   /admin/audit-events             ?actor=&target=&since= admin bearer token
	GET   /engagement/{streamType}        reaction tally, recent comments and song requests

Operational:

	GET /config/client    heartbeat, liveness and poll cadences plus the reaction vocabulary
	GET /health/live
	GET /health/ready
	GET /metrics          Prometheus exposition (unprefixed only)

# Responses

Unprefixed routes answer with plain bodies: {"streamType": "tv", "count": 3}
for counts, the stored record for submissions and a JSON array for lists.
Routes under /api/v1 wrap the same data in the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"timestamp": "...", "requestId": "..."}}

Errors use the envelope on every route:

	{"success": false, "error": {"code": "VALIDATION_ERROR", "message": "..."}}

Presence writes answer 200 with an empty body. Write failures caused by an
unavailable store answer 503 with Retry-After set to the heartbeat interval,
so players retry on their next scheduled beat. Reads never fail on store
errors; the aggregation service degrades them to stale or empty data.
*/
package api
