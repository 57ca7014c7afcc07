// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

/*
Package auth guards the station-staff routes with HS256 bearer tokens.

Listeners never authenticate; they are identified only by their session
token. The one privileged operation, changing a song request's status or
priority, requires an admin JWT:

	Authorization: Bearer <token>

Tokens are signed with security.jwt_secret and carry a role claim. Tokens are
minted offline with the CLI:

	onair admin-token --subject studio-desk

Responses:
  - 401 UNAUTHORIZED when the header is missing, malformed, or the token fails
    signature, algorithm, or expiry checks
  - 403 FORBIDDEN when the token is valid but its role is not admin
*/
package auth
