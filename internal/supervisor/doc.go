// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

/*
Package supervisor runs OnAir's long-lived services under a suture v4 tree.

	RootSupervisor ("onair")
	├── DataSupervisor ("data-layer")
	│   └── PresencePurgeService
	├── MessagingSupervisor ("messaging-layer")
	│   └── EventBusService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A failing purge or bus router is restarted with backoff without touching the
HTTP server. Presence counts never depend on the purge running, and snapshot
invalidation only shortens cache staleness, so both may be down while the API
keeps serving.

Supervisor events are logged through sutureslog on top of the zerolog-backed
slog handler from internal/logging.
*/
package supervisor
