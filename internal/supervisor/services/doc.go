// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

/*
Package services adapts OnAir components to suture.Service.

Each wrapper translates a component's own lifecycle into Serve(ctx) error:

  - HTTPServerService: ListenAndServe plus graceful Shutdown on cancel.
  - PresencePurgeService: a ticker that deletes presence rows past the
    retention period. Purge errors are logged and the loop continues.
  - EventBusService: runs the in-process watermill router until canceled.

Wrappers depend on small interfaces rather than concrete types so they can
be tested with doubles.
*/
package services
