// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

/*
Package middleware provides HTTP middleware shared by the API router.

Key Components:

  - RequestID: propagates or generates X-Request-ID and seeds the logging
    context with request and correlation IDs
  - PrometheusMetrics: request count, latency and in-flight gauge, labeled by
    chi route pattern so path parameters do not explode cardinality
  - SecurityHeaders: response hardening headers for a JSON API
  - SessionRateLimiter: per-session token bucket for engagement submissions

Middleware Stack:

The router composes these with chi's own middleware:

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(...))

	r.Group(func(r chi.Router) {
	    r.Use(httprate.LimitByIP(...))
	    r.Use(middleware.SecurityHeaders)
	    r.Use(middleware.PrometheusMetrics)
	    r.With(limiter.Middleware).Post("/live-reactions", ...)
	})

All middleware here uses the http.Handler signature expected by chi.
*/
package middleware
