// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/onair/internal/auth"
	"github.com/tomtom215/onair/internal/config"
	"github.com/tomtom215/onair/internal/logging"
	"github.com/tomtom215/onair/internal/middleware"
	"github.com/tomtom215/onair/internal/session"
)

// APIPrefix is the versioned route prefix. Every route is also served
// without it.
const APIPrefix = "/api/v1"

// compressionLevel is the gzip level for read responses.
const compressionLevel = 5

// limiterCleanupInterval is how often idle per-session limiters are dropped.
const limiterCleanupInterval = 10 * time.Minute

// Router wires handlers to chi routes and owns per-router middleware state.
type Router struct {
	handler        *Handler
	chiMiddleware  *ChiMiddleware
	ipLimit        func(http.Handler) http.Handler
	resolver       *session.Resolver
	sessionLimiter *middleware.SessionRateLimiter
	admin          *auth.Middleware
}

// NewRouter creates a Router. Admin routes are only mounted when a JWT
// secret is configured.
func NewRouter(handler *Handler, cfg *config.Config) (*Router, error) {
	mc := ChiMiddlewareConfigFrom(cfg)
	mc.RateLimitOnLimit = rateLimited

	router := &Router{
		handler:        handler,
		chiMiddleware:  NewChiMiddleware(mc),
		resolver:       session.NewResolver(cfg.Session),
		sessionLimiter: middleware.NewSessionRateLimiter(cfg.Engagement.SubmitRate, cfg.Engagement.SubmitBurst, rateLimited),
	}
	// One shared per-IP budget across every group and both route prefixes
	router.ipLimit = router.chiMiddleware.RateLimit()

	if cfg.Security.AdminEnabled() {
		jwtManager, err := auth.NewJWTManager(&cfg.Security)
		if err != nil {
			return nil, fmt.Errorf("admin auth: %w", err)
		}
		router.admin = auth.NewMiddleware(jwtManager)
	} else {
		logging.Warn().Msg("security.jwt_secret is not set; song request administration is disabled")
	}

	router.sessionLimiter.StartCleanup(limiterCleanupInterval)
	return router, nil
}

// Close stops background work owned by the router.
func (router *Router) Close() {
	router.sessionLimiter.Stop()
}

// SetupChi builds the HTTP handler for every route.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Applied to ALL routes in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	r.Route(APIPrefix, router.mount)
	r.Group(func(r chi.Router) {
		r.Use(bareResponses)
		router.mount(r)
	})

	// Prometheus exposition, unprefixed only
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// mount registers the route table on r. It runs once under APIPrefix and
// once at the root.
func (router *Router) mount(r chi.Router) {
	h := router.handler

	r.Route("/health", func(r chi.Router) {
		r.Use(middleware.SecurityHeaders)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	// Presence writes
	r.Group(func(r chi.Router) {
		r.Use(router.ipLimit)
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.resolver.Middleware)

		r.Post("/active-users/join", h.Join)
		r.Post("/active-users/heartbeat", h.Heartbeat)
		r.Post("/active-users/leave", h.Leave)
	})

	// Engagement submissions, throttled per session
	r.Group(func(r chi.Router) {
		r.Use(router.ipLimit)
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.resolver.Middleware)
		r.Use(router.sessionLimiter.Middleware)

		r.Post("/live-reactions", h.SubmitReaction)
		r.Post("/live-comments", h.SubmitComment)
		r.Post("/song-requests", h.SubmitSongRequest)
	})

	// Polled reads
	r.Group(func(r chi.Router) {
		r.Use(router.ipLimit)
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.PrometheusMetrics)
		r.Use(chimiddleware.Compress(compressionLevel))

		r.Get("/active-users/count/{streamType}", h.ViewerCount)
		r.Get("/live-reactions/{streamType}", h.RecentReactions)
		r.Get("/live-reactions/{streamType}/tally", h.ReactionTally)
		r.Get("/live-comments/{streamType}", h.RecentComments)
		r.Get("/song-requests", h.ListSongRequests)
		r.Get("/engagement/{streamType}", h.EngagementSnapshot)
		r.Get("/config/client", h.ClientConfig)
	})

	if router.admin != nil {
		r.Group(func(r chi.Router) {
			r.Use(router.ipLimit)
			r.Use(middleware.SecurityHeaders)
			r.Use(middleware.PrometheusMetrics)
			r.Use(router.admin.RequireAdmin)

			r.Patch("/song-requests/{id}", h.UpdateSongRequest)
			if h.audit != nil {
				r.Get("/admin/audit-events", h.ListAuditEvents)
			}
		})
	}
}
