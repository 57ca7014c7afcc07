// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/onair/internal/aggregation"
	"github.com/tomtom215/onair/internal/api"
	"github.com/tomtom215/onair/internal/audit"
	"github.com/tomtom215/onair/internal/config"
	"github.com/tomtom215/onair/internal/database"
	"github.com/tomtom215/onair/internal/engagement"
	"github.com/tomtom215/onair/internal/eventbus"
	"github.com/tomtom215/onair/internal/logging"
	"github.com/tomtom215/onair/internal/presence"
	"github.com/tomtom215/onair/internal/supervisor"
	"github.com/tomtom215/onair/internal/supervisor/services"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func initLogging(cfg *config.Config) {
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
		Service:   "onair",
		Version:   version,
	})
}

// openPresenceStore returns the configured presence backend and a closer
// for any resources it owns beyond db.
func openPresenceStore(cfg *config.Config, db *database.DB) (presence.Store, func(), error) {
	if cfg.Presence.Backend != config.PresenceBackendBadger {
		return db, func() {}, nil
	}

	bdb, err := presence.OpenBadger(cfg.Presence.BadgerPath)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if err := bdb.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing presence badger store")
		}
	}
	return presence.NewBadgerStore(bdb, cfg.Presence.RetentionPeriod()), closer, nil
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	initLogging(cfg)

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("presence_backend", cfg.Presence.Backend).
		Dur("liveness_timeout", cfg.Presence.LivenessTimeout).
		Dur("heartbeat_interval", cfg.Presence.HeartbeatInterval).
		Msg("Starting OnAir with supervisor tree")

	db, err := database.New(&cfg.Database, cfg.Presence.StoreOpTimeout)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Str("path", db.GetDatabasePath()).Msg("Database initialized successfully")

	auditStore := audit.NewDuckDBStore(db.Conn())
	if err := auditStore.CreateTable(parent); err != nil {
		return fmt.Errorf("initialize audit store: %w", err)
	}
	auditLog := audit.NewLogger(auditStore, nil)
	defer func() {
		if err := auditLog.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit logger")
		}
	}()

	presenceStore, closePresence, err := openPresenceStore(cfg, db)
	if err != nil {
		return fmt.Errorf("open presence store: %w", err)
	}
	defer closePresence()

	bus, err := eventbus.New(eventbus.DefaultConfig())
	if err != nil {
		return fmt.Errorf("create event bus: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	tracker := presence.NewTracker(presenceStore, cfg.Presence)
	log := engagement.NewLog(db, cfg.Engagement, engagement.WithNotifier(bus))
	svc := aggregation.NewService(tracker, log, cfg.Aggregation)
	defer svc.Close()

	bus.OnAppended("snapshot-invalidation", svc.HandleAppended)

	router, err := api.NewRouter(api.NewHandler(svc, cfg).WithAuditLogger(auditLog), cfg)
	if err != nil {
		return fmt.Errorf("create router: %w", err)
	}
	defer router.Close()

	if cfg.API.RateLimitDisabled {
		logging.Warn().Msg("Per-IP rate limiting is DISABLED (RATE_LIMIT_DISABLED=true)")
	}
	if len(cfg.API.CORSOrigins) == 1 && cfg.API.CORSOrigins[0] == "*" {
		logging.Warn().Msg("CORS allows any origin; set CORS_ORIGINS to the player origins in production")
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewComponentSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddDataService(services.NewPresencePurgeService(tracker, cfg.Presence.PurgeInterval))
	tree.AddMessagingService(services.NewEventBusService(bus))
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("OnAir stopped gracefully")
	return nil
}
