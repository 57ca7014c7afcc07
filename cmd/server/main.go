// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

// Package main is the entry point for the OnAir server.
//
// OnAir tracks who is watching or listening to a broadcaster's live TV and
// radio streams and collects their reactions, comments and song requests.
//
// # Commands
//
//	onair serve                          run the HTTP API (default)
//	onair admin-token --subject <name>   print a signed admin bearer token
//	onair version                        print build information
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (HTTP_PORT, DUCKDB_PATH, JWT_SECRET, ...)
//   - Config file (CONFIG_PATH or ./config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
// in-flight requests within server.shutdown_timeout, then the event bus,
// presence store and DuckDB are closed in reverse order of creation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build information, set via -ldflags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "onair",
		Short:         "Live audience presence and engagement for TV and radio streams",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newAdminTokenCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "onair:", err)
		os.Exit(1)
	}
}
