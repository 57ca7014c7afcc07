// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/onair/internal/auth"
	"github.com/tomtom215/onair/internal/config"
)

func newAdminTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Print a signed admin bearer token for song request moderation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject == "" {
				return errors.New("--subject is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if !cfg.Security.AdminEnabled() {
				return errors.New("JWT_SECRET is not set; admin routes are disabled")
			}

			security := cfg.Security
			if ttl > 0 {
				security.AdminTokenTTL = ttl
			}

			manager, err := auth.NewJWTManager(&security)
			if err != nil {
				return err
			}
			token, err := manager.GenerateToken(subject, auth.RoleAdmin)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "name of the operator the token is issued to")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default security.admin_token_ttl)")
	return cmd
}
