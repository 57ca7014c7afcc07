// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tomtom215/onair/internal/auth"
	"github.com/tomtom215/onair/internal/config"
)

const testSecret = "cli-test-secret-0123456789abcdefghij"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "onair "+version) {
		t.Errorf("output = %q", out)
	}
}

func TestAdminTokenCommand(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")
	t.Setenv("JWT_SECRET", testSecret)

	out, err := execute(t, "admin-token", "--subject", "studio-desk")
	if err != nil {
		t.Fatalf("admin-token: %v", err)
	}

	manager, err := auth.NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	claims, err := manager.ValidateToken(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Subject != "studio-desk" || claims.Role != auth.RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}
}

func TestAdminTokenCommandErrors(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	tests := []struct {
		name   string
		secret string
		args   []string
		want   string
	}{
		{"missing subject", testSecret, []string{"admin-token"}, "--subject"},
		{"no secret", "", []string{"admin-token", "--subject", "desk"}, "JWT_SECRET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}
