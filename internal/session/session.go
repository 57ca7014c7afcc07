// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/tomtom215/onair/internal/models"
)

// MaxTokenLength is the longest session token accepted, in bytes.
const MaxTokenLength = 128

type contextKey struct{}

type issuedKey struct{}

// NewToken returns a fresh random session token.
func NewToken() string {
	return uuid.New().String()
}

// Validate reports whether token is acceptable as a session token: non-empty,
// at most MaxTokenLength bytes, and limited to [A-Za-z0-9._:-].
func Validate(token string) error {
	if token == "" {
		return models.NewValidationError("sessionToken", "is required")
	}
	if len(token) > MaxTokenLength {
		return models.NewValidationError("sessionToken", "is too long")
	}
	for i := 0; i < len(token); i++ {
		if !isTokenChar(token[i]) {
			return models.NewValidationError("sessionToken", "contains invalid characters")
		}
	}
	return nil
}

func isTokenChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.', c == '_', c == ':', c == '-':
		return true
	}
	return false
}

// WithToken returns a copy of ctx carrying token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKey{}, token)
}

// WithIssuedToken is WithToken for a token the server minted on this request.
// Such a token carries no client history, so per-session limits should not
// trust it.
func WithIssuedToken(ctx context.Context, token string) context.Context {
	return context.WithValue(WithToken(ctx, token), issuedKey{}, true)
}

// Issued reports whether the session token on ctx was minted for this request
// rather than presented by the client.
func Issued(ctx context.Context) bool {
	issued, _ := ctx.Value(issuedKey{}).(bool)
	return issued
}

// FromContext returns the session token stored by Middleware, if any.
func FromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(contextKey{}).(string)
	return token, ok && token != ""
}
