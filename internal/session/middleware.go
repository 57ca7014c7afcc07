// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package session

import (
	"net/http"
	"time"

	"github.com/tomtom215/onair/internal/config"
	"github.com/tomtom215/onair/internal/logging"
)

// Defaults used when the corresponding SessionConfig field is empty.
const (
	DefaultCookieName   = "onair_session"
	DefaultHeaderName   = "X-Session-Token"
	DefaultCookieMaxAge = 24 * time.Hour
)

// Resolver extracts and issues session tokens according to a SessionConfig.
type Resolver struct {
	cookieName string
	headerName string
	maxAge     time.Duration
}

// NewResolver creates a Resolver, filling unset fields with defaults.
func NewResolver(cfg config.SessionConfig) *Resolver {
	r := &Resolver{
		cookieName: cfg.CookieName,
		headerName: cfg.HeaderName,
		maxAge:     cfg.CookieMaxAge,
	}
	if r.cookieName == "" {
		r.cookieName = DefaultCookieName
	}
	if r.headerName == "" {
		r.headerName = DefaultHeaderName
	}
	if r.maxAge <= 0 {
		r.maxAge = DefaultCookieMaxAge
	}
	return r
}

// FromRequest extracts a valid session token from r.
// Priority: Header > Cookie. Invalid values are ignored.
func (res *Resolver) FromRequest(r *http.Request) (string, bool) {
	if v := r.Header.Get(res.headerName); v != "" && Validate(v) == nil {
		return v, true
	}

	cookie, err := r.Cookie(res.cookieName)
	if err == nil && cookie.Value != "" && Validate(cookie.Value) == nil {
		return cookie.Value, true
	}

	return "", false
}

// SetCookie writes the session cookie for token on w.
func (res *Resolver) SetCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     res.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(res.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware resolves the session token for each request and stores it on
// the request context. Requests without a valid token are issued a new one
// via Set-Cookie and an echoing response header.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := res.FromRequest(r); ok {
			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
			return
		}

		token := NewToken()
		res.SetCookie(w, r, token)
		w.Header().Set(res.headerName, token)
		logging.Ctx(r.Context()).Debug().Msg("Issued new session token")

		next.ServeHTTP(w, r.WithContext(WithIssuedToken(r.Context(), token)))
	})
}
