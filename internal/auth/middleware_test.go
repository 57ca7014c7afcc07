// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestRequireAdmin(t *testing.T) {
	manager := newTestManager(t)
	mw := NewMiddleware(manager)

	adminToken, err := manager.GenerateToken("desk", RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	viewerToken, err := manager.GenerateToken("listener", "viewer")
	if err != nil {
		t.Fatal(err)
	}

	var gotSubject string
	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if ok {
			gotSubject = claims.Subject
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"missing header", "", http.StatusUnauthorized, ErrCodeUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ErrCodeUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, ErrCodeUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, ErrCodeUnauthorized},
		{"non-admin role", "Bearer " + viewerToken, http.StatusForbidden, ErrCodeForbidden},
		{"admin", "Bearer " + adminToken, http.StatusNoContent, ""},
		{"lowercase scheme", "bearer " + adminToken, http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSubject = ""
			req := httptest.NewRequest(http.MethodPatch, "/api/v1/song-requests/1", strings.NewReader(`{}`))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode == "" {
				if gotSubject != "desk" {
					t.Errorf("claims subject = %q, want desk", gotSubject)
				}
				return
			}

			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Success {
				t.Error("success = true on error")
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("error code = %q, want %q", body.Error.Code, tt.wantCode)
			}
			if tt.wantStatus == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate header on 401")
			}
		})
	}
}
