// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/olegiv/onews-go/internal/auth"
)

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks are only reported to authenticated admins.
type HealthChecks struct {
	Database      string `json:"database"`
	SchemaVersion int64  `json:"schema_version"`
	Multilingual  bool   `json:"multilingual"`
	Cache         string `json:"cache"`
	Storage       string `json:"storage"`
	Version       string `json:"version"`
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "OK", Message: "Server is running"}

	p, ok := auth.PrincipalFrom(r.Context())
	if !ok || !p.IsAdmin() {
		WriteJSON(w, http.StatusOK, resp)
		return
	}

	caps := h.articles.Capabilities()
	checks := &HealthChecks{
		Database:      "ok",
		SchemaVersion: caps.Version,
		Multilingual:  caps.Multilingual,
		Cache:         h.cacheName,
		Storage:       h.storeName,
		Version:       h.version.Version,
	}

	status := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			checks.Database = "unavailable"
			resp.Status = "DEGRADED"
			resp.Message = "Database is unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	if !caps.Multilingual && resp.Status == "OK" {
		resp.Status = "DEGRADED"
		resp.Message = "Database migration required"
	}

	resp.Checks = checks
	WriteJSON(w, status, resp)
}

// SanitizePolicy handles GET /api/sanitize-policy. Clients that pre-render
// article HTML use it to apply the same allow-list as the server.
func (h *Handler) SanitizePolicy(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	WriteJSON(w, http.StatusOK, h.sanitizer.Policy())
}
