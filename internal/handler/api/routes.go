// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/onews-go/internal/middleware"
	"github.com/olegiv/onews-go/internal/upload"
)

// Body limits.
const (
	maxWriteBody = upload.MaxFileSize + 1<<20 // image plus form fields
	maxLoginBody = 64 << 10
)

// Register mounts the API under /api and the upload file server under /uploads.
func (h *Handler) Register(r chi.Router) {
	r.Mount("/api", h.Routes())
	r.Get(upload.PathPrefix+"{name}", h.ServeUpload)
	r.Head(upload.PathPrefix+"{name}", h.ServeUpload)
}

// Routes returns the /api router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	if h.limiter != nil {
		r.Use(h.limiter.Middleware())
	}

	adminAuth := middleware.AdminAuth(h.tokens, h.logger)

	r.With(middleware.OptionalAdminAuth(h.tokens)).Get("/health", h.Health)
	r.Get("/sanitize-policy", h.SanitizePolicy)

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.login != nil {
				r.Use(h.login.Middleware())
			}
			r.Use(chimw.RequestSize(maxLoginBody))
			r.Use(middleware.RejectRoleField(maxLoginBody, h.logger))
			r.Post("/login", h.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(adminAuth)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
		})
	})

	r.Route("/news", func(r chi.Router) {
		r.Get("/", h.ListNews)
		r.Get("/category/{category}", h.ListNewsByCategory)
		r.Get("/{slug}", h.GetNews)

		r.Group(func(r chi.Router) {
			r.Use(adminAuth)
			r.Use(middleware.RequireAdmin)
			r.Use(middleware.RejectRoleField(maxWriteBody, h.logger))
			r.Post("/", h.CreateNews)
			r.Put("/{id}", h.UpdateNews)
			r.Delete("/{id}", h.DeleteNews)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
