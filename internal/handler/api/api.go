// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON API handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/olegiv/onews-go/internal/auth"
	"github.com/olegiv/onews-go/internal/middleware"
	"github.com/olegiv/onews-go/internal/model"
	"github.com/olegiv/onews-go/internal/sanitize"
	"github.com/olegiv/onews-go/internal/service"
	"github.com/olegiv/onews-go/internal/store"
	"github.com/olegiv/onews-go/internal/upload"
	"github.com/olegiv/onews-go/internal/version"
)

// Articles is the article service used by the API.
type Articles interface {
	List(ctx context.Context, p service.ListParams) (service.ListResult, error)
	ListByCategory(ctx context.Context, category string, p service.ListParams) (service.ListResult, error)
	GetBySlug(ctx context.Context, slug, language string) (model.Article, error)
	Create(ctx context.Context, in service.CreateInput) (model.Article, error)
	Update(ctx context.Context, id int64, in service.UpdateInput) (model.Article, error)
	Delete(ctx context.Context, id int64) error
	Capabilities() store.Capabilities
}

// Tokens issues, verifies and revokes admin bearer tokens.
type Tokens interface {
	middleware.Authenticator
	Login(ctx context.Context, username, password string) (auth.Session, error)
	Logout(ctx context.Context, rawToken string) error
}

// Files serves stored uploads.
type Files interface {
	Open(ctx context.Context, name string) (io.ReadCloser, upload.ObjectInfo, error)
}

// Pinger checks a backing service.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators of the API handlers.
type Deps struct {
	Articles  Articles
	Tokens    Tokens
	Files     Files
	DB        Pinger
	Sanitizer *sanitize.Sanitizer

	LoginProtection *middleware.LoginProtection
	RateLimiter     *middleware.GlobalRateLimiter

	CacheBackend   string
	StorageBackend string
	Version        version.Info
	Logger         *slog.Logger
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	articles  Articles
	tokens    Tokens
	files     Files
	db        Pinger
	sanitizer *sanitize.Sanitizer
	login     *middleware.LoginProtection
	limiter   *middleware.GlobalRateLimiter
	cacheName string
	storeName string
	version   version.Info
	logger    *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	h := &Handler{
		articles:  d.Articles,
		tokens:    d.Tokens,
		files:     d.Files,
		db:        d.DB,
		sanitizer: d.Sanitizer,
		login:     d.LoginProtection,
		limiter:   d.RateLimiter,
		cacheName: d.CacheBackend,
		storeName: d.StorageBackend,
		version:   d.Version,
		logger:    d.Logger,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.sanitizer == nil {
		h.sanitizer = sanitize.Default()
	}
	return h
}

// MessageResponse is a body carrying a single message.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes {"error": message}.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	middleware.WriteAPIError(w, statusCode, message)
}

// WriteValidationError writes a 400 response with field errors.
func WriteValidationError(w http.ResponseWriter, fields map[string]string) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, middleware.ErrorResponse{
		Error:   "Validation failed",
		Details: fields,
	})
}

// schemaNotReadyResponse tells the operator how to bring the schema forward.
var schemaNotReadyResponse = middleware.ErrorResponse{
	Error:   "Database migration required",
	Message: "Language column does not exist. Please run: onews migrate",
	Details: map[string]string{
		"reason": "The database needs to be updated to support multi-language features.",
	},
}

// writeServiceError maps service errors to responses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteValidationError(w, verr.Fields)
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, "News not found")
	case errors.Is(err, service.ErrSchemaNotReady):
		middleware.WriteErrorResponse(w, http.StatusInternalServerError, schemaNotReadyResponse)
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusServiceUnavailable, "Request timeout")
	default:
		h.logger.Error("request failed",
			"category", model.EventCategorySystem,
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
