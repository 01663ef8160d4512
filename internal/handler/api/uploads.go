// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/onews-go/internal/model"
	"github.com/olegiv/onews-go/internal/upload"
)

// ServeUpload handles GET /uploads/{name}. Names are uuids, so responses
// are cached indefinitely.
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !upload.ValidName(name) {
		http.NotFound(w, r)
		return
	}

	body, info, err := h.files.Open(r.Context(), name)
	if errors.Is(err, upload.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("opening upload failed", "category", model.EventCategoryUpload, "name", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer func() { _ = body.Close() }()

	hdr := w.Header()
	if info.ContentType != "" {
		hdr.Set("Content-Type", info.ContentType)
	}
	if info.Size > 0 {
		hdr.Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if !info.ModTime.IsZero() {
		hdr.Set("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))
	}
	hdr.Set("Cache-Control", "public, max-age=31536000, immutable")
	hdr.Set("X-Content-Type-Options", "nosniff")

	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Debug("streaming upload interrupted", "name", name, "error", err)
	}
}
