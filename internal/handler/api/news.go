// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/onews-go/internal/model"
	"github.com/olegiv/onews-go/internal/service"
	"github.com/olegiv/onews-go/internal/upload"
	"github.com/olegiv/onews-go/internal/util"
)

// multipartMemory matches the limit used by the role guard, which usually
// parses the form first.
const multipartMemory = 12 << 20

// Form fields accepted on writes.
const (
	fieldTitle            = "title"
	fieldShortDescription = "short_description"
	fieldContent          = "content"
	fieldCategory         = "category"
	fieldLanguage         = "language"
	fieldFormat           = "format"
)

// listParams reads page, limit and language from the query string.
// Unparseable numbers select the defaults.
func listParams(r *http.Request) service.ListParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return service.ListParams{
		Page:     page,
		Limit:    limit,
		Language: q.Get("language"),
	}
}

// ListNews handles GET /api/news.
func (h *Handler) ListNews(w http.ResponseWriter, r *http.Request) {
	res, err := h.articles.List(r.Context(), listParams(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// ListNewsByCategory handles GET /api/news/category/{category}.
func (h *Handler) ListNewsByCategory(w http.ResponseWriter, r *http.Request) {
	res, err := h.articles.ListByCategory(r.Context(), chi.URLParam(r, "category"), listParams(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// GetNews handles GET /api/news/{slug}.
func (h *Handler) GetNews(w http.ResponseWriter, r *http.Request) {
	article, err := h.articles.GetBySlug(r.Context(), chi.URLParam(r, "slug"), r.URL.Query().Get("language"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, article)
}

// CreateNews handles POST /api/news.
func (h *Handler) CreateNews(w http.ResponseWriter, r *http.Request) {
	var in service.CreateInput

	if isMultipart(r) {
		form, ok := h.parseMultipart(w, r)
		if !ok {
			return
		}
		in = service.CreateInput{
			Title:            formValue(form, fieldTitle),
			ShortDescription: formValue(form, fieldShortDescription),
			Content:          formValue(form, fieldContent),
			Category:         formValue(form, fieldCategory),
			Language:         formValue(form, fieldLanguage),
			Format:           model.ContentFormat(formValue(form, fieldFormat)),
		}
		img, closeImg, err := formImage(r)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid image upload")
			return
		}
		defer closeImg()
		in.Image = img
	} else if !decodeJSON(w, r, &in) {
		return
	}

	article, err := h.articles.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, article)
}

// UpdateNews handles PUT /api/news/{id}. Fields left out keep their values.
func (h *Handler) UpdateNews(w http.ResponseWriter, r *http.Request) {
	id, ok := util.ParsePositiveID(chi.URLParam(r, "id"))
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid news ID")
		return
	}

	var in service.UpdateInput

	if isMultipart(r) {
		form, ok := h.parseMultipart(w, r)
		if !ok {
			return
		}
		in = service.UpdateInput{
			Title:            optionalFormValue(form, fieldTitle),
			ShortDescription: optionalFormValue(form, fieldShortDescription),
			Content:          optionalFormValue(form, fieldContent),
			Category:         optionalFormValue(form, fieldCategory),
			Language:         optionalFormValue(form, fieldLanguage),
			Format:           model.ContentFormat(formValue(form, fieldFormat)),
		}
		img, closeImg, err := formImage(r)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid image upload")
			return
		}
		defer closeImg()
		in.Image = img
	} else if !decodeJSON(w, r, &in) {
		return
	}

	article, err := h.articles.Update(r.Context(), id, in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, article)
}

// DeleteNews handles DELETE /api/news/{id}.
func (h *Handler) DeleteNews(w http.ResponseWriter, r *http.Request) {
	id, ok := util.ParsePositiveID(chi.URLParam(r, "id"))
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid news ID")
		return
	}

	if err := h.articles.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "News deleted successfully"})
}

func isMultipart(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "multipart/form-data"
}

func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) (*multipart.Form, bool) {
	if r.MultipartForm == nil {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			} else {
				WriteError(w, http.StatusBadRequest, "Invalid multipart form")
			}
			return nil, false
		}
	}
	return r.MultipartForm, true
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func optionalFormValue(form *multipart.Form, key string) *string {
	v, ok := form.Value[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}

// formImage returns the uploaded image, if any, and a func that releases it.
func formImage(r *http.Request) (*service.Image, func(), error) {
	files := r.MultipartForm.File[upload.FormField]
	if len(files) == 0 {
		return nil, func() {}, nil
	}

	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &service.Image{
		Reader:      f,
		ContentType: fh.Header.Get("Content-Type"),
	}, func() { _ = f.Close() }, nil
}

// decodeJSON decodes the request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		case errors.Is(err, io.EOF):
			WriteError(w, http.StatusBadRequest, "Request body is required")
		default:
			WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		}
		return false
	}
	return true
}
