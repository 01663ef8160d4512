// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/onews-go/internal/auth"
	"github.com/olegiv/onews-go/internal/imaging"
	"github.com/olegiv/onews-go/internal/middleware"
	"github.com/olegiv/onews-go/internal/service"
	"github.com/olegiv/onews-go/internal/store"
	"github.com/olegiv/onews-go/internal/testutil"
	"github.com/olegiv/onews-go/internal/upload"
)

const (
	testAdminUser     = "editor"
	testAdminPassword = "correct-horse"
)

type testEnv struct {
	db       *sql.DB
	router   http.Handler
	token    string
	tokens   *auth.Service
	uploads  *upload.Uploader
	articles *service.ArticleService
}

func newTestEnv(t *testing.T, db *sql.DB) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := testutil.DiscardLogger()

	caps, err := store.ReadCapabilities(db)
	require.NoError(t, err)

	storage, err := upload.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	uploader := upload.NewUploader(storage, imaging.NewProcessor(imaging.DefaultMaxDimension, imaging.DefaultQuality))

	articles := service.NewArticleService(db, service.Options{
		Capabilities: caps,
		Images:       uploader,
		Logger:       logger,
	})

	_, err = auth.Provision(ctx, db, testAdminUser, testAdminPassword)
	require.NoError(t, err)
	tokens := auth.NewService(db, time.Hour, logger)
	session, err := tokens.Login(ctx, testAdminUser, testAdminPassword)
	require.NoError(t, err)

	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       100,
		IPBurst:           100,
		MaxFailedAttempts: 3,
	}, logger)
	t.Cleanup(lp.Stop)

	h := NewHandler(Deps{
		Articles:        articles,
		Tokens:          tokens,
		Files:           uploader,
		DB:              db,
		LoginProtection: lp,
		CacheBackend:    "none",
		StorageBackend:  storage.Backend(),
		Logger:          logger,
	})

	r := chi.NewRouter()
	h.Register(r)

	return &testEnv{
		db:       db,
		router:   r,
		token:    session.Token,
		tokens:   tokens,
		uploads:  uploader,
		articles: articles,
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		fw, err := mw.CreateFormFile(upload.FormField, "photo.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x * 20), B: uint8(y * 20), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "value", decode[map[string]string](t, w)["key"])
}

func TestWriteServiceError(t *testing.T) {
	h := NewHandler(Deps{Logger: testutil.DiscardLogger()})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"validation", &service.ValidationError{Fields: map[string]string{"title": "is required"}}, http.StatusBadRequest, "Validation failed"},
		{"not found", service.ErrNotFound, http.StatusNotFound, "News not found"},
		{"wrapped not found", errors.Join(errors.New("ctx"), service.ErrNotFound), http.StatusNotFound, "News not found"},
		{"schema", service.ErrSchemaNotReady, http.StatusInternalServerError, "Database migration required"},
		{"timeout", context.DeadlineExceeded, http.StatusServiceUnavailable, "Request timeout"},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.writeServiceError(w, httptest.NewRequest(http.MethodGet, "/api/news", nil), tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode[middleware.ErrorResponse](t, w)
			assert.Equal(t, tt.wantError, resp.Error)
			assert.NotContains(t, w.Body.String(), "disk on fire")
		})
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	env := newTestEnv(t, testutil.TestDB(t))

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/nope", nil), false)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", decode[middleware.ErrorResponse](t, w).Error)
}
