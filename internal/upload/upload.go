// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/onews-go/internal/imaging"
	"github.com/olegiv/onews-go/internal/metrics"
)

// Upload limits.
const (
	MaxFileSize = 10 * 1024 * 1024 // 10MB
	FormField   = "image"
	PathPrefix  = "/uploads/"
)

var (
	// ErrTooLarge is returned for files over MaxFileSize.
	ErrTooLarge = errors.New("image exceeds the 10MB limit")
	// ErrUnsupportedType is returned for anything that is not a JPEG, PNG, GIF or WebP image.
	ErrUnsupportedType = errors.New("only JPEG, PNG, GIF and WebP images are allowed")
)

// Uploader validates, normalizes and stores article images.
type Uploader struct {
	storage   Storage
	processor *imaging.Processor
}

// NewUploader creates an uploader writing to storage.
func NewUploader(storage Storage, processor *imaging.Processor) *Uploader {
	if processor == nil {
		processor = imaging.NewProcessor(0, 0)
	}
	return &Uploader{storage: storage, processor: processor}
}

// Storage returns the backing storage.
func (u *Uploader) Storage() Storage {
	return u.storage
}

// Save stores the image read from r and returns its public path
// ("/uploads/<uuid>.<ext>"). declaredType is the client-supplied content
// type; the stored type is always taken from the decoded data.
func (u *Uploader) Save(ctx context.Context, r io.Reader, declaredType string) (path string, err error) {
	defer func() {
		outcome := "stored"
		switch {
		case errors.Is(err, ErrTooLarge) || errors.Is(err, ErrUnsupportedType):
			outcome = "rejected"
		case err != nil:
			outcome = "failed"
		}
		metrics.UploadsTotal.WithLabelValues(u.storage.Backend(), outcome).Inc()
	}()

	if declaredType != "" {
		mt := strings.ToLower(strings.TrimSpace(strings.SplitN(declaredType, ";", 2)[0]))
		if mt != "application/octet-stream" && !imaging.IsImage(mt) {
			return "", ErrUnsupportedType
		}
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > MaxFileSize {
		return "", ErrTooLarge
	}
	if !imaging.IsImage(imaging.DetectMimeType(data)) {
		return "", ErrUnsupportedType
	}

	res, err := u.processor.Process(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return "", ErrUnsupportedType
		}
		return "", fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}

	name := uuid.NewString() + res.Ext
	if err := u.storage.Put(ctx, name, res.Data, res.MimeType); err != nil {
		return "", fmt.Errorf("storing upload: %w", err)
	}

	return PathPrefix + name, nil
}

// Remove deletes the object behind a public path returned by Save.
// Paths outside PathPrefix are ignored.
func (u *Uploader) Remove(ctx context.Context, publicPath string) error {
	name, ok := NameFromPath(publicPath)
	if !ok {
		return nil
	}
	return u.storage.Delete(ctx, name)
}

// Open returns a stored object by name.
func (u *Uploader) Open(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error) {
	if !ValidName(name) {
		return nil, ObjectInfo{}, ErrNotExist
	}
	return u.storage.Get(ctx, name)
}

// NameFromPath extracts the object name from a public upload path.
func NameFromPath(publicPath string) (string, bool) {
	name, ok := strings.CutPrefix(publicPath, PathPrefix)
	if !ok || !ValidName(name) {
		return "", false
	}
	return name, true
}

// ValidName reports whether name looks like an object name produced by Save.
func ValidName(name string) bool {
	if name == "" || len(name) > 64 || strings.HasPrefix(name, ".") {
		return false
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '.') {
			return false
		}
	}
	return !strings.Contains(name, "..")
}
