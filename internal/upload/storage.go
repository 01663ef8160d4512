// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package upload accepts article images and stores them on local disk or in
// an S3-compatible bucket.
package upload

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotExist is returned when a stored object does not exist.
var ErrNotExist = errors.New("upload: object does not exist")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Storage persists uploaded objects by flat name.
// Names never contain path separators.
type Storage interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	// Get returns ErrNotExist when name is absent. The caller closes the reader.
	Get(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error)
	// Delete is a no-op when name is absent.
	Delete(ctx context.Context, name string) error
	// Backend names the storage for logs and health checks.
	Backend() string
}
