// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
)

// LocalStorage keeps uploads in a directory on disk.
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates dir if needed and returns a storage rooted there.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

func (s *LocalStorage) path(name string) (string, error) {
	if !ValidName(name) {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	full := filepath.Join(s.dir, name)
	if filepath.Dir(full) != filepath.Clean(s.dir) {
		return "", fmt.Errorf("object name %q escapes the uploads directory", name)
	}
	return full, nil
}

// Put writes data atomically via a temporary file in the same directory.
func (s *LocalStorage) Put(_ context.Context, name string, data []byte, _ string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing upload: %w", err)
	}
	if err := os.Chmod(tmpName, 0o640); err != nil {
		return fmt.Errorf("setting upload permissions: %w", err)
	}

	return os.Rename(tmpName, path)
}

// Get opens a stored file.
func (s *LocalStorage) Get(_ context.Context, name string) (io.ReadCloser, ObjectInfo, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, ObjectInfo{}, ErrNotExist
	}

	f, err := os.Open(path) // #nosec G304 -- path is validated to stay inside the uploads directory
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ObjectInfo{}, ErrNotExist
		}
		return nil, ObjectInfo{}, err
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, ObjectInfo{}, err
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, ObjectInfo{}, ErrNotExist
	}

	return f, ObjectInfo{
		Size:        st.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		ModTime:     st.ModTime(),
	}, nil
}

// Delete removes a stored file.
func (s *LocalStorage) Delete(_ context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Backend implements Storage.
func (s *LocalStorage) Backend() string { return "local" }

var _ Storage = (*LocalStorage)(nil)
