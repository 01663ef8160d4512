// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package upload

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/onews-go/internal/imaging"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newLocalUploader(t *testing.T) (*Uploader, string) {
	t.Helper()
	dir := t.TempDir()
	storage, err := NewLocalStorage(dir)
	require.NoError(t, err)
	return NewUploader(storage, imaging.NewProcessor(0, 0)), dir
}

func TestUploader_SaveAndOpen(t *testing.T) {
	u, dir := newLocalUploader(t)
	ctx := context.Background()

	path, err := u.Save(ctx, bytes.NewReader(pngBytes(t, 16, 16)), "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, PathPrefix))
	assert.True(t, strings.HasSuffix(path, ".png"))

	name, ok := NameFromPath(path)
	require.True(t, ok)
	_, err = os.Stat(filepath.Join(dir, name))
	require.NoError(t, err)

	rc, info, err := u.Open(ctx, name)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), info.Size)
	assert.Equal(t, "image/png", info.ContentType)

	require.NoError(t, u.Remove(ctx, path))
	_, _, err = u.Open(ctx, name)
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestUploader_RejectsDeclaredType(t *testing.T) {
	u, _ := newLocalUploader(t)

	_, err := u.Save(context.Background(), bytes.NewReader(pngBytes(t, 4, 4)), "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestUploader_RejectsSniffedType(t *testing.T) {
	u, _ := newLocalUploader(t)

	_, err := u.Save(context.Background(), strings.NewReader("<html><script>alert(1)</script>"), "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestUploader_RejectsLargeFile(t *testing.T) {
	u, _ := newLocalUploader(t)

	big := make([]byte, MaxFileSize+1)
	copy(big, pngBytes(t, 2, 2))
	_, err := u.Save(context.Background(), bytes.NewReader(big), "image/png")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestUploader_RemoveIgnoresForeignPaths(t *testing.T) {
	u, dir := newLocalUploader(t)
	outside := filepath.Join(filepath.Dir(dir), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))
	t.Cleanup(func() { _ = os.Remove(outside) })

	for _, p := range []string{"", "https://cdn.example.com/a.png", "/uploads/../keep.txt", "/static/a.png"} {
		assert.NoError(t, u.Remove(context.Background(), p), p)
	}
	_, err := os.Stat(outside)
	assert.NoError(t, err)
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"0b7e2f1c-3a4d-4c5e-8f90-123456789abc.jpg", true},
		{"a.png", true},
		{"", false},
		{".hidden", false},
		{"../etc/passwd", false},
		{"a/b.png", false},
		{"A.PNG", false},
		{"a..png", false},
		{strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidName(tt.name))
		})
	}
}
