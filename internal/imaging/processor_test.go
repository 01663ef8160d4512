// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

// createTestImage creates a simple test image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodeTestImage(t *testing.T, img image.Image, format string) []byte {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, nil)
	}
	if err != nil {
		t.Fatalf("encoding %s: %v", format, err)
	}
	return buf.Bytes()
}

func TestProcessKeepsFormat(t *testing.T) {
	p := NewProcessor(0, 0)

	tests := []struct {
		format   string
		wantMime string
		wantExt  string
	}{
		{"jpeg", MimeTypeJPEG, ".jpg"},
		{"png", MimeTypePNG, ".png"},
		{"gif", MimeTypeGIF, ".gif"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			data := encodeTestImage(t, createTestImage(40, 30), tt.format)

			res, err := p.Process(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if res.MimeType != tt.wantMime || res.Ext != tt.wantExt {
				t.Errorf("got (%s, %s), want (%s, %s)", res.MimeType, res.Ext, tt.wantMime, tt.wantExt)
			}
			if res.Width != 40 || res.Height != 30 {
				t.Errorf("size = %dx%d, want 40x30", res.Width, res.Height)
			}
			if DetectMimeType(res.Data) != tt.wantMime {
				t.Errorf("output sniffs as %s", DetectMimeType(res.Data))
			}
		})
	}
}

func TestProcessDownscales(t *testing.T) {
	p := NewProcessor(50, 80)
	data := encodeTestImage(t, createTestImage(200, 100), "png")

	res, err := p.Process(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Width != 50 || res.Height != 25 {
		t.Errorf("size = %dx%d, want 50x25", res.Width, res.Height)
	}
}

func TestProcessRejectsNonImages(t *testing.T) {
	p := NewProcessor(0, 0)

	inputs := map[string][]byte{
		"text":  []byte("just some text"),
		"html":  []byte("<html><script>alert(1)</script></html>"),
		"empty": nil,
		"tiff":  {0x49, 0x49, 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00},
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := p.Process(bytes.NewReader(data))
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("Process error = %v, want ErrUnsupportedFormat", err)
			}
		})
	}
}

func TestProcessCorruptImage(t *testing.T) {
	p := NewProcessor(0, 0)
	// Valid PNG signature, garbage body.
	data := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, []byte(strings.Repeat("x", 64))...)

	_, err := p.Process(bytes.NewReader(data))
	if err == nil || errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Process error = %v, want decode error", err)
	}
}

func TestIsImage(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{MimeTypeJPEG, true},
		{MimeTypePNG, true},
		{MimeTypeGIF, true},
		{MimeTypeWebP, true},
		{"application/pdf", false},
		{"image/svg+xml", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			if got := IsImage(tt.mimeType); got != tt.want {
				t.Errorf("IsImage(%q) = %v, want %v", tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg magic bytes", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg"},
		{"png magic bytes", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "png"},
		{"gif magic bytes", []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61}, "gif"},
		{"unknown", []byte{0x00, 0x01, 0x02, 0x03}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.data); got != tt.want {
				t.Errorf("detectFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyOrientation(t *testing.T) {
	img := createTestImage(20, 10)

	tests := []struct {
		orientation   int
		width, height int
	}{
		{0, 20, 10},
		{1, 20, 10},
		{2, 20, 10},
		{3, 20, 10},
		{4, 20, 10},
		{5, 10, 20},
		{6, 10, 20},
		{7, 10, 20},
		{8, 10, 20},
		{9, 20, 10},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("orientation_%d", tt.orientation), func(t *testing.T) {
			b := applyOrientation(img, tt.orientation).Bounds()
			if b.Dx() != tt.width || b.Dy() != tt.height {
				t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.width, tt.height)
			}
		})
	}
}
