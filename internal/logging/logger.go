// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/lumberjack"
)

// Options configures the base logger.
type Options struct {
	Level string // debug, info, warn or error
	// File, when set, receives a copy of every record through a rotating sink.
	File string
	// Output defaults to os.Stdout.
	Output io.Writer
}

// ParseLevel maps a level name to a slog.Level. Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler returns the text handler used by the application and a closer
// for the optional log file.
func NewHandler(opts Options) (slog.Handler, io.Closer, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			return nil, nil, err
		}
		sink := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // MB
			MaxBackups: 7,
			MaxAge:     14, // days
			Compress:   true,
		}
		out = io.MultiWriter(out, sink)
		closer = sink
	}

	return slog.NewTextHandler(out, &slog.HandlerOptions{Level: ParseLevel(opts.Level)}), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
