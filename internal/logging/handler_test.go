// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/olegiv/onews-go/internal/model"
	"github.com/olegiv/onews-go/internal/store"
	"github.com/olegiv/onews-go/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listEvents(t *testing.T, db *sql.DB) []store.Event {
	t.Helper()
	events, err := store.New(db).ListRecentEvents(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	return events
}

func TestEventLogHandlerLevels(t *testing.T) {
	tests := []struct {
		name      string
		log       func(*slog.Logger)
		wantLevel string
	}{
		{"error", func(l *slog.Logger) { l.Error("database connection failed") }, model.EventLevelError},
		{"warn", func(l *slog.Logger) { l.Warn("slow query") }, model.EventLevelWarning},
		{"info", func(l *slog.Logger) { l.Info("server started") }, ""},
		{"debug", func(l *slog.Logger) { l.Debug("detail") }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.TestDB(t)
			tt.log(slog.New(NewEventLogHandler(discardHandler{}, db)))

			events := listEvents(t, db)
			if tt.wantLevel == "" {
				if len(events) != 0 {
					t.Fatalf("got %d events, want none", len(events))
				}
				return
			}
			if len(events) != 1 {
				t.Fatalf("got %d events, want 1", len(events))
			}
			if events[0].Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", events[0].Level, tt.wantLevel)
			}
		})
	}
}

func TestEventLogHandlerCustomLevel(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, db, slog.LevelError))

	logger.Warn("ignored warning")
	logger.Error("kept error")

	events := listEvents(t, db)
	if len(events) != 1 || events[0].Message != "kept error" {
		t.Fatalf("events = %+v, want only the error", events)
	}
}

func TestEventLogHandlerCategory(t *testing.T) {
	tests := []struct {
		msg   string
		attrs []any
		want  string
	}{
		{"login failed", nil, model.EventCategoryAuth},
		{"article write failed", nil, model.EventCategoryNews},
		{"slug conflict persisted", nil, model.EventCategoryNews},
		{"image decode failed", nil, model.EventCategoryUpload},
		{"database schema lacks language column", nil, model.EventCategoryConfig},
		{"cache unavailable", nil, model.EventCategoryCache},
		{"something odd", nil, model.EventCategorySystem},
		{"login failed", []any{"category", model.EventCategoryCache}, model.EventCategoryCache},
	}

	for _, tt := range tests {
		t.Run(tt.msg+"/"+tt.want, func(t *testing.T) {
			db := testutil.TestDB(t)
			slog.New(NewEventLogHandler(discardHandler{}, db)).Warn(tt.msg, tt.attrs...)

			events := listEvents(t, db)
			if len(events) != 1 {
				t.Fatalf("got %d events, want 1", len(events))
			}
			if events[0].Category != tt.want {
				t.Errorf("Category = %q, want %q", events[0].Category, tt.want)
			}
		})
	}
}

func TestEventLogHandlerMetadata(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).
		With("component", "upload", "category", model.EventCategoryUpload)

	logger.Error("write failed", "path", `C:\tmp\"x"`, "attempt", 3)

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Category != model.EventCategoryUpload {
		t.Errorf("Category = %q, want category from WithAttrs", events[0].Category)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(events[0].Metadata), &meta); err != nil {
		t.Fatalf("metadata %q is not JSON: %v", events[0].Metadata, err)
	}
	want := map[string]string{"component": "upload", "path": `C:\tmp\"x"`, "attempt": "3"}
	for k, v := range want {
		if meta[k] != v {
			t.Errorf("meta[%q] = %q, want %q", k, meta[k], v)
		}
	}
	if _, ok := meta["category"]; ok {
		t.Error("category should not be repeated in metadata")
	}
}

func TestEventLogHandlerForwardsToInner(t *testing.T) {
	db := testutil.TestDB(t)
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewEventLogHandler(inner, db)).WithGroup("req")
	logger.Info("hello", "id", 1)
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "req.id=1") {
		t.Errorf("inner output = %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record reached inner handler: %q", out)
	}
}

func TestSlogLevelToEventLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, model.EventLevelInfo},
		{slog.LevelInfo, model.EventLevelInfo},
		{slog.LevelWarn, model.EventLevelWarning},
		{slog.LevelError, model.EventLevelError},
		{slog.LevelError + 4, model.EventLevelError},
	}

	for _, tt := range tests {
		if got := slogLevelToEventLevel(tt.level); got != tt.want {
			t.Errorf("slogLevelToEventLevel(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewHandlerWritesLogFile(t *testing.T) {
	var stdout bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "onews.log")

	h, closer, err := NewHandler(Options{Level: "info", File: file, Output: &stdout})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	slog.New(h).Info("to both sinks")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "to both sinks") {
		t.Errorf("log file = %q", data)
	}
	if !strings.Contains(stdout.String(), "to both sinks") {
		t.Errorf("stdout = %q", stdout.String())
	}
}
