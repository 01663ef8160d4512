// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging builds the application logger and mirrors warnings and
// errors into the database-backed event log.
package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/olegiv/onews-go/internal/model"
	"github.com/olegiv/onews-go/internal/store"
)

// EventLogHandler is a slog.Handler that wraps another handler and also writes
// records at or above its level to the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr // attrs added with WithAttrs, kept for the event metadata
}

// NewEventLogHandler creates a handler that forwards WARN and above to the event log.
func NewEventLogHandler(inner slog.Handler, db store.DBTX) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a handler with a custom minimum event level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db store.DBTX, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level) || level >= h.level
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.inner.Enabled(ctx, r.Level) {
		if err := h.inner.Handle(ctx, r); err != nil {
			return err
		}
	}

	if r.Level >= h.level {
		h.writeToEventLog(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		attrs:   append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		attrs:   h.attrs,
	}
}

// writeToEventLog stores the record. It uses a background context so the
// event survives a cancelled request, and it never logs its own failures.
func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     slogLevelToEventLevel(r.Level),
		Category:  h.category(r),
		Message:   r.Message,
		Metadata:  h.metadata(r),
		CreatedAt: r.Time.UTC(),
	})
}

func slogLevelToEventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// category returns the "category" attribute, or infers one from the message.
func (h *EventLogHandler) category(r slog.Record) string {
	var category string
	visit := func(a slog.Attr) bool {
		if a.Key == "category" {
			category = a.Value.String()
			return false
		}
		return true
	}

	r.Attrs(visit)
	if category == "" {
		for _, a := range h.attrs {
			if !visit(a) {
				break
			}
		}
	}
	if category != "" {
		return category
	}

	msg := strings.ToLower(r.Message)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") || strings.Contains(msg, "token"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "news") || strings.Contains(msg, "article") || strings.Contains(msg, "slug"):
		return model.EventCategoryNews
	case strings.Contains(msg, "upload") || strings.Contains(msg, "image"):
		return model.EventCategoryUpload
	case strings.Contains(msg, "config") || strings.Contains(msg, "schema") || strings.Contains(msg, "migration"):
		return model.EventCategoryConfig
	case strings.Contains(msg, "cache"):
		return model.EventCategoryCache
	default:
		return model.EventCategorySystem
	}
}

// metadata collects attributes other than category into a JSON object.
func (h *EventLogHandler) metadata(r slog.Record) string {
	fields := make(map[string]string, r.NumAttrs()+len(h.attrs))
	add := func(a slog.Attr) bool {
		if a.Key != "category" && a.Key != "" {
			fields[a.Key] = a.Value.Resolve().String()
		}
		return true
	}

	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(add)

	if len(fields) == 0 {
		return "{}"
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(data)
}
