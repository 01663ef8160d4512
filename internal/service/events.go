// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/onews-go/internal/auth"
	"github.com/olegiv/onews-go/internal/model"
	"github.com/olegiv/onews-go/internal/store"
)

// EventService records audit events for admin actions.
type EventService struct {
	queries *store.Queries
	logger  *slog.Logger
	now     func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db store.DBTX, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		queries: store.New(db),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// LogEvent stores an event. The acting admin, if any, is taken from ctx.
// Failures are logged and returned; callers usually ignore them.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, metadata map[string]any) error {
	if p, ok := auth.PrincipalFrom(ctx); ok {
		if metadata == nil {
			metadata = make(map[string]any, 1)
		}
		metadata["user"] = p.Username()
	}

	metadataJSON := "{}"
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		Metadata:  metadataJSON,
		CreatedAt: s.now(),
	})
	if err != nil {
		s.logger.Error("failed to log event", "error", err, "message", message)
		return err
	}
	return nil
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, category, message, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelWarning, category, message, metadata)
}

// LogNewsEvent logs an article change.
func (s *EventService) LogNewsEvent(ctx context.Context, message string, metadata map[string]any) error {
	return s.LogInfo(ctx, model.EventCategoryNews, message, metadata)
}

// LogAuthEvent logs an authentication event.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, metadata)
}

// Recent returns the newest events.
func (s *EventService) Recent(ctx context.Context, limit int) ([]store.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queries.ListRecentEvents(ctx, int64(limit))
}

// DeleteOldEvents removes events older than the given duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queries.DeleteEventsBefore(ctx, s.now().Add(-olderThan))
}
