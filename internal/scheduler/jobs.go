// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Default schedules of the maintenance jobs.
const (
	TokenPurgeSchedule     = "@every 15m"
	EventPruneSchedule     = "@daily"
	RateLimitPruneSchedule = "@every 10m"
)

// TokenPurger removes expired admin tokens.
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// EventPruner removes event log entries older than a retention period.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// LimiterPruner drops idle per-client rate limiters.
type LimiterPruner interface {
	Prune() bool
}

// TokenPurgeJob deletes expired admin tokens.
func TokenPurgeJob(tokens TokenPurger, logger *slog.Logger) Job {
	return Job{
		Name:        "token-purge",
		Description: "Delete expired admin tokens",
		Schedule:    TokenPurgeSchedule,
		Run: func(ctx context.Context) error {
			n, err := tokens.PurgeExpired(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("purged expired admin tokens", "count", n)
			}
			return nil
		},
	}
}

// EventPruneJob deletes events older than retention.
func EventPruneJob(events EventPruner, retention time.Duration, logger *slog.Logger) Job {
	return Job{
		Name:        "event-prune",
		Description: "Delete old event log entries",
		Schedule:    EventPruneSchedule,
		Run: func(ctx context.Context) error {
			n, err := events.DeleteOldEvents(ctx, retention)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("pruned old events", "count", n, "retention", retention)
			}
			return nil
		},
	}
}

// RateLimitPruneJob clears the public rate limiter once it tracks too many clients.
func RateLimitPruneJob(limiter LimiterPruner, logger *slog.Logger) Job {
	return Job{
		Name:        "rate-limit-prune",
		Description: "Drop tracked rate limiters",
		Schedule:    RateLimitPruneSchedule,
		Run: func(context.Context) error {
			if limiter.Prune() {
				logger.Info("rate limiter state cleared")
			}
			return nil
		},
	}
}
