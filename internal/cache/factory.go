// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"time"
)

// Config selects and configures a cache backend.
type Config struct {
	RedisURL        string // Redis is used when set
	Prefix          string
	DefaultTTL      time.Duration
	MaxItems        int
	CleanupInterval time.Duration
}

// New returns a Redis cache when RedisURL is set and reachable, otherwise a
// memory cache. The returned string names the backend in use.
func New(cfg Config, logger *slog.Logger) (Cacher, string) {
	if cfg.RedisURL != "" {
		opts := DefaultRedisCacheOptions()
		opts.URL = cfg.RedisURL
		if cfg.Prefix != "" {
			opts.Prefix = cfg.Prefix
		}
		if cfg.DefaultTTL > 0 {
			opts.DefaultTTL = cfg.DefaultTTL
		}

		rc, err := NewRedisCache(opts)
		if err == nil {
			return rc, "redis"
		}
		logger.Warn("redis cache unavailable, using memory cache", "category", "cache", "error", err)
	}

	cleanup := cfg.CleanupInterval
	if cleanup == 0 {
		cleanup = time.Minute
	}

	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxItems:        cfg.MaxItems,
		CleanupInterval: cleanup,
	}), "memory"
}
