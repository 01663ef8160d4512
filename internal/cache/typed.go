// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/olegiv/onews-go/internal/metrics"
)

// Typed stores JSON-encoded values of one type in a Cacher.
type Typed[T any] struct {
	cache Cacher
	ttl   time.Duration
}

// NewTyped wraps c for values of type T.
func NewTyped[T any](c Cacher, ttl time.Duration) *Typed[T] {
	return &Typed[T]{cache: c, ttl: ttl}
}

// Get returns the cached value for key. A decoding failure counts as a miss.
func (t *Typed[T]) Get(ctx context.Context, key string) (T, bool) {
	var v T
	data, err := t.cache.Get(ctx, key)
	if err != nil {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false
	}
	return v, true
}

// Set stores v under key.
func (t *Typed[T]) Set(ctx context.Context, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.cache.Set(ctx, key, data, t.ttl)
}

// GetOrLoad returns the cached value for key, or calls load and caches its result.
// The second return value reports whether the value came from the cache.
// Errors from load are returned and nothing is cached.
func (t *Typed[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, bool, error) {
	if v, ok := t.Get(ctx, key); ok {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return v, true, nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	v, err := load(ctx)
	if err != nil {
		return v, false, err
	}

	_ = t.Set(ctx, key, v)
	return v, false, nil
}
