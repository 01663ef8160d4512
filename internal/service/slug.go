// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/onews-go/internal/metrics"
	"github.com/olegiv/onews-go/internal/model"
	"github.com/olegiv/onews-go/internal/store"
	"github.com/olegiv/onews-go/internal/util"
)

// maxSlugAttempts bounds the resolve-and-write loop before falling back to a
// random suffix.
const maxSlugAttempts = 5

// SlugResolver derives article slugs and keeps them unique per language.
type SlugResolver struct {
	queries *store.Queries
	random  func() string
}

// NewSlugResolver creates a resolver over db.
func NewSlugResolver(db store.DBTX) *SlugResolver {
	return &SlugResolver{
		queries: store.New(db),
		random:  func() string { return uuid.NewString()[:8] },
	}
}

// Base returns the slug for a title before collision handling. Titles with
// nothing transliterable get "article-<random>".
func (r *SlugResolver) Base(title string) string {
	if s := util.Slugify(title); s != "" {
		return s
	}
	return "article-" + r.random()
}

// Resolve returns base if no other row uses it in lang, otherwise base-N with
// the smallest free N >= 2. excludeID is the row being updated, or 0.
func (r *SlugResolver) Resolve(ctx context.Context, base string, lang model.Language, excludeID int64) (string, error) {
	taken, err := r.queries.SlugExists(ctx, store.SlugExistsParams{
		Slug:      base,
		Language:  string(lang),
		ExcludeID: excludeID,
	})
	if err != nil {
		return "", fmt.Errorf("checking slug: %w", err)
	}
	if !taken {
		return base, nil
	}

	existing, err := r.queries.ListSlugsWithPrefix(ctx, store.ListSlugsWithPrefixParams{
		Base:      base,
		Language:  string(lang),
		ExcludeID: excludeID,
	})
	if err != nil {
		return "", fmt.Errorf("listing slugs: %w", err)
	}

	used := make(map[int]bool, len(existing))
	for _, s := range existing {
		if n, err := strconv.Atoi(strings.TrimPrefix(s, base+"-")); err == nil {
			used[n] = true
		}
	}

	n := 2
	for used[n] {
		n++
	}
	return fmt.Sprintf("%s-%d", base, n), nil
}

// Claim resolves a slug from base and passes it to write. When write fails
// on the (slug, language) unique index, for example because a concurrent
// writer took the slug first, resolution runs again. After maxSlugAttempts
// conflicts a random suffix is used. Claim returns the slug write accepted.
func (r *SlugResolver) Claim(ctx context.Context, base string, lang model.Language, excludeID int64, write func(slug string) error) (string, error) {
	for range maxSlugAttempts {
		slug, err := r.Resolve(ctx, base, lang, excludeID)
		if err != nil {
			return "", err
		}

		err = write(slug)
		if err == nil {
			return slug, nil
		}
		if !store.IsUniqueViolation(err) {
			return "", err
		}
		metrics.SlugCollisionsTotal.Inc()
	}

	slug := base + "-" + r.random()
	if err := write(slug); err != nil {
		return "", err
	}
	return slug, nil
}
