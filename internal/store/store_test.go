// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// testDB creates a temporary database migrated to the given version (0 = latest).
func testDB(t *testing.T, version int64) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "onews-test.db")
	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	})

	if version == 0 {
		err = Migrate(db)
	} else {
		err = MigrateTo(db, version)
	}
	if err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

func createTestNews(t *testing.T, q *Queries, title, slug, lang, category string, at time.Time) News {
	t.Helper()
	n, err := q.CreateNews(context.Background(), CreateNewsParams{
		Title:            title,
		Slug:             slug,
		ShortDescription: "<p>short</p>",
		Content:          "<p>body</p>",
		Category:         category,
		Language:         lang,
		CreatedAt:        at,
		UpdatedAt:        at,
	})
	if err != nil {
		t.Fatalf("CreateNews(%q): %v", slug, err)
	}
	return n
}

func TestCapabilities(t *testing.T) {
	t.Run("latest schema is multilingual", func(t *testing.T) {
		db := testDB(t, 0)
		caps, err := ReadCapabilities(db)
		require.NoError(t, err)

		latest, err := LatestVersion()
		require.NoError(t, err)
		assert.Equal(t, latest, caps.Version)
		assert.True(t, caps.Multilingual)
	})

	t.Run("schema before language migration is legacy", func(t *testing.T) {
		db := testDB(t, MultilingualVersion-1)
		caps, err := ReadCapabilities(db)
		require.NoError(t, err)
		assert.Equal(t, MultilingualVersion-1, caps.Version)
		assert.False(t, caps.Multilingual)
	})
}

func TestCreateAndGetNews(t *testing.T) {
	db := testDB(t, 0)
	q := New(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	n := createTestNews(t, q, "Budget 2026", "budget-2026", "en", "finance", now)
	assert.NotZero(t, n.ID)
	assert.Equal(t, "en", n.Language)
	assert.False(t, n.ImageURL.Valid)

	got, err := q.GetNewsByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "budget-2026", got.Slug)
	assert.True(t, got.CreatedAt.Equal(now))

	_, err = q.GetNewsByID(ctx, n.ID+100)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSlugUniquePerLanguage(t *testing.T) {
	db := testDB(t, 0)
	q := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	createTestNews(t, q, "Budget 2026", "budget-2026", "en", "finance", now)

	// Same slug in another language is allowed.
	createTestNews(t, q, "Budget 2026", "budget-2026", "ru", "finance", now)

	// Same slug in the same language violates the unique index.
	_, err := q.CreateNews(ctx, CreateNewsParams{
		Title:            "Budget 2026",
		Slug:             "budget-2026",
		ShortDescription: "s",
		Content:          "c",
		Category:         "finance",
		Language:         "en",
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err), "expected unique violation, got %v", err)

	var se *sqlite.Error
	require.True(t, errors.As(err, &se), "expected *sqlite.Error, got %T", err)
	assert.Equal(t, sqlite3.SQLITE_CONSTRAINT_UNIQUE, se.Code())

	// Wrapping keeps the code visible.
	assert.True(t, IsUniqueViolation(fmt.Errorf("creating article: %w", err)))
}

func TestLanguageCheckConstraint(t *testing.T) {
	db := testDB(t, 0)
	q := New(db)
	now := time.Now().UTC()

	_, err := q.CreateNews(context.Background(), CreateNewsParams{
		Title:            "Bonjour",
		Slug:             "bonjour",
		ShortDescription: "s",
		Content:          "c",
		Category:         "world",
		Language:         "fr",
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	require.Error(t, err)
	assert.False(t, IsUniqueViolation(err), "CHECK failure is not a unique violation")
}

func TestSlugExistsAndPrefix(t *testing.T) {
	db := testDB(t, 0)
	q := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	base := createTestNews(t, q, "Budget", "budget", "en", "finance", now)
	createTestNews(t, q, "Budget", "budget-2", "en", "finance", now)
	createTestNews(t, q, "Budget", "budget-7", "ru", "finance", now)
	createTestNews(t, q, "Budget plans", "budget_plans", "en", "finance", now)

	exists, err := q.SlugExists(ctx, SlugExistsParams{Slug: "budget", Language: "en"})
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = q.SlugExists(ctx, SlugExistsParams{Slug: "budget", Language: "en", ExcludeID: base.ID})
	require.NoError(t, err)
	assert.False(t, exists, "a row must not collide with itself")

	exists, err = q.SlugExists(ctx, SlugExistsParams{Slug: "budget", Language: "uz"})
	require.NoError(t, err)
	assert.False(t, exists)

	slugs, err := q.ListSlugsWithPrefix(ctx, ListSlugsWithPrefixParams{Base: "budget", Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, []string{"budget-2"}, slugs, "underscore must not act as a LIKE wildcard")
}

func TestListNews(t *testing.T) {
	db := testDB(t, 0)
	q := New(db)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, slug := range []string{"one", "two", "three"} {
		createTestNews(t, q, slug, slug, "en", "world", base.Add(time.Duration(i)*time.Hour))
	}
	createTestNews(t, q, "bir", "bir", "uz", "world", base)
	createTestNews(t, q, "four", "four", "en", "finance", base.Add(5*time.Hour))

	items, err := q.ListNews(ctx, ListNewsParams{Language: "en", Limit: 2, Offset: 0})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "four", items[0].Slug)
	assert.Equal(t, "three", items[1].Slug)

	total, err := q.CountNews(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	items, err = q.ListNewsByCategory(ctx, ListNewsByCategoryParams{Category: "world", Language: "en", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, items, 3)

	count, err := q.CountNewsByCategory(ctx, CountNewsByCategoryParams{Category: "world", Language: "uz"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	empty, err := q.ListNews(ctx, ListNewsParams{Language: "ru", Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestGetNewsBySlugPrefersLanguage(t *testing.T) {
	db := testDB(t, 0)
	q := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	createTestNews(t, q, "News", "news", "en", "world", now)
	createTestNews(t, q, "Новости", "news", "ru", "world", now.Add(-time.Hour))

	got, err := q.GetNewsBySlug(ctx, GetNewsBySlugParams{Slug: "news", Language: "ru"})
	require.NoError(t, err)
	assert.Equal(t, "ru", got.Language)

	got, err = q.GetNewsBySlug(ctx, GetNewsBySlugParams{Slug: "news", Language: "uz"})
	require.NoError(t, err)
	assert.Equal(t, "en", got.Language, "falls back to the newest row")

	_, err = q.GetNewsBySlug(ctx, GetNewsBySlugParams{Slug: "missing", Language: "en"})
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestUpdateNewsKeepsCreatedAt(t *testing.T) {
	db := testDB(t, 0)
	q := New(db)
	ctx := context.Background()
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	n := createTestNews(t, q, "Title", "title", "en", "world", created)

	updated, err := q.UpdateNews(ctx, UpdateNewsParams{
		ID:               n.ID,
		Title:            n.Title,
		Slug:             n.Slug,
		ShortDescription: n.ShortDescription,
		Content:          n.Content,
		Category:         "education",
		Language:         n.Language,
		ImageURL:         sql.NullString{String: "/uploads/a.jpg", Valid: true},
		UpdatedAt:        created.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "education", updated.Category)
	assert.Equal(t, "title", updated.Slug)
	assert.True(t, updated.CreatedAt.Equal(created))
	assert.Equal(t, "/uploads/a.jpg", updated.ImageURL.String)

	_, err = q.UpdateNews(ctx, UpdateNewsParams{ID: 9999, Title: "x", Slug: "x", Language: "en", UpdatedAt: created})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeleteNews(t *testing.T) {
	db := testDB(t, 0)
	q := New(db)
	ctx := context.Background()

	n := createTestNews(t, q, "Gone", "gone", "en", "world", time.Now().UTC())

	affected, err := q.DeleteNews(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = q.DeleteNews(ctx, n.ID)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestLegacySchemaQueries(t *testing.T) {
	db := testDB(t, MultilingualVersion-1)
	q := New(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO news (title, slug, short_description, content, category, created_at, updated_at)
		VALUES ('Old', 'old', 's', 'c', 'world', ?, ?)`, time.Now().UTC(), time.Now().UTC())
	require.NoError(t, err)

	items, err := q.LegacyListNews(ctx, LegacyListParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "en", items[0].Language)

	total, err := q.LegacyCountNewsByCategory(ctx, "world")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	got, err := q.LegacyGetNewsBySlug(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, "en", got.Language)

	sitemap, err := q.ListSitemapRows(ctx, 10, true)
	require.NoError(t, err)
	require.Len(t, sitemap, 1)
	assert.Equal(t, SitemapRow{Slug: "old", Language: "en", UpdatedAt: sitemap[0].UpdatedAt}, sitemap[0])

	// The multilingual queries fail on this schema.
	_, err = q.ListNews(ctx, ListNewsParams{Language: "en", Limit: 10})
	assert.Error(t, err)
	_, err = q.ListSitemapRows(ctx, 10, false)
	assert.Error(t, err)
}

func TestListSitemapRows(t *testing.T) {
	db := testDB(t, 0)
	q := New(db)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	createTestNews(t, q, "Old", "old", "en", "world", base.Add(-2*time.Hour))
	createTestNews(t, q, "Новое", "novoe", "ru", "world", base)
	createTestNews(t, q, "Middle", "middle", "uz", "auto", base.Add(-time.Hour))

	rows, err := q.ListSitemapRows(ctx, 2, false)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "novoe", rows[0].Slug)
	assert.Equal(t, "ru", rows[0].Language)
	assert.Equal(t, "middle", rows[1].Slug)
	assert.True(t, rows[0].UpdatedAt.Equal(base))
}

func TestAdminTokens(t *testing.T) {
	db := testDB(t, 0)
	q := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	user, err := q.CreateAdminUser(ctx, CreateAdminUserParams{
		Username:     "admin",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Role)

	_, err = q.CreateAdminToken(ctx, CreateAdminTokenParams{UserID: user.ID, TokenHash: "live", ExpiresAt: now.Add(time.Hour), CreatedAt: now})
	require.NoError(t, err)
	_, err = q.CreateAdminToken(ctx, CreateAdminTokenParams{UserID: user.ID, TokenHash: "dead", ExpiresAt: now.Add(-time.Hour), CreatedAt: now})
	require.NoError(t, err)

	row, err := q.GetActiveTokenUser(ctx, "live", now)
	require.NoError(t, err)
	assert.Equal(t, "admin", row.User.Username)

	_, err = q.GetActiveTokenUser(ctx, "dead", now)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	purged, err := q.DeleteExpiredAdminTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	require.NoError(t, q.DeleteAdminTokenByHash(ctx, "live"))
	_, err = q.GetActiveTokenUser(ctx, "live", now)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEvents(t *testing.T) {
	db := testDB(t, 0)
	q := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := q.CreateEvent(ctx, CreateEventParams{Level: "warning", Category: "system", Message: "old", Metadata: "{}", CreatedAt: now.Add(-48 * time.Hour)})
	require.NoError(t, err)
	_, err = q.CreateEvent(ctx, CreateEventParams{Level: "error", Category: "news", Message: "new", Metadata: "{}", CreatedAt: now})
	require.NoError(t, err)

	events, err := q.ListRecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "new", events[0].Message)

	deleted, err := q.DeleteEventsBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
