// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// legacyLanguage is reported for rows read from a schema without news.language.
const legacyLanguage = "en"

const newsColumns = `id, title, slug, short_description, content, category, language, image_url, created_at, updated_at`

const newsColumnsLegacy = `id, title, slug, short_description, content, category, image_url, created_at, updated_at`

const summaryColumns = `id, title, slug, short_description, category, language, image_url, created_at`

const summaryColumnsLegacy = `id, title, slug, short_description, category, image_url, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNews(row rowScanner) (News, error) {
	var i News
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Slug,
		&i.ShortDescription,
		&i.Content,
		&i.Category,
		&i.Language,
		&i.ImageURL,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanNewsLegacy(row rowScanner) (News, error) {
	i := News{Language: legacyLanguage}
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Slug,
		&i.ShortDescription,
		&i.Content,
		&i.Category,
		&i.ImageURL,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanSummaries(rows *sql.Rows, legacy bool) ([]NewsSummary, error) {
	defer func() { _ = rows.Close() }()

	items := []NewsSummary{}
	for rows.Next() {
		var i NewsSummary
		var err error
		if legacy {
			i.Language = legacyLanguage
			err = rows.Scan(&i.ID, &i.Title, &i.Slug, &i.ShortDescription, &i.Category, &i.ImageURL, &i.CreatedAt)
		} else {
			err = rows.Scan(&i.ID, &i.Title, &i.Slug, &i.ShortDescription, &i.Category, &i.Language, &i.ImageURL, &i.CreatedAt)
		}
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListNewsParams selects one page of articles in a language.
type ListNewsParams struct {
	Language string
	Limit    int64
	Offset   int64
}

const listNews = `SELECT ` + summaryColumns + `
FROM news
WHERE language = ?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`

// ListNews returns a page of articles in one language, newest first.
func (q *Queries) ListNews(ctx context.Context, arg ListNewsParams) ([]NewsSummary, error) {
	rows, err := q.db.QueryContext(ctx, listNews, arg.Language, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows, false)
}

const countNews = `SELECT COUNT(*) FROM news WHERE language = ?`

// CountNews returns the number of articles in one language.
func (q *Queries) CountNews(ctx context.Context, language string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countNews, language).Scan(&count)
	return count, err
}

// ListNewsByCategoryParams selects one page of a category in a language.
type ListNewsByCategoryParams struct {
	Category string
	Language string
	Limit    int64
	Offset   int64
}

const listNewsByCategory = `SELECT ` + summaryColumns + `
FROM news
WHERE category = ? AND language = ?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`

// ListNewsByCategory returns a page of a category in one language, newest first.
func (q *Queries) ListNewsByCategory(ctx context.Context, arg ListNewsByCategoryParams) ([]NewsSummary, error) {
	rows, err := q.db.QueryContext(ctx, listNewsByCategory, arg.Category, arg.Language, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows, false)
}

// CountNewsByCategoryParams identifies a category in a language.
type CountNewsByCategoryParams struct {
	Category string
	Language string
}

const countNewsByCategory = `SELECT COUNT(*) FROM news WHERE category = ? AND language = ?`

// CountNewsByCategory returns the number of articles of a category in one language.
func (q *Queries) CountNewsByCategory(ctx context.Context, arg CountNewsByCategoryParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countNewsByCategory, arg.Category, arg.Language).Scan(&count)
	return count, err
}

// LegacyListParams selects one page of articles on a schema without languages.
type LegacyListParams struct {
	Limit  int64
	Offset int64
}

const legacyListNews = `SELECT ` + summaryColumnsLegacy + `
FROM news
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`

// LegacyListNews returns a page of all articles. Every row reports language "en".
func (q *Queries) LegacyListNews(ctx context.Context, arg LegacyListParams) ([]NewsSummary, error) {
	rows, err := q.db.QueryContext(ctx, legacyListNews, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows, true)
}

const legacyCountNews = `SELECT COUNT(*) FROM news`

// LegacyCountNews returns the number of articles.
func (q *Queries) LegacyCountNews(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, legacyCountNews).Scan(&count)
	return count, err
}

// LegacyListByCategoryParams selects one page of a category on a schema without languages.
type LegacyListByCategoryParams struct {
	Category string
	Limit    int64
	Offset   int64
}

const legacyListNewsByCategory = `SELECT ` + summaryColumnsLegacy + `
FROM news
WHERE category = ?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`

// LegacyListNewsByCategory returns a page of a category across all rows.
func (q *Queries) LegacyListNewsByCategory(ctx context.Context, arg LegacyListByCategoryParams) ([]NewsSummary, error) {
	rows, err := q.db.QueryContext(ctx, legacyListNewsByCategory, arg.Category, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows, true)
}

const legacyCountNewsByCategory = `SELECT COUNT(*) FROM news WHERE category = ?`

// LegacyCountNewsByCategory returns the number of articles of a category.
func (q *Queries) LegacyCountNewsByCategory(ctx context.Context, category string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, legacyCountNewsByCategory, category).Scan(&count)
	return count, err
}

// GetNewsBySlugParams identifies an article by slug with a preferred language.
type GetNewsBySlugParams struct {
	Slug     string
	Language string
}

const getNewsBySlug = `SELECT ` + newsColumns + `
FROM news
WHERE slug = ?
ORDER BY (language = ?) DESC, created_at DESC
LIMIT 1`

// GetNewsBySlug returns the article with the slug, preferring the given language.
func (q *Queries) GetNewsBySlug(ctx context.Context, arg GetNewsBySlugParams) (News, error) {
	return scanNews(q.db.QueryRowContext(ctx, getNewsBySlug, arg.Slug, arg.Language))
}

const legacyGetNewsBySlug = `SELECT ` + newsColumnsLegacy + `
FROM news
WHERE slug = ?
LIMIT 1`

// LegacyGetNewsBySlug returns the article with the slug on a schema without languages.
func (q *Queries) LegacyGetNewsBySlug(ctx context.Context, slug string) (News, error) {
	return scanNewsLegacy(q.db.QueryRowContext(ctx, legacyGetNewsBySlug, slug))
}

const getNewsByID = `SELECT ` + newsColumns + ` FROM news WHERE id = ?`

// GetNewsByID returns the article with the id.
func (q *Queries) GetNewsByID(ctx context.Context, id int64) (News, error) {
	return scanNews(q.db.QueryRowContext(ctx, getNewsByID, id))
}

// SlugExistsParams asks whether a slug is taken in a language by another row.
type SlugExistsParams struct {
	Slug      string
	Language  string
	ExcludeID int64
}

const slugExists = `SELECT EXISTS(
    SELECT 1 FROM news WHERE slug = ? AND language = ? AND id != ?
)`

// SlugExists reports whether the slug is used in the language by a row other than ExcludeID.
// Pass ExcludeID 0 when no row should be excluded.
func (q *Queries) SlugExists(ctx context.Context, arg SlugExistsParams) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, slugExists, arg.Slug, arg.Language, arg.ExcludeID).Scan(&exists)
	return exists, err
}

// ListSlugsWithPrefixParams selects the slugs derived from a base slug in a language.
type ListSlugsWithPrefixParams struct {
	Base      string
	Language  string
	ExcludeID int64
}

const listSlugsWithPrefix = `SELECT slug FROM news
WHERE language = ? AND id != ? AND slug LIKE ? ESCAPE '\'`

// ListSlugsWithPrefix returns every slug of the form "<base>-..." in the language.
func (q *Queries) ListSlugsWithPrefix(ctx context.Context, arg ListSlugsWithPrefixParams) ([]string, error) {
	pattern := escapeLike(arg.Base) + "-%"
	rows, err := q.db.QueryContext(ctx, listSlugsWithPrefix, arg.Language, arg.ExcludeID, pattern)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var slugs []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slugs = append(slugs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slugs, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// CreateNewsParams holds the column values of a new article.
type CreateNewsParams struct {
	Title            string
	Slug             string
	ShortDescription string
	Content          string
	Category         string
	Language         string
	ImageURL         sql.NullString
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const createNews = `INSERT INTO news (
    title, slug, short_description, content, category, language, image_url, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + newsColumns

// CreateNews inserts an article and returns the stored row.
func (q *Queries) CreateNews(ctx context.Context, arg CreateNewsParams) (News, error) {
	row := q.db.QueryRowContext(ctx, createNews,
		arg.Title,
		arg.Slug,
		arg.ShortDescription,
		arg.Content,
		arg.Category,
		arg.Language,
		arg.ImageURL,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanNews(row)
}

// UpdateNewsParams holds the full set of mutable column values of an article.
type UpdateNewsParams struct {
	ID               int64
	Title            string
	Slug             string
	ShortDescription string
	Content          string
	Category         string
	Language         string
	ImageURL         sql.NullString
	UpdatedAt        time.Time
}

const updateNews = `UPDATE news SET
    title = ?,
    slug = ?,
    short_description = ?,
    content = ?,
    category = ?,
    language = ?,
    image_url = ?,
    updated_at = ?
WHERE id = ?
RETURNING ` + newsColumns

// UpdateNews overwrites the mutable columns of an article and returns the stored row.
// id and created_at are never written.
func (q *Queries) UpdateNews(ctx context.Context, arg UpdateNewsParams) (News, error) {
	row := q.db.QueryRowContext(ctx, updateNews,
		arg.Title,
		arg.Slug,
		arg.ShortDescription,
		arg.Content,
		arg.Category,
		arg.Language,
		arg.ImageURL,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanNews(row)
}

const deleteNews = `DELETE FROM news WHERE id = ?`

// DeleteNews removes an article and reports how many rows were deleted.
func (q *Queries) DeleteNews(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteNews, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getNewsImageURL = `SELECT image_url FROM news WHERE id = ?`

// GetNewsImageURL returns the stored image path of an article.
func (q *Queries) GetNewsImageURL(ctx context.Context, id int64) (sql.NullString, error) {
	var url sql.NullString
	err := q.db.QueryRowContext(ctx, getNewsImageURL, id).Scan(&url)
	return url, err
}

// CountNewsByLanguageRow is one bucket of CountNewsByLanguage.
type CountNewsByLanguageRow struct {
	Language string
	Count    int64
}

const countNewsByLanguage = `SELECT language, COUNT(*) FROM news GROUP BY language ORDER BY language`

// CountNewsByLanguage returns the article count per language.
func (q *Queries) CountNewsByLanguage(ctx context.Context) ([]CountNewsByLanguageRow, error) {
	rows, err := q.db.QueryContext(ctx, countNewsByLanguage)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []CountNewsByLanguageRow
	for rows.Next() {
		var i CountNewsByLanguageRow
		if err := rows.Scan(&i.Language, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SitemapRow is the part of an article listed in the sitemap.
type SitemapRow struct {
	Slug      string
	Language  string
	UpdatedAt time.Time
}

const listSitemapRows = `SELECT slug, language, updated_at FROM news ORDER BY updated_at DESC, id DESC LIMIT ?`

const legacyListSitemapRows = `SELECT slug, updated_at FROM news ORDER BY updated_at DESC, id DESC LIMIT ?`

// ListSitemapRows returns the most recently updated articles of every language.
func (q *Queries) ListSitemapRows(ctx context.Context, limit int64, legacy bool) ([]SitemapRow, error) {
	query := listSitemapRows
	if legacy {
		query = legacyListSitemapRows
	}
	rows, err := q.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []SitemapRow
	for rows.Next() {
		var i SitemapRow
		if legacy {
			i.Language = legacyLanguage
			err = rows.Scan(&i.Slug, &i.UpdatedAt)
		} else {
			err = rows.Scan(&i.Slug, &i.Language, &i.UpdatedAt)
		}
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
