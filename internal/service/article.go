// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the article operations behind the HTTP surfaces.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olegiv/onews-go/internal/cache"
	"github.com/olegiv/onews-go/internal/metrics"
	"github.com/olegiv/onews-go/internal/model"
	"github.com/olegiv/onews-go/internal/sanitize"
	"github.com/olegiv/onews-go/internal/store"
	"github.com/olegiv/onews-go/internal/upload"
	"github.com/olegiv/onews-go/internal/util"
)

// Listing limits used when Options leaves them zero.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

const cachePrefix = "news:"

// ImageStore saves and removes article images. upload.Uploader implements it.
type ImageStore interface {
	Save(ctx context.Context, r io.Reader, contentType string) (string, error)
	Remove(ctx context.Context, publicPath string) error
}

// Options configures an ArticleService.
type Options struct {
	Capabilities store.Capabilities
	Images       ImageStore       // nil rejects attached images
	Cache        cache.Cacher     // nil disables read caching
	CacheTTL     time.Duration
	Sanitizer    *sanitize.Sanitizer
	Events       *EventService // nil disables the audit trail
	Logger       *slog.Logger
	DefaultLimit int
	MaxLimit     int
}

// ListParams selects a page of articles. Zero values select the defaults.
type ListParams struct {
	Page     int
	Limit    int
	Language string
}

// ListResult is one page of articles.
type ListResult struct {
	Articles   []model.ArticleSummary `json:"news"`
	Pagination model.Pagination       `json:"pagination"`
	Language   model.Language         `json:"language"`
}

// ArticleService reads and writes articles.
type ArticleService struct {
	queries  *store.Queries
	caps     store.Capabilities
	slugs    *SlugResolver
	content  *contentPipeline
	images   ImageStore
	cache    cache.Cacher
	events   *EventService
	lists    *cache.Typed[ListResult]
	articles *cache.Typed[model.Article]
	logger   *slog.Logger
	defLimit int
	maxLimit int
	now      func() time.Time

	legacyOnce sync.Once
}

// NewArticleService creates an article service over db.
func NewArticleService(db store.DBTX, opts Options) *ArticleService {
	s := &ArticleService{
		queries:  store.New(db),
		caps:     opts.Capabilities,
		slugs:    NewSlugResolver(db),
		content:  newContentPipeline(opts.Sanitizer),
		images:   opts.Images,
		cache:    opts.Cache,
		events:   opts.Events,
		logger:   opts.Logger,
		defLimit: opts.DefaultLimit,
		maxLimit: opts.MaxLimit,
		now:      func() time.Time { return time.Now().UTC() },
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.defLimit <= 0 {
		s.defLimit = DefaultPageLimit
	}
	if s.maxLimit <= 0 {
		s.maxLimit = MaxPageLimit
	}
	if s.maxLimit < s.defLimit {
		s.maxLimit = s.defLimit
	}
	if s.cache != nil {
		s.lists = cache.NewTyped[ListResult](s.cache, opts.CacheTTL)
		s.articles = cache.NewTyped[model.Article](s.cache, opts.CacheTTL)
	}
	return s
}

// Capabilities returns the schema capabilities the service runs with.
func (s *ArticleService) Capabilities() store.Capabilities {
	return s.caps
}

// List returns a page of articles in the requested language, newest first.
// Unsupported languages fall back to English.
func (s *ArticleService) List(ctx context.Context, p ListParams) (ListResult, error) {
	return s.list(ctx, "", p)
}

// ListByCategory is List restricted to one category.
func (s *ArticleService) ListByCategory(ctx context.Context, category string, p ListParams) (ListResult, error) {
	category = normalizeCategory(category)
	if category == "" {
		return ListResult{}, fieldError("category", "is required")
	}
	return s.list(ctx, category, p)
}

func (s *ArticleService) list(ctx context.Context, category string, p ListParams) (ListResult, error) {
	page, limit := s.pageBounds(p.Page, p.Limit)
	lang := model.NormalizeLanguage(p.Language)
	if !s.caps.Multilingual {
		s.warnLegacy()
		lang = model.DefaultLanguage
	}

	load := func(ctx context.Context) (ListResult, error) {
		return s.loadList(ctx, category, lang, page, limit)
	}
	if s.lists == nil {
		return load(ctx)
	}

	key := fmt.Sprintf("%slist:%s:%s:%d:%d", cachePrefix, category, lang, page, limit)
	res, _, err := s.lists.GetOrLoad(ctx, key, load)
	return res, err
}

func (s *ArticleService) loadList(ctx context.Context, category string, lang model.Language, page, limit int) (ListResult, error) {
	offset := int64((page - 1) * limit)

	var (
		rows  []store.NewsSummary
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		switch {
		case !s.caps.Multilingual && category == "":
			rows, err = s.queries.LegacyListNews(gctx, store.LegacyListParams{Limit: int64(limit), Offset: offset})
		case !s.caps.Multilingual:
			rows, err = s.queries.LegacyListNewsByCategory(gctx, store.LegacyListByCategoryParams{
				Category: category, Limit: int64(limit), Offset: offset,
			})
		case category == "":
			rows, err = s.queries.ListNews(gctx, store.ListNewsParams{
				Language: string(lang), Limit: int64(limit), Offset: offset,
			})
		default:
			rows, err = s.queries.ListNewsByCategory(gctx, store.ListNewsByCategoryParams{
				Category: category, Language: string(lang), Limit: int64(limit), Offset: offset,
			})
		}
		if err != nil {
			return fmt.Errorf("listing news: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		switch {
		case !s.caps.Multilingual && category == "":
			total, err = s.queries.LegacyCountNews(gctx)
		case !s.caps.Multilingual:
			total, err = s.queries.LegacyCountNewsByCategory(gctx, category)
		case category == "":
			total, err = s.queries.CountNews(gctx, string(lang))
		default:
			total, err = s.queries.CountNewsByCategory(gctx, store.CountNewsByCategoryParams{
				Category: category, Language: string(lang),
			})
		}
		if err != nil {
			return fmt.Errorf("counting news: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return ListResult{}, err
	}

	items := make([]model.ArticleSummary, 0, len(rows))
	for _, r := range rows {
		items = append(items, toSummary(r))
	}

	return ListResult{
		Articles:   items,
		Pagination: model.NewPagination(page, limit, total),
		Language:   lang,
	}, nil
}

// GetBySlug returns the article with slug, preferring the requested language
// and falling back to any language that has the slug.
func (s *ArticleService) GetBySlug(ctx context.Context, slug, language string) (model.Article, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return model.Article{}, ErrNotFound
	}
	lang := model.NormalizeLanguage(language)
	if !s.caps.Multilingual {
		s.warnLegacy()
		lang = model.DefaultLanguage
	}

	load := func(ctx context.Context) (model.Article, error) {
		var (
			row store.News
			err error
		)
		if s.caps.Multilingual {
			row, err = s.queries.GetNewsBySlug(ctx, store.GetNewsBySlugParams{Slug: slug, Language: string(lang)})
		} else {
			row, err = s.queries.LegacyGetNewsBySlug(ctx, slug)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return model.Article{}, ErrNotFound
		}
		if err != nil {
			return model.Article{}, fmt.Errorf("loading article: %w", err)
		}
		return toArticle(row), nil
	}
	if s.articles == nil {
		return load(ctx)
	}

	key := fmt.Sprintf("%sslug:%s:%s", cachePrefix, lang, slug)
	a, _, err := s.articles.GetOrLoad(ctx, key, load)
	return a, err
}

// Create validates, sanitizes and stores a new article.
func (s *ArticleService) Create(ctx context.Context, in CreateInput) (model.Article, error) {
	if !s.caps.Multilingual {
		return model.Article{}, ErrSchemaNotReady
	}

	if err := validateStruct(in); err != nil {
		return model.Article{}, err
	}
	lang := writeLanguage(in.Language, model.DefaultLanguage)
	content, err := s.content.body(in.Content, in.Format)
	if err != nil {
		return model.Article{}, err
	}
	desc, err := s.content.description(in.ShortDescription, in.Format)
	if err != nil {
		return model.Article{}, err
	}

	imageURL, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return model.Article{}, err
	}

	title := strings.TrimSpace(in.Title)
	now := s.now()

	var row store.News
	_, err = s.slugs.Claim(ctx, s.slugs.Base(title), lang, 0, func(slug string) error {
		var err error
		row, err = s.queries.CreateNews(ctx, store.CreateNewsParams{
			Title:            title,
			Slug:             slug,
			ShortDescription: desc,
			Content:          content,
			Category:         normalizeCategory(in.Category),
			Language:         string(lang),
			ImageURL:         imageURL,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		return err
	})
	if err != nil {
		s.discardImage(ctx, imageURL)
		return model.Article{}, fmt.Errorf("creating article: %w", err)
	}

	s.invalidate(ctx)
	s.logger.Info("article created", "id", row.ID, "slug", row.Slug, "language", row.Language)
	metrics.ArticleWritesTotal.WithLabelValues("create").Inc()
	s.audit(ctx, "Article created", row)
	return toArticle(row), nil
}

// Update applies a partial update. The slug is recomputed only when the
// title changes, and re-checked when the language changes.
func (s *ArticleService) Update(ctx context.Context, id int64, in UpdateInput) (model.Article, error) {
	if !s.caps.Multilingual {
		return model.Article{}, ErrSchemaNotReady
	}

	existing, err := s.queries.GetNewsByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Article{}, ErrNotFound
	}
	if err != nil {
		return model.Article{}, fmt.Errorf("loading article: %w", err)
	}

	if err := validateStruct(in); err != nil {
		return model.Article{}, err
	}

	params := store.UpdateNewsParams{
		ID:               existing.ID,
		Title:            existing.Title,
		ShortDescription: existing.ShortDescription,
		Content:          existing.Content,
		Category:         existing.Category,
		Language:         existing.Language,
		ImageURL:         existing.ImageURL,
		UpdatedAt:        s.now(),
	}

	base := existing.Slug
	if in.Title != nil {
		if title := strings.TrimSpace(*in.Title); title != existing.Title {
			params.Title = title
			base = s.slugs.Base(title)
		}
	}
	if in.Language != nil {
		params.Language = string(writeLanguage(*in.Language, model.Language(existing.Language)))
	}
	if in.Content != nil {
		if params.Content, err = s.content.body(*in.Content, in.Format); err != nil {
			return model.Article{}, err
		}
	}
	if in.ShortDescription != nil {
		if params.ShortDescription, err = s.content.description(*in.ShortDescription, in.Format); err != nil {
			return model.Article{}, err
		}
	}
	if in.Category != nil {
		params.Category = normalizeCategory(*in.Category)
	}

	newImage, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return model.Article{}, err
	}
	if newImage.Valid {
		params.ImageURL = newImage
	}

	var row store.News
	_, err = s.slugs.Claim(ctx, base, model.Language(params.Language), existing.ID, func(slug string) error {
		params.Slug = slug
		var err error
		row, err = s.queries.UpdateNews(ctx, params)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		s.discardImage(ctx, newImage)
		return model.Article{}, ErrNotFound
	}
	if err != nil {
		s.discardImage(ctx, newImage)
		return model.Article{}, fmt.Errorf("updating article: %w", err)
	}

	if newImage.Valid {
		s.discardImage(ctx, existing.ImageURL)
	}

	s.invalidate(ctx)
	s.logger.Info("article updated", "id", row.ID, "slug", row.Slug, "language", row.Language)
	metrics.ArticleWritesTotal.WithLabelValues("update").Inc()
	s.audit(ctx, "Article updated", row)
	return toArticle(row), nil
}

// Delete removes an article and its stored image. It works on any schema version.
func (s *ArticleService) Delete(ctx context.Context, id int64) error {
	imageURL, err := s.queries.GetNewsImageURL(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading article: %w", err)
	}

	n, err := s.queries.DeleteNews(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting article: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.discardImage(ctx, imageURL)
	s.invalidate(ctx)
	s.logger.Info("article deleted", "id", id)
	metrics.ArticleWritesTotal.WithLabelValues("delete").Inc()
	s.audit(ctx, "Article deleted", store.News{ID: id})
	return nil
}

// LanguageCount is the number of articles in one language.
type LanguageCount struct {
	Language model.Language `json:"language"`
	Count    int64          `json:"count"`
}

// CountByLanguage returns per-language article totals.
func (s *ArticleService) CountByLanguage(ctx context.Context) ([]LanguageCount, error) {
	if !s.caps.Multilingual {
		total, err := s.queries.LegacyCountNews(ctx)
		if err != nil {
			return nil, err
		}
		return []LanguageCount{{Language: model.DefaultLanguage, Count: total}}, nil
	}

	rows, err := s.queries.CountNewsByLanguage(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LanguageCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, LanguageCount{Language: model.Language(r.Language), Count: r.Count})
	}
	return out, nil
}

// SitemapEntry locates one article for the sitemap.
type SitemapEntry struct {
	Slug      string
	Language  model.Language
	UpdatedAt time.Time
}

// SitemapEntries returns up to limit articles of every language, most recently
// updated first.
func (s *ArticleService) SitemapEntries(ctx context.Context, limit int) ([]SitemapEntry, error) {
	rows, err := s.queries.ListSitemapRows(ctx, int64(limit), !s.caps.Multilingual)
	if err != nil {
		return nil, fmt.Errorf("listing sitemap entries: %w", err)
	}
	out := make([]SitemapEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, SitemapEntry{Slug: r.Slug, Language: model.Language(r.Language), UpdatedAt: r.UpdatedAt})
	}
	return out, nil
}

func (s *ArticleService) pageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.defLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	return page, limit
}

func (s *ArticleService) saveImage(ctx context.Context, img *Image) (sql.NullString, error) {
	if img == nil || img.Reader == nil {
		return sql.NullString{}, nil
	}
	if s.images == nil {
		return sql.NullString{}, fieldError("image", "uploads are not configured")
	}

	path, err := s.images.Save(ctx, img.Reader, img.ContentType)
	switch {
	case errors.Is(err, upload.ErrTooLarge):
		return sql.NullString{}, fieldError("image", upload.ErrTooLarge.Error())
	case errors.Is(err, upload.ErrUnsupportedType):
		return sql.NullString{}, fieldError("image", upload.ErrUnsupportedType.Error())
	}
	if err != nil {
		return sql.NullString{}, fmt.Errorf("saving image: %w", err)
	}
	return util.NullStringFromValue(path), nil
}

func (s *ArticleService) discardImage(ctx context.Context, imageURL sql.NullString) {
	if !imageURL.Valid || s.images == nil {
		return
	}
	if err := s.images.Remove(ctx, imageURL.String); err != nil {
		s.logger.Warn("failed to remove image", "category", model.EventCategoryUpload, "path", imageURL.String, "error", err)
	}
}

func (s *ArticleService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPrefix(ctx, cachePrefix); err != nil {
		s.logger.Warn("failed to invalidate news cache", "category", model.EventCategoryCache, "error", err)
	}
}

func (s *ArticleService) audit(ctx context.Context, message string, row store.News) {
	if s.events == nil {
		return
	}
	meta := map[string]any{"id": row.ID}
	if row.Slug != "" {
		meta["slug"] = row.Slug
		meta["language"] = row.Language
	}
	_ = s.events.LogNewsEvent(ctx, message, meta)
}

func (s *ArticleService) warnLegacy() {
	s.legacyOnce.Do(func() {
		s.logger.Warn("database schema lacks news.language; serving all articles as English",
			"category", model.EventCategorySystem,
			"schema_version", s.caps.Version,
			"required_version", store.MultilingualVersion)
	})
}

func toArticle(r store.News) model.Article {
	return model.Article{
		ID:               r.ID,
		Title:            r.Title,
		Slug:             r.Slug,
		ShortDescription: r.ShortDescription,
		Content:          r.Content,
		Category:         r.Category,
		Language:         model.Language(r.Language),
		ImageURL:         util.StringPtrFromNull(r.ImageURL),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func toSummary(r store.NewsSummary) model.ArticleSummary {
	return model.ArticleSummary{
		ID:               r.ID,
		Title:            r.Title,
		Slug:             r.Slug,
		ShortDescription: r.ShortDescription,
		Category:         r.Category,
		Language:         model.Language(r.Language),
		ImageURL:         util.StringPtrFromNull(r.ImageURL),
		CreatedAt:        r.CreatedAt,
	}
}

