// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTML handlers of the reader site.
package handler

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/onews-go/internal/i18n"
	"github.com/olegiv/onews-go/internal/middleware"
	"github.com/olegiv/onews-go/internal/model"
	"github.com/olegiv/onews-go/internal/render"
	"github.com/olegiv/onews-go/internal/sanitize"
	"github.com/olegiv/onews-go/internal/service"
	"github.com/olegiv/onews-go/internal/store"
)

// perPage is the page size of the reader listings.
const perPage = 12

// dateLayouts are the display formats of publication dates.
var dateLayouts = map[model.Language]string{
	model.LanguageEnglish: "January 2, 2006",
	model.LanguageRussian: "02.01.2006",
	model.LanguageUzbek:   "02.01.2006",
}

// Articles is the read side of the article service.
type Articles interface {
	List(ctx context.Context, p service.ListParams) (service.ListResult, error)
	ListByCategory(ctx context.Context, category string, p service.ListParams) (service.ListResult, error)
	GetBySlug(ctx context.Context, slug, language string) (model.Article, error)
	SitemapEntries(ctx context.Context, limit int) ([]service.SitemapEntry, error)
	Capabilities() store.Capabilities
}

// ArticleView is an article prepared for templates. Summary and Body have
// been through the sanitizer again at render time.
type ArticleView struct {
	Title         string
	URL           string
	Summary       template.HTML
	Body          template.HTML
	Category      string
	CategoryLabel string
	CategoryURL   string
	ImageURL      string
	Published     string
	Updated       string
	ISODate       string
}

// CategoryLink is a navigation entry.
type CategoryLink struct {
	Label  string
	URL    string
	Active bool
}

// LanguageOption is a language switcher entry.
type LanguageOption struct {
	Code    model.Language
	Name    string
	URL     string
	Current bool
}

// PageData contains the fields shared by every reader page.
type PageData struct {
	Lang            model.Language
	Languages       []LanguageOption
	Categories      []CategoryLink
	Title           string
	MetaDescription string
	Canonical       string
	CurrentPath     string
	Year            int
	LegacySchema    bool

	t func(key string, args ...any) string
}

// T translates a UI string into the page language.
func (d PageData) T(key string, args ...any) string {
	if d.t == nil {
		return key
	}
	return d.t(key, args...)
}

// ListData is the home and category page model.
type ListData struct {
	PageData
	Heading    string
	Articles   []ArticleView
	Pagination Pagination
}

// ArticleData is the article page model.
type ArticleData struct {
	PageData
	Article ArticleView
}

// FrontendHandler serves the public reader pages.
type FrontendHandler struct {
	articles  Articles
	renderer  *render.Renderer
	catalog   *i18n.Catalog
	sanitizer *sanitize.Sanitizer
	static    fs.FS
	baseURL   string
	logger    *slog.Logger
	now       func() time.Time
}

// FrontendConfig holds the collaborators of the reader pages.
type FrontendConfig struct {
	Articles  Articles
	Renderer  *render.Renderer
	Catalog   *i18n.Catalog
	Sanitizer *sanitize.Sanitizer
	Static    fs.FS  // served under /static/; optional
	BaseURL   string // absolute site URL for canonical links; optional
	Logger    *slog.Logger
}

// NewFrontendHandler creates a new FrontendHandler.
func NewFrontendHandler(cfg FrontendConfig) *FrontendHandler {
	h := &FrontendHandler{
		articles:  cfg.Articles,
		renderer:  cfg.Renderer,
		catalog:   cfg.Catalog,
		sanitizer: cfg.Sanitizer,
		static:    cfg.Static,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		logger:    cfg.Logger,
		now:       time.Now,
	}
	if h.sanitizer == nil {
		h.sanitizer = sanitize.Default()
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Routes mounts the reader pages and static assets on r.
func (h *FrontendHandler) Routes(r chi.Router) {
	if h.static != nil {
		files := http.StripPrefix("/static/", http.FileServer(http.FS(h.static)))
		r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=86400")
			files.ServeHTTP(w, r)
		})
	}

	r.Get("/sitemap.xml", h.Sitemap)
	r.Get("/robots.txt", h.Robots)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Language)
		r.Get("/", h.Home)
		r.Get("/category/{category}", h.Category)
		r.Get("/news/{slug}", h.Article)
		r.NotFound(h.NotFound)
	})
}

// Home handles the front page: the newest articles in the reader's language.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	lang := middleware.LanguageFrom(r.Context())
	page := ParsePageParam(r)

	res, err := h.articles.List(r.Context(), service.ListParams{Page: page, Limit: perPage, Language: string(lang)})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	base := h.baseData(r, lang, "")
	base.MetaDescription = base.T("site.tagline")
	data := ListData{
		PageData:   base,
		Heading:    base.T("page.latest"),
		Articles:   h.summaries(lang, res.Articles),
		Pagination: h.pagination(lang, res.Pagination, r),
	}
	h.render(w, r, http.StatusOK, "home", data)
}

// Category handles /category/{category}.
func (h *FrontendHandler) Category(w http.ResponseWriter, r *http.Request) {
	lang := middleware.LanguageFrom(r.Context())
	category := strings.ToLower(chi.URLParam(r, "category"))
	page := ParsePageParam(r)

	res, err := h.articles.ListByCategory(r.Context(), category, service.ListParams{Page: page, Limit: perPage, Language: string(lang)})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	label := h.catalog.Category(lang, category)
	base := h.baseData(r, lang, label)
	if !isKnownCategory(category) && res.Pagination.Total == 0 {
		h.NotFound(w, r)
		return
	}

	data := ListData{
		PageData:   base,
		Heading:    base.T("page.category", label),
		Articles:   h.summaries(lang, res.Articles),
		Pagination: h.pagination(lang, res.Pagination, r),
	}
	h.render(w, r, http.StatusOK, "category", data)
}

// Article handles /news/{slug}. The reader's language is preferred but an
// article that only exists in another language is still shown.
func (h *FrontendHandler) Article(w http.ResponseWriter, r *http.Request) {
	lang := middleware.LanguageFrom(r.Context())

	article, err := h.articles.GetBySlug(r.Context(), chi.URLParam(r, "slug"), string(lang))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	view := h.articleView(lang, article)
	base := h.baseData(r, lang, article.Title)
	base.MetaDescription = plainText(string(view.Summary), 160)
	if h.baseURL != "" {
		base.Canonical = h.baseURL + view.URL
	}

	h.render(w, r, http.StatusOK, "article", ArticleData{PageData: base, Article: view})
}

// NotFound renders the 404 page.
func (h *FrontendHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	lang := middleware.LanguageFrom(r.Context())
	base := h.baseData(r, lang, h.catalog.T(lang, "error.not_found"))
	h.render(w, r, http.StatusNotFound, "not_found", base)
}

func (h *FrontendHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrNotFound) {
		h.NotFound(w, r)
		return
	}

	h.logger.Error("reader page failed",
		"category", model.EventCategorySystem,
		"path", r.URL.Path,
		"error", err,
	)
	lang := middleware.LanguageFrom(r.Context())
	base := h.baseData(r, lang, h.catalog.T(lang, "error.server"))
	status := http.StatusInternalServerError
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusServiceUnavailable
	}
	h.render(w, r, status, "error", base)
}

// render executes a page, falling back to a bare error when the template fails.
func (h *FrontendHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := h.renderer.Render(w, status, name, data); err != nil {
		h.logger.Error("failed to render template", "template", name, "path", r.URL.Path, "error", err)
		http.Error(w, "Template rendering error", http.StatusInternalServerError)
	}
}

func (h *FrontendHandler) baseData(r *http.Request, lang model.Language, title string) PageData {
	current := r.URL.Path
	return PageData{
		Lang:         lang,
		Languages:    languageOptions(r.URL, lang),
		Categories:   h.categoryLinks(lang, current),
		Title:        title,
		CurrentPath:  current,
		Year:         h.now().Year(),
		LegacySchema: !h.articles.Capabilities().Multilingual,
		t:            h.catalog.Func(lang),
	}
}

func (h *FrontendHandler) categoryLinks(lang model.Language, current string) []CategoryLink {
	links := make([]CategoryLink, 0, len(model.KnownCategories))
	for _, c := range model.KnownCategories {
		u := categoryURL(c)
		links = append(links, CategoryLink{
			Label:  h.catalog.Category(lang, c),
			URL:    u,
			Active: current == u,
		})
	}
	return links
}

func (h *FrontendHandler) summaries(lang model.Language, items []model.ArticleSummary) []ArticleView {
	views := make([]ArticleView, 0, len(items))
	for _, a := range items {
		views = append(views, h.articleView(lang, model.Article{
			ID:               a.ID,
			Title:            a.Title,
			Slug:             a.Slug,
			ShortDescription: a.ShortDescription,
			Category:         a.Category,
			Language:         a.Language,
			ImageURL:         a.ImageURL,
			CreatedAt:        a.CreatedAt,
			UpdatedAt:        a.CreatedAt,
		}))
	}
	return views
}

func (h *FrontendHandler) articleView(lang model.Language, a model.Article) ArticleView {
	layout := dateLayouts[lang]
	v := ArticleView{
		Title:         a.Title,
		URL:           "/news/" + url.PathEscape(a.Slug),
		Summary:       h.sanitizer.Render(a.ShortDescription),
		Body:          h.sanitizer.Render(a.Content),
		Category:      a.Category,
		CategoryLabel: h.catalog.Category(lang, a.Category),
		CategoryURL:   categoryURL(a.Category),
		Published:     a.CreatedAt.Format(layout),
		ISODate:       a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.ImageURL != nil {
		v.ImageURL = *a.ImageURL
	}
	if a.UpdatedAt.Sub(a.CreatedAt) > time.Minute {
		v.Updated = a.UpdatedAt.Format(layout)
	}
	// Articles shown in another language than requested link with an
	// explicit switch so the reader lands on the same language.
	if a.Language != "" && a.Language != lang {
		v.URL += "?lang=" + string(a.Language)
	}
	return v
}

func (h *FrontendHandler) pagination(lang model.Language, p model.Pagination, r *http.Request) Pagination {
	pg := BuildPagination(p.Page, p.Pages, r.URL.Path, r.URL.Query())
	pg.PrevLabel = h.catalog.T(lang, "page.prev")
	pg.NextLabel = h.catalog.T(lang, "page.next")
	if pg.TotalPages > 0 {
		pg.Summary = h.catalog.T(lang, "page.page_of", pg.CurrentPage, pg.TotalPages)
	}
	return pg
}

func languageOptions(u *url.URL, current model.Language) []LanguageOption {
	opts := make([]LanguageOption, 0, len(model.LanguageInfos))
	for _, info := range model.LanguageInfos {
		q := url.Values{"lang": {string(info.Code)}}
		opts = append(opts, LanguageOption{
			Code:    info.Code,
			Name:    info.NativeName,
			URL:     u.Path + "?" + q.Encode(),
			Current: info.Code == current,
		})
	}
	return opts
}

func categoryURL(category string) string {
	return "/category/" + url.PathEscape(category)
}

func isKnownCategory(category string) bool {
	for _, c := range model.KnownCategories {
		if c == category {
			return true
		}
	}
	return false
}

// plainText strips tags from sanitized HTML and shortens it for meta tags.
func plainText(html string, maxLen int) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	text := strings.Join(strings.Fields(b.String()), " ")
	runes := []rune(text)
	if len(runes) > maxLen {
		return strings.TrimSpace(string(runes[:maxLen])) + "…"
	}
	return text
}
