// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/onews-go/internal/model"
	"github.com/olegiv/onews-go/internal/seo"
)

// sitemapLimit caps the number of articles listed in sitemap.xml.
const sitemapLimit = 5000

// Sitemap serves sitemap.xml with the front page, category listings and
// the most recently updated articles of every language.
func (h *FrontendHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	entries, err := h.articles.SitemapEntries(r.Context(), sitemapLimit)
	if err != nil {
		h.logger.Error("failed to list sitemap entries", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	languages := make([]string, 0, len(model.SupportedLanguages))
	for _, l := range model.SupportedLanguages {
		languages = append(languages, string(l))
	}

	b := seo.NewSitemapBuilder(h.siteURL(r))
	b.AddHomepage(languages)
	b.AddCategories(model.KnownCategories)
	for _, e := range entries {
		b.AddArticle(seo.SitemapArticle{Slug: e.Slug, Language: string(e.Language), UpdatedAt: e.UpdatedAt})
	}

	out, err := b.Build()
	if err != nil {
		h.logger.Error("failed to build sitemap", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(out)
}

// Robots serves robots.txt.
func (h *FrontendHandler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write([]byte(seo.BuildRobots(seo.RobotsConfig{SiteURL: h.siteURL(r)})))
}

// siteURL returns the configured base URL or one derived from the request.
func (h *FrontendHandler) siteURL(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
