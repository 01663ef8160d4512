// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds the sitemap and robots.txt of the reader site.
package seo

import (
	"encoding/xml"
	"net/url"
	"strings"
	"time"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Change frequencies used by the builder.
const (
	ChangeFreqHourly ChangeFreq = "hourly"
	ChangeFreqDaily  ChangeFreq = "daily"
	ChangeFreqWeekly ChangeFreq = "weekly"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapArticle contains data needed to add an article to the sitemap.
type SitemapArticle struct {
	Slug      string
	Language  string
	UpdatedAt time.Time
}

// SitemapBuilder builds sitemap XML for the reader pages.
type SitemapBuilder struct {
	siteURL string
	urls    []SitemapURL
}

// NewSitemapBuilder creates a new sitemap builder for an absolute site URL.
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{siteURL: strings.TrimSuffix(siteURL, "/")}
}

// AddHomepage adds the front page once per language.
func (b *SitemapBuilder) AddHomepage(languages []string) {
	for _, lang := range languages {
		b.urls = append(b.urls, SitemapURL{
			Loc:        b.siteURL + "/?lang=" + url.QueryEscape(lang),
			ChangeFreq: ChangeFreqHourly,
			Priority:   "1.0",
		})
	}
}

// AddCategories adds the category listings.
func (b *SitemapBuilder) AddCategories(categories []string) {
	for _, c := range categories {
		b.urls = append(b.urls, SitemapURL{
			Loc:        b.siteURL + "/category/" + url.PathEscape(c),
			ChangeFreq: ChangeFreqDaily,
			Priority:   "0.6",
		})
	}
}

// AddArticle adds an article page. The language is part of the URL since
// the same slug may exist in several languages.
func (b *SitemapBuilder) AddArticle(a SitemapArticle) {
	loc := b.siteURL + "/news/" + url.PathEscape(a.Slug)
	if a.Language != "" {
		loc += "?lang=" + url.QueryEscape(a.Language)
	}
	entry := SitemapURL{
		Loc:        loc,
		ChangeFreq: ChangeFreqWeekly,
		Priority:   "0.8",
	}
	if !a.UpdatedAt.IsZero() {
		entry.LastMod = a.UpdatedAt.UTC().Format(time.RFC3339)
	}
	b.urls = append(b.urls, entry)
}

// Len returns the number of URLs added so far.
func (b *SitemapBuilder) Len() int {
	return len(b.urls)
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(output, xmlBytes...), nil
}
