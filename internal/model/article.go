// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Article is a news item as returned to clients.
type Article struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	ShortDescription string    `json:"short_description"`
	Content          string    `json:"content"`
	Category         string    `json:"category"`
	Language         Language  `json:"language"`
	ImageURL         *string   `json:"image_url"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ArticleSummary is an article without its body, as returned in listings.
type ArticleSummary struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	ShortDescription string    `json:"short_description"`
	Category         string    `json:"category"`
	Language         Language  `json:"language"`
	ImageURL         *string   `json:"image_url"`
	CreatedAt        time.Time `json:"created_at"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes the page count for a total. Pages is 0 when total is 0.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// Known categories. Category is open-ended; these drive navigation labels.
const (
	CategoryUzbekistan = "uzbekistan"
	CategoryEducation  = "education"
	CategoryFinance    = "finance"
	CategoryAuto       = "auto"
	CategoryWorld      = "world"
)

// KnownCategories lists navigation categories in display order.
var KnownCategories = []string{
	CategoryUzbekistan,
	CategoryEducation,
	CategoryFinance,
	CategoryAuto,
	CategoryWorld,
}

// ContentFormat is the markup of submitted article bodies.
type ContentFormat string

// Accepted content formats.
const (
	FormatHTML     ContentFormat = "html"
	FormatMarkdown ContentFormat = "markdown"
)
