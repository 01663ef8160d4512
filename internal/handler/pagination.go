// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/url"
	"strconv"
)

// pageWindow is the number of page links shown around the current page.
const pageWindow = 5

// Pagination holds pagination data for the reader templates.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	HasPrev     bool
	HasNext     bool
	PrevURL     string
	NextURL     string
	Pages       []PaginationPage

	// Translated by the caller.
	PrevLabel string
	NextLabel string
	Summary   string
}

// PaginationPage represents a single page link.
type PaginationPage struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// BuildPagination creates pagination data for a listing at baseURL.
// Query parameters other than page are preserved in every link.
func BuildPagination(currentPage, totalPages int, baseURL string, query url.Values) Pagination {
	p := Pagination{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		HasPrev:     currentPage > 1 && totalPages > 0,
		HasNext:     currentPage < totalPages,
	}
	if totalPages == 0 {
		return p
	}

	params := make(url.Values)
	for k, v := range query {
		if k != "page" && len(v) > 0 && v[0] != "" {
			params[k] = v
		}
	}
	pageURL := func(page int) string {
		q := make(url.Values, len(params)+1)
		for k, v := range params {
			q[k] = v
		}
		if page > 1 {
			q.Set("page", strconv.Itoa(page))
		}
		if len(q) == 0 {
			return baseURL
		}
		return baseURL + "?" + q.Encode()
	}

	if p.HasPrev {
		p.PrevURL = pageURL(min(currentPage-1, totalPages))
	}
	if p.HasNext {
		p.NextURL = pageURL(currentPage + 1)
	}

	start := currentPage - pageWindow/2
	end := currentPage + pageWindow/2
	if start < 1 {
		start = 1
		end = pageWindow
	}
	if end > totalPages {
		end = totalPages
		start = max(end-pageWindow+1, 1)
	}

	if start > 1 {
		p.Pages = append(p.Pages, PaginationPage{Number: 1, URL: pageURL(1)})
		if start > 2 {
			p.Pages = append(p.Pages, PaginationPage{IsEllipsis: true})
		}
	}
	for i := start; i <= end; i++ {
		p.Pages = append(p.Pages, PaginationPage{
			Number:    i,
			URL:       pageURL(i),
			IsCurrent: i == currentPage,
		})
	}
	if end < totalPages {
		if end < totalPages-1 {
			p.Pages = append(p.Pages, PaginationPage{IsEllipsis: true})
		}
		p.Pages = append(p.Pages, PaginationPage{Number: totalPages, URL: pageURL(totalPages)})
	}

	return p
}

// ParsePageParam extracts the page number from the query string.
func ParsePageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
