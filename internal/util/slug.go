// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose helpers including URL slug
// generation and validation.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// disallowedChars matches anything that is not a word character, whitespace or hyphen.
	disallowedChars = regexp.MustCompile(`[^a-z0-9_\s-]+`)
	// separatorRuns matches runs of whitespace, underscores and hyphens.
	separatorRuns = regexp.MustCompile(`[\s_-]+`)
)

// Slugify converts a title to a URL-friendly slug.
//
// Non-Latin scripts are transliterated to ASCII first, so "Новости дня"
// becomes "novosti-dnia". The result contains only [a-z0-9-], has no
// repeated hyphens and never starts or ends with a hyphen. It may be empty
// when the title has no transliterable characters.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}

	result = unidecode.Unidecode(result)
	result = strings.TrimSpace(strings.ToLower(result))
	result = disallowedChars.ReplaceAllString(result, "")
	result = separatorRuns.ReplaceAllString(result, "-")

	return strings.Trim(result, "-")
}

// IsValidSlug checks if a string is a valid slug format.
func IsValidSlug(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}

	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}

	return !strings.Contains(s, "--")
}
