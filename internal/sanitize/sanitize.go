// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sanitize cleans rich-text article HTML against a single allow-list.
//
// The same Policy is applied when content is written and again when it is
// rendered, and is published to external clients so that every enforcement
// point shares one definition.
package sanitize

import (
	"html/template"
	"regexp"
	"sort"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// GlobalAttrKey is the AllowedAttributes key for attributes permitted on every tag.
const GlobalAttrKey = "*"

// Policy is the declarative allow-list for article HTML.
type Policy struct {
	AllowedTags       []string            `json:"allowed_tags"`
	AllowedAttributes map[string][]string `json:"allowed_attributes"`
	AllowedSchemes    []string            `json:"allowed_schemes"`
	ForbiddenTags     []string            `json:"forbidden_tags"`
	AllowRelativeURLs bool                `json:"allow_relative_urls"`
}

// DefaultPolicy is the allow-list used for article content and descriptions.
var DefaultPolicy = Policy{
	AllowedTags: []string{
		"p", "br", "strong", "em", "u",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "blockquote",
		"a", "img", "div", "span",
	},
	AllowedAttributes: map[string][]string{
		"a":           {"href", "title"},
		"img":         {"src", "alt", "title"},
		GlobalAttrKey: {"class"},
	},
	AllowedSchemes:    []string{"http", "https"},
	ForbiddenTags:     []string{"script", "iframe", "object", "embed", "form", "input", "style"},
	AllowRelativeURLs: true,
}

var (
	// classValue restricts class attributes to plain space-separated tokens.
	classValue = regexp.MustCompile(`^[A-Za-z0-9_\- ]*$`)

	scriptScheme   = regexp.MustCompile(`(?i)(javascript)(\s*):`)
	handlerPattern = regexp.MustCompile(`(?i)(on[a-z]+)(\s*)=`)

	emptyParagraphs = regexp.MustCompile(`(?i)^(\s|<p>(\s|&nbsp;|<br\s*/?>)*</p>|<br\s*/?>)*$`)
)

// Sanitizer applies a compiled Policy. It is safe for concurrent use.
type Sanitizer struct {
	policy Policy
	bm     *bluemonday.Policy
}

// New compiles p into a Sanitizer.
func New(p Policy) *Sanitizer {
	bm := bluemonday.NewPolicy()
	bm.AllowElements(p.AllowedTags...)

	elements := make([]string, 0, len(p.AllowedAttributes))
	for el := range p.AllowedAttributes {
		elements = append(elements, el)
	}
	sort.Strings(elements)

	for _, el := range elements {
		for _, attr := range p.AllowedAttributes[el] {
			builder := bm.AllowAttrs(attr)
			if attr == "class" {
				builder = builder.Matching(classValue)
			}
			if el == GlobalAttrKey {
				builder.Globally()
			} else {
				builder.OnElements(el)
			}
		}
	}

	bm.AllowURLSchemes(p.AllowedSchemes...)
	bm.RequireParseableURLs(true)
	bm.AllowRelativeURLs(p.AllowRelativeURLs)

	return &Sanitizer{policy: p, bm: bm}
}

var (
	defaultOnce      sync.Once
	defaultSanitizer *Sanitizer
)

// Default returns the Sanitizer for DefaultPolicy.
func Default() *Sanitizer {
	defaultOnce.Do(func() {
		defaultSanitizer = New(DefaultPolicy)
	})
	return defaultSanitizer
}

// HTML sanitizes s with the default policy.
func HTML(s string) string {
	return Default().HTML(s)
}

// Render sanitizes s with the default policy for direct template output.
func Render(s string) template.HTML {
	return Default().Render(s)
}

// Policy returns the definition the Sanitizer was compiled from.
func (s *Sanitizer) Policy() Policy {
	return s.policy
}

// HTML returns s restricted to the allow-list. Empty input yields "".
// The result never contains script blocks, event-handler attributes or
// script URLs, and HTML(HTML(x)) == HTML(x).
func (s *Sanitizer) HTML(in string) string {
	if in == "" {
		return ""
	}
	return neutralize(s.bm.Sanitize(in))
}

// Render sanitizes in and marks the result safe for html/template.
func (s *Sanitizer) Render(in string) template.HTML {
	return template.HTML(s.HTML(in)) //nolint:gosec // output of the allow-list
}

// neutralize entity-encodes the delimiter of script-scheme and handler-like
// tokens that survive as plain text or attribute values.
func neutralize(s string) string {
	s = scriptScheme.ReplaceAllString(s, "${1}${2}&#58;")
	return handlerPattern.ReplaceAllString(s, "${1}${2}&#61;")
}

// IsVisuallyEmpty reports whether content renders as nothing: blank,
// or only empty paragraphs and line breaks such as "<p><br></p>".
func IsVisuallyEmpty(s string) bool {
	return emptyParagraphs.MatchString(s)
}
