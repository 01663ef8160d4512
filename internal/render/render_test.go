// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": {Data: []byte(`{{define "base"}}<html>{{template "header" .}}

{{template "content" .}}


</html>{{end}}`)},
		"partials/header.html": {Data: []byte(`{{define "header"}}<h1>{{.Title}}</h1>{{end}}`)},
		"pages/home.html":      {Data: []byte(`{{define "content"}}<p>{{truncate .Body 5}}</p><i>{{shout .Title}}</i>{{end}}`)},
		"pages/broken.html":    {Data: []byte(`{{define "content"}}{{.Missing.Field}}{{end}}`)},
	}
}

func TestBlankLinesRegex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no blank lines", "line1\nline2\nline3", "line1\nline2\nline3"},
		{"one blank line", "line1\n\nline2", "line1\nline2"},
		{"several blank lines", "line1\n\n\n\n\nline2", "line1\nline2"},
		{"blank lines with spaces", "line1\n  \n\t\nline2", "line1\nline2"},
		{"windows line endings", "line1\r\n\r\n\r\nline2", "line1\nline2"},
		{"keeps indentation", "<ul>\n\n    <li>", "<ul>\n    <li>"},
		{"blank lines at end", "line1\nline2\n\n\n", "line1\nline2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(blankLinesRegex.ReplaceAll([]byte(tt.input), []byte("\n")))
			if got != tt.expected {
				t.Errorf("blankLinesRegex.ReplaceAll(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"hello world", 6, "hello…"},
		{"Привет, мир", 6, "Привет…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(Config{
		TemplatesFS: testFS(),
		Funcs: template.FuncMap{
			"shout": strings.ToUpper,
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestRender(t *testing.T) {
	r := newTestRenderer(t)

	if !r.Has("home") || r.Has("header") {
		t.Fatal("only pages should be addressable")
	}

	rec := httptest.NewRecorder()
	err := r.Render(rec, http.StatusTeapot, "home", map[string]string{
		"Title": "<News>",
		"Body":  "abcdefgh",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "<h1>&lt;News&gt;</h1>") {
		t.Errorf("title not escaped: %s", body)
	}
	if !strings.Contains(body, "<p>abcde…</p>") {
		t.Errorf("truncate not applied: %s", body)
	}
	if !strings.Contains(body, "<i>&lt;NEWS&gt;</i>") {
		t.Errorf("custom func not applied: %s", body)
	}
	if strings.Contains(body, "\n\n") {
		t.Errorf("blank lines not collapsed: %q", body)
	}
}

func TestRenderErrorsWriteNothing(t *testing.T) {
	r := newTestRenderer(t)

	rec := httptest.NewRecorder()
	if err := r.Render(rec, http.StatusOK, "broken", struct{}{}); err == nil {
		t.Fatal("expected execution error")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("partial output written: %q", rec.Body.String())
	}

	if err := r.Render(httptest.NewRecorder(), http.StatusOK, "missing", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestNewWithoutPages(t *testing.T) {
	_, err := New(Config{TemplatesFS: fstest.MapFS{
		"layouts/base.html": {Data: []byte(`{{define "base"}}{{end}}`)},
	}})
	if err == nil {
		t.Error("expected error when there are no pages")
	}
}
