// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render parses and executes the reader page templates.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Template locations inside the templates filesystem.
const (
	baseLayout  = "layouts/base.html"
	partialsDir = "partials"
	pagesDir    = "pages"
)

// blankLinesRegex collapses runs of blank lines left behind by template actions.
var blankLinesRegex = regexp.MustCompile(`\r?\n(?:[ \t]*\r?\n)+`)

// Renderer executes pre-parsed page templates.
type Renderer struct {
	templates map[string]*template.Template
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS fs.FS
	Funcs       template.FuncMap
}

// New creates a new Renderer with parsed templates. Every file in pages/ is
// parsed together with the base layout and all partials, and is addressed
// by its name without extension.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}

	partials, err := templateFiles(cfg.TemplatesFS, partialsDir)
	if err != nil {
		return nil, fmt.Errorf("getting partials: %w", err)
	}
	pages, err := templateFiles(cfg.TemplatesFS, pagesDir)
	if err != nil {
		return nil, fmt.Errorf("getting pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no templates in %s", pagesDir)
	}

	funcs := templateFuncs()
	for name, fn := range cfg.Funcs {
		funcs[name] = fn
	}

	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")

		files := append([]string{baseLayout}, partials...)
		files = append(files, page)

		tmpl, err := template.New("").Funcs(funcs).ParseFS(cfg.TemplatesFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// templateFiles returns all .html files in a directory. A missing directory
// yields no files.
func templateFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": truncate,
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
	}
}

// truncate shortens s to at most n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:n]), " ") + "…"
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Render executes the named page into a buffer and writes it with status.
// Nothing is written when execution fails.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	out := blankLinesRegex.ReplaceAll(buf.Bytes(), []byte("\n"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(out)
	return err
}
