// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package i18n provides the translated UI strings of the reader pages.
// Article content is not translated here; each article carries its own language.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/olegiv/onews-go/internal/model"
)

//go:embed locales
var localesFS embed.FS

// Message represents a single translatable message.
type Message struct {
	ID          string `json:"id"`
	Translation string `json:"translation"`
}

// MessageFile represents the structure of a messages JSON file.
type MessageFile struct {
	Language string    `json:"language"`
	Messages []Message `json:"messages"`
}

// Catalog holds the translations of every supported language.
// It is read-only after Load.
type Catalog struct {
	translations map[model.Language]map[string]string
	logger       *slog.Logger
}

// Load reads the embedded message files for model.SupportedLanguages.
func Load(logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		translations: make(map[model.Language]map[string]string, len(model.SupportedLanguages)),
		logger:       logger,
	}

	for _, lang := range model.SupportedLanguages {
		if err := c.loadLanguage(lang); err != nil {
			return nil, fmt.Errorf("loading language %s: %w", lang, err)
		}
	}

	logger.Debug("i18n initialized", "languages", model.SupportedLanguages)
	return c, nil
}

func (c *Catalog) loadLanguage(lang model.Language) error {
	path := fmt.Sprintf("locales/%s/messages.json", lang)
	data, err := localesFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var msgFile MessageFile
	if err := json.Unmarshal(data, &msgFile); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if msgFile.Language != string(lang) {
		return fmt.Errorf("%s declares language %q", path, msgFile.Language)
	}

	m := make(map[string]string, len(msgFile.Messages))
	for _, msg := range msgFile.Messages {
		m[msg.ID] = msg.Translation
	}
	c.translations[lang] = m
	return nil
}

// T translates key into lang. Missing keys fall back to the default
// language and then to the key itself. Arguments are applied with fmt.Sprintf.
func (c *Catalog) T(lang model.Language, key string, args ...any) string {
	translation, ok := c.translations[lang][key]
	if !ok && lang != model.DefaultLanguage {
		translation, ok = c.translations[model.DefaultLanguage][key]
		if ok {
			c.logger.Debug("missing translation, using default", "key", key, "lang", lang)
		}
	}
	if !ok {
		return key
	}

	if len(args) > 0 {
		return fmt.Sprintf(translation, args...)
	}
	return translation
}

// Func binds T to one language for use as a template function.
func (c *Catalog) Func(lang model.Language) func(key string, args ...any) string {
	return func(key string, args ...any) string {
		return c.T(lang, key, args...)
	}
}

// Category returns the display label of a category. Unknown categories are
// shown as stored.
func (c *Catalog) Category(lang model.Language, category string) string {
	key := "category." + category
	if label := c.T(lang, key); label != key {
		return label
	}
	return category
}

// Count returns the number of translations loaded for lang.
func (c *Catalog) Count(lang model.Language) int {
	return len(c.translations[lang])
}

// Missing returns the default-language keys that lang lacks, sorted.
func (c *Catalog) Missing(lang model.Language) []string {
	var missing []string
	for key := range c.translations[model.DefaultLanguage] {
		if _, ok := c.translations[lang][key]; !ok {
			missing = append(missing, key)
		}
	}
	slices.Sort(missing)
	return missing
}
