// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/yuin/goldmark"

	"github.com/olegiv/onews-go/internal/model"
	"github.com/olegiv/onews-go/internal/sanitize"
)

// Image is a file attached to a write.
type Image struct {
	Reader      io.Reader
	ContentType string
}

// CreateInput holds the fields of a new article.
type CreateInput struct {
	Title            string              `json:"title" validate:"notblank,max=300"`
	ShortDescription string              `json:"short_description" validate:"notblank"`
	Content          string              `json:"content" validate:"notblank"`
	Category         string              `json:"category" validate:"notblank,max=64"`
	Language         string              `json:"language"`
	Format           model.ContentFormat `json:"format" validate:"omitempty,oneof=html markdown"`
	Image            *Image              `json:"-"`
}

// UpdateInput holds the fields to change. Nil fields keep their stored value.
type UpdateInput struct {
	Title            *string             `json:"title" validate:"omitnil,notblank,max=300"`
	ShortDescription *string             `json:"short_description" validate:"omitnil,notblank"`
	Content          *string             `json:"content" validate:"omitnil,notblank"`
	Category         *string             `json:"category" validate:"omitnil,notblank,max=64"`
	Language         *string             `json:"language"`
	Format           model.ContentFormat `json:"format" validate:"omitempty,oneof=html markdown"`
	Image            *Image              `json:"-"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct converts validator errors into a ValidationError.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.add(fe.Field(), fieldMessage(fe))
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}

// writeLanguage resolves the language of a write. Empty or unsupported
// codes resolve to fallback.
func writeLanguage(code string, fallback model.Language) model.Language {
	if lang, ok := model.ParseLanguage(code); ok {
		return lang
	}
	return fallback
}

// contentPipeline turns submitted bodies into stored HTML.
type contentPipeline struct {
	sanitizer *sanitize.Sanitizer
	markdown  goldmark.Markdown
}

func newContentPipeline(s *sanitize.Sanitizer) *contentPipeline {
	if s == nil {
		s = sanitize.Default()
	}
	return &contentPipeline{sanitizer: s, markdown: goldmark.New()}
}

// toHTML converts Markdown input to HTML. HTML input is returned unchanged.
func (p *contentPipeline) toHTML(in string, format model.ContentFormat) (string, error) {
	if format != model.FormatMarkdown {
		return in, nil
	}
	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(in), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}

// body checks and cleans article content. Content that is visually empty
// before or after sanitization is rejected.
func (p *contentPipeline) body(in string, format model.ContentFormat) (string, error) {
	if sanitize.IsVisuallyEmpty(in) {
		return "", fieldError("content", "cannot be empty")
	}
	html, err := p.toHTML(in, format)
	if err != nil {
		return "", err
	}
	clean := p.sanitizer.HTML(html)
	if sanitize.IsVisuallyEmpty(clean) {
		return "", fieldError("content", "cannot be empty")
	}
	return clean, nil
}

// description cleans a short description.
func (p *contentPipeline) description(in string, format model.ContentFormat) (string, error) {
	html, err := p.toHTML(in, format)
	if err != nil {
		return "", err
	}
	clean := strings.TrimSpace(p.sanitizer.HTML(html))
	if sanitize.IsVisuallyEmpty(clean) {
		return "", fieldError("short_description", "is required")
	}
	return clean, nil
}

func normalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
