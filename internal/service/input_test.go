// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/onews-go/internal/model"
)

func TestValidationErrorMessage(t *testing.T) {
	ve := &ValidationError{}
	ve.add("title", "is required")
	ve.add("content", "cannot be empty")
	ve.add("title", "ignored, first message wins")

	assert.Equal(t, "validation failed: content: cannot be empty; title: is required", ve.Error())
}

func TestWriteLanguage(t *testing.T) {
	tests := []struct {
		in       string
		fallback model.Language
		want     model.Language
	}{
		{"", model.LanguageEnglish, model.LanguageEnglish},
		{"  ", model.LanguageEnglish, model.LanguageEnglish},
		{"ru", model.LanguageEnglish, model.LanguageRussian},
		{"UZ", model.LanguageEnglish, model.LanguageUzbek},
		{"fr", model.LanguageEnglish, model.LanguageEnglish},
		{"english", model.LanguageEnglish, model.LanguageEnglish},
		{"fr", model.LanguageUzbek, model.LanguageUzbek},
		{"", model.LanguageRussian, model.LanguageRussian},
	}

	for _, tt := range tests {
		t.Run(tt.in+"/"+string(tt.fallback), func(t *testing.T) {
			assert.Equal(t, tt.want, writeLanguage(tt.in, tt.fallback))
		})
	}
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	err := validateStruct(CreateInput{})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	for _, f := range []string{"title", "short_description", "content", "category"} {
		assert.Equal(t, "is required", ve.Fields[f], f)
	}

	err = validateStruct(UpdateInput{})
	assert.NoError(t, err, "an empty update is valid")
}
