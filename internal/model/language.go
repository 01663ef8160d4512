// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "strings"

// Language is a content language code.
type Language string

// Supported content languages.
const (
	LanguageEnglish Language = "en"
	LanguageRussian Language = "ru"
	LanguageUzbek   Language = "uz"
)

// DefaultLanguage is used when no valid language is requested.
const DefaultLanguage = LanguageEnglish

// SupportedLanguages lists the content languages in display order.
var SupportedLanguages = []Language{LanguageEnglish, LanguageRussian, LanguageUzbek}

// LanguageInfo describes a language for selection UI.
type LanguageInfo struct {
	Code       Language `json:"code"`
	Name       string   `json:"name"`
	NativeName string   `json:"native_name"`
}

// LanguageInfos provides names for the language switcher.
var LanguageInfos = []LanguageInfo{
	{LanguageEnglish, "English", "English"},
	{LanguageRussian, "Russian", "Русский"},
	{LanguageUzbek, "Uzbek", "O'zbekcha"},
}

// ParseLanguage returns the language for a code and whether it is supported.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseLanguage(code string) (Language, bool) {
	l := Language(strings.ToLower(strings.TrimSpace(code)))
	for _, s := range SupportedLanguages {
		if l == s {
			return l, true
		}
	}
	return "", false
}

// NormalizeLanguage returns the language for a code, falling back to DefaultLanguage.
func NormalizeLanguage(code string) Language {
	if l, ok := ParseLanguage(code); ok {
		return l
	}
	return DefaultLanguage
}

// String implements fmt.Stringer.
func (l Language) String() string {
	return string(l)
}
