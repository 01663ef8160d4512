// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"

	"golang.org/x/text/language"

	"github.com/olegiv/onews-go/internal/model"
)

// LanguageCookieName is the cookie name for the reader's language preference.
const LanguageCookieName = "onews_lang"

type languageKey struct{}

var (
	languageTags    []language.Tag
	languageMatcher language.Matcher
)

func init() {
	languageTags = make([]language.Tag, 0, len(model.SupportedLanguages))
	for _, l := range model.SupportedLanguages {
		languageTags = append(languageTags, language.MustParse(string(l)))
	}
	languageMatcher = language.NewMatcher(languageTags)
}

// Language detects the reader's language and stores it in the request context.
// Priority order:
//  1. Query parameter ?lang=XX (explicit switch, updates the cookie)
//  2. The onews_lang cookie
//  3. The Accept-Language header
//  4. The default language
func Language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := DetectLanguage(w, r)
		next.ServeHTTP(w, r.WithContext(WithLanguage(r.Context(), lang)))
	})
}

// DetectLanguage resolves the request language, setting the preference
// cookie when an explicit ?lang switch is honoured.
func DetectLanguage(w http.ResponseWriter, r *http.Request) model.Language {
	if q := r.URL.Query().Get("lang"); q != "" {
		if lang, ok := model.ParseLanguage(q); ok {
			SetLanguageCookie(w, lang)
			return lang
		}
	}

	if cookie, err := r.Cookie(LanguageCookieName); err == nil {
		if lang, ok := model.ParseLanguage(cookie.Value); ok {
			return lang
		}
	}

	if accept := r.Header.Get("Accept-Language"); accept != "" {
		if lang, ok := MatchAcceptLanguage(accept); ok {
			return lang
		}
	}

	return model.DefaultLanguage
}

// MatchAcceptLanguage finds the best supported language for an
// Accept-Language header, honouring quality values.
func MatchAcceptLanguage(header string) (model.Language, bool) {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return "", false
	}

	_, idx, conf := languageMatcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(model.SupportedLanguages) {
		return "", false
	}
	return model.SupportedLanguages[idx], true
}

// WithLanguage returns a context carrying lang.
func WithLanguage(ctx context.Context, lang model.Language) context.Context {
	return context.WithValue(ctx, languageKey{}, lang)
}

// LanguageFrom returns the request language, or the default when none is set.
func LanguageFrom(ctx context.Context) model.Language {
	if lang, ok := ctx.Value(languageKey{}).(model.Language); ok {
		return lang
	}
	return model.DefaultLanguage
}

// SetLanguageCookie sets the language preference cookie.
func SetLanguageCookie(w http.ResponseWriter, lang model.Language) {
	http.SetCookie(w, &http.Cookie{
		Name:     LanguageCookieName,
		Value:    string(lang),
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60, // 1 year
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
