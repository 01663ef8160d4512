// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/onews-go/internal/model"
)

func TestMatchAcceptLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   model.Language
		ok     bool
	}{
		{"ru-RU,ru;q=0.9,en;q=0.8", model.LanguageRussian, true},
		{"uz", model.LanguageUzbek, true},
		{"en-GB", model.LanguageEnglish, true},
		{"de;q=0.9,uz;q=0.5", model.LanguageUzbek, true},
		{"ru;q=0.2,en;q=0.9", model.LanguageEnglish, true},
		{"ja", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := MatchAcceptLanguage(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("MatchAcceptLanguage(%q) = (%q, %v), want (%q, %v)", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		cookie     string
		accept     string
		want       model.Language
		wantCookie bool
	}{
		{"default", "", "", "", model.LanguageEnglish, false},
		{"query wins", "uz", "ru", "ru", model.LanguageUzbek, true},
		{"invalid query ignored", "xx", "ru", "", model.LanguageRussian, false},
		{"cookie over header", "", "ru", "uz", model.LanguageRussian, false},
		{"bad cookie falls through", "", "zz", "uz", model.LanguageUzbek, false},
		{"header", "", "", "ru-RU,ru;q=0.9", model.LanguageRussian, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/"
			if tt.query != "" {
				target += "?lang=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LanguageCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}

			rec := httptest.NewRecorder()
			if got := DetectLanguage(rec, req); got != tt.want {
				t.Errorf("DetectLanguage = %q, want %q", got, tt.want)
			}

			setCookie := rec.Header().Get("Set-Cookie") != ""
			if setCookie != tt.wantCookie {
				t.Errorf("Set-Cookie present = %v, want %v", setCookie, tt.wantCookie)
			}
		})
	}
}

func TestLanguageMiddleware(t *testing.T) {
	var got model.Language
	h := Language(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = LanguageFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/?lang=ru", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got != model.LanguageRussian {
		t.Errorf("context language = %q, want ru", got)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "ru" || !cookies[0].HttpOnly {
		t.Errorf("cookies = %+v", cookies)
	}
}

func TestLanguageFromEmptyContext(t *testing.T) {
	if got := LanguageFrom(context.Background()); got != model.DefaultLanguage {
		t.Errorf("LanguageFrom = %q, want default", got)
	}
}
