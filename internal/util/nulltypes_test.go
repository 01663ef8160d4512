// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"testing"
)

func TestParsePositiveID(t *testing.T) {
	tests := []struct {
		input  string
		want   int64
		wantOK bool
	}{
		{"1", 1, true},
		{"42", 42, true},
		{"9223372036854775807", 9223372036854775807, true},
		{"", 0, false},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"1.5", 0, false},
		{"9223372036854775808", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParsePositiveID(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParsePositiveID(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNullStringFromValue(t *testing.T) {
	if got := NullStringFromValue(""); got.Valid {
		t.Errorf("NullStringFromValue(\"\") = %+v, want invalid", got)
	}
	if got := NullStringFromValue("/uploads/a.jpg"); !got.Valid || got.String != "/uploads/a.jpg" {
		t.Errorf("NullStringFromValue() = %+v", got)
	}
}

func TestStringPtrFromNull(t *testing.T) {
	if got := StringPtrFromNull(sql.NullString{}); got != nil {
		t.Errorf("StringPtrFromNull(invalid) = %q, want nil", *got)
	}

	ns := sql.NullString{String: "x", Valid: true}
	got := StringPtrFromNull(ns)
	if got == nil || *got != "x" {
		t.Fatalf("StringPtrFromNull(valid) = %v", got)
	}
	*got = "y"
	if ns.String != "x" {
		t.Error("returned pointer aliases the input")
	}
}
