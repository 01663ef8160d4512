// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"strconv"
)

// ParsePositiveID parses a path or form value as a row id.
// It reports false for empty, malformed or non-positive input.
func ParsePositiveID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil || val <= 0 {
		return 0, false
	}
	return val, true
}

// NullStringFromValue creates a sql.NullString from a string value.
// Returns a valid NullString if the string is non-empty, otherwise returns an invalid one.
func NullStringFromValue(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// StringPtrFromNull converts sql.NullString into a pointer, nil when invalid.
func StringPtrFromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
