// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrNotFound is returned when no article matches a slug or id.
	ErrNotFound = errors.New("article not found")

	// ErrSchemaNotReady is returned by writes that need the multilingual
	// schema while the database is behind.
	ErrSchemaNotReady = errors.New("database schema lacks multilingual support; run `onews migrate`")
)

// ValidationError reports rejected input fields. Fields maps the JSON field
// name to a human-readable message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func fieldError(field, msg string) error {
	e := &ValidationError{}
	e.add(field, msg)
	return e
}
