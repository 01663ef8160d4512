// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// News is a full article row.
type News struct {
	ID               int64
	Title            string
	Slug             string
	ShortDescription string
	Content          string
	Category         string
	Language         string
	ImageURL         sql.NullString
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewsSummary is an article row without its body, used for listings.
type NewsSummary struct {
	ID               int64
	Title            string
	Slug             string
	ShortDescription string
	Category         string
	Language         string
	ImageURL         sql.NullString
	CreatedAt        time.Time
}

// AdminUser is an operator account provisioned out of band.
type AdminUser struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AdminToken is an issued bearer token, stored by hash.
type AdminToken struct {
	ID         int64
	UserID     int64
	TokenHash  string
	ExpiresAt  time.Time
	LastUsedAt sql.NullTime
	CreatedAt  time.Time
}

// Event is a persisted warning or error log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}
