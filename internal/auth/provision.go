// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/olegiv/onews-go/internal/store"
)

// Default admin credentials created by Seed.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// ProvisionResult describes what Provision did.
type ProvisionResult struct {
	User    store.AdminUser
	Created bool
}

// Provision creates an admin account, or replaces the password of an
// existing one. It is only reachable from the command line.
func Provision(ctx context.Context, db store.DBTX, username, password string) (ProvisionResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return ProvisionResult{}, errors.New("username is required")
	}
	if !usernamePattern.MatchString(username) {
		return ProvisionResult{}, errors.New("username may only contain letters, digits, '.', '_' and '-' (max 64)")
	}
	if err := ValidatePassword(password); err != nil {
		return ProvisionResult{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return ProvisionResult{}, fmt.Errorf("hashing password: %w", err)
	}

	q := store.New(db)
	now := time.Now().UTC()

	existing, err := q.GetAdminUserByUsername(ctx, username)
	switch {
	case err == nil:
		if err := q.UpdateAdminPassword(ctx, store.UpdateAdminPasswordParams{
			ID:           existing.ID,
			PasswordHash: hash,
			UpdatedAt:    now,
		}); err != nil {
			return ProvisionResult{}, fmt.Errorf("updating password: %w", err)
		}
		existing.PasswordHash = hash
		existing.UpdatedAt = now
		return ProvisionResult{User: existing}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return ProvisionResult{}, fmt.Errorf("checking for admin user: %w", err)
	}

	user, err := q.CreateAdminUser(ctx, store.CreateAdminUserParams{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return ProvisionResult{}, fmt.Errorf("creating admin user: %w", err)
	}

	return ProvisionResult{User: user, Created: true}, nil
}

// Seed creates the default admin account if it does not exist yet.
// It reports whether the account was created.
func Seed(ctx context.Context, db store.DBTX) (bool, error) {
	q := store.New(db)

	_, err := q.GetAdminUserByUsername(ctx, DefaultAdminUsername)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("checking for admin user: %w", err)
	}

	res, err := Provision(ctx, db, DefaultAdminUsername, DefaultAdminPassword)
	if err != nil {
		return false, err
	}
	return res.Created, nil
}
