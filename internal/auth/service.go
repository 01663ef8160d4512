// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth handles admin credentials, bearer tokens and the request principal.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/onews-go/internal/model"
	"github.com/olegiv/onews-go/internal/store"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidToken is returned for an unknown, revoked or expired token.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// dummyHash is checked when the username is unknown so that both failure
// paths cost one Argon2id derivation.
var dummyHash, _ = HashPassword("onews-dummy-password")

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Principal Principal
}

// Service issues and verifies admin bearer tokens.
type Service struct {
	queries *store.Queries
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a token service. Tokens expire ttl after issue.
func NewService(db store.DBTX, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		queries: store.New(db),
		ttl:     ttl,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Login verifies credentials and issues a new token.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.queries.GetAdminUserByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		_, _ = CheckPassword(password, dummyHash)
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("loading admin user: %w", err)
	}

	ok, err := CheckPassword(password, user.PasswordHash)
	if err != nil {
		return Session{}, fmt.Errorf("checking password: %w", err)
	}
	if !ok {
		return Session{}, ErrInvalidCredentials
	}

	if NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, password)
	}

	raw, prefix, err := model.GenerateToken()
	if err != nil {
		return Session{}, fmt.Errorf("generating token: %w", err)
	}

	now := s.now()
	token, err := s.queries.CreateAdminToken(ctx, store.CreateAdminTokenParams{
		UserID:    user.ID,
		TokenHash: model.HashToken(raw),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	})
	if err != nil {
		return Session{}, fmt.Errorf("storing token: %w", err)
	}

	s.logger.Info("admin logged in", "category", model.EventCategoryAuth, "username", user.Username, "token_prefix", prefix)

	return Session{
		Token:     raw,
		ExpiresAt: token.ExpiresAt,
		Principal: principalFromUser(user),
	}, nil
}

func (s *Service) rehash(ctx context.Context, user store.AdminUser, password string) {
	hash, err := HashPassword(password)
	if err != nil {
		s.logger.Warn("failed to rehash password", "category", model.EventCategoryAuth, "username", user.Username, "error", err)
		return
	}
	if err := s.queries.UpdateAdminPassword(ctx, store.UpdateAdminPasswordParams{
		ID:           user.ID,
		PasswordHash: hash,
		UpdatedAt:    s.now(),
	}); err != nil {
		s.logger.Warn("failed to store rehashed password", "category", model.EventCategoryAuth, "username", user.Username, "error", err)
	}
}

// Authenticate resolves a raw bearer token to its principal.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (Principal, error) {
	if rawToken == "" {
		return Principal{}, ErrInvalidToken
	}

	now := s.now()
	row, err := s.queries.GetActiveTokenUser(ctx, model.HashToken(rawToken), now)
	if errors.Is(err, sql.ErrNoRows) {
		return Principal{}, ErrInvalidToken
	}
	if err != nil {
		return Principal{}, fmt.Errorf("looking up token: %w", err)
	}

	if err := s.queries.TouchAdminToken(ctx, row.TokenID, now); err != nil {
		s.logger.Debug("failed to record token use", "error", err)
	}

	return principalFromUser(row.User), nil
}

// Logout revokes a token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	if err := s.queries.DeleteAdminTokenByHash(ctx, model.HashToken(rawToken)); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// PurgeExpired deletes every expired token and returns how many were removed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.queries.DeleteExpiredAdminTokens(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purging expired tokens: %w", err)
	}
	return n, nil
}
