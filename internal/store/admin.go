// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const adminUserColumns = `id, username, password_hash, role, created_at, updated_at`

func scanAdminUser(row rowScanner) (AdminUser, error) {
	var i AdminUser
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.PasswordHash,
		&i.Role,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

// CreateAdminUserParams holds the column values of a new admin account.
type CreateAdminUserParams struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const createAdminUser = `INSERT INTO admin_users (username, password_hash, role, created_at, updated_at)
VALUES (?, ?, 'admin', ?, ?)
RETURNING ` + adminUserColumns

// CreateAdminUser inserts an admin account. The role column is always 'admin'.
func (q *Queries) CreateAdminUser(ctx context.Context, arg CreateAdminUserParams) (AdminUser, error) {
	row := q.db.QueryRowContext(ctx, createAdminUser, arg.Username, arg.PasswordHash, arg.CreatedAt, arg.UpdatedAt)
	return scanAdminUser(row)
}

const getAdminUserByUsername = `SELECT ` + adminUserColumns + ` FROM admin_users WHERE username = ?`

// GetAdminUserByUsername returns the admin account with the username.
func (q *Queries) GetAdminUserByUsername(ctx context.Context, username string) (AdminUser, error) {
	return scanAdminUser(q.db.QueryRowContext(ctx, getAdminUserByUsername, username))
}

const getAdminUserByID = `SELECT ` + adminUserColumns + ` FROM admin_users WHERE id = ?`

// GetAdminUserByID returns the admin account with the id.
func (q *Queries) GetAdminUserByID(ctx context.Context, id int64) (AdminUser, error) {
	return scanAdminUser(q.db.QueryRowContext(ctx, getAdminUserByID, id))
}

// UpdateAdminPasswordParams sets a new password hash.
type UpdateAdminPasswordParams struct {
	ID           int64
	PasswordHash string
	UpdatedAt    time.Time
}

const updateAdminPassword = `UPDATE admin_users SET password_hash = ?, updated_at = ? WHERE id = ?`

// UpdateAdminPassword replaces the password hash of an admin account.
func (q *Queries) UpdateAdminPassword(ctx context.Context, arg UpdateAdminPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateAdminPassword, arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

const countAdminUsers = `SELECT COUNT(*) FROM admin_users`

// CountAdminUsers returns the number of admin accounts.
func (q *Queries) CountAdminUsers(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAdminUsers).Scan(&count)
	return count, err
}

// CreateAdminTokenParams holds the column values of an issued token.
type CreateAdminTokenParams struct {
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

const createAdminToken = `INSERT INTO admin_tokens (user_id, token_hash, expires_at, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, user_id, token_hash, expires_at, last_used_at, created_at`

// CreateAdminToken stores the hash of a newly issued token.
func (q *Queries) CreateAdminToken(ctx context.Context, arg CreateAdminTokenParams) (AdminToken, error) {
	row := q.db.QueryRowContext(ctx, createAdminToken, arg.UserID, arg.TokenHash, arg.ExpiresAt, arg.CreatedAt)
	var i AdminToken
	err := row.Scan(&i.ID, &i.UserID, &i.TokenHash, &i.ExpiresAt, &i.LastUsedAt, &i.CreatedAt)
	return i, err
}

// GetActiveTokenUserRow joins a live token with its owner.
type GetActiveTokenUserRow struct {
	TokenID   int64
	ExpiresAt time.Time
	User      AdminUser
}

const getActiveTokenUser = `SELECT t.id, t.expires_at,
    u.id, u.username, u.password_hash, u.role, u.created_at, u.updated_at
FROM admin_tokens t
JOIN admin_users u ON u.id = t.user_id
WHERE t.token_hash = ? AND t.expires_at > ?`

// GetActiveTokenUser returns the owner of an unexpired token.
func (q *Queries) GetActiveTokenUser(ctx context.Context, tokenHash string, now time.Time) (GetActiveTokenUserRow, error) {
	row := q.db.QueryRowContext(ctx, getActiveTokenUser, tokenHash, now)
	var i GetActiveTokenUserRow
	err := row.Scan(
		&i.TokenID,
		&i.ExpiresAt,
		&i.User.ID,
		&i.User.Username,
		&i.User.PasswordHash,
		&i.User.Role,
		&i.User.CreatedAt,
		&i.User.UpdatedAt,
	)
	return i, err
}

const touchAdminToken = `UPDATE admin_tokens SET last_used_at = ? WHERE id = ?`

// TouchAdminToken records the last use of a token.
func (q *Queries) TouchAdminToken(ctx context.Context, id int64, usedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, touchAdminToken, usedAt, id)
	return err
}

const deleteAdminTokenByHash = `DELETE FROM admin_tokens WHERE token_hash = ?`

// DeleteAdminTokenByHash revokes a token.
func (q *Queries) DeleteAdminTokenByHash(ctx context.Context, tokenHash string) error {
	_, err := q.db.ExecContext(ctx, deleteAdminTokenByHash, tokenHash)
	return err
}

const deleteExpiredAdminTokens = `DELETE FROM admin_tokens WHERE expires_at <= ?`

// DeleteExpiredAdminTokens removes every token that expired at or before now.
func (q *Queries) DeleteExpiredAdminTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredAdminTokens, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
