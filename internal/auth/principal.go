// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"

	"github.com/olegiv/onews-go/internal/model"
	"github.com/olegiv/onews-go/internal/store"
)

// Principal is an authenticated operator.
//
// Its fields are unexported and it is only built from a stored account after
// a token has been verified, so no request payload can produce or alter one.
// The zero value is not an admin.
type Principal struct {
	userID   int64
	username string
	role     string
}

func principalFromUser(u store.AdminUser) Principal {
	return Principal{
		userID:   u.ID,
		username: u.Username,
		role:     u.Role,
	}
}

// UserID returns the account id.
func (p Principal) UserID() int64 { return p.userID }

// Username returns the account name.
func (p Principal) Username() string { return p.username }

// Role returns the account role.
func (p Principal) Role() string { return p.role }

// IsAdmin reports whether the principal may perform admin writes.
func (p Principal) IsAdmin() bool {
	return p.userID != 0 && p.role == model.RoleAdmin
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
