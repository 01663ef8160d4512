// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/onews-go/internal/auth"
	"github.com/olegiv/onews-go/internal/middleware"
	"github.com/olegiv/onews-go/internal/model"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse describes the authenticated admin.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

func userResponse(p auth.Principal) UserResponse {
	return UserResponse{ID: p.UserID(), Username: p.Username(), Role: p.Role()}
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	fields := map[string]string{}
	if req.Username == "" {
		fields["username"] = "is required"
	}
	if req.Password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		WriteValidationError(w, fields)
		return
	}

	if h.login != nil {
		if locked, remaining := h.login.IsAccountLocked(req.Username); locked {
			middleware.WriteLocked(w, remaining)
			return
		}
	}

	session, err := h.tokens.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.logger.Warn("admin login failed",
			"category", model.EventCategoryAuth,
			"username", req.Username,
			"ip", middleware.ClientIP(r),
		)
		if h.login != nil {
			if locked, d := h.login.RecordFailedAttempt(req.Username); locked {
				middleware.WriteLocked(w, d)
				return
			}
		}
		WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if h.login != nil {
		h.login.RecordSuccessfulLogin(req.Username)
	}

	WriteJSON(w, http.StatusOK, LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      userResponse(session.Principal),
	})
}

// Logout handles POST /api/auth/logout. It revokes the presented token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.BearerToken(r)
	if err := h.tokens.Logout(r.Context(), token); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Access token required")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]UserResponse{"user": userResponse(p)})
}
