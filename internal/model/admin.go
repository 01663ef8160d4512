// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types shared across the application.
package model

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// RoleAdmin is the only role. Accounts are provisioned from the command line.
const RoleAdmin = "admin"

// GenerateToken generates a new random bearer token.
// Returns the raw token (shown to the client once) and its prefix for logs.
func GenerateToken() (rawToken string, prefix string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", err
	}

	rawToken = base64.RawURLEncoding.EncodeToString(bytes)
	prefix = rawToken[:8]

	return rawToken, prefix, nil
}

// HashToken creates a SHA-256 hash of a token for storage.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
