// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers.
package testutil

import (
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/olegiv/onews-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// DiscardLogger creates a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary file database with all migrations applied.
// The database is closed when the test ends.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()
	return TestDBAtVersion(t, 0)
}

// TestDBAtVersion creates a temporary file database migrated up to version.
// A version of 0 applies every migration.
func TestDBAtVersion(t *testing.T, version int64) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "onews-test.db")
	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if version == 0 {
		err = store.Migrate(db)
	} else {
		err = store.MigrateTo(db, version)
	}
	if err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	return db
}

// TestMemoryDB creates a migrated in-memory SQLite database.
// The pool is pinned to one connection so every query sees the same database.
func TestMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrating memory database: %v", err)
	}
	return db
}
