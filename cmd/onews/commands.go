// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/olegiv/onews-go/internal/auth"
	"github.com/olegiv/onews-go/internal/config"
	"github.com/olegiv/onews-go/internal/logging"
	"github.com/olegiv/onews-go/internal/store"
)

// setup loads the configuration, installs the base logger and opens the
// database. The caller closes the database and the log file.
func setup() (*config.Config, *sql.DB, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	h, logFile, err := logging.NewHandler(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	slog.SetDefault(slog.New(h))

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o750); err != nil {
		_ = logFile.Close()
		return nil, nil, nil, fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("opening database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		_ = logFile.Close()
		return nil, nil, nil, fmt.Errorf("initializing database: %w", err)
	}
	return cfg, db, logFile, nil
}

func closeAll(db *sql.DB, logFile io.Closer) {
	if err := db.Close(); err != nil {
		slog.Error("error closing database connection", "error", err)
	}
	_ = logFile.Close()
}

func runMigrate() error {
	_, db, logFile, err := setup()
	if err != nil {
		return err
	}
	defer closeAll(db, logFile)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	v, err := store.SchemaVersion(db)
	if err != nil {
		return err
	}
	slog.Info("database migrated", "version", v)
	return nil
}

func runMigrateStatus(w io.Writer) error {
	_, db, logFile, err := setup()
	if err != nil {
		return err
	}
	defer closeAll(db, logFile)

	caps, err := store.ReadCapabilities(db)
	if err != nil {
		return err
	}
	latest, err := store.LatestVersion()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "schema version: %d (latest %d)\n", caps.Version, latest)
	_, _ = fmt.Fprintf(w, "multilingual:   %t\n", caps.Multilingual)
	if caps.Version < latest {
		_, _ = fmt.Fprintf(w, "pending migrations: run `onews migrate`\n")
	}
	return nil
}

func runCreateAdmin(username, password string) error {
	_, db, logFile, err := setup()
	if err != nil {
		return err
	}
	defer closeAll(db, logFile)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	res, err := auth.Provision(context.Background(), db, username, password)
	if err != nil {
		return err
	}
	if res.Created {
		slog.Info("admin user created", "username", res.User.Username)
	} else {
		slog.Info("admin password updated", "username", res.User.Username)
	}
	return nil
}

func runSeed() error {
	_, db, logFile, err := setup()
	if err != nil {
		return err
	}
	defer closeAll(db, logFile)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	created, err := auth.Seed(context.Background(), db)
	if err != nil {
		return err
	}
	if created {
		slog.Warn("default admin account created; change its password with create-admin",
			"username", auth.DefaultAdminUsername)
	} else {
		slog.Info("admin account already exists", "username", auth.DefaultAdminUsername)
	}
	return nil
}
