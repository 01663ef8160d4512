// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/olegiv/onews-go/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func versionInfo() version.Info {
	return version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}
}

func usage(w io.Writer) func() {
	return func() {
		_, _ = fmt.Fprintf(w, "oNews - multilingual news service\n\n")
		_, _ = fmt.Fprintf(w, "Usage: %s [options] [command]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(w, "Commands:\n")
		_, _ = fmt.Fprintf(w, "  serve                           Run the HTTP server (default)\n")
		_, _ = fmt.Fprintf(w, "  migrate                         Apply pending database migrations\n")
		_, _ = fmt.Fprintf(w, "  migrate-status                  Show the schema version and capabilities\n")
		_, _ = fmt.Fprintf(w, "  create-admin <user> <password>  Create an admin or reset its password\n")
		_, _ = fmt.Fprintf(w, "  seed                            Create the default admin account if missing\n")
		_, _ = fmt.Fprintf(w, "\nOptions:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(w, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(w, "  ONEWS_DB_PATH          SQLite database path (default: ./data/onews.db)\n")
		_, _ = fmt.Fprintf(w, "  ONEWS_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(w, "  ONEWS_ENV              Environment: development|production|test (default: development)\n")
		_, _ = fmt.Fprintf(w, "  ONEWS_AUTO_MIGRATE     Apply migrations on start (default: true)\n")
		_, _ = fmt.Fprintf(w, "  ONEWS_REDIS_URL        Redis URL for the read cache (optional)\n")
		_, _ = fmt.Fprintf(w, "  ONEWS_S3_BUCKET        Store uploads in S3 instead of ONEWS_UPLOADS_DIR (optional)\n")
	}
}

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	flag.Usage = usage(os.Stderr)
	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("onews %s\n", versionInfo())
		os.Exit(0)
	}

	// Load .env files if present (development)
	_ = godotenv.Load()

	if err := dispatch(flag.Args()); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func dispatch(args []string) error {
	cmd := "serve"
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "serve":
		return runServer()
	case "migrate":
		return runMigrate()
	case "migrate-status":
		return runMigrateStatus(os.Stdout)
	case "create-admin":
		if len(args) != 2 {
			return fmt.Errorf("usage: create-admin <username> <password>")
		}
		return runCreateAdmin(args[0], args[1])
	case "seed":
		return runSeed()
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}
