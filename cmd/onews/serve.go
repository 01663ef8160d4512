// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/onews-go/internal/auth"
	"github.com/olegiv/onews-go/internal/cache"
	"github.com/olegiv/onews-go/internal/config"
	"github.com/olegiv/onews-go/internal/handler"
	"github.com/olegiv/onews-go/internal/handler/api"
	"github.com/olegiv/onews-go/internal/i18n"
	"github.com/olegiv/onews-go/internal/imaging"
	"github.com/olegiv/onews-go/internal/logging"
	"github.com/olegiv/onews-go/internal/metrics"
	"github.com/olegiv/onews-go/internal/middleware"
	"github.com/olegiv/onews-go/internal/render"
	"github.com/olegiv/onews-go/internal/sanitize"
	"github.com/olegiv/onews-go/internal/scheduler"
	"github.com/olegiv/onews-go/internal/service"
	"github.com/olegiv/onews-go/internal/store"
	"github.com/olegiv/onews-go/internal/upload"
	"github.com/olegiv/onews-go/web"
)

const metricsPath = "/metrics"

func runServer() error {
	cfg, db, logFile, err := setup()
	if err != nil {
		return err
	}
	defer closeAll(db, logFile)

	if cfg.AutoMigrate {
		slog.Info("running database migrations")
		if err := store.Migrate(db); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	// Upgrade logger to also write WARN and ERROR logs to the event log
	logger := slog.New(logging.NewEventLogHandler(slog.Default().Handler(), db))
	slog.SetDefault(logger)

	caps, err := store.ReadCapabilities(db)
	if err != nil {
		return fmt.Errorf("reading schema capabilities: %w", err)
	}
	metrics.SetSchema(caps.Version, caps.Multilingual)
	if !caps.Multilingual {
		logger.Warn("database schema has no language support; writes are disabled until `onews migrate` runs",
			"category", "system", "version", caps.Version)
	}
	logger.Info("database ready", "version", caps.Version, "multilingual", caps.Multilingual)

	ctx := context.Background()

	readCache, cacheBackend := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTLDuration(),
		MaxItems:   5000,
	}, logger)
	defer func() { _ = readCache.Close() }()
	logger.Info("read cache initialized", "backend", cacheBackend)

	storage, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}
	uploader := upload.NewUploader(storage, imaging.NewProcessor(imaging.DefaultMaxDimension, imaging.DefaultQuality))
	logger.Info("upload storage initialized", "backend", storage.Backend())

	sanitizer := sanitize.Default()
	events := service.NewEventService(db, logger)
	articles := service.NewArticleService(db, service.Options{
		Capabilities: caps,
		Images:       uploader,
		Cache:        readCache,
		CacheTTL:     cfg.CacheTTLDuration(),
		Sanitizer:    sanitizer,
		Events:       events,
		Logger:       logger,
		DefaultLimit: cfg.PageLimitDefault,
		MaxLimit:     cfg.PageLimitMax,
	})
	tokens := auth.NewService(db, cfg.TokenTTL, logger)

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig(), logger)
	defer loginProtection.Stop()
	rateLimiter := middleware.NewGlobalRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	catalog, err := i18n.Load(logger)
	if err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("loading static files: %w", err)
	}
	renderer, err := render.New(render.Config{TemplatesFS: templatesFS})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	sched := scheduler.New(logger)
	for _, job := range []scheduler.Job{
		scheduler.TokenPurgeJob(tokens, logger),
		scheduler.EventPruneJob(events, cfg.EventRetention, logger),
		scheduler.RateLimitPruneJob(rateLimiter, logger),
	} {
		if err := sched.Add(job); err != nil {
			return fmt.Errorf("scheduling %s: %w", job.Name, err)
		}
	}
	sched.Start()
	defer sched.Stop()

	apiHandler := api.NewHandler(api.Deps{
		Articles:        articles,
		Tokens:          tokens,
		Files:           uploader,
		DB:              db,
		Sanitizer:       sanitizer,
		LoginProtection: loginProtection,
		RateLimiter:     rateLimiter,
		CacheBackend:    cacheBackend,
		StorageBackend:  storage.Backend(),
		Version:         versionInfo(),
		Logger:          logger,
	})
	frontend := handler.NewFrontendHandler(handler.FrontendConfig{
		Articles:  articles,
		Renderer:  renderer,
		Catalog:   catalog,
		Sanitizer: sanitizer,
		Static:    staticFS,
		BaseURL:   cfg.BaseURL,
		Logger:    logger,
	})

	securityCfg := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	securityCfg.ExcludePaths = []string{metricsPath}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.SecurityHeaders(securityCfg))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Handle(metricsPath, metrics.Handler())
	apiHandler.Register(r)
	frontend.Routes(r)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // uploads over slow connections
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", appVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// newStorage selects S3 when a bucket is configured and local disk otherwise.
func newStorage(ctx context.Context, cfg *config.Config) (upload.Storage, error) {
	if cfg.UseS3Storage() {
		s, err := upload.NewS3Storage(ctx, upload.S3Config{
			Bucket:         cfg.S3Bucket,
			Region:         cfg.S3Region,
			Endpoint:       cfg.S3Endpoint,
			AccessKeyID:    cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			ForcePathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing s3 storage: %w", err)
		}
		return s, nil
	}

	s, err := upload.NewLocalStorage(cfg.UploadsDir)
	if err != nil {
		return nil, fmt.Errorf("initializing upload directory: %w", err)
	}
	return s, nil
}
