// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Accepted values of ONEWS_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath      string `env:"ONEWS_DB_PATH" envDefault:"./data/onews.db"`
	ServerHost  string `env:"ONEWS_SERVER_HOST" envDefault:"localhost"`
	ServerPort  int    `env:"ONEWS_SERVER_PORT" envDefault:"8080"`
	Env         string `env:"ONEWS_ENV" envDefault:"development"`
	LogLevel    string `env:"ONEWS_LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"ONEWS_LOG_FILE"` // Optional rotating log file
	UploadsDir  string `env:"ONEWS_UPLOADS_DIR" envDefault:"./uploads"`
	AutoMigrate bool   `env:"ONEWS_AUTO_MIGRATE" envDefault:"true"`

	// Admin tokens
	TokenTTL time.Duration `env:"ONEWS_TOKEN_TTL" envDefault:"24h"`

	// Listing limits
	PageLimitDefault int `env:"ONEWS_PAGE_LIMIT_DEFAULT" envDefault:"10"`
	PageLimitMax     int `env:"ONEWS_PAGE_LIMIT_MAX" envDefault:"100"`

	// Cache configuration
	RedisURL    string `env:"ONEWS_REDIS_URL"`                       // Optional Redis URL for shared caching
	CachePrefix string `env:"ONEWS_CACHE_PREFIX" envDefault:"onews:"` // Redis key prefix
	CacheTTL    int    `env:"ONEWS_CACHE_TTL" envDefault:"60"`        // Read cache TTL in seconds

	// S3-compatible upload storage. Local disk is used when S3Bucket is empty.
	S3Bucket    string `env:"ONEWS_S3_BUCKET"`
	S3Region    string `env:"ONEWS_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"ONEWS_S3_ENDPOINT"`
	S3AccessKey string `env:"ONEWS_S3_ACCESS_KEY"`
	S3SecretKey string `env:"ONEWS_S3_SECRET_KEY"`
	S3PathStyle bool   `env:"ONEWS_S3_PATH_STYLE" envDefault:"false"`

	// Request handling
	RequestTimeout time.Duration `env:"ONEWS_REQUEST_TIMEOUT" envDefault:"30s"`
	RateLimitRPS   float64       `env:"ONEWS_RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int           `env:"ONEWS_RATE_LIMIT_BURST" envDefault:"40"`

	// Public site
	BaseURL        string        `env:"ONEWS_BASE_URL"` // Absolute URL for canonical links
	EventRetention time.Duration `env:"ONEWS_EVENT_RETENTION" envDefault:"720h"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// UseS3Storage returns true if uploads go to an S3 bucket.
func (c Config) UseS3Storage() bool {
	return c.S3Bucket != ""
}

// CacheTTLDuration returns the read cache TTL.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("ONEWS_ENV must be one of development, production, test; got %q", c.Env)
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("ONEWS_SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}

	if c.PageLimitDefault < 1 {
		return fmt.Errorf("ONEWS_PAGE_LIMIT_DEFAULT must be positive, got %d", c.PageLimitDefault)
	}
	if c.PageLimitMax < c.PageLimitDefault {
		return fmt.Errorf("ONEWS_PAGE_LIMIT_MAX (%d) must not be below ONEWS_PAGE_LIMIT_DEFAULT (%d)",
			c.PageLimitMax, c.PageLimitDefault)
	}

	if c.TokenTTL < time.Minute {
		return fmt.Errorf("ONEWS_TOKEN_TTL must be at least 1m, got %s", c.TokenTTL)
	}

	if c.EventRetention < time.Hour {
		return fmt.Errorf("ONEWS_EVENT_RETENTION must be at least 1h, got %s", c.EventRetention)
	}

	if c.UseS3Storage() && (c.S3AccessKey == "") != (c.S3SecretKey == "") {
		return errors.New("ONEWS_S3_ACCESS_KEY and ONEWS_S3_SECRET_KEY must be set together")
	}

	return nil
}
