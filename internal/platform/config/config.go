// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load(logger)
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/medora-health/medora/internal/platform/sec"
)

// # Configuration Schema

// Config holds all runtime configuration for the Medora API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis): rate-limit counters and MFA lockout state.
	RedisURL string `env:"REDIS_URL,required"`

	// TokenSecret signs Bearer tokens (HMAC-SHA256). Required in production;
	// see [Config.validateSecrets] for the non-production escape hatch.
	TokenSecret string `env:"TOKEN_SECRET"`

	// SessionMaxAge is the sliding-expiry window for server-side sessions.
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"720h"`

	// Default rate-limit thresholds, overridable per deployment.
	RateLimitAuthMax      int           `env:"RATE_LIMIT_AUTH_MAX"      envDefault:"10"`
	RateLimitAuthWindow   time.Duration `env:"RATE_LIMIT_AUTH_WINDOW"   envDefault:"1m"`
	RateLimitAPIMax       int           `env:"RATE_LIMIT_API_MAX"       envDefault:"300"`
	RateLimitAPIWindow    time.Duration `env:"RATE_LIMIT_API_WINDOW"    envDefault:"1m"`
	RateLimitSensitiveMax int           `env:"RATE_LIMIT_SENSITIVE_MAX" envDefault:"5"`
	RateLimitSensitiveWin time.Duration `env:"RATE_LIMIT_SENSITIVE_WINDOW" envDefault:"15m"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and enforces
// environment-dependent secret strictness.
func Load(logger *slog.Logger) (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validateSecrets(logger); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSecrets enforces the signing-secret policy.
//
// # Policy
//
// In production a missing TOKEN_SECRET is a fatal startup error;
// auto-generating one would silently invalidate every outstanding token on
// each restart. In non-production environments the secret is auto-generated
// with a loud warning so local development needs no setup.
func (c *Config) validateSecrets(logger *slog.Logger) error {
	if c.IsProduction() {
		if c.TokenSecret == "" {
			return fmt.Errorf("config: TOKEN_SECRET is required in production")
		}
		return nil
	}

	if c.TokenSecret == "" {
		generated, err := sec.GenerateSecureToken(32)
		if err != nil {
			return fmt.Errorf("config: failed to auto-generate token secret: %w", err)
		}
		c.TokenSecret = generated
		logger.Warn("TOKEN_SECRET not set, auto-generated an ephemeral secret. " +
			"All issued tokens become invalid on restart. NEVER rely on this outside development.")
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AllowedOrigins returns the extra CORS origins configured for this deployment.
func (c *Config) AllowedOrigins() []string {
	if c.ExtraOrigins == "" {
		return nil
	}
	parts := strings.Split(c.ExtraOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
