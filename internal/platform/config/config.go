// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, sessions, hasher) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/shopfront/internal/platform/sec"
)

// minPasswordLength is the floor no deployment may configure below.
const minPasswordLength = 8

// # Configuration Schema

// Config holds all runtime configuration for the shopfront server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational database. "postgres://" selects PostgreSQL, anything else is a SQLite path.
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:shopfront.db"`

	// Optional Redis for action tokens. Empty keeps them in the SQL store.
	RedisURL string `env:"REDIS_URL"`

	// Session lifecycle
	SessionTTL           time.Duration `env:"SESSION_TTL"             envDefault:"1h"`
	RenewThreshold       time.Duration `env:"RENEW_THRESHOLD"         envDefault:"0s"`
	SingleSessionPerUser bool          `env:"SINGLE_SESSION_PER_USER" envDefault:"true"`
	FingerprintBinding   bool          `env:"FINGERPRINT_BINDING"     envDefault:"true"`
	CookieSecure         bool          `env:"COOKIE_SECURE"           envDefault:"false"`

	// Action tokens (unsubscribe, confirm_email)
	ActionTokenTTL time.Duration `env:"ACTION_TOKEN_TTL" envDefault:"1h"`

	// Password storage
	PasswordKDF       string `env:"PASSWORD_KDF"        envDefault:"argon2id"`
	KDFCost           int    `env:"KDF_COST"            envDefault:"0"`
	KDFMemoryKiB      uint32 `env:"KDF_MEMORY_KIB"      envDefault:"65536"`
	PasswordMinLength int    `env:"PASSWORD_MIN_LENGTH" envDefault:"8"`

	// HTTP boundary
	TrustProxyHeaders bool   `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
	MaxBodyBytes      int64  `env:"MAX_BODY_BYTES"      envDefault:"1048576"`
	PublicBaseURL     string `env:"PUBLIC_BASE_URL"     envDefault:"http://localhost:8080"`

	// Checkout
	ShippingFeeCents int64 `env:"SHIPPING_FEE_CENTS" envDefault:"2000"`

	// Background purge of expired sessions and action tokens (robfig/cron spec)
	PurgeSchedule string `env:"PURGE_SCHEDULE" envDefault:"@every 10m"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Map environment variables to struct fields.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// normalize fills derived defaults and rejects unsafe values.
func (c *Config) normalize() error {
	var problems []error

	if c.SessionTTL <= 0 {
		problems = append(problems, errors.New("SESSION_TTL must be positive"))
	}
	if c.RenewThreshold <= 0 {
		c.RenewThreshold = c.SessionTTL / 2
	}
	if c.RenewThreshold > c.SessionTTL {
		problems = append(problems, errors.New("RENEW_THRESHOLD must not exceed SESSION_TTL"))
	}
	if c.ActionTokenTTL <= 0 {
		problems = append(problems, errors.New("ACTION_TOKEN_TTL must be positive"))
	}
	if c.PasswordMinLength < minPasswordLength {
		problems = append(problems, fmt.Errorf("PASSWORD_MIN_LENGTH must be >= %d", minPasswordLength))
	}
	if c.MaxBodyBytes <= 0 {
		problems = append(problems, errors.New("MAX_BODY_BYTES must be positive"))
	}
	if c.ShippingFeeCents < 0 {
		problems = append(problems, errors.New("SHIPPING_FEE_CENTS must not be negative"))
	}

	switch sec.KDF(c.PasswordKDF) {
	case sec.KDFArgon2id:
		if c.KDFCost == 0 {
			c.KDFCost = 3
		}
	case sec.KDFBcrypt:
		if c.KDFCost == 0 {
			c.KDFCost = 12
		}
	default:
		problems = append(problems, fmt.Errorf("PASSWORD_KDF %q is not supported", c.PasswordKDF))
	}

	if parsed, err := url.Parse(c.PublicBaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		problems = append(problems, errors.New("PUBLIC_BASE_URL must be an absolute URL"))
	}
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")

	if len(problems) > 0 {
		return fmt.Errorf("config: %w", errors.Join(problems...))
	}
	return nil
}

// Hasher returns the password hashing parameters derived from the config.
func (c *Config) Hasher() sec.HasherConfig {
	return sec.HasherConfig{
		Algorithm: sec.KDF(c.PasswordKDF),
		Cost:      c.KDFCost,
		MemoryKiB: c.KDFMemoryKiB,
		Threads:   2,
	}
}

// UsesPostgres reports whether DATABASE_URL points at PostgreSQL.
func (c *Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
