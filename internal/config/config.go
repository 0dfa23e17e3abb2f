package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// DatabasePath is the SQLite database file (":memory:" for ephemeral).
	DatabasePath string

	// TokenSecret signs and verifies session tokens.
	TokenSecret string

	// TokenTTL bounds the validity of tokens minted by cmd/useradd.
	TokenTTL time.Duration

	// RateLimitMax is the token bucket capacity per client identity.
	RateLimitMax int

	// RateLimitWindow is the period over which a full bucket refills.
	RateLimitWindow time.Duration

	// Production hides internal error details from API responses.
	Production bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	addr := os.Getenv("POSTFEED_ADDR")
	if addr == "" {
		addr = ":3000"
	}

	dbPath := os.Getenv("POSTFEED_DB")
	if dbPath == "" {
		dbPath = "postfeed.db"
	}

	secret := os.Getenv("POSTFEED_TOKEN_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("POSTFEED_TOKEN_SECRET is required")
	}

	tokenTTL := 24 * time.Hour
	if v := os.Getenv("POSTFEED_TOKEN_TTL"); v != "" {
		var err error
		tokenTTL, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid POSTFEED_TOKEN_TTL: %w", err)
		}
	}

	rateMax := 100
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		var err error
		rateMax, err = strconv.Atoi(v)
		if err != nil || rateMax < 1 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_MAX: %q", v)
		}
	}

	rateWindow := 60 * time.Second
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		var err error
		rateWindow, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
		}
	}

	return &Config{
		Addr:            addr,
		DatabasePath:    dbPath,
		TokenSecret:     secret,
		TokenTTL:        tokenTTL,
		RateLimitMax:    rateMax,
		RateLimitWindow: rateWindow,
		Production:      os.Getenv("ENVIRONMENT") == "production",
	}, nil
}
