// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

// Package config loads service configuration from defaults, an optional YAML
// file and environment variables, in that order of precedence (environment
// wins).
//
// Environment variables keep the names the deployment already uses
// (CACHE_BACKEND, SERIES_CACHE_SKIP, XC_URL, ...); see envMappings in
// koanf.go for the full list.
package config

import (
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Cache       CacheConfig       `koanf:"cache"`
	Incremental IncrementalConfig `koanf:"incremental"`
	Series      FamilyConfig      `koanf:"series"`
	Movies      FamilyConfig      `koanf:"movies"`
	Account     AccountConfig     `koanf:"account"`
	TMDBCache   FamilyConfig      `koanf:"tmdb_cache"`
	XC          XCConfig          `koanf:"xc"`
	TMDB        TMDBConfig        `koanf:"tmdb"`
	Upstream    UpstreamConfig    `koanf:"upstream"`
	Security    SecurityConfig    `koanf:"security"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	// Backend is memory, redis or none. Unknown values fall back to memory.
	Backend  string `koanf:"backend"`
	RedisURL string `koanf:"redis_url"`

	// TTLSeconds is kept as the raw string so lenient parsing and the 300s
	// fallback apply uniformly. Use TTL().
	TTLSeconds string `koanf:"ttl_seconds"`

	// EnableTagInvalidation gates tag revalidation on invalidate calls.
	EnableTagInvalidation bool `koanf:"enable_tag_invalidation"`
}

// DefaultTTL applies when CACHE_TTL_SECONDS is unset, unparsable or not positive.
const DefaultTTL = 300 * time.Second

// TTL returns the shared cache TTL.
func (c CacheConfig) TTL() time.Duration {
	return ParseTTLSeconds(c.TTLSeconds)
}

// ParseTTLSeconds parses the leading integer of raw as seconds. "45s" and
// "45.9" both yield 45s; anything without leading digits, or a value <= 0,
// yields DefaultTTL.
func ParseTTLSeconds(raw string) time.Duration {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return DefaultTTL
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil || n <= 0 {
		return DefaultTTL
	}
	return time.Duration(n) * time.Second
}

// IncrementalConfig configures the tag based incremental cache.
type IncrementalConfig struct {
	// Path is the Badger directory. Empty runs Badger in memory.
	Path string `koanf:"path"`

	// MaxEntryBytes is the per-entry size ceiling.
	MaxEntryBytes int `koanf:"max_entry_bytes" validate:"min=0"`
}

// FamilyConfig holds per resource family incremental cache controls.
type FamilyConfig struct {
	DisableIncremental bool     `koanf:"disable_incremental"`
	Skip               []string `koanf:"skip"`
}

// AccountConfig holds the account family controls. The account is a single
// entry, so there is nothing to skip per id.
type AccountConfig struct {
	DisableIncremental bool `koanf:"disable_incremental"`
}

// XCConfig holds Xtream-Codes provider credentials.
type XCConfig struct {
	URL      string `koanf:"url" validate:"omitempty,url"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// TMDBConfig holds TMDB credentials and client limits.
type TMDBConfig struct {
	BaseURL         string  `koanf:"base_url" validate:"required,url"`
	ReadAccessToken string  `koanf:"read_access_token"`
	APIKey          string  `koanf:"api_key"`
	RateLimit       float64 `koanf:"rate_limit" validate:"gte=0"`
	RateBurst       int     `koanf:"rate_burst" validate:"gte=0"`
}

// HasCredentials reports whether a bearer token or API key is configured.
func (c TMDBConfig) HasCredentials() bool {
	return c.ReadAccessToken != "" || c.APIKey != ""
}

// UpstreamConfig holds settings shared by both provider clients.
type UpstreamConfig struct {
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// SecurityConfig holds admin and HTTP hardening settings.
type SecurityConfig struct {
	// AdminToken guards the invalidation endpoints. Empty disables them (500).
	AdminToken        string        `koanf:"admin_token"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}
