// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package cache

import (
	"context"
	"strings"
	"time"

	"github.com/Chapster87/prometheus/internal/logging"
)

// Backend is a key/value store with per-entry TTL.
//
// Get reports (nil, false, nil) for an absent or expired key. Implementations
// never return a logically expired entry.
type Backend interface {
	// Get returns the stored bytes for key.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl. A non-positive ttl uses the
	// backend default (5 minutes).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Del removes key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error

	// Name identifies the backend in logs and metrics.
	Name() string

	// Close releases connections held by the backend.
	Close() error
}

// Backend names accepted by NewBackend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// defaultTTL applies when Set is called with a non-positive ttl.
const defaultTTL = 5 * time.Minute

// Config selects and configures a Backend.
type Config struct {
	// Backend is memory, redis or none (case insensitive).
	Backend string

	// RedisURL is required for the redis backend, e.g.
	// rediss://:password@host:6379/0.
	RedisURL string
}

// NewBackend builds the backend named by cfg.Backend.
//
// An empty or unrecognized name selects the memory backend; an unrecognized
// name also logs a warning. The redis backend fails fast when RedisURL is
// empty or cannot be parsed.
//
// Example:
//
//	backend, err := cache.NewBackend(cache.Config{Backend: "redis", RedisURL: url})
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("cache backend")
//	}
//	defer backend.Close()
func NewBackend(cfg Config) (Backend, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch name {
	case BackendRedis:
		return NewRedisBackend(cfg.RedisURL)
	case BackendNone:
		return NoopBackend{}, nil
	case "", BackendMemory:
		return NewMemoryBackend(), nil
	default:
		logging.Warn().Str("backend", cfg.Backend).Msg("unknown CACHE_BACKEND, using memory")
		return NewMemoryBackend(), nil
	}
}

// Compile-time interface checks.
var (
	_ Backend = (*MemoryBackend)(nil)
	_ Backend = (*RedisBackend)(nil)
	_ Backend = NoopBackend{}
)
