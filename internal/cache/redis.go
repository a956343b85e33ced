// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Chapster87/prometheus/internal/logging"
)

// ErrRedisURLMissing is returned when the redis backend is selected without
// a connection string.
var ErrRedisURLMissing = errors.New("REDIS_URL not set while CACHE_BACKEND=redis")

// RedisBackend stores entries in Redis with SET EX.
type RedisBackend struct {
	r      redis.Cmdable
	closer func() error
}

// NewRedisBackend parses url and connects. A failed initial ping is logged
// but not fatal: reads fall through to upstream until Redis answers.
func NewRedisBackend(url string) (*RedisBackend, error) {
	if url == "" {
		return nil, ErrRedisURLMissing
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logging.Warn().Err(err).Str("addr", opts.Addr).Msg("redis ping failed, continuing")
	}

	return &RedisBackend{r: client, closer: client.Close}, nil
}

// NewRedisBackendWithClient wraps an existing client or cluster client.
func NewRedisBackendWithClient(r redis.Cmdable) *RedisBackend {
	return &RedisBackend{r: r}
}

// Get implements Backend. redis.Nil is a miss.
func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := b.r.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set implements Backend.
func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if err := b.r.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Del implements Backend.
func (b *RedisBackend) Del(ctx context.Context, key string) error {
	if err := b.r.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Ping checks that Redis answers. The readiness endpoint calls it.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.r.Ping(ctx).Err()
}

// Name returns "redis".
func (b *RedisBackend) Name() string { return BackendRedis }

// Close closes the client when this backend created it.
func (b *RedisBackend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}
