// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package cache

import (
	"bytes"
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/logging"
	"github.com/Chapster87/prometheus/internal/metrics"
)

var jsonNull = []byte("null")

// ReadThrough returns the value cached under key or, on a miss, calls fetch,
// stores the JSON encoding of its result for ttl and returns it.
//
// Behavior:
//   - A stored JSON null counts as a miss, like an absent key.
//   - A backend Get error, or a stored value that no longer decodes into T,
//     is logged and treated as a miss.
//   - A backend Set error is logged; the fetched value is still returned.
//   - fetch errors are returned unchanged and nothing is stored.
//
// family labels the hit/miss metrics ("series", "tmdbMovieInfo", ...).
func ReadThrough[T any](
	ctx context.Context,
	b Backend,
	family, key string,
	ttl time.Duration,
	fetch func(context.Context) (T, error),
) (T, error) {
	raw, ok, err := b.Get(ctx, key)
	if err != nil {
		metrics.CacheErrors.WithLabelValues(b.Name(), "get").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache get failed, treating as miss")
		ok = false
	}

	if ok && len(raw) > 0 && !bytes.Equal(raw, jsonNull) {
		var cached T
		err := json.Unmarshal(raw, &cached)
		if err == nil {
			metrics.RecordCacheLookup(b.Name(), family, true)
			return cached, nil
		}
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cached value undecodable, refetching")
	}
	metrics.RecordCacheLookup(b.Name(), family, false)

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache encode failed, not stored")
		return value, nil
	}
	if err := b.Set(ctx, key, encoded, ttl); err != nil {
		metrics.CacheErrors.WithLabelValues(b.Name(), "set").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
	return value, nil
}
