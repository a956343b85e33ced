// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

// Package cache implements the process cache tier: a uniform key/value
// store with per-entry TTL that sits between the upstream clients and the
// incremental cache.
//
// # Backends
//
// Exactly one Backend is active per process. It is built once by NewBackend
// from configuration and passed explicitly to every family service:
//
//   - memory (default): map guarded by a sync.RWMutex, lazy eviction on read,
//     no background sweep and no size bound. Not shared across processes.
//   - redis: github.com/redis/go-redis/v9, values stored as JSON text with
//     SET EX. The only way to share cached state between processes.
//   - none: Get always misses; Set and Del do nothing.
//
// Unknown backend names fall back to memory with a warning.
//
// # Keys
//
// BuildKey joins non-empty parts with ":" so that every call site naming the
// same resource produces the same key:
//
//	cache.BuildKey("series", "10080")   // "series:10080"
//	cache.BuildKey("series", "")        // "series" (empty parts are dropped)
//
// # Read-through
//
// ReadThrough is the only way family services touch a Backend. A backend read
// failure is treated as a miss and a backend write failure is logged, so a
// flapping Redis degrades to upstream fetches instead of failing requests.
//
// # Thread Safety
//
// All backends are safe for concurrent use. Concurrent misses for the same
// key may each call the upstream fetch; there is no single-flight
// coalescing.
package cache
