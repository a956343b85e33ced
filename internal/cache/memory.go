// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Chapster87/prometheus/internal/metrics"
)

// Entry represents a cached value with its expiry.
type Entry struct {
	Value     []byte
	ExpiresAt time.Time
}

// Stats tracks memory backend activity.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Keys      int
}

// HitRate returns hits as a percentage of lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// MemoryBackend is an in-process Backend.
//
// Expired entries are removed only when a Get observes them; nothing sweeps
// the map in the background and nothing bounds its size. TTL bounds the
// number of live entries.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time

	statsMu sync.Mutex
	stats   Stats
}

// MemoryOption configures a MemoryBackend.
type MemoryOption func(*MemoryBackend)

// WithClock replaces time.Now. Tests use it to step over TTL boundaries.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryBackend) {
		m.now = now
	}
}

// NewMemoryBackend creates an empty in-memory backend.
//
// Example:
//
//	b := cache.NewMemoryBackend()
//	_ = b.Set(ctx, "series:10080", payload, 5*time.Minute)
//	raw, ok, _ := b.Get(ctx, "series:10080")
func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	m := &MemoryBackend{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the value for key. An entry whose expiry is before now is
// deleted and reported absent.
//
// Thread Safety: reads take the read lock; eviction upgrades to the write
// lock and re-checks the entry so a concurrent Set is never discarded.
func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		m.record(func(s *Stats) { s.Misses++ })
		return nil, false, nil
	}

	now := m.now()
	if entry.ExpiresAt.Before(now) {
		m.mu.Lock()
		if current, still := m.entries[key]; still && current.ExpiresAt.Before(now) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		m.record(func(s *Stats) {
			s.Misses++
			s.Evictions++
		})
		metrics.CacheEvictions.WithLabelValues(BackendMemory).Inc()
		return nil, false, nil
	}

	m.record(func(s *Stats) { s.Hits++ })
	return entry.Value, true, nil
}

// Set stores a copy of value, replacing any previous entry for key.
func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.entries[key] = Entry{Value: stored, ExpiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Del removes key.
func (m *MemoryBackend) Del(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Name returns "memory".
func (m *MemoryBackend) Name() string { return BackendMemory }

// Close is a no-op.
func (m *MemoryBackend) Close() error { return nil }

// Len returns the number of stored entries, expired or not.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stats returns a snapshot of the backend counters.
func (m *MemoryBackend) Stats() Stats {
	m.statsMu.Lock()
	s := m.stats
	m.statsMu.Unlock()
	s.Keys = m.Len()
	return s
}

func (m *MemoryBackend) record(fn func(*Stats)) {
	m.statsMu.Lock()
	fn(&m.stats)
	m.statsMu.Unlock()
}
