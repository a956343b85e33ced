// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package cache

import (
	"context"
	"time"
)

// NoopBackend disables the process cache: every Get misses.
type NoopBackend struct{}

func (NoopBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NoopBackend) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NoopBackend) Del(context.Context, string) error { return nil }
func (NoopBackend) Name() string { return BackendNone }
func (NoopBackend) Close() error { return nil }
