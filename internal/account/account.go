// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

// Package account serves the XC account (user_info) through the tiered
// caches under key account:info and the single tag "account".
package account

import (
	"context"
	"time"

	"github.com/Chapster87/prometheus/internal/cache"
	"github.com/Chapster87/prometheus/internal/tiered"
	"github.com/Chapster87/prometheus/internal/xc"
)

const (
	Prefix = "account"
	id     = "info"
)

// Source is the part of the XC client this family uses.
type Source interface {
	AccountInfo(ctx context.Context) (*xc.UserInfo, error)
}

// Options are the cache settings of the account family.
type Options struct {
	Backend         cache.Backend
	Incremental     tiered.Incremental
	TTL             time.Duration
	Disabled        bool
	TagInvalidation bool
}

// Service is the account family.
type Service struct {
	res *tiered.Resource[*xc.UserInfo]
}

// New creates the account family over src.
func New(src Source, opts Options) *Service {
	return &Service{res: &tiered.Resource[*xc.UserInfo]{
		Prefix:          Prefix,
		Backend:         opts.Backend,
		Incremental:     opts.Incremental,
		TTL:             opts.TTL,
		Policy:          tiered.Policy{Disabled: opts.Disabled},
		TagInvalidation: opts.TagInvalidation,
		Fetch: func(ctx context.Context, _ string) (*xc.UserInfo, error) {
			return src.AccountInfo(ctx)
		},
		IDTag: func(string) string { return "" },
	}}
}

// Raw returns the account from the raw tier.
func (s *Service) Raw(ctx context.Context) (*xc.UserInfo, error) {
	return s.res.Raw(ctx, id)
}

// Get returns the account from the public tier.
func (s *Service) Get(ctx context.Context) (*xc.UserInfo, error) {
	return s.res.Get(ctx, id)
}

// Invalidate drops the cached account and revalidates the account tag.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.res.Invalidate(ctx, id)
}
