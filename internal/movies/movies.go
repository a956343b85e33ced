// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

// Package movies serves XC VOD categories, per-category stream lists and
// movie info through the tiered caches.
//
// Keys: movies:categories, movies:{category}, movieInfo:{id}.
package movies

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/catalog"
	"github.com/Chapster87/prometheus/internal/xc"
)

const (
	Prefix     = "movies"
	InfoPrefix = "movieInfo"
)

// Source is the part of the XC client this family uses.
type Source interface {
	VODCategories(ctx context.Context) (json.RawMessage, error)
	VODStreams(ctx context.Context, categoryID string) (json.RawMessage, error)
	VODInfo(ctx context.Context, vodID string) (xc.VODInfo, error)
}

// Service is the movies family.
type Service struct {
	*catalog.Service[xc.VODInfo]
}

// New creates the movies family over src.
func New(src Source, opts catalog.Options) *Service {
	return &Service{catalog.New(
		catalog.Names{Prefix: Prefix, InfoPrefix: InfoPrefix},
		catalog.Source[xc.VODInfo]{
			Categories: src.VODCategories,
			List:       src.VODStreams,
			Info:       src.VODInfo,
		},
		opts,
	)}
}
