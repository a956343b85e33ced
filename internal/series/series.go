// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

// Package series serves XC series categories, per-category series lists and
// series info through the tiered caches.
//
// Keys: series:categories, series:{category}, seriesInfo:{id}.
package series

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/catalog"
)

const (
	Prefix     = "series"
	InfoPrefix = "seriesInfo"
)

// Source is the part of the XC client this family uses.
type Source interface {
	SeriesCategories(ctx context.Context) (json.RawMessage, error)
	Series(ctx context.Context, categoryID string) (json.RawMessage, error)
	SeriesInfo(ctx context.Context, seriesID string) (json.RawMessage, error)
}

// Service is the series family.
type Service struct {
	*catalog.Service[json.RawMessage]
}

// New creates the series family over src.
func New(src Source, opts catalog.Options) *Service {
	return &Service{catalog.New(
		catalog.Names{Prefix: Prefix, InfoPrefix: InfoPrefix},
		catalog.Source[json.RawMessage]{
			Categories: src.SeriesCategories,
			List:       src.Series,
			Info:       src.SeriesInfo,
		},
		opts,
	)}
}
