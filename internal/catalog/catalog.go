// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

// Package catalog is the category browsing core shared by the series and
// movies families: a category list, per-category item lists wrapped with the
// category name, and per-title info, each behind a tiered.Resource.
package catalog

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/cache"
	"github.com/Chapster87/prometheus/internal/tiered"
	"github.com/Chapster87/prometheus/internal/xc"
)

const (
	// DefaultCategory is the category XC panels treat as "everything".
	DefaultCategory = "X"

	// CategoriesID is the id the category list is cached under.
	CategoriesID = "categories"
)

// Wrapper is one category's items together with its resolved name.
type Wrapper struct {
	CategoryID   string          `json:"categoryId"`
	CategoryName *string         `json:"categoryName"`
	Items        json.RawMessage `json:"items"`
}

// Names are the key prefixes of a family.
type Names struct {
	// Prefix keys the category list and the per-category lists.
	Prefix string
	// InfoPrefix keys per-title info.
	InfoPrefix string
}

// Source loads a family from the upstream.
type Source[I any] struct {
	Categories func(ctx context.Context) (json.RawMessage, error)
	List       func(ctx context.Context, categoryID string) (json.RawMessage, error)
	Info       func(ctx context.Context, id string) (I, error)
}

// Options are the cache settings of a family.
type Options struct {
	Backend         cache.Backend
	Incremental     tiered.Incremental
	TTL             time.Duration
	Disabled        bool
	SkipList        []string
	TagInvalidation bool
}

// Service serves one family.
type Service[I any] struct {
	categories *tiered.Resource[json.RawMessage]
	lists      *tiered.Resource[Wrapper]
	info       *tiered.Resource[I]
}

// New wires the three resources of a family.
func New[I any](names Names, src Source[I], opts Options) *Service[I] {
	policy := tiered.Policy{
		Disabled:  opts.Disabled,
		DefaultID: DefaultCategory,
		SkipList:  opts.SkipList,
	}
	s := &Service[I]{}
	s.categories = &tiered.Resource[json.RawMessage]{
		Prefix:          names.Prefix,
		Backend:         opts.Backend,
		Incremental:     opts.Incremental,
		TTL:             opts.TTL,
		Policy:          policy,
		TagInvalidation: opts.TagInvalidation,
		Fetch: func(ctx context.Context, _ string) (json.RawMessage, error) {
			return src.Categories(ctx)
		},
	}
	s.lists = &tiered.Resource[Wrapper]{
		Prefix:          names.Prefix,
		Backend:         opts.Backend,
		Incremental:     opts.Incremental,
		TTL:             opts.TTL,
		Policy:          policy,
		TagInvalidation: opts.TagInvalidation,
		Fetch: func(ctx context.Context, categoryID string) (Wrapper, error) {
			items, err := src.List(ctx, categoryID)
			if err != nil {
				return Wrapper{}, err
			}
			// The category list is itself cached, so this rarely hits the upstream.
			cats, err := s.CategoriesRaw(ctx)
			if err != nil {
				return Wrapper{}, err
			}
			return Wrapper{
				CategoryID:   categoryID,
				CategoryName: xc.FindCategoryName(cats, categoryID),
				Items:        items,
			}, nil
		},
	}
	s.info = &tiered.Resource[I]{
		Prefix:          names.InfoPrefix,
		Backend:         opts.Backend,
		Incremental:     opts.Incremental,
		TTL:             opts.TTL,
		Policy:          policy,
		TagInvalidation: opts.TagInvalidation,
		Fetch:           src.Info,
	}
	return s
}

// CategoriesRaw returns the category list from the raw tier.
func (s *Service[I]) CategoriesRaw(ctx context.Context) (json.RawMessage, error) {
	return s.categories.Raw(ctx, CategoriesID)
}

// Categories returns the category list from the public tier. The list is
// skippable like any id by naming "categories" in the skip list.
func (s *Service[I]) Categories(ctx context.Context) (json.RawMessage, error) {
	return s.categories.Get(ctx, CategoriesID)
}

// Raw returns one category from the raw tier.
func (s *Service[I]) Raw(ctx context.Context, categoryID string) (Wrapper, error) {
	return s.lists.Raw(ctx, orDefault(categoryID))
}

// Get returns one category from the public tier. An empty id means the
// default category.
func (s *Service[I]) Get(ctx context.Context, categoryID string) (Wrapper, error) {
	return s.lists.Get(ctx, orDefault(categoryID))
}

// Batch returns several categories keyed by id in first-seen order.
func (s *Service[I]) Batch(ctx context.Context, categoryIDs []string) (*tiered.Ordered[Wrapper], error) {
	return s.lists.Batch(ctx, categoryIDs)
}

// BatchRaw is Batch over the raw tier.
func (s *Service[I]) BatchRaw(ctx context.Context, categoryIDs []string) (*tiered.Ordered[Wrapper], error) {
	return s.lists.BatchRaw(ctx, categoryIDs)
}

// InfoRaw returns one title's info from the raw tier.
func (s *Service[I]) InfoRaw(ctx context.Context, id string) (I, error) {
	return s.info.Raw(ctx, id)
}

// Info returns one title's info from the public tier.
func (s *Service[I]) Info(ctx context.Context, id string) (I, error) {
	return s.info.Get(ctx, id)
}

// Invalidate drops one category, or with an empty id revalidates the whole
// family tag.
func (s *Service[I]) Invalidate(ctx context.Context, categoryID string) error {
	return s.lists.Invalidate(ctx, categoryID)
}

// InvalidateInfo drops one title's info, or with an empty id revalidates
// the info family tag.
func (s *Service[I]) InvalidateInfo(ctx context.Context, id string) error {
	return s.info.Invalidate(ctx, id)
}

func orDefault(id string) string {
	if id == "" {
		return DefaultCategory
	}
	return id
}
