// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

// Package tiered implements the two-tier resource pattern shared by every
// cached family (series, movies, account, TMDB).
//
// A Resource has a raw tier, which reads through the process cache backend,
// and a public tier, which wraps the raw tier in the incremental cache unless
// the skip policy says otherwise. Keys are {prefix}:{id}; incremental entries
// carry the tags {prefix} and {prefix}:{id}.
//
// There is no single-flight: concurrent misses for the same id may each call
// the upstream.
package tiered

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/Chapster87/prometheus/internal/cache"
	"github.com/Chapster87/prometheus/internal/logging"
	"github.com/Chapster87/prometheus/internal/metrics"
)

// Incremental is the tag cache the public tier wraps. *incremental.Store
// implements it.
type Incremental interface {
	Wrap(ctx context.Context, keyParts, tags []string, revalidate time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error)
	RevalidateTag(ctx context.Context, tag string) error
}

// Policy decides which ids bypass the incremental cache.
type Policy struct {
	// Disabled skips the incremental cache for every id.
	Disabled bool
	// DefaultID is always skipped when set. The default category "X" lists
	// everything and does not fit the incremental size ceiling.
	DefaultID string
	// SkipList names further ids to skip.
	SkipList []string
}

// Skip reports whether id bypasses the incremental cache.
func (p Policy) Skip(id string) bool {
	if p.Disabled {
		return true
	}
	if p.DefaultID != "" && id == p.DefaultID {
		return true
	}
	return slices.Contains(p.SkipList, id)
}

// Resource is one cached family.
type Resource[T any] struct {
	Prefix          string
	Backend         cache.Backend
	Incremental     Incremental
	TTL             time.Duration
	Policy          Policy
	TagInvalidation bool

	// Fetch loads id from the upstream.
	Fetch func(ctx context.Context, id string) (T, error)

	// IDTag overrides the per-id tag. Returning "" gives entries the family
	// tag only, and single-id invalidation then revalidates the family tag.
	IDTag func(id string) string
}

// Key returns the backend key of id.
func (r *Resource[T]) Key(id string) string {
	return cache.BuildKey(r.Prefix, id)
}

// Tag returns the per-id incremental tag of id.
func (r *Resource[T]) Tag(id string) string {
	if r.IDTag != nil {
		return r.IDTag(id)
	}
	return r.Prefix + ":" + id
}

func (r *Resource[T]) tags(id string) []string {
	if tag := r.Tag(id); tag != "" {
		return []string{r.Prefix, tag}
	}
	return []string{r.Prefix}
}

// Raw reads id through the cache backend only.
func (r *Resource[T]) Raw(ctx context.Context, id string) (T, error) {
	return cache.ReadThrough(ctx, r.Backend, r.Prefix, r.Key(id), r.TTL, func(ctx context.Context) (T, error) {
		return r.Fetch(ctx, id)
	})
}

// Get reads id through the public tier: the incremental cache layered on
// Raw, or Raw alone when the policy skips id.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	if r.Incremental == nil || r.Policy.Skip(id) {
		metrics.IncrementalBypass.WithLabelValues(r.Prefix).Inc()
		return r.Raw(ctx, id)
	}

	var (
		loaded T
		fresh  bool
	)
	data, err := r.Incremental.Wrap(ctx, []string{r.Prefix, id}, r.tags(id), r.TTL,
		func(ctx context.Context) ([]byte, error) {
			v, err := r.Raw(ctx, id)
			if err != nil {
				return nil, err
			}
			loaded, fresh = v, true
			return json.Marshal(v)
		})
	if err != nil {
		var zero T
		return zero, err
	}
	if fresh {
		return loaded, nil
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", r.Key(id)).Msg("incremental entry undecodable, reading raw tier")
		return r.Raw(ctx, id)
	}
	return out, nil
}

// Batch reads every id through the public tier in parallel. Empty ids are
// dropped and duplicates collapse onto their first occurrence. The first
// failure fails the batch.
func (r *Resource[T]) Batch(ctx context.Context, ids []string) (*Ordered[T], error) {
	return r.batch(ctx, ids, r.Get)
}

// BatchRaw is Batch over the raw tier. It never touches the incremental
// cache.
func (r *Resource[T]) BatchRaw(ctx context.Context, ids []string) (*Ordered[T], error) {
	return r.batch(ctx, ids, r.Raw)
}

func (r *Resource[T]) batch(ctx context.Context, ids []string, read func(context.Context, string) (T, error)) (*Ordered[T], error) {
	unique := Dedupe(ids)
	values := make([]T, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range unique {
		g.Go(func() error {
			v, err := read(gctx, id)
			if err != nil {
				return fmt.Errorf("%s %s: %w", r.Prefix, id, err)
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := NewOrdered[T](len(unique))
	for i, id := range unique {
		out.Set(id, values[i])
	}
	return out, nil
}

// Invalidate drops id from the backend and, with tag invalidation enabled,
// revalidates its incremental tag. An empty id revalidates the family tag
// only; per-id backend entries then live until their TTL.
func (r *Resource[T]) Invalidate(ctx context.Context, id string) error {
	if id != "" {
		if err := r.Backend.Del(ctx, r.Key(id)); err != nil {
			return fmt.Errorf("delete %s: %w", r.Key(id), err)
		}
		if tag := r.Tag(id); tag != "" {
			return r.revalidate(ctx, tag)
		}
	}
	return r.revalidate(ctx, r.Prefix)
}

func (r *Resource[T]) revalidate(ctx context.Context, tag string) error {
	if !r.TagInvalidation || r.Incremental == nil {
		return nil
	}
	if err := r.Incremental.RevalidateTag(ctx, tag); err != nil {
		return err
	}
	metrics.TagRevalidations.WithLabelValues(r.Prefix).Inc()
	logging.Ctx(ctx).Info().Str("tag", tag).Msg("revalidated tag")
	return nil
}

// Dedupe drops empty strings and repeats, keeping first-seen order.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
