// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package hydration

import (
	"context"
	"slices"

	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/catalog"
	"github.com/Chapster87/prometheus/internal/logging"
	"github.com/Chapster87/prometheus/internal/tiered"
	"github.com/Chapster87/prometheus/internal/tmdb"
	"github.com/Chapster87/prometheus/internal/xc"
)

// Catalog is what the category and detail plans need from a family.
type Catalog[I any] interface {
	CategoriesRaw(ctx context.Context) (json.RawMessage, error)
	Categories(ctx context.Context) (json.RawMessage, error)
	Raw(ctx context.Context, categoryID string) (catalog.Wrapper, error)
	Get(ctx context.Context, categoryID string) (catalog.Wrapper, error)
	BatchRaw(ctx context.Context, categoryIDs []string) (*tiered.Ordered[catalog.Wrapper], error)
	Batch(ctx context.Context, categoryIDs []string) (*tiered.Ordered[catalog.Wrapper], error)
	InfoRaw(ctx context.Context, id string) (I, error)
	Info(ctx context.Context, id string) (I, error)
}

// TMDBMovies is what the movie detail plan needs for its TMDB prefetch.
type TMDBMovies interface {
	HasCredentials() bool
	MovieInfo(ctx context.Context, id string) (*tmdb.Media, error)
}

// CategoriesPlan primes [family, "categories"].
func CategoriesPlan[I any](family string, c Catalog[I]) Plan {
	return Plan{
		Page:        family + "_categories",
		ID:          catalog.CategoriesID,
		Probe:       func(ctx context.Context) (any, error) { return c.CategoriesRaw(ctx) },
		Materialize: func(ctx context.Context) (any, error) { return c.Categories(ctx) },
		Prime: func(_ context.Context, data any) []Entry {
			return []Entry{{Key: []any{family, catalog.CategoriesID}, Data: data}}
		},
	}
}

// CategoryPlan primes [family, id] and [family+"Batch", [id]] for a single
// category page. Both keys get the wrapper itself.
func CategoryPlan[I any](family string, c Catalog[I], id string) Plan {
	return Plan{
		Page:        family + "_category",
		ID:          id,
		Probe:       func(ctx context.Context) (any, error) { return c.Raw(ctx, id) },
		Materialize: func(ctx context.Context) (any, error) { return c.Get(ctx, id) },
		Prime: func(_ context.Context, data any) []Entry {
			return []Entry{
				{Key: []any{family, id}, Data: data},
				{Key: []any{family + "Batch", []string{id}}, Data: data},
			}
		},
	}
}

// BatchPlan primes [family, c] for every category and
// [family+"Batch", sorted(categories)] with the whole batch.
func BatchPlan[I any](family string, c Catalog[I], categoryIDs []string) Plan {
	ids := tiered.Dedupe(categoryIDs)
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return Plan{
		Page:        family + "_batch",
		Probe:       func(ctx context.Context) (any, error) { return c.BatchRaw(ctx, ids) },
		Materialize: func(ctx context.Context) (any, error) { return c.Batch(ctx, ids) },
		Prime: func(_ context.Context, data any) []Entry {
			ordered, _ := data.(*tiered.Ordered[catalog.Wrapper])
			entries := make([]Entry, 0, len(ids)+1)
			for _, id := range ids {
				var v any
				if ordered != nil {
					if w, ok := ordered.Get(id); ok {
						v = w
					}
				}
				entries = append(entries, Entry{Key: []any{family, id}, Data: v})
			}
			return append(entries, Entry{Key: []any{family + "Batch", sorted}, Data: data})
		},
	}
}

// DetailPlan primes [infoKey, id] for a title page.
func DetailPlan[I any](infoKey string, c Catalog[I], id string) Plan {
	return Plan{
		Page:        infoKey + "_detail",
		ID:          id,
		Probe:       func(ctx context.Context) (any, error) { return c.InfoRaw(ctx, id) },
		Materialize: func(ctx context.Context) (any, error) { return c.Info(ctx, id) },
		Prime: func(_ context.Context, data any) []Entry {
			return []Entry{{Key: []any{infoKey, id}, Data: data}}
		},
	}
}

// MovieDetailPlan primes ["movieInfo", id] and, when the VOD info names a
// TMDB id and TMDB credentials exist, ["tmdbMovieInfo", tmdbID]. A TMDB
// failure drops only that query. onTMDB receives the TMDB id that was
// primed.
func MovieDetailPlan(c Catalog[xc.VODInfo], t TMDBMovies, id string, onTMDB func(string)) Plan {
	p := DetailPlan("movieInfo", c, id)
	p.Page = "movie_detail"
	p.Prime = func(ctx context.Context, data any) []Entry {
		entries := []Entry{{Key: []any{"movieInfo", id}, Data: data}}

		info, _ := data.(xc.VODInfo)
		tmdbID := info.TMDBID()
		if tmdbID == "" || t == nil || !t.HasCredentials() {
			return entries
		}
		media, err := t.MovieInfo(ctx, tmdbID)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("tmdb_id", tmdbID).Msg("TMDB prefetch failed, skipping hydration of TMDB query")
			return entries
		}
		if onTMDB != nil {
			onTMDB(tmdbID)
		}
		return append(entries, Entry{Key: []any{"tmdbMovieInfo", tmdbID}, Data: media})
	}
	return p
}
