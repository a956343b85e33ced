// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

// Package tmdbcache serves TMDB lookups through the tiered caches.
//
// Full info has both tiers (tmdbMovieInfo:{id}, tmdbSeriesInfo:{id}). Card
// payloads (tmdbMovieLite:{id}, tmdbSeriesLite:{id}), genre lists and
// trending lists are raw tier only. There is no default id.
package tmdbcache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/cache"
	"github.com/Chapster87/prometheus/internal/tiered"
	"github.com/Chapster87/prometheus/internal/tmdb"
)

const (
	MovieInfoPrefix  = "tmdbMovieInfo"
	SeriesInfoPrefix = "tmdbSeriesInfo"
	MovieLitePrefix  = "tmdbMovieLite"
	SeriesLitePrefix = "tmdbSeriesLite"
	GenresPrefix     = "tmdbGenres"
	TrendingPrefix   = "tmdbTrending"
	DiscoverPrefix   = "tmdbDiscover"
)

// Source is the part of the TMDB client this family uses.
type Source interface {
	HasCredentials() bool
	Movie(ctx context.Context, id string) (*tmdb.Media, error)
	Show(ctx context.Context, id string) (*tmdb.Media, error)
	MovieLite(ctx context.Context, id string) (*tmdb.Lite, error)
	ShowLite(ctx context.Context, id string) (*tmdb.Lite, error)
	Genres(ctx context.Context, kind tmdb.Kind) ([]tmdb.Genre, error)
	Trending(ctx context.Context, kind tmdb.Kind) ([]*tmdb.Media, error)
	Discover(ctx context.Context, kind tmdb.Kind, genreIDs string, page int) (json.RawMessage, error)
}

// Options are the cache settings of the TMDB family.
type Options struct {
	Backend         cache.Backend
	Incremental     tiered.Incremental
	TTL             time.Duration
	Disabled        bool
	SkipList        []string
	TagInvalidation bool
}

// Service is the TMDB family.
type Service struct {
	src        Source
	movieInfo  *tiered.Resource[*tmdb.Media]
	seriesInfo *tiered.Resource[*tmdb.Media]
	movieLite  *tiered.Resource[*tmdb.Lite]
	seriesLite *tiered.Resource[*tmdb.Lite]
	genres     *tiered.Resource[[]tmdb.Genre]
	trending   *tiered.Resource[[]*tmdb.Media]
	discover   *tiered.Resource[json.RawMessage]
}

func resource[T any](prefix string, opts Options, fetch func(context.Context, string) (T, error)) *tiered.Resource[T] {
	return &tiered.Resource[T]{
		Prefix:          prefix,
		Backend:         opts.Backend,
		Incremental:     opts.Incremental,
		TTL:             opts.TTL,
		Policy:          tiered.Policy{Disabled: opts.Disabled, SkipList: opts.SkipList},
		TagInvalidation: opts.TagInvalidation,
		Fetch:           fetch,
	}
}

// New creates the TMDB family over src.
func New(src Source, opts Options) *Service {
	return &Service{
		src:        src,
		movieInfo:  resource(MovieInfoPrefix, opts, src.Movie),
		seriesInfo: resource(SeriesInfoPrefix, opts, src.Show),
		movieLite:  resource(MovieLitePrefix, opts, src.MovieLite),
		seriesLite: resource(SeriesLitePrefix, opts, src.ShowLite),
		genres: resource(GenresPrefix, opts, func(ctx context.Context, kind string) ([]tmdb.Genre, error) {
			return src.Genres(ctx, tmdb.Kind(kind))
		}),
		trending: resource(TrendingPrefix, opts, func(ctx context.Context, kind string) ([]*tmdb.Media, error) {
			return src.Trending(ctx, tmdb.Kind(kind))
		}),
		discover: resource(DiscoverPrefix, opts, func(ctx context.Context, id string) (json.RawMessage, error) {
			kind, genres, page, err := parseDiscoverID(id)
			if err != nil {
				return nil, err
			}
			return src.Discover(ctx, kind, genres, page)
		}),
	}
}

// HasCredentials reports whether TMDB calls can succeed at all.
func (s *Service) HasCredentials() bool { return s.src.HasCredentials() }

func (s *Service) MovieInfoRaw(ctx context.Context, id string) (*tmdb.Media, error) {
	return s.movieInfo.Raw(ctx, id)
}

func (s *Service) MovieInfo(ctx context.Context, id string) (*tmdb.Media, error) {
	return s.movieInfo.Get(ctx, id)
}

func (s *Service) SeriesInfoRaw(ctx context.Context, id string) (*tmdb.Media, error) {
	return s.seriesInfo.Raw(ctx, id)
}

func (s *Service) SeriesInfo(ctx context.Context, id string) (*tmdb.Media, error) {
	return s.seriesInfo.Get(ctx, id)
}

func (s *Service) MovieLiteRaw(ctx context.Context, id string) (*tmdb.Lite, error) {
	return s.movieLite.Raw(ctx, id)
}

func (s *Service) SeriesLiteRaw(ctx context.Context, id string) (*tmdb.Lite, error) {
	return s.seriesLite.Raw(ctx, id)
}

// Genres returns the genre list of kind from the raw tier.
func (s *Service) Genres(ctx context.Context, kind tmdb.Kind) ([]tmdb.Genre, error) {
	return s.genres.Raw(ctx, string(kind))
}

// Trending returns this week's trending titles of kind from the raw tier.
func (s *Service) Trending(ctx context.Context, kind tmdb.Kind) ([]*tmdb.Media, error) {
	return s.trending.Raw(ctx, string(kind))
}

// Invalidate drops the info and card entries of id for kind. An empty kind
// covers both kinds; an empty id revalidates the family tags.
func (s *Service) Invalidate(ctx context.Context, kind tmdb.Kind, id string) error {
	var errs []error
	if kind == "" || kind == tmdb.KindMovie {
		errs = append(errs, s.movieInfo.Invalidate(ctx, id), s.movieLite.Invalidate(ctx, id))
	}
	if kind == "" || kind == tmdb.KindTV {
		errs = append(errs, s.seriesInfo.Invalidate(ctx, id), s.seriesLite.Invalidate(ctx, id))
	}
	return errors.Join(errs...)
}

// Discover returns one page of popular English titles of kind in the given
// comma separated genres, from the raw tier.
func (s *Service) Discover(ctx context.Context, kind tmdb.Kind, genreIDs string, page int) (json.RawMessage, error) {
	if page < 1 {
		page = 1
	}
	return s.discover.Raw(ctx, discoverID(kind, genreIDs, page))
}

// discoverID packs the query into one id: {kind}:{genres}:{page}. Genre
// lists never contain ':'.
func discoverID(kind tmdb.Kind, genreIDs string, page int) string {
	return string(kind) + ":" + strings.ReplaceAll(genreIDs, " ", "") + ":" + strconv.Itoa(page)
}

func parseDiscoverID(id string) (tmdb.Kind, string, int, error) {
	parts := strings.Split(id, ":")
	if len(parts) != 3 {
		return "", "", 0, fmt.Errorf("malformed discover id %q", id)
	}
	page, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", "", 0, fmt.Errorf("malformed discover page %q: %w", parts[2], err)
	}
	return tmdb.Kind(parts[0]), parts[1], page, nil
}
