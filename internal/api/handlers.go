// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/catalog"
	"github.com/Chapster87/prometheus/internal/hydration"
	"github.com/Chapster87/prometheus/internal/tmdb"
	"github.com/Chapster87/prometheus/internal/xc"
)

// Family is a browsable catalog family. *series.Service and
// *movies.Service implement it.
type Family[I any] interface {
	hydration.Catalog[I]
	Invalidate(ctx context.Context, categoryID string) error
}

// Account is the account family.
type Account interface {
	Get(ctx context.Context) (*xc.UserInfo, error)
	Invalidate(ctx context.Context) error
}

// TMDB is the cached TMDB family.
type TMDB interface {
	hydration.TMDBMovies
	MovieInfoRaw(ctx context.Context, id string) (*tmdb.Media, error)
	SeriesInfoRaw(ctx context.Context, id string) (*tmdb.Media, error)
	MovieLiteRaw(ctx context.Context, id string) (*tmdb.Lite, error)
	SeriesLiteRaw(ctx context.Context, id string) (*tmdb.Lite, error)
	Genres(ctx context.Context, kind tmdb.Kind) ([]tmdb.Genre, error)
	Trending(ctx context.Context, kind tmdb.Kind) ([]*tmdb.Media, error)
	Discover(ctx context.Context, kind tmdb.Kind, genreIDs string, page int) (json.RawMessage, error)
	Invalidate(ctx context.Context, kind tmdb.Kind, id string) error
}

// Check is a named readiness probe.
type Check struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the services the handlers serve.
type Deps struct {
	Series    Family[json.RawMessage]
	Movies    Family[xc.VODInfo]
	Account   Account
	TMDB      TMDB
	Hydration *hydration.Controller

	// AdminToken guards /api/admin. Empty rejects every admin call.
	AdminToken string

	// Checks run on /health/ready.
	Checks []Check
}

// Handler holds the HTTP handlers.
type Handler struct {
	series     Family[json.RawMessage]
	movies     Family[xc.VODInfo]
	account    Account
	tmdb       TMDB
	hydration  *hydration.Controller
	adminToken string
	checks     []Check
	startTime  time.Time
}

// NewHandler creates the handlers over deps.
func NewHandler(deps Deps) *Handler {
	h := &Handler{
		series:     deps.Series,
		movies:     deps.Movies,
		account:    deps.Account,
		tmdb:       deps.TMDB,
		hydration:  deps.Hydration,
		adminToken: deps.AdminToken,
		checks:     deps.Checks,
		startTime:  time.Now(),
	}
	if h.hydration == nil {
		h.hydration = hydration.New()
	}
	return h
}

// categoriesParam splits ?categories=a,b,c, trimming and dropping empties.
// Absent or blank means the default category.
func categoriesParam(r *http.Request) []string {
	var out []string
	for _, c := range strings.Split(r.URL.Query().Get("categories"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return []string{catalog.DefaultCategory}
	}
	return out
}

// idParam returns the trimmed ?id= value.
func idParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("id"))
}
