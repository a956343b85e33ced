// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Chapster87/prometheus/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil mw uses the default CORS and rate
// limit settings.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi builds the route tree.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// ========================
	// Health
	// ========================
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	// ========================
	// Catalog API
	// ========================
	r.Route("/api", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Route("/series", func(r chi.Router) {
			r.Get("/", listHandler(h.series, msgSeriesList))
			r.Get("/categories", categoriesHandler(h.series, msgSeriesCategories))
			r.Get("/info", rawByID(h.series.InfoRaw, msgSeriesList))
			r.Get("/tmdb", rawByID(h.tmdb.SeriesInfoRaw, msgTMDBSeries))
			r.Get("/tmdb-lite", rawByID(h.tmdb.SeriesLiteRaw, msgTMDBSeriesLite))
		})
		r.Get("/all-series", h.AllSeries)

		r.Route("/movies", func(r chi.Router) {
			r.Get("/", listHandler(h.movies, msgMovieList))
			r.Get("/categories", categoriesHandler(h.movies, msgMovieCategories))
			r.Get("/info", rawByID(h.movies.InfoRaw, msgMovieInfo))
			r.Get("/tmdb", rawByID(h.tmdb.MovieInfoRaw, msgTMDBMovie))
			r.Get("/tmdb-lite", rawByID(h.tmdb.MovieLiteRaw, msgTMDBMovieLite))
		})

		r.Get("/account", h.Account)

		r.Route("/tmdb", func(r chi.Router) {
			r.Get("/genres/{kind}", h.TMDBGenres)
			r.Get("/trending/{kind}", h.TMDBTrending)
			r.Get("/discover/{kind}", h.TMDBDiscover)
		})

		// ========================
		// Admin
		// ========================
		r.Route("/admin", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitAdmin())
			r.Use(h.RequireAdmin)
			r.Post("/invalidate-series", h.InvalidateSeries)
			r.Post("/invalidate-movies", h.InvalidateMovies)
			r.Post("/invalidate-account", h.InvalidateAccount)
			r.Post("/invalidate-tmdb", h.InvalidateTMDB)
		})
	})

	// ========================
	// Page hydration
	// ========================
	r.Route("/pages", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Route("/series", func(r chi.Router) {
			r.Get("/", h.SeriesIndexPage)
			r.Get("/batch", h.SeriesBatchPage)
			r.Get("/category/{id}", h.SeriesCategoryPage)
			r.Get("/{id}", h.SeriesDetailPage)
		})
		r.Route("/movies", func(r chi.Router) {
			r.Get("/", h.MoviesIndexPage)
			r.Get("/batch", h.MoviesBatchPage)
			r.Get("/category/{id}", h.MoviesCategoryPage)
			r.Get("/{id}", h.MovieDetailPage)
		})
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	return r
}
