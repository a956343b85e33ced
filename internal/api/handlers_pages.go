// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/hydration"
	"github.com/Chapster87/prometheus/internal/movies"
	"github.com/Chapster87/prometheus/internal/series"
	"github.com/Chapster87/prometheus/internal/xc"
)

// PageResponse is what a page route returns to the renderer. A nil
// DehydratedState means the client fetches after mount.
type PageResponse struct {
	ID              string           `json:"id,omitempty"`
	TMDBID          string           `json:"tmdbId,omitempty"`
	DehydratedState *hydration.State `json:"dehydratedState"`
}

// pathID returns the trimmed {id} segment, answering 404 when blank.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusNotFound, "Not found")
		return "", false
	}
	return id, true
}

// Page state depends on the cache contents at request time and must not be
// shared by a CDN.
func respondPage(w http.ResponseWriter, page PageResponse) {
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, http.StatusOK, page)
}

// SeriesIndexPage primes the series category list.
func (h *Handler) SeriesIndexPage(w http.ResponseWriter, r *http.Request) {
	state := h.hydration.Run(r.Context(), hydration.CategoriesPlan[json.RawMessage](series.Prefix, h.series))
	respondPage(w, PageResponse{DehydratedState: state})
}

// SeriesCategoryPage primes one series category.
func (h *Handler) SeriesCategoryPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	state := h.hydration.Run(r.Context(), hydration.CategoryPlan[json.RawMessage](series.Prefix, h.series, id))
	respondPage(w, PageResponse{ID: id, DehydratedState: state})
}

// SeriesBatchPage primes several series categories from ?categories=.
func (h *Handler) SeriesBatchPage(w http.ResponseWriter, r *http.Request) {
	state := h.hydration.Run(r.Context(), hydration.BatchPlan[json.RawMessage](series.Prefix, h.series, categoriesParam(r)))
	respondPage(w, PageResponse{DehydratedState: state})
}

// SeriesDetailPage primes one series' info.
func (h *Handler) SeriesDetailPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	state := h.hydration.Run(r.Context(), hydration.DetailPlan[json.RawMessage](series.InfoPrefix, h.series, id))
	respondPage(w, PageResponse{ID: id, DehydratedState: state})
}

// MoviesIndexPage primes the movie category list.
func (h *Handler) MoviesIndexPage(w http.ResponseWriter, r *http.Request) {
	state := h.hydration.Run(r.Context(), hydration.CategoriesPlan[xc.VODInfo](movies.Prefix, h.movies))
	respondPage(w, PageResponse{DehydratedState: state})
}

// MoviesCategoryPage primes one movie category.
func (h *Handler) MoviesCategoryPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	state := h.hydration.Run(r.Context(), hydration.CategoryPlan[xc.VODInfo](movies.Prefix, h.movies, id))
	respondPage(w, PageResponse{ID: id, DehydratedState: state})
}

// MoviesBatchPage primes several movie categories from ?categories=.
func (h *Handler) MoviesBatchPage(w http.ResponseWriter, r *http.Request) {
	state := h.hydration.Run(r.Context(), hydration.BatchPlan[xc.VODInfo](movies.Prefix, h.movies, categoriesParam(r)))
	respondPage(w, PageResponse{DehydratedState: state})
}

// MovieDetailPage primes one movie's VOD info and, when it links to TMDB,
// the TMDB info too. The TMDB id is returned so the client can query it.
func (h *Handler) MovieDetailPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var tmdbID string
	var t hydration.TMDBMovies
	if h.tmdb != nil {
		t = h.tmdb
	}
	state := h.hydration.Run(r.Context(), hydration.MovieDetailPlan(h.movies, t, id, func(primed string) {
		tmdbID = primed
	}))
	respondPage(w, PageResponse{ID: id, TMDBID: tmdbID, DehydratedState: state})
}
