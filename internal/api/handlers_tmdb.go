// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Chapster87/prometheus/internal/tmdb"
)

// kindParam parses the {kind} path segment, answering 404 for anything
// other than movie or tv.
func kindParam(w http.ResponseWriter, r *http.Request) (tmdb.Kind, bool) {
	kind, ok := tmdb.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		respondError(w, http.StatusNotFound, "Unknown media kind.")
		return "", false
	}
	return kind, true
}

// TMDBGenres serves GET /api/tmdb/genres/{kind}.
func (h *Handler) TMDBGenres(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	genres, err := h.tmdb.Genres(r.Context(), kind)
	if err != nil {
		respondUpstreamError(w, r, err, "Failed to fetch TMDB genres.")
		return
	}
	respondCached(w, map[string]any{"genres": genres})
}

// TMDBTrending serves GET /api/tmdb/trending/{kind}.
func (h *Handler) TMDBTrending(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	results, err := h.tmdb.Trending(r.Context(), kind)
	if err != nil {
		respondUpstreamError(w, r, err, "Failed to fetch TMDB trending titles.")
		return
	}
	respondCached(w, map[string]any{"results": results})
}

// TMDBDiscover serves GET /api/tmdb/discover/{kind}?genres=28,12&page=2.
func (h *Handler) TMDBDiscover(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page := 1
	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			respondError(w, http.StatusBadRequest, "Invalid page parameter")
			return
		}
		page = n
	}
	raw, err := h.tmdb.Discover(r.Context(), kind, strings.TrimSpace(q.Get("genres")), page)
	if err != nil {
		respondUpstreamError(w, r, err, "Failed to fetch TMDB discover results.")
		return
	}
	respondCached(w, raw)
}
