// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package api

import (
	"context"
	"net/http"

	"github.com/Chapster87/prometheus/internal/catalog"
)

// Error messages per endpoint. Clients match on these strings.
const (
	msgMissingID        = "Missing id parameter"
	msgSeriesCategories = "Failed to fetch series categories."
	msgSeriesList       = "Failed to fetch series information."
	msgMovieCategories  = "Failed to fetch movie categories."
	msgMovieList        = "Failed to fetch movies information."
	msgMovieInfo        = "Failed to fetch movie information."
	msgTMDBSeries       = "Failed to fetch TMDB series info."
	msgTMDBSeriesLite   = "Failed to fetch TMDB series lite info."
	msgTMDBMovie        = "Failed to fetch TMDB movie info."
	msgTMDBMovieLite    = "Failed to fetch TMDB movie lite info."
)

// categoriesHandler serves a family's category list from the public tier.
func categoriesHandler[I any](f Family[I], message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := f.Categories(r.Context())
		if err != nil {
			respondUpstreamError(w, r, err, message)
			return
		}
		respondCached(w, cats)
	}
}

// listHandler serves ?categories=a,b through the batch path. A single
// requested category is unwrapped to its wrapper; several produce a map in
// request order.
func listHandler[I any](f Family[I], message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats := categoriesParam(r)
		batch, err := f.Batch(r.Context(), cats)
		if err != nil {
			respondUpstreamError(w, r, err, message)
			return
		}
		if len(cats) == 1 {
			wrapper, _ := batch.Get(cats[0])
			respondCached(w, wrapper)
			return
		}
		respondCached(w, batch)
	}
}

// rawByID serves fetch(id) for ?id=, answering 400 when id is blank.
func rawByID[T any](fetch func(context.Context, string) (T, error), message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := idParam(r)
		if id == "" {
			respondError(w, http.StatusBadRequest, msgMissingID)
			return
		}
		v, err := fetch(r.Context(), id)
		if err != nil {
			respondUpstreamError(w, r, err, message)
			return
		}
		respondCached(w, v)
	}
}

// AllSeries serves the default series category.
func (h *Handler) AllSeries(w http.ResponseWriter, r *http.Request) {
	wrapper, err := h.series.Get(r.Context(), catalog.DefaultCategory)
	if err != nil {
		respondUpstreamError(w, r, err, msgSeriesList)
		return
	}
	respondJSON(w, http.StatusOK, wrapper)
}
