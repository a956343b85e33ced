// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package api

import (
	"crypto/subtle"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/logging"
	"github.com/Chapster87/prometheus/internal/tmdb"
	"github.com/Chapster87/prometheus/internal/validation"
)

// AdminTokenHeader carries the admin token.
const AdminTokenHeader = "x-admin-token"

// maxAdminBody bounds invalidation request bodies.
const maxAdminBody = 4 * 1024

// invalidateAll is reported when no id was given.
const invalidateAll = "all"

// InvalidateRequest is the body of the catalog and account invalidation
// endpoints. A missing, empty or malformed body invalidates everything.
type InvalidateRequest struct {
	CategoryID string `json:"categoryId" validate:"omitempty,max=128,excludes=:"`
}

// InvalidateTMDBRequest is the body of /api/admin/invalidate-tmdb. An empty
// kind covers both movies and TV.
type InvalidateTMDBRequest struct {
	ID   string `json:"id" validate:"omitempty,max=128,excludes=:"`
	Kind string `json:"kind" validate:"omitempty,oneof=movie tv"`
}

// InvalidateResponse names what was invalidated.
type InvalidateResponse struct {
	Invalidated string `json:"invalidated"`
}

// RequireAdmin rejects requests without the configured admin token. With no
// token configured every request fails, so the endpoints stay closed by
// default.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminToken == "" {
			respondError(w, http.StatusInternalServerError, "ADMIN_TOKEN not configured on server")
			return
		}
		provided := r.Header.Get(AdminTokenHeader)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.adminToken)) != 1 {
			logging.Ctx(r.Context()).Warn().Str("path", r.URL.Path).Str("remote_addr", r.RemoteAddr).Msg("admin request rejected")
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decodeAdminBody decodes the request body. A body that cannot be read or
// decoded yields the zero value, which means "invalidate everything". It
// reports false, after answering 400, only when a well formed body fails
// validation.
func decodeAdminBody[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var zero T
	data, err := io.ReadAll(io.LimitReader(r.Body, maxAdminBody))
	if err != nil || len(data) == 0 {
		return zero, true
	}
	var body T
	if err := json.Unmarshal(data, &body); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("malformed invalidation body, invalidating all")
		return zero, true
	}
	if verrs := validation.ValidateStruct(&body); verrs != nil {
		respondError(w, http.StatusBadRequest, verrs.Error())
		return zero, false
	}
	return body, true
}

// invalidateHandler serves POST /api/admin/invalidate-{family}.
func invalidateHandler(family string, invalidate func(r *http.Request, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := decodeAdminBody[InvalidateRequest](w, r)
		if !ok {
			return
		}
		id := strings.TrimSpace(body.CategoryID)
		if err := invalidate(r, id); err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Str("family", family).Str("id", id).Msg("invalidation failed")
			respondError(w, http.StatusInternalServerError, "Failed to invalidate "+family+" cache")
			return
		}
		logging.Ctx(r.Context()).Info().Str("family", family).Str("id", orAll(id)).Msg("cache invalidated")
		respondJSON(w, http.StatusOK, InvalidateResponse{Invalidated: orAll(id)})
	}
}

// InvalidateSeries serves POST /api/admin/invalidate-series.
func (h *Handler) InvalidateSeries(w http.ResponseWriter, r *http.Request) {
	invalidateHandler("series", func(r *http.Request, id string) error {
		return h.series.Invalidate(r.Context(), id)
	})(w, r)
}

// InvalidateMovies serves POST /api/admin/invalidate-movies.
func (h *Handler) InvalidateMovies(w http.ResponseWriter, r *http.Request) {
	invalidateHandler("movies", func(r *http.Request, id string) error {
		return h.movies.Invalidate(r.Context(), id)
	})(w, r)
}

// InvalidateAccount serves POST /api/admin/invalidate-account. The account
// has a single entry, so the body is ignored.
func (h *Handler) InvalidateAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.account.Invalidate(r.Context()); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("family", "account").Msg("invalidation failed")
		respondError(w, http.StatusInternalServerError, "Failed to invalidate account cache")
		return
	}
	logging.Ctx(r.Context()).Info().Str("family", "account").Msg("cache invalidated")
	respondJSON(w, http.StatusOK, InvalidateResponse{Invalidated: invalidateAll})
}

// InvalidateTMDB serves POST /api/admin/invalidate-tmdb.
func (h *Handler) InvalidateTMDB(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeAdminBody[InvalidateTMDBRequest](w, r)
	if !ok {
		return
	}
	id := strings.TrimSpace(body.ID)
	if err := h.tmdb.Invalidate(r.Context(), tmdb.Kind(body.Kind), id); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("kind", body.Kind).Str("id", id).Msg("tmdb invalidation failed")
		respondError(w, http.StatusInternalServerError, "Failed to invalidate tmdb cache")
		return
	}
	logging.Ctx(r.Context()).Info().Str("family", "tmdb").Str("kind", body.Kind).Str("id", orAll(id)).Msg("cache invalidated")
	respondJSON(w, http.StatusOK, InvalidateResponse{Invalidated: orAll(id)})
}

func orAll(id string) string {
	if id == "" {
		return invalidateAll
	}
	return id
}
