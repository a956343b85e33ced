// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/logging"
	"github.com/Chapster87/prometheus/internal/upstream"
)

// CDNCacheControl lets a shared cache serve a response for 5 minutes and
// stale for 10 more while it revalidates.
const CDNCacheControl = "public, s-maxage=300, stale-while-revalidate=600"

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON encodes v before touching the ResponseWriter so an encoding
// failure can still become a clean 500.
func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to encode response."}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("failed to write response")
	}
}

// respondCached writes a 200 that a CDN may cache.
func respondCached(w http.ResponseWriter, v any) {
	w.Header().Set("Cache-Control", CDNCacheControl)
	respondJSON(w, http.StatusOK, v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondUpstreamError logs err and maps it onto a status. An unconfigured
// provider is 503 with the missing variables named; everything else is a
// 500 with the endpoint's generic message.
func respondUpstreamError(w http.ResponseWriter, r *http.Request, err error, message string) {
	logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)

	var cfgErr *upstream.ConfigError
	if errors.As(err, &cfgErr) {
		respondError(w, http.StatusServiceUnavailable, cfgErr.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, message)
}
