// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package api

import (
	"net/http"

	"github.com/Chapster87/prometheus/internal/logging"
	"github.com/Chapster87/prometheus/internal/upstream"
)

const (
	msgAccount     = "Failed to fetch account information."
	msgAccountAuth = "Authentication Error"
)

// Account serves the XC account. A rejected login is reported as a bad
// gateway: the caller's request was fine, the panel refused our
// credentials.
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	info, err := h.account.Get(r.Context())
	if err != nil {
		if upstream.IsAuth(err) {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("xc rejected configured credentials")
			respondError(w, http.StatusBadGateway, msgAccountAuth)
			return
		}
		respondUpstreamError(w, r, err, msgAccount)
		return
	}
	respondJSON(w, http.StatusOK, info)
}
