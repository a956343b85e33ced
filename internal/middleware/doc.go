// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

/*
Package middleware provides the HTTP middleware shared by every route.

Key Components:
  - RequestID: reuses an inbound X-Request-ID or generates a UUID, echoes it
    on the response and stores it in the context so logging.Ctx picks it up
  - AccessLog: one structured zerolog line per request with status, bytes
    and latency
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by the chi route pattern rather than the raw path to keep cardinality
    bounded

Middleware Stack:

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)

See Also:
  - internal/api: router and handlers
  - internal/metrics: metric definitions
*/
package middleware
