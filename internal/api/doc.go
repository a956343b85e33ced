// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

/*
Package api exposes the cached catalog over HTTP using the chi router.

Route groups:

	/api/series/...        series categories, lists, XC info, TMDB info
	/api/movies/...        movie categories, lists, VOD info, TMDB info
	/api/all-series        the default "X" series category
	/api/account           XC account info
	/api/tmdb/...          genres, trending and discover lists
	/api/admin/...         cache invalidation, guarded by x-admin-token
	/pages/...             dehydrated query state for page hydration
	/health/live|ready     probes
	/metrics               Prometheus exposition

Responses:

Successful reads are JSON with Cache-Control "public, s-maxage=300,
stale-while-revalidate=600" so a CDN can absorb repeat traffic while the
tiered caches handle freshness. Errors are {"error": message}. Payloads are
fully encoded before the status line is written, so a client never sees a
200 with truncated JSON.

Endpoints that serve title info (/api/series/info, /api/movies/tmdb, ...)
read the raw tier only. Pages prime the client with the public tier, and
serving the same entry through the incremental cache twice would only
double its storage.
*/
package api
