// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

/*
Package main is the entry point for the Prometheus catalog server.

The server fronts an Xtream-Codes (XC) panel and TMDB with a two tier cache
and serves catalog JSON plus pre-hydrated page state to the web client.

# Application Architecture

	RootSupervisor ("prometheus")
	├── CacheSupervisor ("cache-layer")
	│   └── incremental-cache (Badger value log GC)
	└── APISupervisor ("api-layer")
	    └── http-server

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Raw cache: memory, Redis or none (CACHE_BACKEND)
 4. Incremental cache: Badger, on disk or in memory
 5. Upstream clients: XC and TMDB, each behind a circuit breaker
 6. Families: series, movies, account and TMDB
 7. Supervisor Tree: Suture v4 process supervision
 8. HTTP Server: Chi router with middleware stack

# Configuration

Environment variables > Config file > Defaults.

	# Server
	HTTP_PORT=3000
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Providers
	XC_URL=https://panel.example
	XC_USERNAME=<user>
	XC_PASSWORD=<password>
	TMDB_API_READ_ACCESS_TOKEN=<token>   # or TMDB_API_KEY

	# Cache
	CACHE_BACKEND=memory         # memory, redis or none
	REDIS_URL=redis://localhost:6379/0
	CACHE_TTL_SECONDS=300
	CACHE_ENABLE_TAG_INVALIDATION=true
	INCREMENTAL_CACHE_PATH=/var/lib/prometheus/incremental
	SERIES_CACHE_SKIP=X,10080
	MOVIES_DISABLE_INCREMENTAL_CACHE=false

	# Admin
	ADMIN_TOKEN=<secret>

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains for
HTTP_SHUTDOWN_TIMEOUT, then the incremental cache and the raw backend are
closed.
*/
package main
