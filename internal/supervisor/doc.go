// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

/*
Package supervisor runs the long-lived services of the process under a
suture v4 supervisor tree.

# Layout

	RootSupervisor ("prometheus")
	├── CacheSupervisor ("cache-layer")
	│   └── incremental-cache (Badger value log GC)
	└── APISupervisor ("api-layer")
	    └── http-server

A crashed service is restarted by its own layer. A failing GC loop never
takes the HTTP server down with it, and the HTTP server restarting does not
reopen the incremental store.

# Logging

Supervisor events (service panics, restarts, backoff) are written through
sutureslog to an slog.Logger. Pass logging.NewSlogLogger() so the events
land in the same zerolog stream as the rest of the service.

# Shutdown

Serve blocks until its context is canceled. Each service is then given
TreeConfig.ShutdownTimeout to return; UnstoppedServiceReport lists the
ones that did not.
*/
package supervisor
