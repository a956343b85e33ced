// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Chapster87/prometheus/internal/account"
	"github.com/Chapster87/prometheus/internal/api"
	"github.com/Chapster87/prometheus/internal/cache"
	"github.com/Chapster87/prometheus/internal/catalog"
	"github.com/Chapster87/prometheus/internal/config"
	"github.com/Chapster87/prometheus/internal/hydration"
	"github.com/Chapster87/prometheus/internal/incremental"
	"github.com/Chapster87/prometheus/internal/logging"
	"github.com/Chapster87/prometheus/internal/movies"
	"github.com/Chapster87/prometheus/internal/series"
	"github.com/Chapster87/prometheus/internal/supervisor"
	"github.com/Chapster87/prometheus/internal/supervisor/services"
	"github.com/Chapster87/prometheus/internal/tmdb"
	"github.com/Chapster87/prometheus/internal/tmdbcache"
	"github.com/Chapster87/prometheus/internal/upstream"
	"github.com/Chapster87/prometheus/internal/xc"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run wires the service and blocks until ctx is canceled. Errors are
// returned rather than logged fatally so the deferred closes always run.
func run(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Str("cache_backend", cfg.Cache.Backend).
		Dur("cache_ttl", cfg.Cache.TTL()).
		Bool("xc_configured", cfg.XCConfigured()).
		Bool("tmdb_configured", cfg.TMDB.HasCredentials()).
		Bool("tag_invalidation", cfg.Cache.EnableTagInvalidation).
		Msg("Configuration loaded")

	backend, err := cache.NewBackend(cache.Config{Backend: cfg.Cache.Backend, RedisURL: cfg.Cache.RedisURL})
	if err != nil {
		return fmt.Errorf("create cache backend: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache backend")
		}
	}()

	store, err := incremental.Open(incremental.Options{
		Path:          cfg.Incremental.Path,
		MaxEntryBytes: cfg.Incremental.MaxEntryBytes,
	})
	if err != nil {
		return fmt.Errorf("open incremental cache: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing incremental cache")
		}
	}()

	xcClient := xc.New(xc.Config{
		BaseURL:  cfg.XC.URL,
		Username: cfg.XC.Username,
		Password: cfg.XC.Password,
		Timeout:  cfg.Upstream.Timeout,
		Breaker:  upstream.NewBreaker("xc"),
	})
	tmdbClient := tmdb.New(tmdb.Config{
		BaseURL:         cfg.TMDB.BaseURL,
		ReadAccessToken: cfg.TMDB.ReadAccessToken,
		APIKey:          cfg.TMDB.APIKey,
		Timeout:         cfg.Upstream.Timeout,
		RateLimit:       cfg.TMDB.RateLimit,
		RateBurst:       cfg.TMDB.RateBurst,
		Breaker:         upstream.NewBreaker("tmdb"),
	})

	handler := api.NewHandler(api.Deps{
		Series:     series.New(xcClient, familyOptions(cfg, backend, store, cfg.Series)),
		Movies:     movies.New(xcClient, familyOptions(cfg, backend, store, cfg.Movies)),
		Account:    account.New(xcClient, accountOptions(cfg, backend, store)),
		TMDB:       tmdbcache.New(tmdbClient, tmdbOptions(cfg, backend, store)),
		Hydration:  hydration.New(),
		AdminToken: cfg.Security.AdminToken,
		Checks:     readinessChecks(backend),
	})

	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Security.RateLimitRequests
	mwConfig.RateLimitWindow = cfg.Security.RateLimitWindow
	mwConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled
	router := api.NewRouter(handler, api.NewChiMiddleware(mwConfig))

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddCacheService(store)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	// ServeBackground sends exactly one result and never closes the channel.
	var serveErr error
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		serveErr = fmt.Errorf("supervisor tree: %w", err)
	} else {
		logging.Info().Msg("Shutdown requested")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}
	return serveErr
}

func familyOptions(cfg *config.Config, backend cache.Backend, store *incremental.Store, fam config.FamilyConfig) catalog.Options {
	return catalog.Options{
		Backend:         backend,
		Incremental:     store,
		TTL:             cfg.Cache.TTL(),
		Disabled:        fam.DisableIncremental,
		SkipList:        fam.Skip,
		TagInvalidation: cfg.Cache.EnableTagInvalidation,
	}
}

func accountOptions(cfg *config.Config, backend cache.Backend, store *incremental.Store) account.Options {
	return account.Options{
		Backend:         backend,
		Incremental:     store,
		TTL:             cfg.Cache.TTL(),
		Disabled:        cfg.Account.DisableIncremental,
		TagInvalidation: cfg.Cache.EnableTagInvalidation,
	}
}

func tmdbOptions(cfg *config.Config, backend cache.Backend, store *incremental.Store) tmdbcache.Options {
	return tmdbcache.Options{
		Backend:         backend,
		Incremental:     store,
		TTL:             cfg.Cache.TTL(),
		Disabled:        cfg.TMDBCache.DisableIncremental,
		SkipList:        cfg.TMDBCache.Skip,
		TagInvalidation: cfg.Cache.EnableTagInvalidation,
	}
}

// readinessChecks probes the shared backend when it is remote. The memory
// and none backends are always ready.
func readinessChecks(backend cache.Backend) []api.Check {
	var checks []api.Check
	if rb, ok := backend.(*cache.RedisBackend); ok {
		checks = append(checks, api.Check{Name: "redis", Check: rb.Ping})
	}
	return checks
}
