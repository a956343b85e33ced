// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

// Package hydration builds the dehydrated query state a page ships to its
// client so the client's query cache starts primed.
//
// Every plan runs in two phases. Probe reads the raw tier and the encoded
// size of the result decides whether to prime at all; only results smaller
// than Limit are primed. Materialize then reads the public tier, which also
// populates the incremental cache. The phases are not atomic: an
// invalidation between them can make the primed data differ from the probe.
//
// Hydration never fails a page. Any error or an oversize probe yields a nil
// state and the client fetches after mount.
package hydration

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/logging"
	"github.com/Chapster87/prometheus/internal/metrics"
)

// Limit is the probe size ceiling in bytes (1.8 MiB).
const Limit = 1.8 * 1024 * 1024

// Entry is one query to prime.
type Entry struct {
	Key  []any
	Data any
}

// Plan describes how to hydrate one page.
type Plan struct {
	// Page labels logs and metrics ("series_category", "movie_detail", ...).
	Page string
	// ID is the page's id, logged with failures.
	ID string

	Probe       func(ctx context.Context) (any, error)
	Materialize func(ctx context.Context) (any, error)

	// Prime turns the materialized data into the queries to prime. It
	// handles its own secondary failures by leaving entries out.
	Prime func(ctx context.Context, data any) []Entry
}

// QueryState is the state block of a primed query.
type QueryState struct {
	Data          any    `json:"data"`
	DataUpdatedAt int64  `json:"dataUpdatedAt"`
	Status        string `json:"status"`
}

// Query is one primed query.
type Query struct {
	QueryKey  []any      `json:"queryKey"`
	QueryHash string     `json:"queryHash"`
	State     QueryState `json:"state"`
}

// State is the dehydrated query cache of a page.
type State struct {
	Mutations []any   `json:"mutations"`
	Queries   []Query `json:"queries"`
}

// Controller runs plans.
type Controller struct {
	limit float64
	now   func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithLimit overrides the size ceiling.
func WithLimit(bytes float64) Option {
	return func(c *Controller) { c.limit = bytes }
}

// WithClock replaces time.Now for dataUpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a controller with the default ceiling.
func New(opts ...Option) *Controller {
	c := &Controller{limit: Limit, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes plan and returns the state to ship, or nil.
func (c *Controller) Run(ctx context.Context, plan Plan) *State {
	log := logging.Ctx(ctx).With().Str("page", plan.Page).Str("id", plan.ID).Logger()

	probe, err := plan.Probe(ctx)
	if err != nil {
		log.Error().Err(err).Msg("prefetch probe failed, falling back to client fetch")
		metrics.RecordHydration(plan.Page, "failed", 0)
		return nil
	}
	encoded, err := json.Marshal(probe)
	if err != nil {
		log.Error().Err(err).Msg("prefetch probe not encodable, falling back to client fetch")
		metrics.RecordHydration(plan.Page, "failed", 0)
		return nil
	}
	size := len(encoded)
	if float64(size) >= c.limit {
		log.Warn().Int("size", size).Float64("limit", c.limit).Msg("prefetch size over limit, skipping hydration")
		metrics.RecordHydration(plan.Page, "oversize", size)
		return nil
	}

	data, err := plan.Materialize(ctx)
	if err != nil {
		log.Error().Err(err).Msg("prefetch materialize failed, falling back to client fetch")
		metrics.RecordHydration(plan.Page, "failed", size)
		return nil
	}

	entries := plan.Prime(ctx, data)
	updated := c.now().UnixMilli()
	state := &State{Mutations: []any{}, Queries: make([]Query, 0, len(entries))}
	for _, e := range entries {
		hash, err := json.Marshal(e.Key)
		if err != nil {
			log.Error().Err(err).Msg("query key not encodable, skipping hydration")
			metrics.RecordHydration(plan.Page, "failed", size)
			return nil
		}
		state.Queries = append(state.Queries, Query{
			QueryKey:  e.Key,
			QueryHash: string(hash),
			State:     QueryState{Data: e.Data, DataUpdatedAt: updated, Status: "success"},
		})
	}
	metrics.RecordHydration(plan.Page, "primed", size)
	return state
}
