// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package hydration

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/cache"
	"github.com/Chapster87/prometheus/internal/catalog"
	"github.com/Chapster87/prometheus/internal/tiered"
	"github.com/Chapster87/prometheus/internal/tmdb"
	"github.com/Chapster87/prometheus/internal/xc"
)

// stubCatalog serves fixed data and counts public tier reads.
type stubCatalog[I any] struct {
	wrapper     catalog.Wrapper
	info        I
	err         error
	publicReads int
}

func (s *stubCatalog[I]) CategoriesRaw(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`[{"category_id":"1"}]`), s.err
}

func (s *stubCatalog[I]) Categories(ctx context.Context) (json.RawMessage, error) {
	s.publicReads++
	return s.CategoriesRaw(ctx)
}

func (s *stubCatalog[I]) Raw(_ context.Context, id string) (catalog.Wrapper, error) {
	w := s.wrapper
	w.CategoryID = id
	return w, s.err
}

func (s *stubCatalog[I]) Get(ctx context.Context, id string) (catalog.Wrapper, error) {
	s.publicReads++
	return s.Raw(ctx, id)
}

func (s *stubCatalog[I]) Batch(ctx context.Context, ids []string) (*tiered.Ordered[catalog.Wrapper], error) {
	s.publicReads++
	return s.BatchRaw(ctx, ids)
}

func (s *stubCatalog[I]) BatchRaw(ctx context.Context, ids []string) (*tiered.Ordered[catalog.Wrapper], error) {
	out := tiered.NewOrdered[catalog.Wrapper](len(ids))
	for _, id := range ids {
		w, err := s.Raw(ctx, id)
		if err != nil {
			return nil, err
		}
		out.Set(id, w)
	}
	return out, nil
}

func (s *stubCatalog[I]) InfoRaw(context.Context, string) (I, error) { return s.info, s.err }

func (s *stubCatalog[I]) Info(ctx context.Context, id string) (I, error) {
	s.publicReads++
	return s.InfoRaw(ctx, id)
}

// wrapperOfSize returns a wrapper whose encoding is exactly total bytes.
func wrapperOfSize(t *testing.T, id string, total int) catalog.Wrapper {
	t.Helper()
	w := catalog.Wrapper{CategoryID: id, Items: json.RawMessage(`""`)}
	base, err := json.Marshal(w)
	if err != nil {
		t.Fatal(err)
	}
	w.Items = json.RawMessage(`"` + strings.Repeat("a", total-len(base)) + `"`)
	return w
}

func fixedClock() time.Time { return time.UnixMilli(1700000000000) }

func mib(n float64) int { return int(n * 1024 * 1024) }

func TestRunPrimesUnderLimit(t *testing.T) {
	c := &stubCatalog[json.RawMessage]{wrapper: wrapperOfSize(t, "12", mib(1.79))}
	h := New(WithClock(fixedClock))

	state := h.Run(context.Background(), CategoryPlan[json.RawMessage]("series", c, "12"))
	if state == nil {
		t.Fatal("Run() = nil for a 1.79 MiB probe, want primed state")
	}
	if len(state.Queries) != 2 {
		t.Fatalf("len(Queries) = %d, want 2", len(state.Queries))
	}
	if got := state.Queries[0].QueryHash; got != `["series","12"]` {
		t.Errorf("QueryHash = %s", got)
	}
	if got := state.Queries[1].QueryHash; got != `["seriesBatch",["12"]]` {
		t.Errorf("QueryHash = %s", got)
	}
	q := state.Queries[1].State
	if q.Status != "success" || q.DataUpdatedAt != 1700000000000 {
		t.Errorf("State = %+v", q)
	}
	if c.publicReads != 1 {
		t.Errorf("public reads = %d, want 1", c.publicReads)
	}
}

func TestRunSkipsOverLimit(t *testing.T) {
	c := &stubCatalog[json.RawMessage]{wrapper: wrapperOfSize(t, "12", mib(1.81))}

	if state := New().Run(context.Background(), CategoryPlan[json.RawMessage]("series", c, "12")); state != nil {
		t.Errorf("Run() = %d queries for a 1.81 MiB probe, want nil", len(state.Queries))
	}
	if c.publicReads != 0 {
		t.Errorf("public reads = %d, want 0 (materialize must not run)", c.publicReads)
	}
}

func TestRunLimitIsExclusive(t *testing.T) {
	c := &stubCatalog[json.RawMessage]{wrapper: wrapperOfSize(t, "1", 100)}
	if state := New(WithLimit(100)).Run(context.Background(), CategoryPlan[json.RawMessage]("movies", c, "1")); state != nil {
		t.Error("Run() primed a probe equal to the limit")
	}
	if state := New(WithLimit(101)).Run(context.Background(), CategoryPlan[json.RawMessage]("movies", c, "1")); state == nil {
		t.Error("Run() skipped a probe under the limit")
	}
}

func TestRunFailureYieldsNil(t *testing.T) {
	c := &stubCatalog[json.RawMessage]{err: errors.New("xc down")}
	if state := New().Run(context.Background(), DetailPlan[json.RawMessage]("seriesInfo", c, "5")); state != nil {
		t.Errorf("Run() = %+v, want nil on upstream failure", state)
	}
}

func TestStateEncoding(t *testing.T) {
	c := &stubCatalog[json.RawMessage]{info: json.RawMessage(`{"name":"Dark"}`)}
	state := New(WithClock(fixedClock)).Run(context.Background(), DetailPlan[json.RawMessage]("seriesInfo", c, "5"))
	if state == nil {
		t.Fatal("Run() = nil")
	}
	out, err := json.Marshal(state)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"mutations":[],"queries":[{"queryKey":["seriesInfo","5"],"queryHash":"[\"seriesInfo\",\"5\"]",` +
		`"state":{"data":{"name":"Dark"},"dataUpdatedAt":1700000000000,"status":"success"}}]}`
	if string(out) != want {
		t.Errorf("Marshal(state) =\n%s\nwant\n%s", out, want)
	}
}

func TestBatchPlanKeys(t *testing.T) {
	c := &stubCatalog[json.RawMessage]{wrapper: catalog.Wrapper{Items: json.RawMessage(`[]`)}}
	state := New().Run(context.Background(), BatchPlan[json.RawMessage]("series", c, []string{"9", "3", "9", ""}))
	if state == nil {
		t.Fatal("Run() = nil")
	}
	var hashes []string
	for _, q := range state.Queries {
		hashes = append(hashes, q.QueryHash)
	}
	want := []string{`["series","9"]`, `["series","3"]`, `["seriesBatch",["3","9"]]`}
	if strings.Join(hashes, " ") != strings.Join(want, " ") {
		t.Errorf("hashes = %v, want %v", hashes, want)
	}
	if _, ok := state.Queries[0].State.Data.(catalog.Wrapper); !ok {
		t.Errorf("per-category data = %T, want catalog.Wrapper", state.Queries[0].State.Data)
	}
}

func TestCategoriesPlan(t *testing.T) {
	c := &stubCatalog[xc.VODInfo]{}
	state := New().Run(context.Background(), CategoriesPlan[xc.VODInfo]("movies", c))
	if state == nil || len(state.Queries) != 1 {
		t.Fatalf("Run() = %+v", state)
	}
	if got := state.Queries[0].QueryHash; got != `["movies","categories"]` {
		t.Errorf("QueryHash = %s", got)
	}
}

type stubTMDB struct {
	creds bool
	err   error
	calls []string
}

func (s *stubTMDB) HasCredentials() bool { return s.creds }

func (s *stubTMDB) MovieInfo(_ context.Context, id string) (*tmdb.Media, error) {
	s.calls = append(s.calls, id)
	if s.err != nil {
		return nil, s.err
	}
	return &tmdb.Media{ID: 603, Title: "The Matrix"}, nil
}

func TestMovieDetailPlan(t *testing.T) {
	withTMDB := xc.VODInfo(`{"info":{"tmdb_id":"603"},"movie_data":{"stream_id":9}}`)
	withoutTMDB := xc.VODInfo(`{"info":{},"movie_data":{"stream_id":9}}`)

	tests := []struct {
		name      string
		info      xc.VODInfo
		tmdb      *stubTMDB
		wantKeys  int
		wantCalls int
	}{
		{"primes tmdb", withTMDB, &stubTMDB{creds: true}, 2, 1},
		{"no tmdb id", withoutTMDB, &stubTMDB{creds: true}, 1, 0},
		{"no credentials", withTMDB, &stubTMDB{}, 1, 0},
		{"tmdb failure drops only that query", withTMDB, &stubTMDB{creds: true, err: errors.New("502")}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &stubCatalog[xc.VODInfo]{info: tt.info}
			var primed string
			state := New().Run(context.Background(), MovieDetailPlan(c, tt.tmdb, "9", func(id string) { primed = id }))
			if state == nil {
				t.Fatal("Run() = nil")
			}
			if len(state.Queries) != tt.wantKeys {
				t.Errorf("len(Queries) = %d, want %d", len(state.Queries), tt.wantKeys)
			}
			if len(tt.tmdb.calls) != tt.wantCalls {
				t.Errorf("tmdb calls = %v, want %d", tt.tmdb.calls, tt.wantCalls)
			}
			if tt.wantKeys == 2 {
				if got := state.Queries[1].QueryHash; got != `["tmdbMovieInfo","603"]` {
					t.Errorf("QueryHash = %s", got)
				}
				if primed != "603" {
					t.Errorf("onTMDB got %q, want 603", primed)
				}
			} else if primed != "" {
				t.Errorf("onTMDB got %q, want no call", primed)
			}
		})
	}
}

// countingIncremental passes every Wrap straight through to load.
type countingIncremental struct {
	wraps atomic.Int32
}

func (c *countingIncremental) Wrap(ctx context.Context, _, _ []string, _ time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	c.wraps.Add(1)
	return load(ctx)
}

func (c *countingIncremental) RevalidateTag(context.Context, string) error { return nil }

func TestBatchPlanProbeStaysOnRawTier(t *testing.T) {
	inc := &countingIncremental{}
	list := json.RawMessage(`["` + strings.Repeat("a", 4096) + `"]`)
	svc := catalog.New(
		catalog.Names{Prefix: "series", InfoPrefix: "seriesInfo"},
		catalog.Source[json.RawMessage]{
			Categories: func(context.Context) (json.RawMessage, error) {
				return json.RawMessage(`[{"category_id":"10080","category_name":"Drama"}]`), nil
			},
			List: func(context.Context, string) (json.RawMessage, error) { return list, nil },
			Info: func(context.Context, string) (json.RawMessage, error) { return json.RawMessage(`{}`), nil },
		},
		catalog.Options{Backend: cache.NewMemoryBackend(), Incremental: inc, TTL: time.Minute},
	)

	if state := New(WithLimit(1024)).Run(context.Background(), BatchPlan[json.RawMessage]("series", svc, []string{"10080"})); state != nil {
		t.Fatalf("Run() = %d queries for an oversize batch, want nil", len(state.Queries))
	}
	if got := inc.wraps.Load(); got != 0 {
		t.Errorf("incremental Wrap calls = %d, want 0 for a rejected batch", got)
	}

	if state := New().Run(context.Background(), BatchPlan[json.RawMessage]("series", svc, []string{"10080"})); state == nil {
		t.Fatal("Run() = nil for a small batch, want primed state")
	}
	if got := inc.wraps.Load(); got == 0 {
		t.Error("materialize did not read through the incremental cache")
	}
}
