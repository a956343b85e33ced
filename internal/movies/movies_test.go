// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package movies

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/cache"
	"github.com/Chapster87/prometheus/internal/catalog"
	"github.com/Chapster87/prometheus/internal/xc"
)

type fakeVOD struct {
	streams int
	info    int
}

func (f *fakeVOD) VODCategories(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`[{"category_id":7,"category_name":"Action"}]`), nil
}

func (f *fakeVOD) VODStreams(context.Context, string) (json.RawMessage, error) {
	f.streams++
	return json.RawMessage(`[{"stream_id":"9","name":"The Matrix"}]`), nil
}

func (f *fakeVOD) VODInfo(context.Context, string) (xc.VODInfo, error) {
	f.info++
	return xc.VODInfo(`{"info":{"tmdb_id":603},"movie_data":{"stream_id":9}}`), nil
}

func TestMoviesFamily(t *testing.T) {
	ctx := context.Background()
	src := &fakeVOD{}
	backend := cache.NewMemoryBackend()
	s := New(src, catalog.Options{Backend: backend, TTL: time.Minute})

	w, err := s.Get(ctx, "7")
	if err != nil {
		t.Fatal(err)
	}
	if w.CategoryName == nil || *w.CategoryName != "Action" {
		t.Errorf("CategoryName = %v, want Action (numeric category id)", w.CategoryName)
	}
	if _, ok, _ := backend.Get(ctx, "movies:7"); !ok {
		t.Error("movies:7 not stored in the backend")
	}

	info, err := s.InfoRaw(ctx, "9")
	if err != nil {
		t.Fatal(err)
	}
	if info.TMDBID() != "603" {
		t.Errorf("TMDBID() = %q, want 603", info.TMDBID())
	}
	again, _ := s.Info(ctx, "9")
	if src.info != 1 || again.TMDBID() != "603" {
		t.Errorf("VODInfo calls = %d, want 1", src.info)
	}
	if _, ok, _ := backend.Get(ctx, "movieInfo:9"); !ok {
		t.Error("movieInfo:9 not stored in the backend")
	}
}
