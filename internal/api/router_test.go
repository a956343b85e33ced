// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/account"
	"github.com/Chapster87/prometheus/internal/cache"
	"github.com/Chapster87/prometheus/internal/catalog"
	"github.com/Chapster87/prometheus/internal/incremental"
	"github.com/Chapster87/prometheus/internal/movies"
	"github.com/Chapster87/prometheus/internal/series"
	"github.com/Chapster87/prometheus/internal/tmdb"
	"github.com/Chapster87/prometheus/internal/tmdbcache"
	"github.com/Chapster87/prometheus/internal/upstream"
	"github.com/Chapster87/prometheus/internal/xc"
)

const testAdminToken = "s3cret"

// fakeXC answers every XC call from fixed data and counts calls.
type fakeXC struct {
	mu      sync.Mutex
	calls   map[string]int
	fail    error
	authErr bool
}

func (f *fakeXC) hit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
	return f.fail
}

func (f *fakeXC) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeXC) SeriesCategories(context.Context) (json.RawMessage, error) {
	if err := f.hit("series_categories"); err != nil {
		return nil, err
	}
	return json.RawMessage(`[{"category_id":"10080","category_name":"Drama"},{"category_id":"7","category_name":"Kids"}]`), nil
}

func (f *fakeXC) Series(_ context.Context, cat string) (json.RawMessage, error) {
	if err := f.hit("series:" + cat); err != nil {
		return nil, err
	}
	return json.RawMessage(`[{"series_id":1,"category_id":"` + cat + `"}]`), nil
}

func (f *fakeXC) SeriesInfo(_ context.Context, id string) (json.RawMessage, error) {
	if err := f.hit("series_info:" + id); err != nil {
		return nil, err
	}
	return json.RawMessage(`{"info":{"name":"Dark"},"episodes":{}}`), nil
}

func (f *fakeXC) VODCategories(context.Context) (json.RawMessage, error) {
	if err := f.hit("vod_categories"); err != nil {
		return nil, err
	}
	return json.RawMessage(`[{"category_id":5,"category_name":"Action"}]`), nil
}

func (f *fakeXC) VODStreams(_ context.Context, cat string) (json.RawMessage, error) {
	if err := f.hit("vod_streams:" + cat); err != nil {
		return nil, err
	}
	return json.RawMessage(`[{"stream_id":9}]`), nil
}

func (f *fakeXC) VODInfo(_ context.Context, id string) (xc.VODInfo, error) {
	if err := f.hit("vod_info:" + id); err != nil {
		return nil, err
	}
	return xc.VODInfo(`{"info":{"tmdb_id":"603"},"movie_data":{"stream_id":` + id + `}}`), nil
}

func (f *fakeXC) AccountInfo(context.Context) (*xc.UserInfo, error) {
	if err := f.hit("account"); err != nil {
		return nil, err
	}
	if f.authErr {
		return nil, &upstream.AuthError{Provider: "xc", Message: "Authentication Error"}
	}
	return &xc.UserInfo{Auth: 1, Username: "demo", Status: "Active"}, nil
}

// fakeTMDB is the TMDB client double.
type fakeTMDB struct {
	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeTMDB) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeTMDB) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeTMDB) HasCredentials() bool { return true }

func (f *fakeTMDB) Movie(_ context.Context, id string) (*tmdb.Media, error) {
	f.hit("movie:" + id)
	return tmdb.EnrichMovie(&tmdb.Media{ID: 603, Title: "The Matrix"}), nil
}

func (f *fakeTMDB) Show(_ context.Context, id string) (*tmdb.Media, error) {
	f.hit("show:" + id)
	return &tmdb.Media{ID: 1399, Name: "Game of Thrones"}, nil
}

func (f *fakeTMDB) MovieLite(_ context.Context, id string) (*tmdb.Lite, error) {
	f.hit("movieLite:" + id)
	return &tmdb.Lite{TMDBID: id, MediaType: tmdb.KindMovie}, nil
}

func (f *fakeTMDB) ShowLite(_ context.Context, id string) (*tmdb.Lite, error) {
	f.hit("showLite:" + id)
	return &tmdb.Lite{TMDBID: id, MediaType: tmdb.KindTV}, nil
}

func (f *fakeTMDB) Genres(_ context.Context, kind tmdb.Kind) ([]tmdb.Genre, error) {
	f.hit("genres:" + string(kind))
	return []tmdb.Genre{{ID: 28, Name: "Action"}}, nil
}

func (f *fakeTMDB) Trending(_ context.Context, kind tmdb.Kind) ([]*tmdb.Media, error) {
	f.hit("trending:" + string(kind))
	return []*tmdb.Media{{ID: 1}}, nil
}

func (f *fakeTMDB) Discover(_ context.Context, kind tmdb.Kind, genres string, page int) (json.RawMessage, error) {
	f.hit("discover:" + string(kind) + ":" + genres)
	return json.RawMessage(`{"page":1,"results":[]}`), nil
}

type fixture struct {
	xc      *fakeXC
	tmdb    *fakeTMDB
	handler http.Handler
}

func newFixture(t *testing.T, adminToken string) *fixture {
	t.Helper()
	store, err := incremental.Open(incremental.Options{})
	if err != nil {
		t.Fatalf("incremental.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	backend := cache.NewMemoryBackend()
	opts := catalog.Options{Backend: backend, Incremental: store, TTL: time.Minute, TagInvalidation: true}
	x := &fakeXC{}
	tm := &fakeTMDB{}

	h := NewHandler(Deps{
		Series:  series.New(x, opts),
		Movies:  movies.New(x, opts),
		Account: account.New(x, account.Options{Backend: backend, Incremental: store, TTL: time.Minute, TagInvalidation: true}),
		TMDB: tmdbcache.New(tm, tmdbcache.Options{
			Backend: backend, Incremental: store, TTL: time.Minute, TagInvalidation: true,
		}),
		AdminToken: adminToken,
		Checks: []Check{
			{Name: "cache", Check: func(context.Context) error { return nil }},
		},
	})
	mw := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true, CORSAllowedOrigins: []string{"*"}})
	return &fixture{xc: x, tmdb: tm, handler: NewRouter(h, mw).SetupChi()}
}

func (f *fixture) do(t *testing.T, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func TestSeriesSingleCategory(t *testing.T) {
	f := newFixture(t, "")

	for i := 0; i < 2; i++ {
		rec := f.do(t, http.MethodGet, "/api/series?categories=10080", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		if got := rec.Header().Get("Cache-Control"); got != CDNCacheControl {
			t.Errorf("Cache-Control = %q", got)
		}
		if got := rec.Header().Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		var w catalog.Wrapper
		decode(t, rec, &w)
		if w.CategoryID != "10080" || w.CategoryName == nil || *w.CategoryName != "Drama" {
			t.Errorf("wrapper = %+v", w)
		}
	}
	if f.xc.count("series_categories") != 1 || f.xc.count("series:10080") != 1 {
		t.Errorf("upstream calls = %v, want one category list and one series list", f.xc.calls)
	}
}

func TestSeriesMultipleCategoriesKeepOrder(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodGet, "/api/series?categories=7,%20,10080,7", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	if i, j := strings.Index(body, `"7":`), strings.Index(body, `"10080":`); i < 0 || j < i {
		t.Errorf("body = %s, want keys 7 then 10080", body)
	}
	if f.xc.count("series:7") != 1 {
		t.Errorf("series:7 fetched %d times, want 1", f.xc.count("series:7"))
	}
}

func TestSeriesDefaultsToX(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodGet, "/api/series", "", nil)
	var w catalog.Wrapper
	decode(t, rec, &w)
	if w.CategoryID != "X" {
		t.Errorf("categoryId = %q, want X", w.CategoryID)
	}
	if rec := f.do(t, http.MethodGet, "/api/all-series", "", nil); rec.Code != http.StatusOK {
		t.Errorf("all-series status = %d", rec.Code)
	}
	if f.xc.count("series:X") != 1 {
		t.Errorf("series:X fetched %d times, want 1", f.xc.count("series:X"))
	}
}

func TestUpstreamFailureMessages(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/api/series", "Failed to fetch series information."},
		{"/api/series/categories", "Failed to fetch series categories."},
		{"/api/movies?categories=5", "Failed to fetch movies information."},
		{"/api/movies/categories", "Failed to fetch movie categories."},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			f := newFixture(t, "")
			f.xc.fail = errors.New("connection refused")
			rec := f.do(t, http.MethodGet, tt.target, "", nil)
			if rec.Code != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500", rec.Code)
			}
			var body ErrorResponse
			decode(t, rec, &body)
			if body.Error != tt.want {
				t.Errorf("error = %q, want %q", body.Error, tt.want)
			}
		})
	}
}

func TestUnconfiguredProviderIs503(t *testing.T) {
	f := newFixture(t, "")
	f.xc.fail = &upstream.ConfigError{Provider: "xc", Missing: []string{"XC_URL"}}
	rec := f.do(t, http.MethodGet, "/api/series/categories", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestInfoEndpointsRequireID(t *testing.T) {
	f := newFixture(t, "")
	for _, target := range []string{
		"/api/series/info", "/api/series/tmdb?id=%20", "/api/series/tmdb-lite",
		"/api/movies/info", "/api/movies/tmdb", "/api/movies/tmdb-lite?id=",
	} {
		rec := f.do(t, http.MethodGet, target, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", target, rec.Code)
		}
		var body ErrorResponse
		decode(t, rec, &body)
		if body.Error != msgMissingID {
			t.Errorf("%s error = %q", target, body.Error)
		}
	}
}

func TestInfoEndpoints(t *testing.T) {
	f := newFixture(t, "")
	tests := []struct {
		target string
		want   string
	}{
		{"/api/series/info?id=5", `"name":"Dark"`},
		{"/api/movies/info?id=9", `"stream_id":9`},
		{"/api/movies/tmdb?id=603", `"title":"The Matrix"`},
		{"/api/series/tmdb?id=1399", `"name":"Game of Thrones"`},
		{"/api/movies/tmdb-lite?id=603", `"tmdbId":"603"`},
		{"/api/series/tmdb-lite?id=1399", `"tmdbId":"1399"`},
	}
	for _, tt := range tests {
		rec := f.do(t, http.MethodGet, tt.target, "", nil)
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), tt.want) {
			t.Errorf("%s = %d %s, want body containing %s", tt.target, rec.Code, rec.Body, tt.want)
		}
	}
}

func TestAccount(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodGet, "/api/account", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"demo"`) {
		t.Errorf("account = %d %s", rec.Code, rec.Body)
	}

	f = newFixture(t, "")
	f.xc.authErr = true
	rec = f.do(t, http.MethodGet, "/api/account", "", nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	var body ErrorResponse
	decode(t, rec, &body)
	if body.Error != "Authentication Error" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestTMDBLists(t *testing.T) {
	f := newFixture(t, "")
	tests := []struct {
		target string
		code   int
		want   string
	}{
		{"/api/tmdb/genres/movie", http.StatusOK, `"genres":[{"id":28,"name":"Action"}]`},
		{"/api/tmdb/trending/tv", http.StatusOK, `"results":[`},
		{"/api/tmdb/discover/movie?genres=28&page=2", http.StatusOK, `"results":[]`},
		{"/api/tmdb/genres/anime", http.StatusNotFound, `"error"`},
		{"/api/tmdb/discover/tv?page=0", http.StatusBadRequest, `Invalid page parameter`},
	}
	for _, tt := range tests {
		rec := f.do(t, http.MethodGet, tt.target, "", nil)
		if rec.Code != tt.code || !strings.Contains(rec.Body.String(), tt.want) {
			t.Errorf("%s = %d %s, want %d containing %s", tt.target, rec.Code, rec.Body, tt.code, tt.want)
		}
	}
	if f.tmdb.count("discover:movie:28") != 1 {
		t.Errorf("discover calls = %v", f.tmdb.calls)
	}
}

func TestAdminAuth(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		header string
		code   int
		want   string
	}{
		{"not configured", "", testAdminToken, http.StatusInternalServerError, "ADMIN_TOKEN not configured on server"},
		{"missing header", testAdminToken, "", http.StatusUnauthorized, "Unauthorized"},
		{"wrong token", testAdminToken, "nope", http.StatusUnauthorized, "Unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.token)
			hdr := map[string]string{}
			if tt.header != "" {
				hdr[AdminTokenHeader] = tt.header
			}
			rec := f.do(t, http.MethodPost, "/api/admin/invalidate-series", `{"categoryId":"7"}`, hdr)
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
			var body ErrorResponse
			decode(t, rec, &body)
			if body.Error != tt.want {
				t.Errorf("error = %q, want %q", body.Error, tt.want)
			}
		})
	}
}

func TestInvalidateSeriesForcesRefetch(t *testing.T) {
	f := newFixture(t, testAdminToken)
	admin := map[string]string{AdminTokenHeader: testAdminToken}

	f.do(t, http.MethodGet, "/api/series?categories=7", "", nil)
	f.do(t, http.MethodGet, "/api/series?categories=10080", "", nil)

	rec := f.do(t, http.MethodPost, "/api/admin/invalidate-series", `{"categoryId":" 7 "}`, admin)
	var resp InvalidateResponse
	decode(t, rec, &resp)
	if rec.Code != http.StatusOK || resp.Invalidated != "7" {
		t.Fatalf("invalidate = %d %s", rec.Code, rec.Body)
	}

	f.do(t, http.MethodGet, "/api/series?categories=7", "", nil)
	f.do(t, http.MethodGet, "/api/series?categories=10080", "", nil)
	if got := f.xc.count("series:7"); got != 2 {
		t.Errorf("series:7 fetched %d times, want 2", got)
	}
	if got := f.xc.count("series:10080"); got != 1 {
		t.Errorf("series:10080 fetched %d times, want 1", got)
	}
}

func TestInvalidateBodies(t *testing.T) {
	admin := map[string]string{AdminTokenHeader: testAdminToken}
	tests := []struct {
		name   string
		target string
		body   string
		code   int
		want   string
	}{
		{"empty body", "/api/admin/invalidate-movies", "", http.StatusOK, `{"invalidated":"all"}`},
		{"malformed", "/api/admin/invalidate-series", `{"categoryId":`, http.StatusOK, `{"invalidated":"all"}`},
		{"non-string id", "/api/admin/invalidate-series", `{"categoryId":5}`, http.StatusOK, `{"invalidated":"all"}`},
		{"blank id", "/api/admin/invalidate-series", `{"categoryId":"  "}`, http.StatusOK, `{"invalidated":"all"}`},
		{"account", "/api/admin/invalidate-account", `{"categoryId":"7"}`, http.StatusOK, `{"invalidated":"all"}`},
		{"tmdb id", "/api/admin/invalidate-tmdb", `{"id":"603","kind":"movie"}`, http.StatusOK, `{"invalidated":"603"}`},
		{"tmdb bad kind", "/api/admin/invalidate-tmdb", `{"id":"603","kind":"anime"}`, http.StatusBadRequest, `"error"`},
		{"colon in id", "/api/admin/invalidate-series", `{"categoryId":"a:b"}`, http.StatusBadRequest, `"error"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testAdminToken)
			rec := f.do(t, http.MethodPost, tt.target, tt.body, admin)
			if rec.Code != tt.code || !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("= %d %s, want %d containing %s", rec.Code, rec.Body, tt.code, tt.want)
			}
		})
	}
}

func TestInvalidateTMDBForcesRefetch(t *testing.T) {
	f := newFixture(t, testAdminToken)
	admin := map[string]string{AdminTokenHeader: testAdminToken}

	f.do(t, http.MethodGet, "/api/movies/tmdb?id=603", "", nil)
	f.do(t, http.MethodPost, "/api/admin/invalidate-tmdb", `{"id":"603"}`, admin)
	f.do(t, http.MethodGet, "/api/movies/tmdb?id=603", "", nil)
	if got := f.tmdb.count("movie:603"); got != 2 {
		t.Errorf("movie:603 fetched %d times, want 2", got)
	}
}

func TestPages(t *testing.T) {
	f := newFixture(t, "")
	tests := []struct {
		target string
		hashes []string
	}{
		{"/pages/series", []string{`["series","categories"]`}},
		{"/pages/series/category/10080", []string{`["series","10080"]`, `["seriesBatch",["10080"]]`}},
		{"/pages/series/5", []string{`["seriesInfo","5"]`}},
		{"/pages/series/batch?categories=7,10080", []string{`["series","7"]`, `["series","10080"]`, `["seriesBatch",["10080","7"]]`}},
		{"/pages/movies", []string{`["movies","categories"]`}},
		{"/pages/movies/category/5", []string{`["movies","5"]`, `["moviesBatch",["5"]]`}},
		{"/pages/movies/9", []string{`["movieInfo","9"]`, `["tmdbMovieInfo","603"]`}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.target, "", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			if got := rec.Header().Get("Cache-Control"); got != "no-store" {
				t.Errorf("Cache-Control = %q, want no-store", got)
			}
			var page struct {
				TMDBID          string `json:"tmdbId"`
				DehydratedState *struct {
					Queries []struct {
						QueryHash string `json:"queryHash"`
					} `json:"queries"`
				} `json:"dehydratedState"`
			}
			decode(t, rec, &page)
			if page.DehydratedState == nil {
				t.Fatal("dehydratedState = null")
			}
			var got []string
			for _, q := range page.DehydratedState.Queries {
				got = append(got, q.QueryHash)
			}
			if strings.Join(got, " ") != strings.Join(tt.hashes, " ") {
				t.Errorf("hashes = %v, want %v", got, tt.hashes)
			}
			if strings.HasPrefix(tt.target, "/pages/movies/9") && page.TMDBID != "603" {
				t.Errorf("tmdbId = %q, want 603", page.TMDBID)
			}
		})
	}
}

func TestPageBlankIDIs404(t *testing.T) {
	f := newFixture(t, "")
	for _, target := range []string{"/pages/series/category/%20", "/pages/movies/%20", "/pages/series/category/"} {
		if rec := f.do(t, http.MethodGet, target, "", nil); rec.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", target, rec.Code)
		}
	}
}

func TestPageFailureFallsBackToNullState(t *testing.T) {
	f := newFixture(t, "")
	f.xc.fail = errors.New("xc down")
	rec := f.do(t, http.MethodGet, "/pages/series/category/7", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even when hydration fails", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"dehydratedState":null`) {
		t.Errorf("body = %s, want null dehydratedState", rec.Body)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, "")
	if rec := f.do(t, http.MethodGet, "/health/live", "", nil); rec.Code != http.StatusOK {
		t.Errorf("live = %d", rec.Code)
	}
	rec := f.do(t, http.MethodGet, "/health/ready", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"cache":"ok"`) {
		t.Errorf("ready = %d %s", rec.Code, rec.Body)
	}
}

func TestHealthReadyFailingCheck(t *testing.T) {
	h := NewHandler(Deps{Checks: []Check{
		{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	}})
	rec := httptest.NewRecorder()
	h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"redis":"connection refused"`) {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestRequestIDAndMetricsRoutes(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodGet, "/health/live", "", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID missing")
	}
	rec = f.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Errorf("metrics = %d", rec.Code)
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodGet, "/api/nope", "", nil)
	if rec.Code != http.StatusNotFound || rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("= %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
}
