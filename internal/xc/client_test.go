// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package xc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/upstream"
)

// fakePanel serves player_api.php and records the last query.
type fakePanel struct {
	*httptest.Server
	calls     atomic.Int32
	lastQuery atomic.Value
}

func newFakePanel(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *fakePanel {
	t.Helper()
	p := &fakePanel{}
	p.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.calls.Add(1)
		p.lastQuery.Store(r.URL.Query())
		if r.URL.Path != "/player_api.php" {
			t.Errorf("path = %q, want /player_api.php", r.URL.Path)
		}
		if r.Header.Get("Cache-Control") != "no-store" {
			t.Errorf("Cache-Control = %q, want no-store", r.Header.Get("Cache-Control"))
		}
		handler(w, r)
	}))
	t.Cleanup(p.Close)
	return p
}

func (p *fakePanel) client() *Client {
	return New(Config{BaseURL: p.URL + "/", Username: "alice", Password: "s3cret", HTTPClient: p.Client()})
}

func TestClientBuildsQuery(t *testing.T) {
	p := newFakePanel(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	c := p.client()

	if _, err := c.Series(context.Background(), "10080"); err != nil {
		t.Fatalf("Series() error = %v", err)
	}
	q := p.lastQuery.Load().(url.Values)
	want := map[string]string{"username": "alice", "password": "s3cret", "action": "get_series", "category_id": "10080"}
	for k, v := range want {
		if got := q[k]; len(got) != 1 || got[0] != v {
			t.Errorf("query[%s] = %v, want %q", k, got, v)
		}
	}
}

func TestClientOmitsEmptyParams(t *testing.T) {
	p := newFakePanel(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	c := p.client()

	if _, err := c.VODStreams(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	q := p.lastQuery.Load().(url.Values)
	if _, ok := q["category_id"]; ok {
		t.Error("empty category_id was sent")
	}
}

func TestClientActions(t *testing.T) {
	p := newFakePanel(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	c := p.client()
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		action string
	}{
		{"series categories", func() error { _, err := c.SeriesCategories(ctx); return err }, ActionSeriesCategories},
		{"series info", func() error { _, err := c.SeriesInfo(ctx, "7"); return err }, ActionSeriesInfo},
		{"vod categories", func() error { _, err := c.VODCategories(ctx); return err }, ActionVODCategories},
		{"vod info", func() error { _, err := c.VODInfo(ctx, "9"); return err }, ActionVODInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("error = %v", err)
			}
			q := p.lastQuery.Load().(url.Values)
			if got := q["action"]; len(got) != 1 || got[0] != tt.action {
				t.Errorf("action = %v, want %s", got, tt.action)
			}
		})
	}
}

func TestClientMissingConfig(t *testing.T) {
	c := New(Config{BaseURL: "http://panel.example"})
	_, err := c.SeriesCategories(context.Background())
	var cfgErr *upstream.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *upstream.ConfigError", err)
	}
	if len(cfgErr.Missing) != 2 {
		t.Errorf("Missing = %v, want username and password", cfgErr.Missing)
	}
	if c.Configured() {
		t.Error("Configured() = true")
	}
}

func TestClientInfoRequiresID(t *testing.T) {
	p := newFakePanel(t, func(w http.ResponseWriter, r *http.Request) {})
	c := p.client()

	if _, err := c.SeriesInfo(context.Background(), ""); !errors.Is(err, ErrMissingID) {
		t.Errorf("SeriesInfo(\"\") error = %v, want ErrMissingID", err)
	}
	if _, err := c.VODInfo(context.Background(), ""); !errors.Is(err, ErrMissingID) {
		t.Errorf("VODInfo(\"\") error = %v, want ErrMissingID", err)
	}
	if p.calls.Load() != 0 {
		t.Errorf("panel calls = %d, want 0", p.calls.Load())
	}
}

func TestAccountInfo(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantAuth bool
	}{
		{"active", `{"user_info":{"auth":1,"username":"alice","status":"Active","max_connections":"2"}}`, false},
		{"disabled", `{"user_info":{"auth":0}}`, true},
		{"string auth disabled", `{"user_info":{"auth":"0"}}`, true},
		{"no user info", `{}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakePanel(t, func(w http.ResponseWriter, r *http.Request) {
				if _, ok := r.URL.Query()["action"]; ok {
					t.Error("account lookup sent an action")
				}
				_, _ = w.Write([]byte(tt.body))
			})
			info, err := p.client().AccountInfo(context.Background())
			if tt.wantAuth {
				if !errors.Is(err, upstream.ErrAuthentication) {
					t.Fatalf("AccountInfo() error = %v, want ErrAuthentication", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("AccountInfo() error = %v", err)
			}
			if info.Username != "alice" {
				t.Errorf("Username = %q, want alice", info.Username)
			}
			out, _ := json.Marshal(info)
			var round map[string]any
			_ = json.Unmarshal(out, &round)
			if round["max_connections"] != "2" {
				t.Errorf("unknown fields not preserved: %s", out)
			}
		})
	}
}

func TestClientHTTPErrorPropagates(t *testing.T) {
	p := newFakePanel(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := p.client().SeriesCategories(context.Background())
	var he *upstream.HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusServiceUnavailable {
		t.Errorf("error = %v, want 503 HTTPError", err)
	}
}

func TestFindCategoryName(t *testing.T) {
	cats := json.RawMessage(`[{"category_id":"1","category_name":"News","parent_id":0},{"category_id":10080,"category_name":"Drama","parent_id":"0"}]`)

	if got := FindCategoryName(cats, "10080"); got == nil || *got != "Drama" {
		t.Errorf("FindCategoryName(10080) = %v, want Drama", got)
	}
	if got := FindCategoryName(cats, "1"); got == nil || *got != "News" {
		t.Errorf("FindCategoryName(1) = %v, want News", got)
	}
	if got := FindCategoryName(cats, "999"); got != nil {
		t.Errorf("FindCategoryName(999) = %q, want nil", *got)
	}
	if got := FindCategoryName(json.RawMessage(`{"error":"x"}`), "1"); got != nil {
		t.Error("FindCategoryName on non-array returned a name")
	}
}

func TestVODInfoTMDBID(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"info":{"tmdb_id":603}}`, "603"},
		{`{"info":{"tmdb_id":" 603 "}}`, "603"},
		{`{"info":{"tmdb_id":""}}`, ""},
		{`{"info":{}}`, ""},
		{`{"info":[]}`, ""},
		{`[]`, ""},
	}
	for _, tt := range tests {
		if got := VODInfo(tt.body).TMDBID(); got != tt.want {
			t.Errorf("TMDBID(%s) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestVODInfoRoundTripsVerbatim(t *testing.T) {
	in := `{"info":{"tmdb_id":603,"name":"The Matrix"},"movie_data":{"stream_id":9}}`
	var v VODInfo
	if err := json.Unmarshal([]byte(in), &v); err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != in {
		t.Errorf("Marshal() = %s, want %s", out, in)
	}
}
