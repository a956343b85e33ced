// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

// Package tmdb is the client for The Movie Database v3 API together with the
// enrichment applied to its movie and show payloads.
//
// Authentication prefers the v4 read access token (bearer) and falls back to
// the v3 api_key query parameter. Requests are rate limited client side.
package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Chapster87/prometheus/internal/logging"
	"github.com/Chapster87/prometheus/internal/upstream"
)

const (
	provider = "tmdb"

	// DefaultBaseURL is the public v3 endpoint.
	DefaultBaseURL = "https://api.themoviedb.org/3"

	language = "en-US"

	// groupConcurrency bounds parallel per-id fetches in group lookups.
	groupConcurrency = 4
)

// Config configures a Client.
type Config struct {
	BaseURL         string
	ReadAccessToken string
	APIKey          string
	Timeout         time.Duration

	// RateLimit is requests per second; 0 disables limiting.
	RateLimit float64
	RateBurst int

	HTTPClient *http.Client
	Breaker    *upstream.Breaker
}

// Client talks to TMDB.
type Client struct {
	baseURL string
	bearer  string
	apiKey  string
	timeout time.Duration
	http    *http.Client
	breaker *upstream.Breaker
	limiter *rate.Limiter
}

// New creates a client. Missing credentials surface as
// *upstream.ConfigError on the first call.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	c := &Client{
		baseURL: base,
		bearer:  cfg.ReadAccessToken,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		http:    hc,
		breaker: cfg.Breaker,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// HasCredentials reports whether a token or API key is configured.
func (c *Client) HasCredentials() bool {
	return c.bearer != "" || c.apiKey != ""
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if !c.HasCredentials() {
		return &upstream.ConfigError{
			Provider: provider,
			Missing:  []string{"TMDB_API_READ_ACCESS_TOKEN or TMDB_API_KEY"},
		}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("tmdb: rate limiter: %w", err)
		}
	}

	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("language", language)
	header := http.Header{"Accept": []string{"application/json"}}
	if c.bearer != "" {
		header.Set("Authorization", "Bearer "+c.bearer)
	} else {
		q.Set("api_key", c.apiKey)
	}

	req := upstream.Request{
		Provider: provider,
		URL:      c.baseURL + path + "?" + q.Encode(),
		Header:   header,
		Timeout:  c.timeout,
	}
	_, err := upstream.Execute(c.breaker, func() (struct{}, error) {
		return struct{}{}, upstream.Do(ctx, c.http, req, out)
	})
	return err
}

func (c *Client) media(ctx context.Context, kind Kind, id, appends string) (*Media, error) {
	var m Media
	err := c.get(ctx, "/"+string(kind)+"/"+url.PathEscape(id), url.Values{"append_to_response": {appends}}, &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Movie fetches a movie with release dates, providers, videos and images,
// and enriches it.
func (c *Client) Movie(ctx context.Context, id string) (*Media, error) {
	m, err := c.media(ctx, KindMovie, id, "release_dates,watch/providers,videos,images")
	if err != nil {
		return nil, err
	}
	return EnrichMovie(m), nil
}

// Show fetches a show with content ratings, providers, videos and images,
// and enriches it including every season's episodes.
func (c *Client) Show(ctx context.Context, id string) (*Media, error) {
	m, err := c.media(ctx, KindTV, id, "content_ratings,watch/providers,videos,images")
	if err != nil {
		return nil, err
	}
	return EnrichShow(ctx, c, m)
}

// MovieLite fetches the card payload of a movie.
func (c *Client) MovieLite(ctx context.Context, id string) (*Lite, error) {
	m, err := c.media(ctx, KindMovie, id, "release_dates")
	if err != nil {
		return nil, err
	}
	return ToLite(m, id, KindMovie), nil
}

// ShowLite fetches the card payload of a show.
func (c *Client) ShowLite(ctx context.Context, id string) (*Lite, error) {
	m, err := c.media(ctx, KindTV, id, "content_ratings")
	if err != nil {
		return nil, err
	}
	return ToLite(m, id, KindTV), nil
}

// Season fetches one season of a show.
func (c *Client) Season(ctx context.Context, showID string, number int) (*SeasonDetail, error) {
	var s SeasonDetail
	path := "/tv/" + url.PathEscape(showID) + "/season/" + strconv.Itoa(number)
	if err := c.get(ctx, path, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Genres lists the genres of kind. A response without a genre list yields
// an empty slice.
func (c *Client) Genres(ctx context.Context, kind Kind) ([]Genre, error) {
	var resp struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.get(ctx, "/genre/"+string(kind)+"/list", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Genres == nil {
		return []Genre{}, nil
	}
	return resp.Genres, nil
}

// Discover runs a popularity sorted discover query for comma separated
// genre ids. The response is returned verbatim.
func (c *Client) Discover(ctx context.Context, kind Kind, genreIDs string, page int) (json.RawMessage, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{
		"include_adult":          {"false"},
		"include_video":          {"false"},
		"page":                   {strconv.Itoa(page)},
		"sort_by":                {"popularity.desc"},
		"with_original_language": {"en"},
	}
	if genreIDs != "" {
		q.Set("with_genres", genreIDs)
	}
	var raw json.RawMessage
	if err := c.get(ctx, "/discover/"+string(kind), q, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Trending returns this week's trending titles of kind, fully fetched.
func (c *Client) Trending(ctx context.Context, kind Kind) ([]*Media, error) {
	var resp struct {
		Results []struct {
			ID int `json:"id"`
		} `json:"results"`
	}
	if err := c.get(ctx, "/trending/"+string(kind)+"/week", nil, &resp); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, strconv.Itoa(r.ID))
	}
	return c.Group(ctx, kind, ids), nil
}

// Group fetches every id of kind. Failed ids are logged and left out; the
// order of the rest is kept.
func (c *Client) Group(ctx context.Context, kind Kind, ids []string) []*Media {
	fetched := make([]*Media, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(groupConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			var m *Media
			var err error
			if kind == KindMovie {
				m, err = c.Movie(gctx, id)
			} else {
				m, err = c.Show(gctx, id)
			}
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("kind", string(kind)).Str("tmdb_id", id).Msg("tmdb fetch failed, skipping")
				return nil
			}
			fetched[i] = m
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*Media, 0, len(ids))
	for _, m := range fetched {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
