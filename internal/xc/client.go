// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

/*
Package xc is the client for the Xtream-Codes style content API.

Every call is a GET against {baseURL}/player_api.php with the account
credentials and an action in the query string. Responses are not cached here;
caching is layered on by the family services.

Client features:
  - Fails fast with *upstream.ConfigError when the URL or credentials are
    missing
  - Circuit breaker per client
  - Per-request timeout
  - Cache-Control: no-store on every request
*/
package xc

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/upstream"
)

const provider = "xc"

// Actions understood by player_api.php.
const (
	ActionSeriesCategories = "get_series_categories"
	ActionSeries           = "get_series"
	ActionSeriesInfo       = "get_series_info"
	ActionVODCategories    = "get_vod_categories"
	ActionVODStreams       = "get_vod_streams"
	ActionVODInfo          = "get_vod_info"
)

// ErrMissingID is returned for info lookups without an id.
var ErrMissingID = errors.New("xc: id not defined")

// Config configures a Client.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
	// Breaker guards every call. Nil disables the breaker.
	Breaker *upstream.Breaker
}

// Client talks to one XC panel.
type Client struct {
	baseURL  string
	username string
	password string
	timeout  time.Duration
	http     *http.Client
	breaker  *upstream.Breaker
}

// New creates a client. It does not validate cfg; missing settings surface
// as *upstream.ConfigError on the first call.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		timeout:  cfg.Timeout,
		http:     hc,
		breaker:  cfg.Breaker,
	}
}

// Configured reports whether the URL and credentials are all set.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.username != "" && c.password != ""
}

func (c *Client) checkConfig() error {
	var missing []string
	if c.baseURL == "" {
		missing = append(missing, "XC_URL")
	}
	if c.username == "" {
		missing = append(missing, "XC_USERNAME")
	}
	if c.password == "" {
		missing = append(missing, "XC_PASSWORD")
	}
	if len(missing) > 0 {
		return &upstream.ConfigError{Provider: provider, Missing: missing}
	}
	return nil
}

// buildURL encodes the credentials, the action and every non-empty extra
// parameter. An empty action is omitted (account lookup).
func (c *Client) buildURL(action string, extra map[string]string) string {
	params := url.Values{}
	params.Set("username", c.username)
	params.Set("password", c.password)
	if action != "" {
		params.Set("action", action)
	}
	for k, v := range extra {
		if v != "" {
			params.Set(k, v)
		}
	}
	return c.baseURL + "/player_api.php?" + params.Encode()
}

func (c *Client) fetch(ctx context.Context, action string, extra map[string]string, out any) error {
	if err := c.checkConfig(); err != nil {
		return err
	}
	req := upstream.Request{
		Provider: provider,
		URL:      c.buildURL(action, extra),
		Header:   http.Header{"Cache-Control": []string{"no-store"}},
		Timeout:  c.timeout,
	}
	_, err := upstream.Execute(c.breaker, func() (struct{}, error) {
		return struct{}{}, upstream.Do(ctx, c.http, req, out)
	})
	return err
}

func (c *Client) fetchRaw(ctx context.Context, action string, extra map[string]string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.fetch(ctx, action, extra, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// AccountInfo returns the user_info block. A panel answering with
// auth == 0 yields an *upstream.AuthError.
func (c *Client) AccountInfo(ctx context.Context) (*UserInfo, error) {
	var resp accountResponse
	if err := c.fetch(ctx, "", nil, &resp); err != nil {
		return nil, err
	}
	if resp.UserInfo == nil {
		return nil, &upstream.AuthError{Provider: provider, Message: "response has no user_info"}
	}
	if resp.UserInfo.Auth == 0 {
		return nil, &upstream.AuthError{Provider: provider, Message: "Authentication Error"}
	}
	return resp.UserInfo, nil
}

// SeriesCategories lists series categories.
func (c *Client) SeriesCategories(ctx context.Context) (json.RawMessage, error) {
	return c.fetchRaw(ctx, ActionSeriesCategories, nil)
}

// Series lists the series in a category. The panel's meaning of the default
// category "X" is passed through untouched.
func (c *Client) Series(ctx context.Context, categoryID string) (json.RawMessage, error) {
	return c.fetchRaw(ctx, ActionSeries, map[string]string{"category_id": categoryID})
}

// SeriesInfo returns the seasons and episodes of one series.
func (c *Client) SeriesInfo(ctx context.Context, seriesID string) (json.RawMessage, error) {
	if seriesID == "" {
		return nil, ErrMissingID
	}
	return c.fetchRaw(ctx, ActionSeriesInfo, map[string]string{"series_id": seriesID})
}

// VODCategories lists movie categories.
func (c *Client) VODCategories(ctx context.Context) (json.RawMessage, error) {
	return c.fetchRaw(ctx, ActionVODCategories, nil)
}

// VODStreams lists the movies in a category.
func (c *Client) VODStreams(ctx context.Context, categoryID string) (json.RawMessage, error) {
	return c.fetchRaw(ctx, ActionVODStreams, map[string]string{"category_id": categoryID})
}

// VODInfo returns the detail payload of one movie.
func (c *Client) VODInfo(ctx context.Context, vodID string) (VODInfo, error) {
	if vodID == "" {
		return nil, ErrMissingID
	}
	var info VODInfo
	if err := c.fetch(ctx, ActionVODInfo, map[string]string{"vod_id": vodID}, &info); err != nil {
		return nil, err
	}
	return info, nil
}
