// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/metrics"
)

// DefaultTimeout bounds a single upstream call when no timeout is set.
const DefaultTimeout = 15 * time.Second

// maxErrorBodySize limits how much of an error response is kept.
const maxErrorBodySize = 64 * 1024

// Request describes one GET against a provider.
type Request struct {
	Provider string
	URL      string
	Header   http.Header
	Timeout  time.Duration
}

// Do executes r and decodes the JSON body into out. A nil out discards the
// body. Non-2xx responses become *HTTPError.
func Do(ctx context.Context, client *http.Client, r Request, out any) error {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: create request failed: %w", r.Provider, err)
	}
	for k, vals := range r.Header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		metrics.RecordUpstream(r.Provider, 0, time.Since(start))
		return fmt.Errorf("%s: request failed: %w", r.Provider, err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstream(r.Provider, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{
			Provider: r.Provider,
			Status:   resp.StatusCode,
			Body:     string(readBodyForError(resp.Body)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", r.Provider, err)
	}
	return nil
}

// readBodyForError reads at most maxErrorBodySize bytes of r.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
