// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

// Package upstream holds the plumbing shared by the XC and TMDB clients:
// request execution with a per-call timeout, the error taxonomy and a
// circuit breaker per provider.
//
// Nothing in this package retries. IsRetryable only classifies an error so
// callers can decide.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrAuthentication is the sentinel wrapped by every *AuthError.
var ErrAuthentication = errors.New("authentication failed")

// ErrCircuitOpen is returned while a provider's breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// HTTPError is a non-2xx response from a provider.
type HTTPError struct {
	Provider string
	Status   int
	Body     string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: request failed with status %d", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s: request failed with status %d: %s", e.Provider, e.Status, e.Body)
}

// AuthError reports a provider that answered but refused the credentials,
// e.g. an XC user_info block with auth == 0.
type AuthError struct {
	Provider string
	Message  string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Provider, ErrAuthentication)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, ErrAuthentication, e.Message)
}

func (e *AuthError) Unwrap() error { return ErrAuthentication }

// ConfigError reports settings a provider needs but does not have.
type ConfigError struct {
	Provider string
	Missing  []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not configured: missing %s", e.Provider, strings.Join(e.Missing, ", "))
}

// IsAuth reports whether err is an authentication failure. Non-2xx 401 and
// 403 responses count as well as explicit *AuthError values.
func IsAuth(err error) bool {
	if errors.Is(err, ErrAuthentication) {
		return true
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status == http.StatusUnauthorized || he.Status == http.StatusForbidden
	}
	return false
}

// IsRetryable reports whether err is transient: timeouts, an open breaker,
// 429 and 5xx responses. Auth, config and other 4xx errors are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) || errors.Is(err, ErrAuthentication) {
		return false
	}

	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status == http.StatusTooManyRequests || he.Status >= 500
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}
