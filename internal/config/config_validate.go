// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package config

import (
	"fmt"
	"strings"

	"github.com/Chapster87/prometheus/internal/validation"
)

// Validate checks struct rules first, then cross-field rules.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateSecurity()
}

func (c *Config) validateCache() error {
	if strings.EqualFold(strings.TrimSpace(c.Cache.Backend), "redis") && c.Cache.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND=redis")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if !c.Security.RateLimitDisabled && c.Security.RateLimitRequests > 0 && c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when RATE_LIMIT_REQUESTS is set")
	}
	return nil
}

// XCConfigured reports whether the XC provider base URL and credentials are all set.
func (c *Config) XCConfigured() bool {
	return c.XC.URL != "" && c.XC.Username != "" && c.XC.Password != ""
}
