// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package cache

import "strings"

// BuildKey joins the non-empty parts with ":".
//
// Empty parts are dropped rather than replaced by a placeholder, so
// BuildKey("series", "") and BuildKey("series") collide on purpose.
func BuildKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ":")
}
