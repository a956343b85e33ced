// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package tiered

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Ordered is a string keyed map that iterates and encodes in insertion order.
type Ordered[T any] struct {
	keys   []string
	values map[string]T
}

// NewOrdered returns an empty map with room for n keys.
func NewOrdered[T any](n int) *Ordered[T] {
	return &Ordered[T]{keys: make([]string, 0, n), values: make(map[string]T, n)}
}

// Set stores v under k. A new key goes last; an existing key keeps its place.
func (o *Ordered[T]) Set(k string, v T) {
	if _, ok := o.values[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.values[k] = v
}

// Get returns the value under k.
func (o *Ordered[T]) Get(k string) (T, bool) {
	v, ok := o.values[k]
	return v, ok
}

// Keys returns the keys in order.
func (o *Ordered[T]) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of keys.
func (o *Ordered[T]) Len() int { return len(o.keys) }

// MarshalJSON encodes o as a JSON object with keys in order.
func (o *Ordered[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
