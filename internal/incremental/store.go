// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

// Package incremental implements the tag based incremental cache that sits in
// front of the process cache tier.
//
// Each entry is stored with the revision of every tag it carries. Firing a
// tag (RevalidateTag) bumps that tag's revision, which makes every entry
// carrying it stale on its next read; nothing is deleted eagerly. Entries
// also go stale once they are older than the revalidate window given to Wrap.
//
// Values larger than MaxEntryBytes are returned to the caller but never
// stored, which keeps single artifacts under the size ceiling of the
// platform cache this layer stands in for.
//
// Storage is BadgerDB, on disk when a path is configured and in memory
// otherwise.
package incremental

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/Chapster87/prometheus/internal/logging"
	"github.com/Chapster87/prometheus/internal/metrics"
)

// DefaultMaxEntryBytes is the per-entry size ceiling (2 MiB).
const DefaultMaxEntryBytes = 2 * 1024 * 1024

const (
	entryPrefix = "entry:"
	tagPrefix   = "tag:"

	conflictRetries = 5
	gcInterval      = 10 * time.Minute
)

// Options configures a Store.
type Options struct {
	// Path is the Badger directory. Empty opens an in-memory database.
	Path string

	// MaxEntryBytes caps stored values. 0 means DefaultMaxEntryBytes.
	MaxEntryBytes int

	// Clock replaces time.Now for freshness checks.
	Clock func() time.Time
}

// Store is a Badger-backed incremental cache.
type Store struct {
	db       *badger.DB
	maxEntry int
	now      func() time.Time
}

type record struct {
	StoredAt time.Time         `json:"stored_at"`
	Tags     map[string]uint64 `json:"tags"`
	Value    []byte            `json:"value"`
}

// Open opens (or creates) the store described by opts.
func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.Path == "" {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open incremental cache: %w", err)
	}

	s := &Store{db: db, maxEntry: opts.MaxEntryBytes, now: opts.Clock}
	if s.maxEntry <= 0 {
		s.maxEntry = DefaultMaxEntryBytes
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Wrap returns the stored value for keyParts when it is fresh, otherwise it
// calls load, stores the result under tags and returns it.
//
// An entry is fresh when it is younger than revalidate (a non-positive
// revalidate disables time based expiry) and none of its tags has been
// revalidated since it was stored. Tag revisions are sampled before load
// runs, so a revalidation that races with load leaves the new entry stale.
//
// Storage failures never fail the call: read errors fall through to load
// and write errors are logged.
func (s *Store) Wrap(
	ctx context.Context,
	keyParts, tags []string,
	revalidate time.Duration,
	load func(context.Context) ([]byte, error),
) ([]byte, error) {
	key := entryKey(keyParts)
	log := logging.Ctx(ctx)

	rec, found, err := s.read(key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("incremental read failed")
	}
	if found {
		if s.fresh(rec, revalidate) {
			metrics.IncrementalResults.WithLabelValues("hit").Inc()
			return rec.Value, nil
		}
		metrics.IncrementalResults.WithLabelValues("stale").Inc()
	} else {
		metrics.IncrementalResults.WithLabelValues("miss").Inc()
	}

	revs, err := s.revisions(tags)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("incremental tag read failed")
	}

	value, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if len(value) > s.maxEntry {
		metrics.IncrementalResults.WithLabelValues("oversize").Inc()
		log.Warn().Str("key", key).Int("bytes", len(value)).Int("limit", s.maxEntry).
			Msg("value exceeds incremental cache ceiling, not stored")
		return value, nil
	}
	if revs == nil {
		// Without a consistent tag snapshot the entry could outlive a
		// revalidation, so it is not stored.
		return value, nil
	}

	if err := s.write(key, record{StoredAt: s.now(), Tags: revs, Value: value}, revalidate); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("incremental write failed")
	}
	return value, nil
}

// RevalidateTag marks every entry carrying tag as stale.
func (s *Store) RevalidateTag(_ context.Context, tag string) error {
	key := []byte(tagPrefix + tag)
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			rev, err := readRevision(txn, key)
			if err != nil {
				return err
			}
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, rev+1)
			return txn.Set(key, buf)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("revalidate tag %s: %w", tag, err)
	}
	return nil
}

// Serve runs Badger value log GC until ctx is done. It lets the store run
// as a supervised service.
func (s *Store) Serve(ctx context.Context) error {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.collectGarbage()
		}
	}
}

// String names the store in supervisor logs.
func (s *Store) String() string { return "incremental-cache" }

func (s *Store) collectGarbage() {
	for {
		// RunValueLogGC returns ErrNoRewrite once nothing is left to reclaim.
		if err := s.db.RunValueLogGC(0.5); err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrGCInMemoryMode) {
				logging.Warn().Err(err).Msg("incremental cache gc failed")
			}
			return
		}
	}
}

func (s *Store) fresh(rec record, revalidate time.Duration) bool {
	if revalidate > 0 && s.now().Sub(rec.StoredAt) >= revalidate {
		return false
	}
	current, err := s.revisions(mapKeys(rec.Tags))
	if err != nil {
		return false
	}
	for tag, rev := range rec.Tags {
		if current[tag] != rev {
			return false
		}
	}
	return true
}

func (s *Store) read(key string) (record, bool, error) {
	var rec record
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &rec); err != nil {
				return err
			}
			found = true
			return nil
		})
	})
	return rec, found, err
}

func (s *Store) write(key string, rec record, revalidate time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if revalidate > 0 {
			e = e.WithTTL(revalidate)
		}
		return txn.SetEntry(e)
	})
}

// revisions reads the current revision of every tag in one transaction.
// Tags that were never revalidated are at revision 0.
func (s *Store) revisions(tags []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(tags))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, tag := range tags {
			rev, err := readRevision(txn, []byte(tagPrefix+tag))
			if err != nil {
				return err
			}
			out[tag] = rev
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func readRevision(txn *badger.Txn, key []byte) (uint64, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var rev uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt tag revision for %s", key)
		}
		rev = binary.BigEndian.Uint64(val)
		return nil
	})
	return rev, err
}

func entryKey(parts []string) string {
	b := []byte(entryPrefix)
	for i, p := range parts {
		if i > 0 {
			b = append(b, 0)
		}
		b = append(b, p...)
	}
	return string(b)
}

func mapKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
