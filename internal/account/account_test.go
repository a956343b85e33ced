// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Chapster87/prometheus/internal/cache"
	"github.com/Chapster87/prometheus/internal/upstream"
	"github.com/Chapster87/prometheus/internal/xc"
)

type fakeAccount struct {
	calls int
	err   error
}

func (f *fakeAccount) AccountInfo(context.Context) (*xc.UserInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &xc.UserInfo{Auth: 1, Username: "alice", Status: "Active"}, nil
}

func TestAccountCachedUnderInfoKey(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemoryBackend()
	src := &fakeAccount{}
	s := New(src, Options{Backend: backend, TTL: time.Minute, Disabled: true})

	for i := 0; i < 2; i++ {
		info, err := s.Get(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if info.Username != "alice" {
			t.Errorf("Username = %q", info.Username)
		}
	}
	if src.calls != 1 {
		t.Errorf("AccountInfo calls = %d, want 1", src.calls)
	}
	if _, ok, _ := backend.Get(ctx, "account:info"); !ok {
		t.Error("account:info not stored")
	}

	if err := s.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Raw(ctx); err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Errorf("AccountInfo calls = %d after invalidation, want 2", src.calls)
	}
}

func TestAccountAuthErrorNotCached(t *testing.T) {
	ctx := context.Background()
	src := &fakeAccount{err: &upstream.AuthError{Provider: "xc"}}
	s := New(src, Options{Backend: cache.NewMemoryBackend(), TTL: time.Minute})

	if _, err := s.Get(ctx); !errors.Is(err, upstream.ErrAuthentication) {
		t.Fatalf("Get() error = %v, want ErrAuthentication", err)
	}
	src.err = nil
	if _, err := s.Get(ctx); err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Errorf("AccountInfo calls = %d, want 2", src.calls)
	}
}
