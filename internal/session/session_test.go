// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/homeview360/homeview/internal/storage"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestManager(t *testing.T, store storage.Store) *Manager {
	t.Helper()
	return NewManager(store, zerolog.Nop(), WithClock(func() time.Time { return fixedNow }))
}

// brokenStore fails every operation.
type brokenStore struct{ err error }

func (b brokenStore) Get(context.Context, string) ([]byte, error) { return nil, b.err }
func (b brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return b.err
}
func (b brokenStore) Delete(context.Context, string) error { return b.err }
func (b brokenStore) Close() error                         { return nil }

func TestGetOrCreateSessionID_Format(t *testing.T) {
	m := newTestManager(t, storage.NewMemoryStore())
	id := m.GetOrCreateSessionID(context.Background())

	if !ValidID(id) {
		t.Fatalf("GetOrCreateSessionID() = %q, not a valid id", id)
	}
	wantPrefix := "session_1773480413000_"
	if !strings.HasPrefix(id, wantPrefix) {
		t.Errorf("id = %q, want prefix %q", id, wantPrefix)
	}
	if suffix := strings.TrimPrefix(id, wantPrefix); len(suffix) != 9 {
		t.Errorf("suffix %q has length %d, want 9", suffix, len(suffix))
	}
}

func TestGetOrCreateSessionID_Idempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	first := newTestManager(t, store).GetOrCreateSessionID(ctx)
	for i := 0; i < 5; i++ {
		// A fresh manager over the same storage models a page reload.
		if got := newTestManager(t, store).GetOrCreateSessionID(ctx); got != first {
			t.Fatalf("call %d returned %q, want %q", i, got, first)
		}
	}
}

func TestGetOrCreateSessionID_PersistsWithTTL(t *testing.T) {
	now := fixedNow
	store := storage.NewMemoryStore().WithClock(func() time.Time { return now })
	m := newTestManager(t, store)
	ctx := context.Background()

	id := m.GetOrCreateSessionID(ctx)
	raw, err := store.Get(ctx, DefaultKey)
	if err != nil || string(raw) != id {
		t.Fatalf("stored value = %q, %v; want %q", raw, err, id)
	}

	now = now.Add(DefaultTTL)
	if _, err := store.Get(ctx, DefaultKey); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("identifier still present after 365 days: %v", err)
	}
}

func TestGetOrCreateSessionID_ReplacesMalformed(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	_ = store.Set(ctx, DefaultKey, []byte("not-a-session"), 0)

	id := newTestManager(t, store).GetOrCreateSessionID(ctx)
	if !ValidID(id) {
		t.Fatalf("id = %q, want a fresh valid id", id)
	}
	raw, _ := store.Get(ctx, DefaultKey)
	if string(raw) != id {
		t.Errorf("stored = %q, want %q", raw, id)
	}
}

func TestGetOrCreateSessionID_StorageUnavailable(t *testing.T) {
	m := newTestManager(t, brokenStore{err: errors.New("storage disabled")})
	ctx := context.Background()

	first := m.GetOrCreateSessionID(ctx)
	if !ValidID(first) {
		t.Fatalf("id = %q, want valid id even without storage", first)
	}
	if second := m.GetOrCreateSessionID(ctx); second != first {
		t.Errorf("second call = %q, want in-memory id %q", second, first)
	}
}

func TestClear(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	m := NewManager(store, zerolog.Nop())

	first := m.GetOrCreateSessionID(ctx)
	if err := m.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := store.Get(ctx, DefaultKey); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("key still present after Clear: %v", err)
	}
	if second := m.GetOrCreateSessionID(ctx); second == first {
		t.Error("expected a new identifier after Clear")
	}
}

func TestOptions(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewManager(store, zerolog.Nop(), WithKey("custom_session"), WithTTL(time.Hour), WithKey(""), WithTTL(0))
	if m.key != "custom_session" {
		t.Errorf("key = %q", m.key)
	}
	if m.ttl != time.Hour {
		t.Errorf("ttl = %v", m.ttl)
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"session_1700000000000_abc123xyz", true},
		{"session_1_a", true},
		{"session__abc", false},
		{"session_123_ABC", false},
		{"sess_123_abc", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidID(tt.id); got != tt.want {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
