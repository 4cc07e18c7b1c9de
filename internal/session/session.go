// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

// Package session issues the anonymous shopper identifier
// ("session_<unix-ms>_<random>") and keeps it in local storage.
package session

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/homeview360/homeview/internal/metrics"
	"github.com/homeview360/homeview/internal/storage"
)

const (
	// DefaultKey is the storage key of the identifier.
	DefaultKey = "homeview360_session"

	// DefaultTTL is how long an identifier lives without being rewritten.
	DefaultTTL = 365 * 24 * time.Hour

	suffixLen = 9
)

var idPattern = regexp.MustCompile(`^session_\d+_[a-z0-9]+$`)

// Manager reads and creates the session identifier.
type Manager struct {
	store  storage.Store
	key    string
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
	warn   rate.Sometimes

	mu      sync.Mutex
	current string
}

// Option configures a Manager.
type Option func(*Manager)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(m *Manager) {
		if key != "" {
			m.key = key
		}
	}
}

// WithTTL overrides the identifier lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager returns a Manager backed by store.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewManager(store storage.Store, logger zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		key:    DefaultKey,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logger.With().Str("component", "session").Logger(),
		warn:   rate.Sometimes{First: 3, Interval: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetOrCreateSessionID returns the stored identifier, creating and storing a
// new one when none exists. It never fails: when storage is unavailable the
// identifier lives in memory for the rest of the process.
func (m *Manager) GetOrCreateSessionID(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := m.store.Get(ctx, m.key)
	switch {
	case err == nil:
		if id := strings.TrimSpace(string(raw)); ValidID(id) {
			m.current = id
			return id
		}
		metrics.RecordStorageFallback(m.key, "corrupt")
		m.warn.Do(func() {
			m.logger.Warn().Str("key", m.key).Msg("stored session identifier is malformed, issuing a new one")
		})
	case errors.Is(err, storage.ErrNotFound):
	default:
		metrics.RecordStorageFallback(m.key, "unavailable")
		m.warn.Do(func() {
			m.logger.Warn().Err(err).Str("key", m.key).Msg("failed to read session identifier")
		})
		if m.current != "" {
			return m.current
		}
	}

	id := m.newID()
	if err := m.store.Set(ctx, m.key, []byte(id), m.ttl); err != nil {
		metrics.RecordStorageFallback(m.key, "write_failed")
		m.warn.Do(func() {
			m.logger.Warn().Err(err).Str("key", m.key).Msg("failed to persist session identifier")
		})
	}
	m.current = id
	m.logger.Debug().Str("session_id", id).Msg("issued new session identifier")
	return id
}

// Clear forgets the identifier. The next GetOrCreateSessionID issues a new one.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = ""
	return m.store.Delete(ctx, m.key)
}

func (m *Manager) newID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]
	return "session_" + strconv.FormatInt(m.now().UnixMilli(), 10) + "_" + suffix
}

// ValidID reports whether id has the session_<ms>_<random> shape.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}
