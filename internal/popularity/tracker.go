// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

// Package popularity counts product views across the catalog and turns them
// into a normalized popularity score.
//
// Counts live in memory and are visible immediately. The snapshot is loaded
// from storage once by Start and written back by Flush, which the supervisor
// runs on a fixed interval. Updates made between two flushes are lost if the
// process dies; the score is a ranking hint and tolerates that.
package popularity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/homeview360/homeview/internal/metrics"
	"github.com/homeview360/homeview/internal/storage"
)

// SchemaVersion is written into every persisted snapshot.
const SchemaVersion = 1

// DefaultKey is the storage key of the popularity snapshot.
const DefaultKey = "homeview360_popularity"

// DefaultTopN is the length of the most-popular list.
const DefaultTopN = 20

// Data is the persisted popularity snapshot.
type Data struct {
	SchemaVersion int            `json:"schema_version"`
	ViewCounts    map[string]int `json:"viewCounts"`
	MostPopular   []string       `json:"mostPopular"`
}

// Tracker holds per-product view counts. It is safe for concurrent use.
type Tracker struct {
	store  storage.Store
	key    string
	topN   int
	logger zerolog.Logger
	warn   rate.Sometimes

	mu          sync.RWMutex
	counts      map[string]int
	mostPopular []string
	maxCount    int
	started     bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(t *Tracker) {
		if key != "" {
			t.key = key
		}
	}
}

// WithTopN overrides the length of the most-popular list.
func WithTopN(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.topN = n
		}
	}
}

// NewTracker returns an empty tracker persisting to store.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewTracker(store storage.Store, logger zerolog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		key:    DefaultKey,
		topN:   DefaultTopN,
		logger: logger.With().Str("component", "popularity").Logger(),
		warn:   rate.Sometimes{First: 3, Interval: 30 * time.Second},
		counts: make(map[string]int),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start loads the persisted snapshot. Only the first call reads storage.
// Counts recorded before Start are added to the loaded ones.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()

	loaded := t.load(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	for id, n := range loaded.ViewCounts {
		t.counts[id] += n
	}
	t.recompute()
	t.logger.Debug().Int("products", len(t.counts)).Msg("popularity snapshot loaded")
}

// Update records one view of productID.
func (t *Tracker) Update(productID string) {
	if productID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[productID]++
	if n := t.counts[productID]; n > t.maxCount {
		t.maxCount = n
	}
	t.mostPopular = rank(t.counts, t.topN)
}

// Score returns count / max(highest count, 1), in [0, 1].
func (t *Tracker) Score(productID string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return float64(t.counts[productID]) / float64(max(t.maxCount, 1))
}

// Count returns the number of views recorded for productID.
func (t *Tracker) Count(productID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.counts[productID]
}

// MostPopular returns the top product ids, most viewed first.
func (t *Tracker) MostPopular() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.mostPopular...)
}

// Len returns the number of products with at least one view.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.counts)
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Data {
	t.mu.RLock()
	defer t.mu.RUnlock()
	counts := make(map[string]int, len(t.counts))
	for id, n := range t.counts {
		counts[id] = n
	}
	return Data{
		SchemaVersion: SchemaVersion,
		ViewCounts:    counts,
		MostPopular:   append([]string{}, t.mostPopular...),
	}
}

// Flush writes the full in-memory snapshot to storage.
func (t *Tracker) Flush(ctx context.Context) error {
	snap := t.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		metrics.RecordPopularityFlush(len(snap.ViewCounts), err)
		return fmt.Errorf("encode popularity snapshot: %w", err)
	}
	if err := t.store.Set(ctx, t.key, data, 0); err != nil {
		metrics.RecordPopularityFlush(len(snap.ViewCounts), err)
		t.fallback("write_failed", err, "failed to save popularity data")
		return fmt.Errorf("save popularity snapshot: %w", err)
	}
	metrics.RecordPopularityFlush(len(snap.ViewCounts), nil)
	return nil
}

// Stop performs a final flush.
func (t *Tracker) Stop(ctx context.Context) error {
	return t.Flush(ctx)
}

func (t *Tracker) load(ctx context.Context) Data {
	raw, err := t.store.Get(ctx, t.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			t.fallback("unavailable", err, "failed to load popularity data")
		}
		return Data{}
	}
	d, err := decode(raw)
	if err != nil {
		t.fallback("corrupt", err, "failed to parse popularity data, starting empty")
		return Data{}
	}
	return d
}

func (t *Tracker) fallback(reason string, err error, msg string) {
	metrics.RecordStorageFallback(t.key, reason)
	t.warn.Do(func() {
		t.logger.Warn().Err(err).Str("key", t.key).Str("reason", reason).Msg(msg)
	})
}

// recompute refreshes maxCount and mostPopular. Callers hold mu.
func (t *Tracker) recompute() {
	t.maxCount = 0
	for _, n := range t.counts {
		t.maxCount = max(t.maxCount, n)
	}
	t.mostPopular = rank(t.counts, t.topN)
}

// rank orders ids by count descending, ties by id, and keeps the first n.
func rank(counts map[string]int, n int) []string {
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ci, cj := counts[ids[i]], counts[ids[j]]
		if ci != cj {
			return ci > cj
		}
		return ids[i] < ids[j]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// errFutureSchema marks snapshots written by a newer release.
var errFutureSchema = errors.New("popularity data has a newer schema version")

// decode parses a snapshot, dropping empty ids and non-positive counts.
// The stored mostPopular list is ignored and rebuilt from the counts.
func decode(raw []byte) (Data, error) {
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return Data{}, err
	}
	if d.SchemaVersion > SchemaVersion {
		return Data{}, errFutureSchema
	}
	counts := make(map[string]int, len(d.ViewCounts))
	for id, n := range d.ViewCounts {
		if id != "" && n > 0 {
			counts[id] = n
		}
	}
	d.ViewCounts = counts
	d.SchemaVersion = SchemaVersion
	return d, nil
}
