// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

// Package tracking keeps the shopper's interaction history: product views,
// searches, category and tag counters, and viewed prices.
//
// The history is a single JSON document under one storage key. Every write
// reads the document, applies the change, trims it to the retention window and
// list caps, and stores it back. Reads trim the same way, so stale entries
// never reach callers. Storage failures and corrupt documents are logged and
// replaced by an empty history; tracking calls never return errors.
package tracking

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/homeview360/homeview/internal/metrics"
	"github.com/homeview360/homeview/internal/storage"
)

// DefaultKey is the storage key of the interaction history.
const DefaultKey = "homeview360_tracking"

// Store reads and writes the interaction history.
type Store struct {
	store  storage.Store
	key    string
	limits Limits
	now    func() time.Time
	logger zerolog.Logger
	warn   rate.Sometimes

	// mu serializes read-modify-write cycles within the process.
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLimits overrides caps and retention. Zero fields keep their defaults.
func WithLimits(l Limits) Option {
	return func(s *Store) { s.limits = l.withDefaults() }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns a Store persisting to store.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewStore(store storage.Store, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		store:  store,
		key:    DefaultKey,
		limits: DefaultLimits(),
		now:    time.Now,
		logger: logger.With().Str("component", "tracking").Logger(),
		warn:   rate.Sometimes{First: 3, Interval: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TrackProductView records a product page visit. timeSpent is nil for the
// visit itself and set (whole seconds) for the entry recorded on leave.
func (s *Store) TrackProductView(ctx context.Context, productID string, timeSpent *int) {
	if productID == "" {
		return
	}
	var spent *int
	if timeSpent != nil {
		v := *timeSpent
		spent = &v
	}
	s.update(ctx, "product_view", func(u *UserInteraction, now time.Time) {
		u.ProductViews = append(u.ProductViews, ProductView{
			ProductID: productID,
			Timestamp: now.UnixMilli(),
			TimeSpent: spent,
		})
	})
}

// TrackSearchQuery records a search. Blank queries are ignored; the query is
// stored lowercased.
func (s *Store) TrackSearchQuery(ctx context.Context, query string, resultsCount int) {
	if strings.TrimSpace(query) == "" {
		metrics.RecordTrackingSkipped("empty_query")
		return
	}
	q := strings.ToLower(query)
	s.update(ctx, "search", func(u *UserInteraction, now time.Time) {
		u.SearchQueries = append(u.SearchQueries, SearchQuery{
			Query:        q,
			Timestamp:    now.UnixMilli(),
			ResultsCount: resultsCount,
		})
	})
}

// TrackCategoryView increments the counter for category.
func (s *Store) TrackCategoryView(ctx context.Context, category string) {
	if category == "" {
		return
	}
	s.update(ctx, "category", func(u *UserInteraction, _ time.Time) {
		increment(u.CategoryPreferences, &u.CategoryOrder, category)
	})
}

// TrackTagViews increments the counter of every tag in tags.
func (s *Store) TrackTagViews(ctx context.Context, tags []string) {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return
	}
	s.update(ctx, "tags", func(u *UserInteraction, _ time.Time) {
		for _, t := range clean {
			increment(u.TagPreferences, &u.TagOrder, t)
		}
	})
}

// TrackPriceView appends price to the viewed-price list.
func (s *Store) TrackPriceView(ctx context.Context, price float64) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return
	}
	s.update(ctx, "price", func(u *UserInteraction, _ time.Time) {
		u.PriceRangeViews = append(u.PriceRangeViews, price)
	})
}

// Snapshot returns the cleaned history. The result is the caller's to keep.
func (s *Store) Snapshot(ctx context.Context) UserInteraction {
	return s.load(ctx, s.now())
}

// ViewedProductIDs returns each viewed product once.
func (s *Store) ViewedProductIDs(ctx context.Context) []string {
	return s.Snapshot(ctx).ViewedProductIDs()
}

// HasViewedProduct reports whether productID was viewed within retention.
func (s *Store) HasViewedProduct(ctx context.Context, productID string) bool {
	return s.Snapshot(ctx).HasViewedProduct(productID)
}

// TopCategories returns up to limit categories by count.
func (s *Store) TopCategories(ctx context.Context, limit int) []string {
	return s.Snapshot(ctx).TopCategories(limit)
}

// TopTags returns up to limit tags by count.
func (s *Store) TopTags(ctx context.Context, limit int) []string {
	return s.Snapshot(ctx).TopTags(limit)
}

// AveragePriceRange returns the viewed price band; ok is false when no
// price was recorded.
func (s *Store) AveragePriceRange(ctx context.Context) (PriceRange, bool) {
	return s.Snapshot(ctx).AveragePriceRange()
}

// IsNewUser reports whether there are no views and no searches.
func (s *Store) IsNewUser(ctx context.Context) bool {
	return s.Snapshot(ctx).IsNewUser()
}

// InteractionCount returns views plus searches.
func (s *Store) InteractionCount(ctx context.Context) int {
	return s.Snapshot(ctx).InteractionCount()
}

// RecentViews returns views newest first.
func (s *Store) RecentViews(ctx context.Context) []ProductView {
	return s.Snapshot(ctx).RecentViews()
}

// Clear deletes the persisted history.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(ctx, s.key); err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("failed to clear interaction data")
		return err
	}
	return nil
}

func (s *Store) update(ctx context.Context, kind string, apply func(*UserInteraction, time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	u := s.load(ctx, now)
	apply(&u, now)
	s.save(ctx, &u, now)
	metrics.RecordTrackingEvent(kind)
}

func (s *Store) load(ctx context.Context, now time.Time) UserInteraction {
	raw, err := s.store.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.fallback("unavailable", err, "failed to read interaction data, using empty history")
		}
		return Empty()
	}

	u, err := decode(raw)
	if err != nil {
		s.fallback("corrupt", err, "failed to parse interaction data, resetting")
		return Empty()
	}
	u.clean(now, s.limits)
	return u
}

func (s *Store) save(ctx context.Context, u *UserInteraction, now time.Time) {
	u.clean(now, s.limits)
	data, err := json.Marshal(u)
	if err != nil {
		s.fallback("write_failed", err, "failed to encode interaction data")
		return
	}
	if err := s.store.Set(ctx, s.key, data, 0); err != nil {
		s.fallback("write_failed", err, "failed to save interaction data")
	}
}

func (s *Store) fallback(reason string, err error, msg string) {
	metrics.RecordStorageFallback(s.key, reason)
	s.warn.Do(func() {
		s.logger.Warn().Err(err).Str("key", s.key).Str("reason", reason).Msg(msg)
	})
}

// errFutureSchema marks payloads written by a newer release.
var errFutureSchema = errors.New("interaction data has a newer schema version")

func decode(raw []byte) (UserInteraction, error) {
	var u UserInteraction
	if err := json.Unmarshal(raw, &u); err != nil {
		return UserInteraction{}, err
	}
	if u.SchemaVersion > SchemaVersion {
		return UserInteraction{}, errFutureSchema
	}
	u.normalize()
	return u, nil
}
