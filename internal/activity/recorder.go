// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

// Package activity turns UI lifecycle events into tracking calls: product
// page visits with dwell time, searches, product card clicks and category
// filter changes.
package activity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/homeview360/homeview/internal/catalog"
	"github.com/homeview360/homeview/internal/logging"
)

// AllCategories is the catalog filter value meaning "no filter".
const AllCategories = "All"

// Sessions issues the shopper's session identifier.
type Sessions interface {
	GetOrCreateSessionID(ctx context.Context) string
}

// Tracker persists interaction signals.
type Tracker interface {
	TrackProductView(ctx context.Context, productID string, timeSpent *int)
	TrackSearchQuery(ctx context.Context, query string, resultsCount int)
	TrackCategoryView(ctx context.Context, category string)
	TrackTagViews(ctx context.Context, tags []string)
	TrackPriceView(ctx context.Context, price float64)
	HasViewedProduct(ctx context.Context, productID string) bool
}

// Popularity counts product views across shoppers.
type Popularity interface {
	Update(productID string)
}

// Recorder applies UI events to the tracker and popularity counter.
type Recorder struct {
	sessions   Sessions
	tracker    Tracker
	popularity Popularity
	now        func() time.Time
	logger     zerolog.Logger

	mu        sync.Mutex
	lastQuery string
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock replaces the time source used for dwell time.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder returns a Recorder.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRecorder(sessions Sessions, tracker Tracker, popularity Popularity, logger zerolog.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		sessions:   sessions,
		tracker:    tracker,
		popularity: popularity,
		now:        time.Now,
		logger:     logger.With().Str("component", "activity").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// session makes sure a session exists and returns ctx carrying its id.
func (r *Recorder) session(ctx context.Context) context.Context {
	return logging.ContextWithSessionID(ctx, r.sessions.GetOrCreateSessionID(ctx))
}

// BeginProductView records a product page visit and returns the function to
// call when the shopper leaves the page. Leaving records a second view
// carrying the whole seconds spent, if at least one second passed. The
// returned function is safe to call more than once; only the first call
// records.
func (r *Recorder) BeginProductView(ctx context.Context, productID string) (end func()) {
	if productID == "" {
		return func() {}
	}
	ctx = r.session(ctx)
	start := r.now()
	r.tracker.TrackProductView(ctx, productID, nil)
	r.popularity.Update(productID)
	logging.Ctx(ctx, r.logger).Debug().Str("product_id", productID).Msg("product view started")

	// The page may outlive the request that opened it.
	endCtx := context.WithoutCancel(ctx)
	var once sync.Once
	return func() {
		once.Do(func() {
			spent := int(r.now().Sub(start) / time.Second)
			if spent <= 0 {
				return
			}
			r.tracker.TrackProductView(endCtx, productID, &spent)
			logging.Ctx(endCtx, r.logger).Debug().
				Str("product_id", productID).
				Int("time_spent", spent).
				Msg("product view ended")
		})
	}
}

// ViewProductPage records a product page visit together with the item's
// category, tags and price. It returns the leave function of
// BeginProductView.
//
//nolint:gocritic // catalog items are small value types
func (r *Recorder) ViewProductPage(ctx context.Context, item catalog.Item) (end func()) {
	end = r.BeginProductView(ctx, item.ID)
	if item.ID == "" {
		return end
	}
	r.tracker.TrackCategoryView(ctx, item.Category)
	if len(item.Tags) > 0 {
		r.tracker.TrackTagViews(ctx, item.Tags)
	}
	r.tracker.TrackPriceView(ctx, item.Price)
	return end
}

// TrackSearch records a submitted search. Empty queries and a repeat of the
// previous query are skipped. It reports whether the search was recorded.
func (r *Recorder) TrackSearch(ctx context.Context, query string, resultsCount int) bool {
	r.mu.Lock()
	if query == "" || query == r.lastQuery {
		r.mu.Unlock()
		return false
	}
	r.lastQuery = query
	r.mu.Unlock()

	r.tracker.TrackSearchQuery(ctx, query, resultsCount)
	return true
}

// TrackProductClick records a click on a product card: a view, a popularity
// bump and the item's category, tags and (non-zero) price.
//
//nolint:gocritic // catalog items are small value types
func (r *Recorder) TrackProductClick(ctx context.Context, item catalog.Item) {
	if item.ID == "" {
		return
	}
	ctx = r.session(ctx)
	r.tracker.TrackProductView(ctx, item.ID, nil)
	r.popularity.Update(item.ID)
	if item.Category != "" {
		r.tracker.TrackCategoryView(ctx, item.Category)
	}
	if len(item.Tags) > 0 {
		r.tracker.TrackTagViews(ctx, item.Tags)
	}
	if item.Price != 0 {
		r.tracker.TrackPriceView(ctx, item.Price)
	}
}

// TrackCategory records a category filter change. "" and "All" are ignored.
func (r *Recorder) TrackCategory(ctx context.Context, category string) {
	if category == "" || category == AllCategories {
		return
	}
	r.tracker.TrackCategoryView(ctx, category)
}

// CheckIfViewed reports whether the shopper has viewed productID.
func (r *Recorder) CheckIfViewed(ctx context.Context, productID string) bool {
	return r.tracker.HasViewedProduct(ctx, productID)
}
