// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

// Package preferences derives shopper preference signals from an interaction
// snapshot: top categories, top non-generic tags and the viewed price band.
//
// Nothing here is persisted. Generic tags (marketing tags present on almost
// every item) are removed from both sides before any tag comparison; tag
// comparison is case-insensitive.
package preferences

import (
	"strings"

	"github.com/homeview360/homeview/internal/config"
	"github.com/homeview360/homeview/internal/tracking"
)

// Profile sizes.
const (
	DefaultProfileCategories = 3
	DefaultProfileTags       = 15
)

// Aggregator derives preference signals. It holds no per-shopper state.
type Aggregator struct {
	generic    map[string]struct{}
	categories int
	tags       int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithProfileTags sets how many non-generic tags a Profile keeps.
func WithProfileTags(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.tags = n
		}
	}
}

// NewAggregator returns an Aggregator treating genericTags as generic.
// A nil list uses config.DefaultGenericTags; an empty one disables filtering.
func NewAggregator(genericTags []string, opts ...Option) *Aggregator {
	if genericTags == nil {
		genericTags = config.DefaultGenericTags
	}
	a := &Aggregator{
		generic:    make(map[string]struct{}, len(genericTags)),
		categories: DefaultProfileCategories,
		tags:       DefaultProfileTags,
	}
	for _, t := range genericTags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			a.generic[t] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IsGeneric reports whether tag is in the generic set.
func (a *Aggregator) IsGeneric(tag string) bool {
	_, ok := a.generic[strings.ToLower(tag)]
	return ok
}

// FilterTags returns the distinct non-generic tags, lowercased, in input order.
func (a *Aggregator) FilterTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		lt := strings.ToLower(t)
		if lt == "" {
			continue
		}
		if _, ok := a.generic[lt]; ok {
			continue
		}
		if _, dup := seen[lt]; dup {
			continue
		}
		seen[lt] = struct{}{}
		out = append(out, lt)
	}
	return out
}

// TopCategories returns up to n categories by view count.
//
//nolint:gocritic // snapshots are passed by value so callers keep ownership
func (a *Aggregator) TopCategories(snap tracking.UserInteraction, n int) []string {
	return snap.TopCategories(n)
}

// TopTags returns up to n non-generic tags by view count, lowercased.
// Tags differing only by case share the rank of the first one seen.
//
//nolint:gocritic // snapshots are passed by value so callers keep ownership
func (a *Aggregator) TopTags(snap tracking.UserInteraction, n int) []string {
	if n <= 0 {
		n = tracking.DefaultTopTags
	}
	ranked := a.FilterTags(snap.TopTags(len(snap.TagPreferences)))
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// PriceBand returns the viewed price band; ok is false when none exists.
//
//nolint:gocritic // snapshots are passed by value so callers keep ownership
func (a *Aggregator) PriceBand(snap tracking.UserInteraction) (tracking.PriceRange, bool) {
	return snap.AveragePriceRange()
}

// Profile is every signal a scoring pass needs, computed once.
type Profile struct {
	TopCategories []string
	TopTags       []string
	PriceBand     tracking.PriceRange
	HasPriceBand  bool
	ViewCount     int
	IsNew         bool

	// RecentIDs are the viewed product ids, most recent first, each once.
	RecentIDs []string

	viewed map[string]struct{}
}

// Profile builds the Profile of snap.
//
//nolint:gocritic // snapshots are passed by value so callers keep ownership
func (a *Aggregator) Profile(snap tracking.UserInteraction) Profile {
	p := Profile{
		TopCategories: a.TopCategories(snap, a.categories),
		TopTags:       a.TopTags(snap, a.tags),
		ViewCount:     len(snap.ProductViews),
		IsNew:         snap.IsNewUser(),
		viewed:        make(map[string]struct{}, len(snap.ProductViews)),
	}
	p.PriceBand, p.HasPriceBand = a.PriceBand(snap)

	for _, v := range snap.RecentViews() {
		if _, ok := p.viewed[v.ProductID]; ok {
			continue
		}
		p.viewed[v.ProductID] = struct{}{}
		p.RecentIDs = append(p.RecentIDs, v.ProductID)
	}
	return p
}

// HasViewed reports whether productID is in the view history.
func (p *Profile) HasViewed(productID string) bool {
	_, ok := p.viewed[productID]
	return ok
}

// CategoryRank returns the zero-based rank of category among the top
// categories, or -1.
func (p *Profile) CategoryRank(category string) int {
	for i, c := range p.TopCategories {
		if c == category {
			return i
		}
	}
	return -1
}

// TagsUpTo returns at most n of the top tags.
func (p *Profile) TagsUpTo(n int) []string {
	if n < len(p.TopTags) {
		return p.TopTags[:n]
	}
	return p.TopTags
}
