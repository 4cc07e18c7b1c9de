// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package tracking

import (
	"math"
	"sort"
	"time"
)

// SchemaVersion is written into every persisted UserInteraction.
// Payloads without a version are upgraded on read.
const SchemaVersion = 1

// Default limits.
const (
	DefaultMaxProductViews  = 100
	DefaultMaxSearchQueries = 50
	DefaultMaxPriceViews    = 50
	DefaultRetention        = 90 * 24 * time.Hour

	DefaultTopCategories = 3
	DefaultTopTags       = 10
)

// ProductView is one product page visit. TimeSpent is set only on the entry
// recorded when the shopper leaves the page.
type ProductView struct {
	ProductID string `json:"productId"`
	Timestamp int64  `json:"timestamp"`
	TimeSpent *int   `json:"timeSpent,omitempty"`
}

// SearchQuery is one submitted search. Query is stored lowercased.
type SearchQuery struct {
	Query        string `json:"query"`
	Timestamp    int64  `json:"timestamp"`
	ResultsCount int    `json:"resultsCount"`
}

// PriceRange summarises the prices a shopper has looked at.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// UserInteraction is the persisted interaction history. It is always read and
// written as a whole.
//
// CategoryOrder and TagOrder record first-seen order of the preference keys
// so ranking ties resolve the same way after a reload.
type UserInteraction struct {
	SchemaVersion       int            `json:"schema_version"`
	ProductViews        []ProductView  `json:"productViews"`
	SearchQueries       []SearchQuery  `json:"searchQueries"`
	CategoryPreferences map[string]int `json:"categoryPreferences"`
	TagPreferences      map[string]int `json:"tagPreferences"`
	PriceRangeViews     []float64      `json:"priceRangeViews"`
	CategoryOrder       []string       `json:"categoryOrder,omitempty"`
	TagOrder            []string       `json:"tagOrder,omitempty"`
}

// Empty returns a history with no signals.
func Empty() UserInteraction {
	return UserInteraction{
		SchemaVersion:       SchemaVersion,
		ProductViews:        []ProductView{},
		SearchQueries:       []SearchQuery{},
		CategoryPreferences: map[string]int{},
		TagPreferences:      map[string]int{},
		PriceRangeViews:     []float64{},
	}
}

// Clone returns a deep copy.
func (u UserInteraction) Clone() UserInteraction {
	out := UserInteraction{
		SchemaVersion:       u.SchemaVersion,
		ProductViews:        make([]ProductView, len(u.ProductViews)),
		SearchQueries:       append([]SearchQuery{}, u.SearchQueries...),
		CategoryPreferences: make(map[string]int, len(u.CategoryPreferences)),
		TagPreferences:      make(map[string]int, len(u.TagPreferences)),
		PriceRangeViews:     append([]float64{}, u.PriceRangeViews...),
		CategoryOrder:       append([]string(nil), u.CategoryOrder...),
		TagOrder:            append([]string(nil), u.TagOrder...),
	}
	for i, v := range u.ProductViews {
		if v.TimeSpent != nil {
			ts := *v.TimeSpent
			v.TimeSpent = &ts
		}
		out.ProductViews[i] = v
	}
	for k, v := range u.CategoryPreferences {
		out.CategoryPreferences[k] = v
	}
	for k, v := range u.TagPreferences {
		out.TagPreferences[k] = v
	}
	return out
}

// IsNewUser reports whether there are no product views and no searches.
// Category, tag and price signals alone do not make a returning shopper.
func (u UserInteraction) IsNewUser() bool {
	return len(u.ProductViews) == 0 && len(u.SearchQueries) == 0
}

// InteractionCount is the number of product views plus searches.
func (u UserInteraction) InteractionCount() int {
	return len(u.ProductViews) + len(u.SearchQueries)
}

// ViewedProductIDs returns each viewed product once, in first-view order.
func (u UserInteraction) ViewedProductIDs() []string {
	seen := make(map[string]struct{}, len(u.ProductViews))
	out := make([]string, 0, len(u.ProductViews))
	for _, v := range u.ProductViews {
		if _, ok := seen[v.ProductID]; ok {
			continue
		}
		seen[v.ProductID] = struct{}{}
		out = append(out, v.ProductID)
	}
	return out
}

// HasViewedProduct reports whether productID appears in the view history.
func (u UserInteraction) HasViewedProduct(productID string) bool {
	for _, v := range u.ProductViews {
		if v.ProductID == productID {
			return true
		}
	}
	return false
}

// RecentViews returns the views newest first. Entries with equal timestamps
// keep reverse recording order.
func (u UserInteraction) RecentViews() []ProductView {
	out := make([]ProductView, len(u.ProductViews))
	for i, v := range u.ProductViews {
		out[len(out)-1-i] = v
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// TopCategories returns up to limit categories by view count, ties in
// first-seen order. limit <= 0 uses DefaultTopCategories.
func (u UserInteraction) TopCategories(limit int) []string {
	if limit <= 0 {
		limit = DefaultTopCategories
	}
	return rankKeys(u.CategoryPreferences, u.CategoryOrder, limit)
}

// TopTags returns up to limit tags by view count, ties in first-seen order.
// limit <= 0 uses DefaultTopTags.
func (u UserInteraction) TopTags(limit int) []string {
	if limit <= 0 {
		limit = DefaultTopTags
	}
	return rankKeys(u.TagPreferences, u.TagOrder, limit)
}

// AveragePriceRange returns min, max and mean of the viewed prices.
// ok is false when no price was ever recorded.
func (u UserInteraction) AveragePriceRange() (PriceRange, bool) {
	if len(u.PriceRangeViews) == 0 {
		return PriceRange{}, false
	}
	pr := PriceRange{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, p := range u.PriceRangeViews {
		pr.Min = math.Min(pr.Min, p)
		pr.Max = math.Max(pr.Max, p)
		sum += p
	}
	pr.Avg = sum / float64(len(u.PriceRangeViews))
	return pr, true
}

func rankKeys(counts map[string]int, order []string, limit int) []string {
	keys := append([]string(nil), order...)
	sort.SliceStable(keys, func(i, j int) bool {
		return counts[keys[i]] > counts[keys[j]]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

// Limits bounds the persisted history.
type Limits struct {
	MaxProductViews  int
	MaxSearchQueries int
	MaxPriceViews    int
	Retention        time.Duration
}

// DefaultLimits returns the production limits (100 / 50 / 50, 90 days).
func DefaultLimits() Limits {
	return Limits{
		MaxProductViews:  DefaultMaxProductViews,
		MaxSearchQueries: DefaultMaxSearchQueries,
		MaxPriceViews:    DefaultMaxPriceViews,
		Retention:        DefaultRetention,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxProductViews <= 0 {
		l.MaxProductViews = d.MaxProductViews
	}
	if l.MaxSearchQueries <= 0 {
		l.MaxSearchQueries = d.MaxSearchQueries
	}
	if l.MaxPriceViews <= 0 {
		l.MaxPriceViews = d.MaxPriceViews
	}
	if l.Retention <= 0 {
		l.Retention = d.Retention
	}
	return l
}

// clean drops views and searches at or beyond the retention horizon and
// enforces the list caps, keeping the newest entries. Preference counters and
// prices are not aged.
func (u *UserInteraction) clean(now time.Time, l Limits) {
	cutoff := now.Add(-l.Retention).UnixMilli()

	views := u.ProductViews[:0]
	for _, v := range u.ProductViews {
		if v.Timestamp > cutoff {
			views = append(views, v)
		}
	}
	u.ProductViews = keepLast(views, l.MaxProductViews)

	queries := u.SearchQueries[:0]
	for _, q := range u.SearchQueries {
		if q.Timestamp > cutoff {
			queries = append(queries, q)
		}
	}
	u.SearchQueries = keepLast(queries, l.MaxSearchQueries)

	u.PriceRangeViews = keepLast(u.PriceRangeViews, l.MaxPriceViews)
}

func keepLast[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return append(s[:0:0], s[len(s)-n:]...)
}

// normalize fills missing fields, drops unusable entries and reconciles the
// ordering lists with the preference maps. It upgrades unversioned payloads.
func (u *UserInteraction) normalize() {
	if u.ProductViews == nil {
		u.ProductViews = []ProductView{}
	}
	if u.SearchQueries == nil {
		u.SearchQueries = []SearchQuery{}
	}
	if u.CategoryPreferences == nil {
		u.CategoryPreferences = map[string]int{}
	}
	if u.TagPreferences == nil {
		u.TagPreferences = map[string]int{}
	}
	if u.PriceRangeViews == nil {
		u.PriceRangeViews = []float64{}
	}

	views := u.ProductViews[:0]
	for _, v := range u.ProductViews {
		if v.ProductID != "" {
			views = append(views, v)
		}
	}
	u.ProductViews = views

	queries := u.SearchQueries[:0]
	for _, q := range u.SearchQueries {
		if q.Query != "" {
			queries = append(queries, q)
		}
	}
	u.SearchQueries = queries

	prices := u.PriceRangeViews[:0]
	for _, p := range u.PriceRangeViews {
		if !math.IsNaN(p) && !math.IsInf(p, 0) {
			prices = append(prices, p)
		}
	}
	u.PriceRangeViews = prices

	u.CategoryOrder = reconcileOrder(u.CategoryPreferences, u.CategoryOrder)
	u.TagOrder = reconcileOrder(u.TagPreferences, u.TagOrder)
	u.SchemaVersion = SchemaVersion
}

// reconcileOrder keeps order entries that exist in counts (first occurrence
// only) and appends keys missing from order alphabetically.
func reconcileOrder(counts map[string]int, order []string) []string {
	out := make([]string, 0, len(counts))
	seen := make(map[string]struct{}, len(counts))
	for _, k := range order {
		if _, ok := counts[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	var missing []string
	for k := range counts {
		if _, ok := seen[k]; !ok {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return append(out, missing...)
}

// increment bumps counts[key], recording key in order the first time.
func increment(counts map[string]int, order *[]string, key string) {
	if _, ok := counts[key]; !ok {
		*order = append(*order, key)
	}
	counts[key]++
}
