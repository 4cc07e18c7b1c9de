// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

// Package search ranks catalog search results by text relevance blended with
// the shopper's recommendation score.
package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/homeview360/homeview/internal/catalog"
	"github.com/homeview360/homeview/internal/metrics"
	"github.com/homeview360/homeview/internal/recommend"
)

// Relevance weights. They are additive; a result can exceed 1.
const (
	NameWeight        = 0.5
	ExactNameBonus    = 0.3
	CategoryWeight    = 0.2
	TagWeight         = 0.2
	SKUWeight         = 0.1
	DescriptionWeight = 0.05

	RelevanceShare      = 0.6
	RecommendationShare = 0.4
)

// Scorer is the recommendation side of the blend.
type Scorer interface {
	Pass(ctx context.Context) *recommend.Pass
}

// Result is one ranked item with its scores.
type Result struct {
	Item           catalog.Item `json:"item"`
	Relevance      float64      `json:"relevance"`
	Recommendation float64      `json:"recommendation"`
	Combined       float64      `json:"combined"`
}

// Booster ranks search candidates.
type Booster struct {
	scorer Scorer
}

// NewBooster returns a Booster blending with scorer.
func NewBooster(scorer Scorer) *Booster {
	return &Booster{scorer: scorer}
}

// BoostSearchResults orders items by 0.6 x relevance + 0.4 x recommendation,
// best first. Items with equal combined scores keep their input order.
func (b *Booster) BoostSearchResults(ctx context.Context, items []catalog.Item, query string) []catalog.Item {
	results := b.Rank(ctx, items, query)
	out := make([]catalog.Item, len(results))
	for i, r := range results {
		out[i] = r.Item
	}
	return out
}

// Rank is BoostSearchResults with the scores attached.
func (b *Booster) Rank(ctx context.Context, items []catalog.Item, query string) []Result {
	start := time.Now()
	defer metrics.ObserveListDuration("search", start)

	pass := b.scorer.Pass(ctx)
	q := strings.ToLower(query)
	results := make([]Result, len(items))
	for i, item := range items {
		rel := Relevance(item, q)
		rec := pass.Score(item)
		results[i] = Result{
			Item:           item,
			Relevance:      rel,
			Recommendation: rec,
			Combined:       RelevanceShare*rel + RecommendationShare*rec,
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Combined > results[j].Combined
	})
	return results
}

// Relevance scores the text match of item against query, case-insensitively.
//
//nolint:gocritic // catalog items are small value types
func Relevance(item catalog.Item, query string) float64 {
	q := strings.ToLower(query)
	var score float64

	name := strings.ToLower(item.Name)
	if strings.Contains(name, q) {
		score += NameWeight
		if name == q {
			score += ExactNameBonus
		}
	}
	if strings.Contains(strings.ToLower(item.Category), q) {
		score += CategoryWeight
	}
	if anyTagContains(item.Tags, q) {
		score += TagWeight
	}
	if strings.Contains(strings.ToLower(item.SKU), q) {
		score += SKUWeight
	}
	if strings.Contains(strings.ToLower(item.Description), q) {
		score += DescriptionWeight
	}
	return score
}

// Filter returns the items whose name, category, SKU, tags or description
// contain query, in input order. A blank query matches nothing.
func Filter(items []catalog.Item, query string) []catalog.Item {
	if strings.TrimSpace(query) == "" {
		return []catalog.Item{}
	}
	q := strings.ToLower(query)
	out := make([]catalog.Item, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), q) ||
			strings.Contains(strings.ToLower(item.Category), q) ||
			strings.Contains(strings.ToLower(item.SKU), q) ||
			anyTagContains(item.Tags, q) ||
			strings.Contains(strings.ToLower(item.Description), q) {
			out = append(out, item)
		}
	}
	return out
}

func anyTagContains(tags []string, q string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
