// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package recommend

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/homeview360/homeview/internal/catalog"
)

type scoredItem struct {
	item  catalog.Item
	score float64
}

// sortScored orders by score descending, keeping input order on ties.
func sortScored(scored []scoredItem) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
}

func unwrap(scored []scoredItem, limit int) []catalog.Item {
	if limit >= 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	out := make([]catalog.Item, len(scored))
	for i, s := range scored {
		out[i] = s.item
	}
	return out
}

// TopRecommendations returns the recommended items, best first, at most
// min(limit, max top). limit <= 0 returns nothing.
func (s *Scorer) TopRecommendations(ctx context.Context, items []catalog.Item, limit int) []catalog.Item {
	return s.Pass(ctx).TopRecommendations(items, limit)
}

// RecentlyViewed resolves the view history against items, most recent
// first, each product once. Ids missing from items are skipped.
func (s *Scorer) RecentlyViewed(ctx context.Context, items []catalog.Item, limit int) []catalog.Item {
	return s.Pass(ctx).RecentlyViewed(items, limit)
}

// SortByRecommendation returns items ordered by score, best first.
func (s *Scorer) SortByRecommendation(ctx context.Context, items []catalog.Item) []catalog.Item {
	return s.Pass(ctx).SortByRecommendation(items)
}

// RecommendedItems returns the first limit items by score. limit <= 0 uses
// the configured default.
func (s *Scorer) RecommendedItems(ctx context.Context, items []catalog.Item, limit int) []catalog.Item {
	return s.Pass(ctx).RecommendedItems(items, limit)
}

// TopRecommendations is Scorer.TopRecommendations on this pass.
func (p *Pass) TopRecommendations(items []catalog.Item, limit int) []catalog.Item {
	defer observe("top")()
	limit = min(limit, p.scorer.cfg.MaxTop)
	if limit <= 0 || p.profile.IsNew || p.profile.ViewCount < p.scorer.cfg.MinProductViews {
		return []catalog.Item{}
	}

	var scored []scoredItem
	for _, item := range items {
		score := p.Score(item)
		if score > p.scorer.cfg.Threshold {
			scored = append(scored, scoredItem{item: item, score: score})
		}
	}
	sortScored(scored)
	p.scorer.logger.Debug().
		Int("candidates", len(items)).
		Int("recommended", len(scored)).
		Msg("top recommendations computed")
	return unwrap(scored, limit)
}

// RecentlyViewed is Scorer.RecentlyViewed on this pass.
func (p *Pass) RecentlyViewed(items []catalog.Item, limit int) []catalog.Item {
	defer observe("recent")()
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	byID := make(map[string]catalog.Item, len(items))
	for _, item := range items {
		if _, dup := byID[item.ID]; !dup {
			byID[item.ID] = item
		}
	}
	out := make([]catalog.Item, 0, min(limit, len(p.profile.RecentIDs)))
	for _, id := range p.profile.RecentIDs {
		item, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}

// SortByRecommendation is Scorer.SortByRecommendation on this pass.
func (p *Pass) SortByRecommendation(items []catalog.Item) []catalog.Item {
	defer observe("sorted")()
	scored := make([]scoredItem, len(items))
	for i, item := range items {
		scored[i] = scoredItem{item: item, score: p.Score(item)}
	}
	sortScored(scored)
	return unwrap(scored, -1)
}

// RecommendedItems is Scorer.RecommendedItems on this pass.
func (p *Pass) RecommendedItems(items []catalog.Item, limit int) []catalog.Item {
	if limit <= 0 {
		limit = p.scorer.cfg.RecommendedLimit
	}
	sorted := p.SortByRecommendation(items)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// Similarity weights.
const (
	SameCategoryWeight = 0.4
	SameTypeWeight     = 0.2
	TagOverlapWeight   = 0.3
	PriceNearWeight    = 0.1
	// PriceNearRatio is the relative price gap under which prices count as near.
	PriceNearRatio = 0.5
)

// SimilarItems ranks items by likeness to ref, excluding ref itself. It does
// not depend on the shopper. limit <= 0 uses the configured default.
//
//nolint:gocritic // catalog items are small value types
func (s *Scorer) SimilarItems(ref catalog.Item, items []catalog.Item, limit int) []catalog.Item {
	defer observe("similar")()
	if limit <= 0 {
		limit = s.cfg.SimilarItemsLimit
	}
	scored := make([]scoredItem, 0, len(items))
	for _, item := range items {
		if item.ID == ref.ID {
			continue
		}
		scored = append(scored, scoredItem{item: item, score: Similarity(ref, item)})
	}
	sortScored(scored)
	return unwrap(scored, limit)
}

// Similarity scores item against ref: same category 0.4, same type 0.2, tag
// overlap x 0.3, and (0.5 - ratio) x 0.1 when the price differs from ref's by
// less than half. Tags compare case-insensitively.
//
//nolint:gocritic // catalog items are small value types
func Similarity(ref, item catalog.Item) float64 {
	var score float64
	if item.Category == ref.Category {
		score += SameCategoryWeight
	}
	if item.Type == ref.Type {
		score += SameTypeWeight
	}

	if len(ref.Tags) > 0 && len(item.Tags) > 0 {
		itemTags := make(map[string]struct{}, len(item.Tags))
		for _, t := range item.Tags {
			itemTags[strings.ToLower(t)] = struct{}{}
		}
		common := 0
		for _, t := range ref.Tags {
			if _, ok := itemTags[strings.ToLower(t)]; ok {
				common++
			}
		}
		score += float64(common) / float64(max(len(ref.Tags), len(item.Tags))) * TagOverlapWeight
	}

	if ref.Price > 0 {
		ratio := math.Abs(item.Price-ref.Price) / ref.Price
		if ratio < PriceNearRatio {
			score += (PriceNearRatio - ratio) * PriceNearWeight
		}
	}
	return score
}
