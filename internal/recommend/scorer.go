// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

// Package recommend scores catalog items for the current shopper.
//
// # Scoring
//
// A new shopper (no product views, no searches) gets the popularity score
// alone. A returning shopper gets 0.7 x personalized + 0.3 x popularity,
// where personalized is the sum of three independent terms:
//
//   - category: 0.45 / 0.30 / 0.15 for the shopper's first / second / third
//     category, plus 0.15 for being in the top three at all
//   - tags: (overlap / max(itemTags, userTags, 1)) x 0.3, counted only when
//     at least two non-generic tags overlap
//   - price: max(0, 1 - |price - avg| / max(max - min, 100)) x 0.2, absent
//     when no price has been viewed
//
// # Passes
//
// Every Scorer method reads the interaction history once. Callers scoring
// many items against the same history should take a Pass and reuse it.
//
//	pass := scorer.Pass(ctx)
//	for _, item := range items {
//	    if pass.IsRecommended(item) { ... }
//	}
package recommend

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/homeview360/homeview/internal/catalog"
	"github.com/homeview360/homeview/internal/config"
	"github.com/homeview360/homeview/internal/metrics"
	"github.com/homeview360/homeview/internal/preferences"
	"github.com/homeview360/homeview/internal/tracking"
)

// Blend and term weights.
const (
	PersonalizedWeight = 0.7
	PopularityWeight   = 0.3

	CategoryTopBonus = 0.15
	TagWeight        = 0.3
	PriceWeight      = 0.2

	// MinPriceSpread floors the viewed price spread used by the price term.
	MinPriceSpread = 100.0

	// ReasonTags is how many of the shopper's top tags a tag reason may cite.
	ReasonTags = 5
	// DefaultRecentLimit applies when RecentlyViewed gets limit <= 0.
	DefaultRecentLimit = 10
)

// CategoryRankWeights are the per-rank category contributions.
var CategoryRankWeights = [...]float64{0.45, 0.30, 0.15}

// PopularitySource supplies normalized popularity scores.
type PopularitySource interface {
	Score(productID string) float64
}

// HistorySource supplies the cleaned interaction history.
type HistorySource interface {
	Snapshot(ctx context.Context) tracking.UserInteraction
}

// Scorer computes recommendation scores, badges and lists.
type Scorer struct {
	history    HistorySource
	popularity PopularitySource
	prefs      *preferences.Aggregator
	cfg        config.RecommendConfig
	logger     zerolog.Logger
}

// NewScorer returns a Scorer. Non-positive limits in cfg fall back to the
// built-in defaults; Threshold is used as given.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewScorer(history HistorySource, popularity PopularitySource, cfg config.RecommendConfig, logger zerolog.Logger) *Scorer {
	d := config.Default().Recommend
	if cfg.MaxTop <= 0 {
		cfg.MaxTop = d.MaxTop
	}
	if cfg.UserTagLimit <= 0 {
		cfg.UserTagLimit = d.UserTagLimit
	}
	if cfg.MinTagOverlap <= 0 {
		cfg.MinTagOverlap = d.MinTagOverlap
	}
	if cfg.RecommendedLimit <= 0 {
		cfg.RecommendedLimit = d.RecommendedLimit
	}
	if cfg.SimilarItemsLimit <= 0 {
		cfg.SimilarItemsLimit = d.SimilarItemsLimit
	}
	return &Scorer{
		history:    history,
		popularity: popularity,
		prefs:      preferences.NewAggregator(cfg.GenericTags, preferences.WithProfileTags(cfg.UserTagLimit)),
		cfg:        cfg,
		logger:     logger.With().Str("component", "recommend").Logger(),
	}
}

// Preferences returns the aggregator used for tag filtering.
func (s *Scorer) Preferences() *preferences.Aggregator {
	return s.prefs
}

// Pass reads the history once and returns a scoring pass over it.
func (s *Scorer) Pass(ctx context.Context) *Pass {
	return &Pass{
		scorer:  s,
		profile: s.prefs.Profile(s.history.Snapshot(ctx)),
	}
}

// Score returns the recommendation score of item.
//
//nolint:gocritic // catalog items are small value types
func (s *Scorer) Score(ctx context.Context, item catalog.Item) float64 {
	return s.Pass(ctx).Score(item)
}

// Breakdown returns the per-term contributions to the score of item.
//
//nolint:gocritic // catalog items are small value types
func (s *Scorer) Breakdown(ctx context.Context, item catalog.Item) Breakdown {
	return s.Pass(ctx).Breakdown(item)
}

// IsRecommendedForUser reports whether item earns the recommended badge.
//
//nolint:gocritic // catalog items are small value types
func (s *Scorer) IsRecommendedForUser(ctx context.Context, item catalog.Item) bool {
	return s.Pass(ctx).IsRecommended(item)
}

// RecommendationReason explains a recommended badge. ok is false when item
// gets no badge text.
//
//nolint:gocritic // catalog items are small value types
func (s *Scorer) RecommendationReason(ctx context.Context, item catalog.Item) (reason string, ok bool) {
	return s.Pass(ctx).Reason(item)
}

// Breakdown is a score split into its terms. The personalized terms are
// zero for new shoppers.
type Breakdown struct {
	ColdStart    bool    `json:"cold_start"`
	Popularity   float64 `json:"popularity"`
	Category     float64 `json:"category"`
	Tags         float64 `json:"tags"`
	Price        float64 `json:"price"`
	Personalized float64 `json:"personalized"`
	Score        float64 `json:"score"`
}

// Pass scores items against one history snapshot.
type Pass struct {
	scorer  *Scorer
	profile preferences.Profile
}

// Profile returns the preference profile the pass scores against.
func (p *Pass) Profile() preferences.Profile {
	return p.profile
}

// Score returns the recommendation score of item.
//
//nolint:gocritic // catalog items are small value types
func (p *Pass) Score(item catalog.Item) float64 {
	return p.Breakdown(item).Score
}

// Breakdown returns the per-term contributions to the score of item.
//
//nolint:gocritic // catalog items are small value types
func (p *Pass) Breakdown(item catalog.Item) Breakdown {
	b := Breakdown{
		ColdStart:  p.profile.IsNew,
		Popularity: p.scorer.popularity.Score(item.ID),
	}
	metrics.RecordRecommendEvaluation(b.ColdStart)
	if b.ColdStart {
		b.Score = b.Popularity
		return b
	}

	b.Category = p.categoryTerm(item)
	b.Tags = p.tagTerm(item)
	b.Price = p.priceTerm(item)
	b.Personalized = b.Category + b.Tags + b.Price
	b.Score = PersonalizedWeight*b.Personalized + PopularityWeight*b.Popularity
	return b
}

// IsRecommended is false for new shoppers and for shoppers with fewer than
// the minimum product views; otherwise it reports score > threshold.
//
//nolint:gocritic // catalog items are small value types
func (p *Pass) IsRecommended(item catalog.Item) bool {
	if p.profile.IsNew || p.profile.ViewCount < p.scorer.cfg.MinProductViews {
		return false
	}
	return p.Score(item) > p.scorer.cfg.Threshold
}

// Reason returns the badge text of item. Viewed items and items that are not
// recommended get none. A match on the shopper's favourite category wins
// over a tag match.
//
//nolint:gocritic // catalog items are small value types
func (p *Pass) Reason(item catalog.Item) (string, bool) {
	if p.profile.HasViewed(item.ID) || !p.IsRecommended(item) {
		return "", false
	}
	if len(p.profile.TopCategories) > 0 && p.profile.TopCategories[0] == item.Category {
		return "Based on your interest in " + strings.ToLower(item.Category), true
	}

	userTags := toSet(p.profile.TagsUpTo(ReasonTags))
	var matched []string
	for _, t := range p.scorer.prefs.FilterTags(item.Tags) {
		if _, ok := userTags[t]; ok {
			matched = append(matched, t)
			if len(matched) == 2 {
				break
			}
		}
	}
	if len(matched) > 0 {
		return "Matches your style: " + strings.Join(matched, ", "), true
	}
	return "", false
}

//nolint:gocritic // catalog items are small value types
func (p *Pass) categoryTerm(item catalog.Item) float64 {
	rank := p.profile.CategoryRank(item.Category)
	if rank < 0 || rank >= len(CategoryRankWeights) {
		return 0
	}
	return CategoryRankWeights[rank] + CategoryTopBonus
}

//nolint:gocritic // catalog items are small value types
func (p *Pass) tagTerm(item catalog.Item) float64 {
	itemTags := p.scorer.prefs.FilterTags(item.Tags)
	userTags := p.profile.TopTags
	if len(itemTags) == 0 || len(userTags) == 0 {
		return 0
	}
	userSet := toSet(userTags)
	overlap := 0
	for _, t := range itemTags {
		if _, ok := userSet[t]; ok {
			overlap++
		}
	}
	if overlap < p.scorer.cfg.MinTagOverlap {
		return 0
	}
	return float64(overlap) / float64(max(len(itemTags), len(userTags), 1)) * TagWeight
}

//nolint:gocritic // catalog items are small value types
func (p *Pass) priceTerm(item catalog.Item) float64 {
	if !p.profile.HasPriceBand {
		return 0
	}
	band := p.profile.PriceBand
	spread := math.Max(band.Max-band.Min, MinPriceSpread)
	return math.Max(0, 1-math.Abs(item.Price-band.Avg)/spread) * PriceWeight
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func observe(list string) func() {
	start := time.Now()
	return func() { metrics.ObserveListDuration(list, start) }
}
