// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package search

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/homeview360/homeview/internal/catalog"
	"github.com/homeview360/homeview/internal/config"
	"github.com/homeview360/homeview/internal/recommend"
	"github.com/homeview360/homeview/internal/tracking"
)

type emptyHistory struct{}

func (emptyHistory) Snapshot(context.Context) tracking.UserInteraction { return tracking.Empty() }

type fixedPopularity map[string]float64

func (p fixedPopularity) Score(id string) float64 { return p[id] }

func newBooster(pop fixedPopularity) *Booster {
	return NewBooster(recommend.NewScorer(emptyHistory{}, pop, config.Default().Recommend, zerolog.Nop()))
}

func ids(items []catalog.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestRelevance(t *testing.T) {
	item := catalog.Item{
		Name:        "Sofa",
		Category:    "Sofas",
		SKU:         "HV-SOFA-1",
		Tags:        []string{"Velvet", "sofa-bed"},
		Description: "A deep sofa.",
	}
	tests := []struct {
		name  string
		query string
		want  float64
	}{
		{"everything matches, exact name", "SOFA", 0.5 + 0.3 + 0.2 + 0.2 + 0.1 + 0.05},
		{"tag only", "velv", 0.2},
		{"sku only", "hv-", 0.1},
		{"nothing", "lamp", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Relevance(item, tt.query); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Relevance(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestBoostSearchResults_Monotonicity(t *testing.T) {
	// Identical text relevance; popularity decides.
	items := []catalog.Item{
		{ID: "low", Name: "Oak Table"},
		{ID: "high", Name: "Oak Table"},
		{ID: "mid", Name: "Oak Table"},
	}
	b := newBooster(fixedPopularity{"high": 1, "mid": 0.5, "low": 0.1})

	got := b.BoostSearchResults(context.Background(), items, "oak")
	if want := []string{"high", "mid", "low"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("BoostSearchResults() = %v, want %v", ids(got), want)
	}
}

func TestBoostSearchResults_RelevanceBlend(t *testing.T) {
	items := []catalog.Item{
		{ID: "desc", Name: "Lamp", Description: "goes with any sofa"},
		{ID: "name", Name: "Sofa"},
		{ID: "tie-a", Name: "Chair"},
		{ID: "tie-b", Name: "Stool"},
	}
	b := newBooster(fixedPopularity{"desc": 1})

	results := b.Rank(context.Background(), items, "sofa")
	// name: 0.6*0.8 = 0.48; desc: 0.6*0.05 + 0.4*1 = 0.43; ties keep input order.
	if got := []string{results[0].Item.ID, results[1].Item.ID, results[2].Item.ID, results[3].Item.ID}; !reflect.DeepEqual(got, []string{"name", "desc", "tie-a", "tie-b"}) {
		t.Errorf("Rank() order = %v", got)
	}
	if math.Abs(results[0].Combined-0.48) > 1e-9 || math.Abs(results[1].Combined-0.43) > 1e-9 {
		t.Errorf("Combined = %v, %v", results[0].Combined, results[1].Combined)
	}
}

func TestFilter(t *testing.T) {
	items := []catalog.Item{
		{ID: "a", Name: "Velvet Sofa"},
		{ID: "b", Name: "Lamp", Tags: []string{"Brass"}},
		{ID: "c", Name: "Rug", Description: "Hand-woven wool"},
		{ID: "d", Name: "Bed", SKU: "HV-BED-9"},
	}
	tests := []struct {
		query string
		want  []string
	}{
		{"sofa", []string{"a"}},
		{"BRASS", []string{"b"}},
		{"wool", []string{"c"}},
		{"hv-bed", []string{"d"}},
		{"  ", []string{}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := Filter(items, tt.query); !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("Filter(%q) = %v, want %v", tt.query, ids(got), tt.want)
			}
		})
	}
}
