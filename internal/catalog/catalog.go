// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

// Package catalog loads the read-only furniture catalog and resolves items
// by id.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/homeview360/homeview/internal/validation"
)

// ErrItemNotFound is returned by ByID for ids not in the catalog.
var ErrItemNotFound = errors.New("catalog item not found")

// ErrInvalidCatalog wraps every load and validation failure.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Dimensions of the physical item.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
	Unit   string  `json:"unit"`
}

// Models points at the 3D assets used for AR previews.
type Models struct {
	GLB        string  `json:"glb"`
	GLBSizeMB  float64 `json:"glb_size_mb"`
	USDZ       string  `json:"usdz"`
	USDZSizeMB float64 `json:"usdz_size_mb"`
	Vertices   int     `json:"vertices"`
	Faces      int     `json:"faces"`
}

// Item is one catalog entry.
type Item struct {
	ID           string     `json:"id" validate:"nonblank"`
	SKU          string     `json:"sku"`
	Name         string     `json:"name" validate:"nonblank"`
	Category     string     `json:"category" validate:"nonblank"`
	Type         string     `json:"type"`
	Description  string     `json:"description"`
	Price        float64    `json:"price" validate:"gte=0"`
	Dimensions   Dimensions `json:"dimensions"`
	Models       Models     `json:"models"`
	Thumbnail    *string    `json:"thumbnail"`
	Tags         []string   `json:"tags"`
	ARCompatible bool       `json:"ar_compatible"`
	InStock      bool       `json:"in_stock"`
}

// Metadata describes the catalog build.
type Metadata struct {
	Version    string   `json:"version"`
	Generated  string   `json:"generated"`
	Collection string   `json:"collection"`
	TotalItems int      `json:"total_items"`
	Formats    []string `json:"formats"`
}

// Statistics are precomputed catalog aggregates.
type Statistics struct {
	TotalItems int            `json:"total_items"`
	ByCategory map[string]int `json:"by_category"`
	ByType     map[string]int `json:"by_type"`
	PriceRange struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"price_range"`
}

// Catalog is an immutable set of items indexed by id.
type Catalog struct {
	Metadata   Metadata   `json:"metadata"`
	Statistics Statistics `json:"statistics"`
	Items      []Item     `json:"items" validate:"dive"`

	byID map[string]int
}

// Load reads and validates the catalog JSON file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidCatalog, path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidCatalog, err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

// New builds a catalog from items.
func New(items []Item) (*Catalog, error) {
	c := &Catalog{Items: append([]Item(nil), items...)}
	if err := c.index(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) index() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	c.byID = make(map[string]int, len(c.Items))
	for i := range c.Items {
		id := c.Items[i].ID
		if _, dup := c.byID[id]; dup {
			return fmt.Errorf("%w: duplicate item id %q", ErrInvalidCatalog, id)
		}
		c.byID[id] = i
	}
	return nil
}

// ByID returns the item with the given id.
func (c *Catalog) ByID(id string) (Item, error) {
	i, ok := c.byID[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return c.Items[i], nil
}

// All returns a copy of the item list in catalog order.
func (c *Catalog) All() []Item {
	return append([]Item(nil), c.Items...)
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.Items)
}
