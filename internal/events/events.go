// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

// Package events carries UI lifecycle events to the activity recorder over an
// in-process watermill pub/sub.
//
// Producers publish Event values through a Bus; a Router subscribes to the
// same topic and applies each event to the recorder. Product page visits are
// two events, product_view_started and product_view_ended, linked by a view
// token so the router can record the time spent.
//
//	bus, _ := events.NewBus(cfg.Events, logging.NewWatermillAdapter(logger))
//	router, _ := events.NewRouter(bus, recorder, cfg.Events, logger)
//	go router.Run(ctx)
//	_ = bus.Publish(ctx, events.SearchSubmitted("blue sofa", 4))
package events

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/homeview360/homeview/internal/catalog"
)

// Type names a UI event.
type Type string

// Event types.
const (
	TypeProductViewStarted Type = "product_view_started"
	TypeProductViewEnded   Type = "product_view_ended"
	TypeSearchSubmitted    Type = "search_submitted"
	TypeCategoryChanged    Type = "category_changed"
	TypeProductClicked     Type = "product_clicked"
)

// ErrMalformedEvent is returned for events that cannot be applied.
var ErrMalformedEvent = errors.New("malformed event")

// Event is the wire envelope of a UI event.
type Event struct {
	Type         Type          `json:"type"`
	ProductID    string        `json:"product_id,omitempty"`
	Item         *catalog.Item `json:"item,omitempty"`
	Query        string        `json:"query,omitempty"`
	ResultsCount int           `json:"results_count,omitempty"`
	Category     string        `json:"category,omitempty"`
	ViewToken    string        `json:"view_token,omitempty"`
}

// ProductViewStarted announces a product page becoming visible. item may be
// nil when only the id is known.
func ProductViewStarted(token, productID string, item *catalog.Item) Event {
	return Event{Type: TypeProductViewStarted, ProductID: productID, Item: item, ViewToken: token}
}

// ProductViewEnded announces that the page opened under token was left.
func ProductViewEnded(token string) Event {
	return Event{Type: TypeProductViewEnded, ViewToken: token}
}

// SearchSubmitted announces a search and its result count.
func SearchSubmitted(query string, resultsCount int) Event {
	return Event{Type: TypeSearchSubmitted, Query: query, ResultsCount: resultsCount}
}

// CategoryChanged announces a category filter change.
func CategoryChanged(category string) Event {
	return Event{Type: TypeCategoryChanged, Category: category}
}

// ProductClicked announces a click on a product card.
//
//nolint:gocritic // catalog items are small value types
func ProductClicked(item catalog.Item) Event {
	return Event{Type: TypeProductClicked, ProductID: item.ID, Item: &item}
}

// Validate checks that e carries the fields its type needs.
func (e *Event) Validate() error {
	switch e.Type {
	case TypeProductViewStarted:
		if e.productID() == "" {
			return fmt.Errorf("%w: %s without product id", ErrMalformedEvent, e.Type)
		}
	case TypeProductViewEnded:
		if e.ViewToken == "" {
			return fmt.Errorf("%w: %s without view token", ErrMalformedEvent, e.Type)
		}
	case TypeProductClicked:
		if e.Item == nil || e.Item.ID == "" {
			return fmt.Errorf("%w: %s without item", ErrMalformedEvent, e.Type)
		}
	case TypeSearchSubmitted, TypeCategoryChanged:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, e.Type)
	}
	return nil
}

func (e *Event) productID() string {
	if e.ProductID != "" {
		return e.ProductID
	}
	if e.Item != nil {
		return e.Item.ID
	}
	return ""
}

// Marshal encodes e.
func Marshal(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal decodes and validates an event payload.
func Unmarshal(payload []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}
