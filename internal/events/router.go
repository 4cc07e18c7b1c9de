// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/homeview360/homeview/internal/catalog"
	"github.com/homeview360/homeview/internal/config"
	"github.com/homeview360/homeview/internal/logging"
	"github.com/homeview360/homeview/internal/metrics"
)

// MaxOpenViews bounds the product views waiting for their end event. When
// full, the oldest open view is closed without recording time spent.
const MaxOpenViews = 1024

// Recorder is the activity recorder the router feeds.
type Recorder interface {
	BeginProductView(ctx context.Context, productID string) (end func())
	ViewProductPage(ctx context.Context, item catalog.Item) (end func())
	TrackSearch(ctx context.Context, query string, resultsCount int) bool
	TrackProductClick(ctx context.Context, item catalog.Item)
	TrackCategory(ctx context.Context, category string)
}

// Router applies bus events to a Recorder. Run may be called again after it
// returns; each run subscribes afresh.
type Router struct {
	bus          *Bus
	recorder     Recorder
	closeTimeout time.Duration
	logger       zerolog.Logger

	mu      sync.Mutex
	current *message.Router

	viewsMu   sync.Mutex
	views     map[string]func()
	viewOrder []string
}

// NewRouter returns a Router reading bus and writing to recorder.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRouter(bus *Bus, recorder Recorder, cfg config.EventsConfig, logger zerolog.Logger) (*Router, error) {
	r := &Router{
		bus:          bus,
		recorder:     recorder,
		closeTimeout: cfg.CloseTimeout,
		logger:       logger.With().Str("component", "events").Logger(),
		views:        make(map[string]func()),
	}
	wr, err := r.build()
	if err != nil {
		return nil, err
	}
	r.current = wr
	return r, nil
}

func (r *Router) build() (*message.Router, error) {
	wr, err := message.NewRouter(message.RouterConfig{CloseTimeout: r.closeTimeout}, logging.NewWatermillAdapter(r.logger))
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}
	wr.AddMiddleware(middleware.Recoverer)
	wr.AddConsumerHandler("activity-recorder", r.bus.Topic(), r.bus.Subscriber(), r.Handle)
	return wr, nil
}

// Run subscribes and applies events until ctx is canceled.
func (r *Router) Run(ctx context.Context) error {
	r.mu.Lock()
	wr := r.current
	if wr == nil {
		var err error
		if wr, err = r.build(); err != nil {
			r.mu.Unlock()
			return err
		}
		r.current = wr
	}
	r.mu.Unlock()

	r.logger.Info().Str("topic", r.bus.Topic()).Msg("event router starting")
	err := wr.Run(ctx)

	r.mu.Lock()
	if r.current == wr {
		r.current = nil
	}
	r.mu.Unlock()

	if err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	return ctx.Err()
}

// Running is closed once the current run has subscribed. It returns nil
// between runs.
func (r *Router) Running() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	return r.current.Running()
}

// Handle applies one message. Malformed events are logged and acknowledged
// so they are never redelivered.
func (r *Router) Handle(msg *message.Message) error {
	ctx := msg.Context()
	if id := msg.Metadata.Get(CorrelationIDKey); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}

	e, err := Unmarshal(msg.Payload)
	if err != nil {
		metrics.RecordEventBusMessage("unknown", "malformed")
		logging.Ctx(ctx, r.logger).Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping malformed event")
		return nil
	}
	result := r.apply(ctx, &e)
	metrics.RecordEventBusMessage(string(e.Type), result)
	return nil
}

// OpenViews returns the number of views waiting for their end event.
func (r *Router) OpenViews() int {
	r.viewsMu.Lock()
	defer r.viewsMu.Unlock()
	return len(r.views)
}

func (r *Router) apply(ctx context.Context, e *Event) string {
	switch e.Type {
	case TypeProductViewStarted:
		var end func()
		if e.Item != nil {
			end = r.recorder.ViewProductPage(ctx, *e.Item)
		} else {
			end = r.recorder.BeginProductView(ctx, e.ProductID)
		}
		if e.ViewToken != "" {
			r.openView(e.ViewToken, end)
		}
	case TypeProductViewEnded:
		end, ok := r.closeView(e.ViewToken)
		if !ok {
			logging.Ctx(ctx, r.logger).Debug().Str("view_token", e.ViewToken).Msg("end of unknown product view")
			return "unknown_view"
		}
		end()
	case TypeSearchSubmitted:
		if !r.recorder.TrackSearch(ctx, e.Query, e.ResultsCount) {
			return "skipped"
		}
	case TypeCategoryChanged:
		r.recorder.TrackCategory(ctx, e.Category)
	case TypeProductClicked:
		r.recorder.TrackProductClick(ctx, *e.Item)
	}
	return "handled"
}

func (r *Router) openView(token string, end func()) {
	r.viewsMu.Lock()
	defer r.viewsMu.Unlock()
	if _, exists := r.views[token]; !exists {
		r.viewOrder = append(r.viewOrder, token)
	}
	r.views[token] = end
	for len(r.views) > MaxOpenViews && len(r.viewOrder) > 0 {
		oldest := r.viewOrder[0]
		r.viewOrder = r.viewOrder[1:]
		delete(r.views, oldest)
	}
}

func (r *Router) closeView(token string) (func(), bool) {
	r.viewsMu.Lock()
	defer r.viewsMu.Unlock()
	end, ok := r.views[token]
	if !ok {
		return nil, false
	}
	delete(r.views, token)
	for i, t := range r.viewOrder {
		if t == token {
			r.viewOrder = append(r.viewOrder[:i], r.viewOrder[i+1:]...)
			break
		}
	}
	return end, true
}
