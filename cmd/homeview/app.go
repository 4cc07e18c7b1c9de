// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/homeview360/homeview/internal/activity"
	"github.com/homeview360/homeview/internal/catalog"
	"github.com/homeview360/homeview/internal/config"
	"github.com/homeview360/homeview/internal/events"
	"github.com/homeview360/homeview/internal/logging"
	"github.com/homeview360/homeview/internal/popularity"
	"github.com/homeview360/homeview/internal/recommend"
	"github.com/homeview360/homeview/internal/search"
	"github.com/homeview360/homeview/internal/session"
	"github.com/homeview360/homeview/internal/storage"
	"github.com/homeview360/homeview/internal/supervisor"
	"github.com/homeview360/homeview/internal/supervisor/services"
	"github.com/homeview360/homeview/internal/tracking"
)

// app holds the wired components of one process.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	store      *storage.ResilientStore
	sessions   *session.Manager
	tracker    *tracking.Store
	popularity *popularity.Tracker
	catalog    *catalog.Catalog
	scorer     *recommend.Scorer
	booster    *search.Booster
	recorder   *activity.Recorder
	bus        *events.Bus
	router     *events.Router

	closeOnce sync.Once
	closeErr  error
}

// newApp opens storage and wires every component. A missing catalog file is
// tolerated; an unreadable or invalid one is not.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	store, err := storage.Open(cfg.Storage, logger.With().Str("component", "storage").Logger())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.store = store

	a.sessions = session.NewManager(store, logger,
		session.WithKey(cfg.Session.Key),
		session.WithTTL(cfg.Session.TTL),
	)
	a.tracker = tracking.NewStore(store, logger,
		tracking.WithKey(cfg.Tracking.Key),
		tracking.WithLimits(tracking.Limits{
			MaxProductViews:  cfg.Tracking.MaxProductViews,
			MaxSearchQueries: cfg.Tracking.MaxSearchQueries,
			MaxPriceViews:    cfg.Tracking.MaxPriceViews,
			Retention:        cfg.Tracking.Retention,
		}),
	)
	a.popularity = popularity.NewTracker(store, logger,
		popularity.WithKey(cfg.Popularity.Key),
		popularity.WithTopN(cfg.Popularity.TopN),
	)

	if a.catalog, err = loadCatalog(cfg.Catalog.Path, logger); err != nil {
		a.Close() //nolint:errcheck // already failing
		return nil, err
	}

	a.scorer = recommend.NewScorer(a.tracker, a.popularity, cfg.Recommend,
		logger)
	a.booster = search.NewBooster(a.scorer)
	a.recorder = activity.NewRecorder(a.sessions, a.tracker, a.popularity,
		logger)

	a.bus, err = events.NewBus(cfg.Events, logging.NewWatermillAdapter(logger.With().Str("component", "watermill").Logger()))
	if err != nil {
		a.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("create event bus: %w", err)
	}
	a.router, err = events.NewRouter(a.bus, a.recorder, cfg.Events, logger)
	if err != nil {
		a.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("create event router: %w", err)
	}
	return a, nil
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func loadCatalog(path string, logger zerolog.Logger) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.New(nil)
	}
	c, err := catalog.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn().Str("path", path).Msg("catalog file not found, starting with an empty catalog")
		return catalog.New(nil)
	}
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", path).Int("items", c.Len()).Msg("catalog loaded")
	return c, nil
}

// Run starts the session, builds the supervisor tree and blocks until ctx is
// canceled. The summary report is logged after the tree stops.
func (a *app) Run(ctx context.Context) error {
	sessionID := a.sessions.GetOrCreateSessionID(ctx)
	ctx = logging.ContextWithSessionID(ctx, sessionID)
	a.logger.Info().Str("session_id", sessionID).Msg("session ready")

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfigFrom(a.cfg.Supervisor))
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddStorageService(services.NewPopularityFlushService(a.popularity,
		a.cfg.Popularity.FlushInterval, a.cfg.Supervisor.ShutdownTimeout,
		a.logger))
	tree.AddEventsService(services.NewEventRouterService(a.router))
	if a.cfg.Metrics.Enabled {
		handler := services.NewOpsHandler(a.health, a.logger)
		tree.AddOpsService(services.NewHTTPServerService(
			services.NewOpsServer(a.cfg.Metrics.Addr, handler), a.cfg.Supervisor.ShutdownTimeout))
		a.logger.Info().Str("addr", a.cfg.Metrics.Addr).Msg("metrics listener enabled")
	}

	errCh := tree.ServeBackground(ctx)

	if a.cfg.Events.ReplayPath != "" {
		go a.replay(ctx, a.cfg.Events.ReplayPath)
	}

	err = <-errCh
	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		a.logger.Warn().Int("count", len(report)).Msg("services did not stop before the shutdown timeout")
	}
	a.report(context.WithoutCancel(ctx))
	return err
}

func (a *app) replay(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		a.logger.Warn().Err(err).Str("path", path).Msg("cannot open replay file")
		return
	}
	defer f.Close()

	if err := a.router.WaitRunning(ctx); err != nil {
		return
	}
	stats, err := events.Replay(ctx, a.bus, f, a.logger)
	if err != nil {
		a.logger.Warn().Err(err).Msg("replay stopped early")
	}
	a.logger.Info().Int("published", stats.Published).Int("skipped", stats.Skipped).Msg("replay finished")
}

// report logs the shopper's current recommendations.
func (a *app) report(ctx context.Context) {
	items := a.catalog.All()
	pass := a.scorer.Pass(ctx)
	profile := pass.Profile()

	top := pass.TopRecommendations(items, a.cfg.Recommend.MaxTop)
	recent := pass.RecentlyViewed(items, recommend.DefaultRecentLimit)

	event := a.logger.Info().
		Int("views", profile.ViewCount).
		Bool("new_user", profile.IsNew).
		Strs("top_categories", profile.TopCategories).
		Strs("top_tags", profile.TopTags).
		Strs("recently_viewed", itemIDs(recent)).
		Strs("most_popular", a.popularity.MostPopular())
	if profile.HasPriceBand {
		event = event.Float64("price_avg", profile.PriceBand.Avg)
	}
	event.Msg("session summary")

	if queries := a.tracker.Snapshot(ctx).SearchQueries; len(queries) > 0 {
		last := queries[len(queries)-1].Query
		results := a.booster.BoostSearchResults(ctx, search.Filter(items, last), last)
		a.logger.Info().
			Str("query", last).
			Strs("results", itemIDs(results)).
			Msg("last search, personalized order")
	}

	for _, item := range top {
		reason, _ := pass.Reason(item)
		a.logger.Info().
			Str("product_id", item.ID).
			Float64("score", pass.Score(item)).
			Str("reason", reason).
			Msg("recommended")
	}
}

// health feeds /healthz.
func (a *app) health() map[string]any {
	return map[string]any{
		"storage_breaker": a.store.State().String(),
		"catalog_items":   a.catalog.Len(),
		"popular_items":   a.popularity.Len(),
		"open_views":      a.router.OpenViews(),
	}
}

// Close releases the bus and storage. It is safe to call more than once.
func (a *app) Close() error {
	a.closeOnce.Do(func() {
		var errs []error
		if a.bus != nil {
			if err := a.bus.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close event bus: %w", err))
			}
		}
		if a.store != nil {
			if err := a.store.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close storage: %w", err))
			}
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

func itemIDs(items []catalog.Item) []string {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	return ids
}
