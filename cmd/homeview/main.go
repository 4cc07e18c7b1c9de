// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

// Package main runs the HomeView360 personalization core.
//
// The process initializes components in this order:
//
//  1. Configuration: defaults, optional YAML file, environment (Koanf v2)
//  2. Storage: Badger (or in-memory) behind a circuit breaker
//  3. Session, interaction history and popularity tracker
//  4. Catalog, recommendation scorer and search booster
//  5. Activity recorder and the in-process UI event bus
//  6. Supervisor tree: popularity flush, event router, optional metrics
//
// # Configuration
//
//   - CONFIG_PATH: YAML config file
//   - STORAGE_BACKEND, STORAGE_PATH: badger (default) or memory
//   - CATALOG_PATH: catalog JSON document
//   - EVENTS_REPLAY_PATH: JSON-lines UI events to publish at startup
//   - METRICS_ENABLED, METRICS_ADDR: /metrics and /healthz listener
//
// # Signal Handling
//
// SIGINT and SIGTERM stop the supervisor tree. The popularity snapshot is
// flushed, a recommendation summary is logged, then storage is closed.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/homeview360/homeview/internal/config"
	"github.com/homeview360/homeview/internal/logging"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("storage_backend", cfg.Storage.Backend).
		Str("catalog_path", cfg.Catalog.Path).
		Bool("metrics_enabled", cfg.Metrics.Enabled).
		Msg("Starting HomeView360 personalization core")

	a, err := newApp(cfg, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error().Err(err).Msg("Error during shutdown")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
		a.Close() //nolint:errcheck // exiting with failure
		os.Exit(1)
	}
	logging.Info().Msg("HomeView360 stopped")
}
