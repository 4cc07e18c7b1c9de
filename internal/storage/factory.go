// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package storage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/homeview360/homeview/internal/config"
)

// Backend names accepted by Open.
const (
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Open builds the configured backend wrapped in a ResilientStore.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Open(cfg config.StorageConfig, logger zerolog.Logger) (*ResilientStore, error) {
	var (
		base Store
		err  error
	)
	switch cfg.Backend {
	case BackendBadger:
		base, err = OpenBadger(cfg.Path)
		if err != nil {
			return nil, err
		}
	case BackendMemory, "":
		base = NewMemoryStore()
		cfg.Backend = BackendMemory
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	logger.Info().Str("backend", cfg.Backend).Str("path", cfg.Path).Msg("storage opened")

	return NewResilientStore(base, cfg.Backend, BreakerConfig{
		Name:        "storage-" + cfg.Backend,
		MaxFailures: cfg.BreakerMaxFailures,
		Timeout:     cfg.BreakerTimeout,
		Interval:    cfg.BreakerInterval,
	}, logger), nil
}
