// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PopularityStore is the part of popularity.Tracker the flush loop drives.
type PopularityStore interface {
	Start(ctx context.Context)
	Flush(ctx context.Context) error
	Stop(ctx context.Context) error
}

// PopularityFlushService loads the popularity snapshot, persists it every
// interval, and writes a final snapshot on shutdown.
type PopularityFlushService struct {
	tracker         PopularityStore
	interval        time.Duration
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// NewPopularityFlushService creates the flush loop. Non-positive durations
// fall back to 30s and 5s.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPopularityFlushService(tracker PopularityStore, interval, shutdownTimeout time.Duration, logger zerolog.Logger) *PopularityFlushService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	return &PopularityFlushService{
		tracker:         tracker,
		interval:        interval,
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

// Serve implements suture.Service. Flush failures are logged and retried on
// the next tick; they never restart the service.
func (s *PopularityFlushService) Serve(ctx context.Context) error {
	s.tracker.Start(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.tracker.Flush(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("popularity flush failed")
			}
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
			if err := s.tracker.Stop(stopCtx); err != nil {
				s.logger.Warn().Err(err).Msg("final popularity flush failed")
			}
			cancel()
			return ctx.Err()
		}
	}
}

// String implements fmt.Stringer.
func (s *PopularityFlushService) String() string {
	return "popularity-flush"
}
