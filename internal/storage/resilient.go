// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/homeview360/homeview/internal/metrics"
)

// BreakerConfig tunes the circuit breaker in front of a backend.
type BreakerConfig struct {
	Name        string
	MaxFailures uint32        // consecutive failures before opening
	Timeout     time.Duration // open -> half-open
	Interval    time.Duration // closed-state count reset, 0 = never
}

// ResilientStore wraps a Store with a circuit breaker. While the breaker is
// open every call fails fast with gobreaker.ErrOpenState, which callers treat
// like any other storage failure.
type ResilientStore struct {
	next    Store
	backend string
	cb      *gobreaker.CircuitBreaker[[]byte]
	logger  zerolog.Logger
}

// NewResilientStore wraps next. backend labels the operation metrics.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewResilientStore(next Store, backend string, cfg BreakerConfig, logger zerolog.Logger) *ResilientStore {
	if cfg.Name == "" {
		cfg.Name = "storage"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger = logger.With().Str("breaker", cfg.Name).Logger()
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	rs := &ResilientStore{next: next, backend: backend, logger: logger}
	rs.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// Absent keys and caller cancellation say nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("storage circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	return rs
}

func (s *ResilientStore) execute(op string, fn func() ([]byte, error)) ([]byte, error) {
	start := time.Now()
	out, err := s.cb.Execute(fn)
	metrics.RecordStorageOperation(s.backend, op, time.Since(start))

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(s.cb.Name(), "rejected").Inc()
	case err != nil && !errors.Is(err, ErrNotFound):
		metrics.CircuitBreakerRequests.WithLabelValues(s.cb.Name(), "failure").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(s.cb.Name(), "success").Inc()
	}
	return out, err
}

// Get implements Store.
func (s *ResilientStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.execute("get", func() ([]byte, error) {
		return s.next.Get(ctx, key)
	})
}

// Set implements Store.
func (s *ResilientStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.execute("set", func() ([]byte, error) {
		return nil, s.next.Set(ctx, key, value, ttl)
	})
	return err
}

// Delete implements Store.
func (s *ResilientStore) Delete(ctx context.Context, key string) error {
	_, err := s.execute("delete", func() ([]byte, error) {
		return nil, s.next.Delete(ctx, key)
	})
	return err
}

// Close closes the wrapped store.
func (s *ResilientStore) Close() error {
	return s.next.Close()
}

// State reports the breaker state.
func (s *ResilientStore) State() gobreaker.State {
	return s.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
