// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

// Package config loads HomeView360 configuration.
//
// Values are layered with koanf: built-in defaults, then an optional YAML
// file (CONFIG_PATH or ./config.yaml), then environment variables. See
// LoadWithKoanf for the precedence rules and envTransformFunc for the
// recognised environment variables.
package config

import "time"

// Config holds all runtime settings.
type Config struct {
	Logging    LoggingConfig    `koanf:"logging"`
	Storage    StorageConfig    `koanf:"storage"`
	Session    SessionConfig    `koanf:"session"`
	Tracking   TrackingConfig   `koanf:"tracking"`
	Popularity PopularityConfig `koanf:"popularity"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Events     EventsConfig     `koanf:"events"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// LoggingConfig configures the zerolog global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// StorageConfig selects and tunes the local key-value backend.
type StorageConfig struct {
	// Backend is "badger" (on-disk) or "memory" (process lifetime only).
	Backend string `koanf:"backend" validate:"oneof=badger memory"`
	Path    string `koanf:"path"`

	// Circuit breaker around the backend.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures" validate:"gt=0"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
	BreakerInterval    time.Duration `koanf:"breaker_interval" validate:"gte=0"`
}

// SessionConfig controls the anonymous session identifier.
type SessionConfig struct {
	Key string        `koanf:"key" validate:"required,nonblank"`
	TTL time.Duration `koanf:"ttl" validate:"gt=0"`
}

// TrackingConfig controls the persisted interaction history.
type TrackingConfig struct {
	Key              string        `koanf:"key" validate:"required,nonblank"`
	MaxProductViews  int           `koanf:"max_product_views" validate:"gt=0"`
	MaxSearchQueries int           `koanf:"max_search_queries" validate:"gt=0"`
	MaxPriceViews    int           `koanf:"max_price_views" validate:"gt=0"`
	Retention        time.Duration `koanf:"retention" validate:"gt=0"`
}

// PopularityConfig controls the view-count tracker and its flush loop.
type PopularityConfig struct {
	Key           string        `koanf:"key" validate:"required,nonblank"`
	TopN          int           `koanf:"top_n" validate:"gt=0"`
	FlushInterval time.Duration `koanf:"flush_interval" validate:"gt=0"`
}

// RecommendConfig tunes gating and the generic-tag filter.
type RecommendConfig struct {
	GenericTags       []string `koanf:"generic_tags"`
	Threshold         float64  `koanf:"threshold" validate:"gte=0,lte=1"`
	MinProductViews   int      `koanf:"min_product_views" validate:"gte=0"`
	MaxTop            int      `koanf:"max_top" validate:"gt=0"`
	UserTagLimit      int      `koanf:"user_tag_limit" validate:"gt=0"`
	MinTagOverlap     int      `koanf:"min_tag_overlap" validate:"gt=0"`
	RecommendedLimit  int      `koanf:"recommended_limit" validate:"gt=0"`
	SimilarItemsLimit int      `koanf:"similar_items_limit" validate:"gt=0"`
}

// CatalogConfig points at the catalog JSON document.
type CatalogConfig struct {
	Path string `koanf:"path"`
}

// EventsConfig configures the in-process UI event bus.
type EventsConfig struct {
	Topic        string        `koanf:"topic" validate:"required,nonblank"`
	BufferSize   int64         `koanf:"buffer_size" validate:"gte=0"`
	CloseTimeout time.Duration `koanf:"close_timeout" validate:"gt=0"`

	// ReplayPath names a JSON-lines file of UI events published at startup.
	ReplayPath string `koanf:"replay_path"`
}

// MetricsConfig configures the optional /metrics and /healthz listener.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr" validate:"omitempty,hostname_port"`
}

// SupervisorConfig tunes suture restart behaviour.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}
