// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/homeview/config.yaml",
	"/etc/homeview/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultGenericTags are ignored for tag-based preference matching because
// nearly every catalog item carries them.
var DefaultGenericTags = []string{
	"furniture",
	"home",
	"interior",
	"decor",
	"modern",
	"3d",
	"ar",
	"ar-ready",
}

func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Storage: StorageConfig{
			Backend:            "badger",
			Path:               "/data/homeview",
			BreakerMaxFailures: 5,
			BreakerTimeout:     30 * time.Second,
			BreakerInterval:    time.Minute,
		},
		Session: SessionConfig{
			Key: "homeview360_session",
			TTL: 365 * 24 * time.Hour,
		},
		Tracking: TrackingConfig{
			Key:              "homeview360_tracking",
			MaxProductViews:  100,
			MaxSearchQueries: 50,
			MaxPriceViews:    50,
			Retention:        90 * 24 * time.Hour,
		},
		Popularity: PopularityConfig{
			Key:           "homeview360_popularity",
			TopN:          20,
			FlushInterval: 60 * time.Second,
		},
		Recommend: RecommendConfig{
			GenericTags:       append([]string(nil), DefaultGenericTags...),
			Threshold:         0.6,
			MinProductViews:   3,
			MaxTop:            5,
			UserTagLimit:      15,
			MinTagOverlap:     2,
			RecommendedLimit:  12,
			SimilarItemsLimit: 6,
		},
		Catalog: CatalogConfig{
			Path: "catalog.json",
		},
		Events: EventsConfig{
			Topic:        "ui.events",
			BufferSize:   256,
			CloseTimeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9360",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Default returns the built-in configuration without reading any source.
func Default() *Config {
	return defaultConfig()
}

// LoadWithKoanf loads configuration from layered sources:
//  1. Defaults
//  2. Config file (optional YAML)
//  3. Environment variables
//
// Later layers override earlier ones. The result is validated.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// STORAGE_BACKEND -> storage.backend, RECOMMEND_GENERIC_TAGS -> recommend.generic_tags
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a single string.
var sliceConfigPaths = []string{
	"recommend.generic_tags",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"storage_backend":              "storage.backend",
	"storage_path":                 "storage.path",
	"storage_breaker_max_failures": "storage.breaker_max_failures",
	"storage_breaker_timeout":      "storage.breaker_timeout",
	"storage_breaker_interval":     "storage.breaker_interval",

	"session_key": "session.key",
	"session_ttl": "session.ttl",

	"tracking_key":                "tracking.key",
	"tracking_max_product_views":  "tracking.max_product_views",
	"tracking_max_search_queries": "tracking.max_search_queries",
	"tracking_max_price_views":    "tracking.max_price_views",
	"tracking_retention":          "tracking.retention",

	"popularity_key":            "popularity.key",
	"popularity_top_n":          "popularity.top_n",
	"popularity_flush_interval": "popularity.flush_interval",

	"recommend_generic_tags":        "recommend.generic_tags",
	"recommend_threshold":           "recommend.threshold",
	"recommend_min_product_views":   "recommend.min_product_views",
	"recommend_max_top":             "recommend.max_top",
	"recommend_user_tag_limit":      "recommend.user_tag_limit",
	"recommend_min_tag_overlap":     "recommend.min_tag_overlap",
	"recommend_recommended_limit":   "recommend.recommended_limit",
	"recommend_similar_items_limit": "recommend.similar_items_limit",

	"catalog_path": "catalog.path",

	"events_topic":         "events.topic",
	"events_buffer_size":   "events.buffer_size",
	"events_close_timeout": "events.close_timeout",
	"events_replay_path":   "events.replay_path",

	"metrics_enabled": "metrics.enabled",
	"metrics_addr":    "metrics.addr",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps an environment variable name to its koanf path,
// or "" to skip it.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
