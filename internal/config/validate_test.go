// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package config

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"memory backend without path", func(c *Config) { c.Storage.Backend = "memory"; c.Storage.Path = "" }, false},
		{"badger without path", func(c *Config) { c.Storage.Path = " " }, true},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }, true},
		{"zero view cap", func(c *Config) { c.Tracking.MaxProductViews = 0 }, true},
		{"negative search cap", func(c *Config) { c.Tracking.MaxSearchQueries = -1 }, true},
		{"zero retention", func(c *Config) { c.Tracking.Retention = 0 }, true},
		{"zero flush interval", func(c *Config) { c.Popularity.FlushInterval = 0 }, true},
		{"blank tracking key", func(c *Config) { c.Tracking.Key = "  " }, true},
		{"threshold above one", func(c *Config) { c.Recommend.Threshold = 1.5 }, true},
		{"blank generic tag", func(c *Config) { c.Recommend.GenericTags = []string{"home", ""} }, true},
		{"max top above recommended limit", func(c *Config) { c.Recommend.MaxTop = 20 }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"metrics enabled without addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }, true},
		{"metrics disabled without addr", func(c *Config) { c.Metrics.Addr = "" }, false},
		{"metrics bad addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "nope" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want wrapping ErrInvalidConfig", err)
			}
		})
	}
}
