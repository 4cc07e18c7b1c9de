// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// isolate points config discovery at an empty directory so a stray
// config.yaml in the package directory cannot leak into tests.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv(ConfigPathEnvVar, "")
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Session.Key != "homeview360_session" {
		t.Errorf("Session.Key = %q", cfg.Session.Key)
	}
	if cfg.Session.TTL != 365*24*time.Hour {
		t.Errorf("Session.TTL = %v, want 365 days", cfg.Session.TTL)
	}
	if cfg.Tracking.Key != "homeview360_tracking" {
		t.Errorf("Tracking.Key = %q", cfg.Tracking.Key)
	}
	if cfg.Tracking.MaxProductViews != 100 {
		t.Errorf("Tracking.MaxProductViews = %d, want 100", cfg.Tracking.MaxProductViews)
	}
	if cfg.Tracking.MaxSearchQueries != 50 {
		t.Errorf("Tracking.MaxSearchQueries = %d, want 50", cfg.Tracking.MaxSearchQueries)
	}
	if cfg.Tracking.MaxPriceViews != 50 {
		t.Errorf("Tracking.MaxPriceViews = %d, want 50", cfg.Tracking.MaxPriceViews)
	}
	if cfg.Tracking.Retention != 90*24*time.Hour {
		t.Errorf("Tracking.Retention = %v, want 90 days", cfg.Tracking.Retention)
	}
	if cfg.Popularity.Key != "homeview360_popularity" {
		t.Errorf("Popularity.Key = %q", cfg.Popularity.Key)
	}
	if cfg.Popularity.TopN != 20 {
		t.Errorf("Popularity.TopN = %d, want 20", cfg.Popularity.TopN)
	}
	if cfg.Popularity.FlushInterval != time.Minute {
		t.Errorf("Popularity.FlushInterval = %v, want 1m", cfg.Popularity.FlushInterval)
	}
	if cfg.Recommend.Threshold != 0.6 {
		t.Errorf("Recommend.Threshold = %v, want 0.6", cfg.Recommend.Threshold)
	}
	if cfg.Recommend.MinProductViews != 3 {
		t.Errorf("Recommend.MinProductViews = %d, want 3", cfg.Recommend.MinProductViews)
	}
	if cfg.Recommend.MaxTop != 5 {
		t.Errorf("Recommend.MaxTop = %d, want 5", cfg.Recommend.MaxTop)
	}
	if !reflect.DeepEqual(cfg.Recommend.GenericTags, DefaultGenericTags) {
		t.Errorf("Recommend.GenericTags = %v", cfg.Recommend.GenericTags)
	}
	if cfg.Events.Topic != "ui.events" {
		t.Errorf("Events.Topic = %q", cfg.Events.Topic)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestDefault_ReturnsIndependentCopies(t *testing.T) {
	a := Default()
	a.Recommend.GenericTags[0] = "changed"
	if DefaultGenericTags[0] == "changed" {
		t.Error("mutating Default() leaked into DefaultGenericTags")
	}
}

func TestLoadWithKoanf_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Storage.Backend != "badger" {
		t.Errorf("Storage.Backend = %q, want badger", cfg.Storage.Backend)
	}
	if cfg.Tracking.MaxProductViews != 100 {
		t.Errorf("Tracking.MaxProductViews = %d", cfg.Tracking.MaxProductViews)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("POPULARITY_FLUSH_INTERVAL", "5s")
	t.Setenv("TRACKING_MAX_PRODUCT_VIEWS", "10")
	t.Setenv("RECOMMEND_GENERIC_TAGS", " Furniture, decor ,,")
	t.Setenv("METRICS_ENABLED", "true")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Popularity.FlushInterval != 5*time.Second {
		t.Errorf("Popularity.FlushInterval = %v, want 5s", cfg.Popularity.FlushInterval)
	}
	if cfg.Tracking.MaxProductViews != 10 {
		t.Errorf("Tracking.MaxProductViews = %d, want 10", cfg.Tracking.MaxProductViews)
	}
	if want := []string{"furniture", "decor"}; !reflect.DeepEqual(cfg.Recommend.GenericTags, want) {
		t.Errorf("Recommend.GenericTags = %v, want %v", cfg.Recommend.GenericTags, want)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be true")
	}
}

func TestLoadWithKoanf_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "homeview.yaml")
	yaml := `
storage:
  backend: memory
tracking:
  max_search_queries: 20
recommend:
  generic_tags: [sofa, chair]
  threshold: 0.5
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("RECOMMEND_THRESHOLD", "0.75")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q, want memory from file", cfg.Storage.Backend)
	}
	if cfg.Tracking.MaxSearchQueries != 20 {
		t.Errorf("Tracking.MaxSearchQueries = %d, want 20", cfg.Tracking.MaxSearchQueries)
	}
	if cfg.Tracking.MaxProductViews != 100 {
		t.Errorf("Tracking.MaxProductViews = %d, want default 100", cfg.Tracking.MaxProductViews)
	}
	if want := []string{"sofa", "chair"}; !reflect.DeepEqual(cfg.Recommend.GenericTags, want) {
		t.Errorf("Recommend.GenericTags = %v, want %v", cfg.Recommend.GenericTags, want)
	}
	if cfg.Recommend.Threshold != 0.75 {
		t.Errorf("Recommend.Threshold = %v, want env override 0.75", cfg.Recommend.Threshold)
	}
}

func TestLoadWithKoanf_Invalid(t *testing.T) {
	isolate(t)
	t.Setenv("STORAGE_BACKEND", "redis")

	_, err := LoadWithKoanf()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"LOG_LEVEL", "logging.level"},
		{"STORAGE_PATH", "storage.path"},
		{"SESSION_TTL", "session.ttl"},
		{"popularity_top_n", "popularity.top_n"},
		{"SUPERVISOR_FAILURE_BACKOFF", "supervisor.failure_backoff"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
