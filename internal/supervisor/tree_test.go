// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/homeview360/homeview/internal/config"
	"github.com/homeview360/homeview/internal/logging"
)

// countingService runs until canceled, failing the first fails starts.
type countingService struct {
	name   string
	starts atomic.Int32
	fails  int32
}

func (s *countingService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	if n <= s.fails {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

func newTestTree(t *testing.T, cfg TreeConfig) *SupervisorTree {
	t.Helper()
	logger := slog.New(logging.NewSlogHandler(zerolog.Nop()))
	tree, err := NewSupervisorTree(logger, cfg)
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	return tree
}

func waitForStarts(t *testing.T, svc *countingService, n int32) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if svc.starts.Load() >= n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("%s started %d times, want >= %d", svc.name, svc.starts.Load(), n)
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	tree := newTestTree(t, TreeConfig{})
	if tree.Root() == nil {
		t.Fatal("Root() = nil")
	}
	if tree.config != DefaultTreeConfig() {
		t.Errorf("config = %+v, want defaults %+v", tree.config, DefaultTreeConfig())
	}
}

func TestTreeConfigFrom(t *testing.T) {
	got := TreeConfigFrom(config.Default().Supervisor)
	if got != DefaultTreeConfig() {
		t.Errorf("TreeConfigFrom(defaults) = %+v, want %+v", got, DefaultTreeConfig())
	}
}

func TestSupervisorTree_RunsEveryLayer(t *testing.T) {
	tree := newTestTree(t, TreeConfig{FailureBackoff: 50 * time.Millisecond, ShutdownTimeout: time.Second})

	storageSvc := &countingService{name: "storage"}
	eventsSvc := &countingService{name: "events"}
	opsSvc := &countingService{name: "ops"}
	tree.AddStorageService(storageSvc)
	tree.AddEventsService(eventsSvc)
	tree.AddOpsService(opsSvc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitForStarts(t, storageSvc, 1)
	waitForStarts(t, eventsSvc, 1)
	waitForStarts(t, opsSvc, 1)

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("ServeBackground() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not shut down")
	}
	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) != 0 {
		t.Errorf("unstopped services: %v", report)
	}
}

func TestSupervisorTree_RestartsFailedService(t *testing.T) {
	tree := newTestTree(t, TreeConfig{FailureThreshold: 10, FailureBackoff: 10 * time.Millisecond, ShutdownTimeout: time.Second})

	flaky := &countingService{name: "flaky", fails: 2}
	steady := &countingService{name: "steady"}
	tree.AddEventsService(flaky)
	tree.AddStorageService(steady)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitForStarts(t, flaky, 3)
	if steady.starts.Load() != 1 {
		t.Errorf("steady service restarted %d times; layers must be isolated", steady.starts.Load())
	}

	cancel()
	<-errCh
}
