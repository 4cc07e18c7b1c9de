// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package events

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/homeview360/homeview/internal/catalog"
	"github.com/homeview360/homeview/internal/config"
)

type fakeRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeRecorder) add(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeRecorder) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRecorder) BeginProductView(_ context.Context, id string) func() {
	f.add("begin %s", id)
	return func() { f.add("end %s", id) }
}

//nolint:gocritic // test double mirrors the interface
func (f *fakeRecorder) ViewProductPage(_ context.Context, item catalog.Item) func() {
	f.add("page %s", item.ID)
	return func() { f.add("end %s", item.ID) }
}

func (f *fakeRecorder) TrackSearch(_ context.Context, q string, n int) bool {
	f.add("search %s %d", q, n)
	return q != "dup"
}

//nolint:gocritic // test double mirrors the interface
func (f *fakeRecorder) TrackProductClick(_ context.Context, item catalog.Item) {
	f.add("click %s", item.ID)
}

func (f *fakeRecorder) TrackCategory(_ context.Context, c string) { f.add("category %s", c) }

func testEventsConfig() config.EventsConfig {
	return config.EventsConfig{Topic: "ui.events.test", BufferSize: 16, CloseTimeout: time.Second}
}

func newTestRouter(t *testing.T) (*Bus, *Router, *fakeRecorder) {
	t.Helper()
	bus, err := NewBus(testEventsConfig(), nil)
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })
	rec := &fakeRecorder{}
	router, err := NewRouter(bus, rec, testEventsConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return bus, router, rec
}

func handle(t *testing.T, r *Router, e Event) {
	t.Helper()
	payload, err := Marshal(e)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := r.Handle(message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
}

func TestEventValidate(t *testing.T) {
	item := catalog.Item{ID: "sofa"}
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{"view start by id", ProductViewStarted("t1", "sofa", nil), false},
		{"view start by item", ProductViewStarted("t1", "", &item), false},
		{"view start without product", ProductViewStarted("t1", "", nil), true},
		{"view end", ProductViewEnded("t1"), false},
		{"view end without token", ProductViewEnded(""), true},
		{"click", ProductClicked(item), false},
		{"click without item", Event{Type: TypeProductClicked, ProductID: "sofa"}, true},
		{"search", SearchSubmitted("sofa", 3), false},
		{"category", CategoryChanged("Sofas"), false},
		{"unknown", Event{Type: "page_scrolled"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedEvent) {
				t.Errorf("error %v does not wrap ErrMalformedEvent", err)
			}
		})
	}
}

func TestUnmarshal_Malformed(t *testing.T) {
	for _, payload := range []string{"{", `{"type":"nope"}`, `{"type":"product_clicked"}`} {
		if _, err := Unmarshal([]byte(payload)); !errors.Is(err, ErrMalformedEvent) {
			t.Errorf("Unmarshal(%s) error = %v, want ErrMalformedEvent", payload, err)
		}
	}
}

func TestHandle_Dispatch(t *testing.T) {
	_, r, rec := newTestRouter(t)
	item := catalog.Item{ID: "bed", Category: "Beds"}

	handle(t, r, ProductViewStarted("v1", "sofa", nil))
	handle(t, r, ProductViewStarted("v2", "", &item))
	if r.OpenViews() != 2 {
		t.Errorf("OpenViews() = %d, want 2", r.OpenViews())
	}
	handle(t, r, ProductViewEnded("v1"))
	handle(t, r, ProductViewEnded("v1"))
	handle(t, r, SearchSubmitted("blue sofa", 4))
	handle(t, r, CategoryChanged("Sofas"))
	handle(t, r, ProductClicked(item))

	want := []string{
		"begin sofa",
		"page bed",
		"end sofa",
		"search blue sofa 4",
		"category Sofas",
		"click bed",
	}
	if got := rec.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if r.OpenViews() != 1 {
		t.Errorf("OpenViews() = %d, want 1", r.OpenViews())
	}
}

func TestHandle_MalformedIsAcked(t *testing.T) {
	_, r, rec := newTestRouter(t)
	for _, payload := range []string{"garbage", `{"type":"product_view_ended"}`} {
		if err := r.Handle(message.NewMessage(watermill.NewUUID(), []byte(payload))); err != nil {
			t.Errorf("Handle(%q) error = %v, want nil (ack)", payload, err)
		}
	}
	if len(rec.Calls()) != 0 {
		t.Errorf("malformed events reached the recorder: %v", rec.Calls())
	}
}

func TestOpenViews_Bounded(t *testing.T) {
	_, r, _ := newTestRouter(t)
	for i := 0; i < MaxOpenViews+10; i++ {
		r.openView(fmt.Sprintf("t%d", i), func() {})
	}
	if r.OpenViews() != MaxOpenViews {
		t.Errorf("OpenViews() = %d, want %d", r.OpenViews(), MaxOpenViews)
	}
	if _, ok := r.closeView("t0"); ok {
		t.Error("oldest view should have been evicted")
	}
	if _, ok := r.closeView(fmt.Sprintf("t%d", MaxOpenViews+9)); !ok {
		t.Error("newest view missing")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRouter_EndToEnd(t *testing.T) {
	bus, r, rec := newTestRouter(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case <-r.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}

	if err := bus.Publish(ctx, SearchSubmitted("oak table", 2)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := bus.Publish(ctx, CategoryChanged("Tables")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	waitFor(t, func() bool { return len(rec.Calls()) == 2 })

	if err := bus.Publish(ctx, Event{Type: "bogus"}); !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("Publish(bogus) error = %v, want ErrMalformedEvent", err)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("router did not stop")
	}
	if r.Running() != nil {
		t.Error("Running() should be nil between runs")
	}
}

func TestBus_PreservesPublishOrder(t *testing.T) {
	bus, r, rec := newTestRouter(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	select {
	case <-r.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}

	const pairs = 200
	for i := 0; i < pairs; i++ {
		token := fmt.Sprintf("view-%d", i)
		id := fmt.Sprintf("item-%d", i)
		if err := bus.Publish(ctx, ProductViewStarted(token, id, nil)); err != nil {
			t.Fatalf("Publish(start %d) error = %v", i, err)
		}
		if err := bus.Publish(ctx, ProductViewEnded(token)); err != nil {
			t.Fatalf("Publish(end %d) error = %v", i, err)
		}
	}
	waitFor(t, func() bool { return len(rec.Calls()) == 2*pairs })

	calls := rec.Calls()
	for i := 0; i < pairs; i++ {
		wantBegin := fmt.Sprintf("begin item-%d", i)
		wantEnd := fmt.Sprintf("end item-%d", i)
		if calls[2*i] != wantBegin || calls[2*i+1] != wantEnd {
			t.Fatalf("calls[%d:%d] = %v, want [%s %s]", 2*i, 2*i+2, calls[2*i:2*i+2], wantBegin, wantEnd)
		}
	}
	if n := r.OpenViews(); n != 0 {
		t.Errorf("OpenViews() = %d, want 0", n)
	}

	cancel()
	<-done
}
