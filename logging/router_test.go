package logging

import (
	"context"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Write(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Close(context.Context) error { return nil }

func (s *captureSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestRouterDeliversToEnabledSinks(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	cfg := DefaultConfig()
	cfg.EnabledSinks = []string{"capture"}

	router, err := NewRouter(cfg, nil, nil, map[string]Sink{"capture": sink})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	router.Publish(context.Background(), Event{
		Type:     "room_created",
		Actor:    EntityRef{ID: "room-1", Kind: EntityKindRoom},
		Severity: SeverityInfo,
	})

	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := sink.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != "room_created" {
		t.Fatalf("unexpected event type %q", events[0].Type)
	}
	if events[0].Time.IsZero() {
		t.Fatal("router should stamp event time")
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	cfg := DefaultConfig()
	cfg.EnabledSinks = []string{"capture"}
	cfg.MinimumSeverity = SeverityWarn

	router, err := NewRouter(cfg, nil, nil, map[string]Sink{"capture": sink})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	router.Publish(context.Background(), Event{Type: "debug", Severity: SeverityDebug})
	router.Publish(context.Background(), Event{Type: "warn", Severity: SeverityWarn})

	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := sink.snapshot()
	if len(events) != 1 || events[0].Type != "warn" {
		t.Fatalf("expected only the warn event, got %v", events)
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Write(Event) error {
	<-s.release
	return nil
}

func (s *blockingSink) Close(context.Context) error { return nil }

func TestRouterDropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	sink := &blockingSink{release: make(chan struct{})}
	cfg := DefaultConfig()
	cfg.EnabledSinks = []string{"block"}
	cfg.BufferSize = 1
	cfg.DropWarnInterval = time.Hour

	router, err := NewRouter(cfg, nil, nil, map[string]Sink{"block": sink})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	for i := 0; i < 64; i++ {
		router.Publish(context.Background(), Event{Type: "spam", Severity: SeverityInfo})
	}

	stats := router.Stats()
	if stats.EventsTotal != 64 {
		t.Fatalf("expected 64 published events, got %d", stats.EventsTotal)
	}
	if stats.DroppedTotal == 0 {
		t.Fatal("expected drops while the sink is blocked")
	}

	close(sink.release)
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
