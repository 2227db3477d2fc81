package sinks

import (
	"context"
	"sync"

	"goal-rush/server/logging"
)

const defaultMemoryCapacity = 256

// MemorySink keeps the most recent events in a bounded in-process buffer.
// Once the cap is reached the oldest events are discarded, so a long-lived
// room server can hold a sink open without growing without bound.
type MemorySink struct {
	mu       sync.RWMutex
	capacity int
	events   []logging.Event
}

// NewMemorySink returns a sink retaining at most capacity events. A
// non-positive capacity falls back to a small default.
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemorySink{capacity: capacity, events: make([]logging.Event, 0, capacity)}
}

func (s *MemorySink) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == s.capacity {
		copy(s.events, s.events[1:])
		s.events = s.events[:s.capacity-1]
	}
	s.events = append(s.events, cloneForMemory(event))
	return nil
}

// Events returns the retained events, oldest first.
func (s *MemorySink) Events() []logging.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]logging.Event, len(s.events))
	copy(copied, s.events)
	return copied
}

// EventsOfType returns the retained events whose Type matches, oldest first.
func (s *MemorySink) EventsOfType(eventType string) []logging.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []logging.Event
	for _, event := range s.events {
		if event.Type == logging.EventType(eventType) {
			matched = append(matched, event)
		}
	}
	return matched
}

func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = s.events[:0]
}

func (s *MemorySink) Close(context.Context) error {
	return nil
}

func cloneForMemory(event logging.Event) logging.Event {
	cloned := event
	if len(event.Targets) > 0 {
		cloned.Targets = append([]logging.EntityRef(nil), event.Targets...)
	}
	if event.Extra != nil {
		copied := make(map[string]any, len(event.Extra))
		for k, v := range event.Extra {
			copied[k] = v
		}
		cloned.Extra = copied
	}
	return cloned
}
