package logging

import (
	"context"
	"time"
)

type EventType string

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

type EntityKind string

const (
	EntityKindUnknown EntityKind = "unknown"
	EntityKindRoom    EntityKind = "room"
	EntityKindPlayer  EntityKind = "player"
	EntityKindMatch   EntityKind = "match"
	EntityKindSystem  EntityKind = "system"
)

const (
	CategoryLifecycle = "lifecycle"
	CategoryMatch     = "match"
	CategoryNetwork   = "network"
	CategorySystem    = "system"
)

// Event is one structured log record. Tick is zero outside a running match.
type Event struct {
	Type     EventType      `json:"type"`
	Tick     uint64         `json:"tick,omitempty"`
	Time     time.Time      `json:"time"`
	Actor    EntityRef      `json:"actor"`
	Targets  []EntityRef    `json:"targets,omitempty"`
	Severity Severity       `json:"severity"`
	Category string         `json:"category,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

type EntityRef struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
}

// Publisher accepts events for asynchronous delivery to the configured sinks.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	if f == nil {
		return
	}
	f(ctx, event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

// NopPublisher discards every event.
func NopPublisher() Publisher {
	return nopPublisher{}
}

// WithExtra returns a copy of the event carrying one more key.
func (e Event) WithExtra(key string, value any) Event {
	extra := make(map[string]any, len(e.Extra)+1)
	for k, v := range e.Extra {
		extra[k] = v
	}
	extra[key] = value
	e.Extra = extra
	return e
}
