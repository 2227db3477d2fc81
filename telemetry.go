package server

import (
	"sync/atomic"
	"time"
)

// TelemetryCounters aggregates lightweight process-wide counters. All
// methods tolerate a nil receiver so tests can skip wiring them.
type TelemetryCounters struct {
	ticks              atomic.Uint64
	broadcasts         atomic.Uint64
	broadcastBytes     atomic.Uint64
	droppedInputs      atomic.Uint64
	roomsCreated       atomic.Uint64
	roomsSwept         atomic.Uint64
	tickDurationMillis atomic.Int64
}

type TelemetrySnapshot struct {
	Ticks              uint64 `json:"ticks"`
	Broadcasts         uint64 `json:"broadcasts"`
	BroadcastBytes     uint64 `json:"broadcastBytes"`
	DroppedInputs      uint64 `json:"droppedInputs"`
	RoomsCreated       uint64 `json:"roomsCreated"`
	RoomsSwept         uint64 `json:"roomsSwept"`
	TickDurationMillis int64  `json:"tickDurationMillis"`
}

// NewTelemetryCounters returns a zeroed counter set.
func NewTelemetryCounters() *TelemetryCounters {
	return &TelemetryCounters{}
}

func (t *TelemetryCounters) RecordTick(duration time.Duration) {
	if t == nil {
		return
	}
	t.ticks.Add(1)
	millis := duration.Milliseconds()
	if millis < 0 {
		millis = 0
	}
	t.tickDurationMillis.Store(millis)
}

func (t *TelemetryCounters) RecordBroadcast(bytes int) {
	if t == nil {
		return
	}
	if bytes < 0 {
		bytes = 0
	}
	t.broadcasts.Add(1)
	t.broadcastBytes.Add(uint64(bytes))
}

func (t *TelemetryCounters) IncrementDroppedInputs() {
	if t == nil {
		return
	}
	t.droppedInputs.Add(1)
}

func (t *TelemetryCounters) IncrementRoomsCreated() {
	if t == nil {
		return
	}
	t.roomsCreated.Add(1)
}

func (t *TelemetryCounters) IncrementRoomsSwept() {
	if t == nil {
		return
	}
	t.roomsSwept.Add(1)
}

func (t *TelemetryCounters) Snapshot() TelemetrySnapshot {
	if t == nil {
		return TelemetrySnapshot{}
	}
	return TelemetrySnapshot{
		Ticks:              t.ticks.Load(),
		Broadcasts:         t.broadcasts.Load(),
		BroadcastBytes:     t.broadcastBytes.Load(),
		DroppedInputs:      t.droppedInputs.Load(),
		RoomsCreated:       t.roomsCreated.Load(),
		RoomsSwept:         t.roomsSwept.Load(),
		TickDurationMillis: t.tickDurationMillis.Load(),
	}
}
