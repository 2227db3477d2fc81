package logging

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Sink receives routed events. Write runs on the router goroutine; a slow
// sink backs up the queue, so sinks should stay cheap.
type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

// Router fans events out to its sinks from a single dispatch goroutine.
// Publish never blocks: when the queue is full the event is dropped and the
// drop is logged at most once per DropWarnInterval.
type Router struct {
	cfg      Config
	clock    Clock
	fallback *log.Logger
	queue    chan Event
	sinks    []Sink

	done   chan struct{}
	wg     sync.WaitGroup
	closed atomic.Bool

	eventsTotal  atomic.Uint64
	droppedTotal atomic.Uint64
	lastDropLog  atomic.Int64
}

type RouterStats struct {
	EventsTotal  uint64
	DroppedTotal uint64
}

func NewRouter(cfg Config, clock Clock, fallback *log.Logger, sinks map[string]Sink) (*Router, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	if fallback == nil {
		fallback = log.Default()
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = DefaultConfig().BufferSize
	}
	r := &Router{
		cfg:      cfg,
		clock:    clock,
		fallback: fallback,
		queue:    make(chan Event, buffer),
		done:     make(chan struct{}),
	}
	for _, name := range cfg.EnabledSinks {
		if sink, ok := sinks[name]; ok && sink != nil {
			r.sinks = append(r.sinks, sink)
		}
	}

	r.wg.Add(1)
	go r.run()
	return r, nil
}

func (r *Router) run() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			for {
				select {
				case event := <-r.queue:
					r.forward(event)
				default:
					return
				}
			}
		case event := <-r.queue:
			r.forward(event)
		}
	}
}

func (r *Router) forward(event Event) {
	for _, sink := range r.sinks {
		if err := sink.Write(event); err != nil {
			r.fallback.Printf("logging sink write failed: %v", err)
		}
	}
}

// Publish enqueues an event, stamping the time when unset.
func (r *Router) Publish(_ context.Context, event Event) {
	if r == nil || r.closed.Load() {
		return
	}
	if event.Severity < r.cfg.MinimumSeverity {
		return
	}
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	r.eventsTotal.Add(1)

	select {
	case r.queue <- event:
	default:
		r.droppedTotal.Add(1)
		r.maybeWarnDrop()
	}
}

func (r *Router) maybeWarnDrop() {
	interval := r.cfg.DropWarnInterval
	if interval <= 0 {
		interval = DefaultConfig().DropWarnInterval
	}
	now := r.clock.Now().UnixNano()
	last := r.lastDropLog.Load()
	if now-last < int64(interval) {
		return
	}
	if r.lastDropLog.CompareAndSwap(last, now) {
		r.fallback.Printf("logging queue full, dropping events (%d dropped total)", r.droppedTotal.Load())
	}
}

// Stats reports routed and dropped counts.
func (r *Router) Stats() RouterStats {
	return RouterStats{
		EventsTotal:  r.eventsTotal.Load(),
		DroppedTotal: r.droppedTotal.Load(),
	}
}

// Close drains the queue and closes every sink.
func (r *Router) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(r.done)
	r.wg.Wait()

	var firstErr error
	for _, sink := range r.sinks {
		if err := sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
