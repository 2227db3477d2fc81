package server

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"goal-rush/server/internal/sim"
	"goal-rush/server/logging"
)

// roomCodeAlphabet avoids characters players misread over voice chat.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const roomCodeLength = 6

// Registry owns every live room and reclaims abandoned ones on a fixed
// sweep cadence.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	publisher logging.Publisher
	telemetry *TelemetryCounters

	sweepInterval time.Duration
	inactivity    time.Duration
	gracePeriod   time.Duration
	clock         func() time.Time
}

// NewRegistry builds an empty registry with the default sweep cadence.
func NewRegistry(publisher logging.Publisher, telemetry *TelemetryCounters) *Registry {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Registry{
		rooms:         make(map[string]*Room),
		publisher:     publisher,
		telemetry:     telemetry,
		sweepInterval: defaultSweepInterval,
		inactivity:    defaultInactivityThreshold,
		gracePeriod:   defaultGracePeriod,
		clock:         time.Now,
	}
}

// SetTimings overrides the sweep cadence, idle threshold, and reconnect grace
// period for rooms created afterwards. Non-positive values keep the current
// setting.
func (g *Registry) SetTimings(sweep, inactivity, grace time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if sweep > 0 {
		g.sweepInterval = sweep
	}
	if inactivity > 0 {
		g.inactivity = inactivity
	}
	if grace > 0 {
		g.gracePeriod = grace
	}
}

// CreateRoom mints a fresh room with a unique join code and its host token.
func (g *Registry) CreateRoom(cfg sim.Config) (*Room, string) {
	hostToken := uuid.NewString()

	g.mu.Lock()
	var id string
	for {
		id = newRoomCode()
		if _, taken := g.rooms[id]; !taken {
			break
		}
	}
	room := NewRoom(id, hostToken, cfg, g.publisher, g.telemetry)
	room.gracePeriod = g.gracePeriod
	g.rooms[id] = room
	g.mu.Unlock()

	g.telemetry.IncrementRoomsCreated()
	g.publisher.Publish(context.Background(), logging.Event{
		Type:     "room_created",
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Actor:    logging.EntityRef{ID: id, Kind: logging.EntityKindRoom},
	})
	return room, hostToken
}

// Get looks up a room by its join code.
func (g *Registry) Get(id string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[id]
	return room, ok
}

// Remove stops a room and forgets it.
func (g *Registry) Remove(id string) {
	g.mu.Lock()
	room, ok := g.rooms[id]
	delete(g.rooms, id)
	g.mu.Unlock()

	if ok {
		room.Stop()
	}
}

// Count reports how many rooms are live.
func (g *Registry) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// RunSweeper reclaims abandoned rooms until the context is cancelled.
func (g *Registry) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(g.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweepOnce(g.clock())
		}
	}
}

// sweepOnce deletes every room with no connected players, no one inside a
// grace window, and no recent activity.
func (g *Registry) sweepOnce(now time.Time) {
	g.mu.Lock()
	candidates := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		candidates = append(candidates, room)
	}
	g.mu.Unlock()

	for _, room := range candidates {
		if !room.Reclaimable(now, g.inactivity) {
			continue
		}
		g.mu.Lock()
		delete(g.rooms, room.ID())
		g.mu.Unlock()
		room.Stop()
		g.telemetry.IncrementRoomsSwept()
		g.publisher.Publish(context.Background(), logging.Event{
			Type:     "room_swept",
			Severity: logging.SeverityInfo,
			Category: logging.CategoryLifecycle,
			Actor:    logging.EntityRef{ID: room.ID(), Kind: logging.EntityKindRoom},
		})
	}
}

func newRoomCode() string {
	buf := make([]byte, roomCodeLength)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}
	return string(buf)
}
