package server

import (
	"testing"
	"time"
)

func TestCreateRoomMintsUniqueCodes(t *testing.T) {
	t.Parallel()

	g := NewRegistry(nil, nil)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room, hostToken := g.CreateRoom(testRoomConfig())
		if len(room.ID()) != roomCodeLength {
			t.Fatalf("room code %q has wrong length", room.ID())
		}
		if hostToken == "" {
			t.Fatalf("host token missing")
		}
		if seen[room.ID()] {
			t.Fatalf("duplicate room code %q", room.ID())
		}
		seen[room.ID()] = true
	}
	if g.Count() != 50 {
		t.Fatalf("registry count = %d, want 50", g.Count())
	}
}

func TestGetAndRemove(t *testing.T) {
	t.Parallel()

	g := NewRegistry(nil, nil)
	room, _ := g.CreateRoom(testRoomConfig())

	if got, ok := g.Get(room.ID()); !ok || got != room {
		t.Fatalf("lookup failed for %s", room.ID())
	}
	g.Remove(room.ID())
	if _, ok := g.Get(room.ID()); ok {
		t.Fatalf("room survived removal")
	}
	if _, ok := g.Get("NOPE42"); ok {
		t.Fatalf("lookup invented a room")
	}
}

func TestSweepReclaimsEmptyRoom(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	g := NewRegistry(nil, nil)
	g.clock = clock.Now

	room, _ := g.CreateRoom(testRoomConfig())
	room.clock = clock.Now
	room.lastActivity = clock.Now()

	g.sweepOnce(clock.Now())
	if _, ok := g.Get(room.ID()); !ok {
		t.Fatalf("fresh empty room swept before its grace window")
	}

	clock.Advance(defaultGracePeriod + time.Second)
	g.sweepOnce(clock.Now())
	if _, ok := g.Get(room.ID()); ok {
		t.Fatalf("empty room survived the sweep")
	}
}

func TestSweepKeepsOccupiedRoom(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	g := NewRegistry(nil, nil)
	g.clock = clock.Now

	room, _ := g.CreateRoom(testRoomConfig())
	room.clock = clock.Now
	joinTestPlayer(room, "host", "alice")

	clock.Advance(defaultInactivityThreshold + time.Minute)
	g.sweepOnce(clock.Now())

	if _, ok := g.Get(room.ID()); !ok {
		t.Fatalf("room with a connected player was swept")
	}
}

func TestSweepWaitsForGraceWindow(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	g := NewRegistry(nil, nil)
	g.clock = clock.Now

	room, _ := g.CreateRoom(testRoomConfig())
	room.clock = clock.Now
	joinTestPlayer(room, "host", "alice")
	room.HandleDisconnect("host")

	clock.Advance(defaultGracePeriod / 2)
	g.sweepOnce(clock.Now())
	if _, ok := g.Get(room.ID()); !ok {
		t.Fatalf("room swept while its player was inside the grace window")
	}

	clock.Advance(defaultGracePeriod + defaultInactivityThreshold)
	g.sweepOnce(clock.Now())
	if _, ok := g.Get(room.ID()); ok {
		t.Fatalf("abandoned room survived the sweep")
	}
}
