package server

import (
	"testing"

	"goal-rush/server/internal/sim"
)

// TestFullMatchFlow drives a room through its whole arc: create, join,
// start, score by pushing the ball into the positive-X goal, and verify the
// roster survives into the rematch lobby.
func TestFullMatchFlow(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	g := NewRegistry(nil, NewTelemetryCounters())
	room, hostToken := g.CreateRoom(testRoomConfig())
	room.clock = clock.Now
	room.tickInterval = 0

	if hostToken == "" {
		t.Fatalf("host token missing")
	}

	host, hostConn, err := joinTestPlayer(room, "host", "alice")
	if err != nil {
		t.Fatalf("host join failed: %v", err)
	}
	guest, _, err := joinTestPlayer(room, "guest", "bob")
	if err != nil {
		t.Fatalf("guest join failed: %v", err)
	}
	if host.Room.Players[0].Team == guest.Room.Players[len(guest.Room.Players)-1].Team {
		t.Fatalf("auto-balance put both players on one team")
	}

	if err := room.StartGame("host"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !stepUntil(room, 4*tickRate, func() bool { return room.State() == StatePlaying }) {
		t.Fatalf("match never reached playing")
	}

	// The host sits on team A (negative X) and pushes the ball toward the
	// positive-X goal tick after tick until it crosses the line.
	scored := stepUntil(room, 30*tickRate, func() bool {
		room.ApplyInput("host", sim.Input{DX: 1, Seq: 1})
		room.mu.Lock()
		score := room.score
		room.mu.Unlock()
		return score.TeamA > 0
	})
	if !scored {
		t.Fatalf("team A never scored")
	}

	hostConn.mu.Lock()
	var sawGoal bool
	for _, frame := range hostConn.sent {
		if containsType(frame, "goal-scored") {
			sawGoal = true
			break
		}
	}
	hostConn.mu.Unlock()
	if !sawGoal {
		t.Fatalf("goal-scored broadcast missing")
	}

	// Timer runout: drive the remaining clock to zero and let the room fall
	// back to the lobby for a rematch.
	if !stepUntil(room, 330*tickRate, func() bool { return room.State() == StateEnded }) {
		t.Fatalf("match never ended, state = %s", room.State())
	}
	if !stepUntil(room, 10*tickRate, func() bool { return room.State() == StateLobby }) {
		t.Fatalf("room never returned to lobby")
	}

	view := room.View()
	if len(view.Players) != 2 {
		t.Fatalf("roster lost across the match: %+v", view.Players)
	}
	if view.Score.TeamA == 0 {
		t.Fatalf("final score lost: %+v", view.Score)
	}
	if err := room.StartGame("host"); err != nil {
		t.Fatalf("rematch start failed: %v", err)
	}
}
