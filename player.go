package server

import (
	"time"

	"goal-rush/server/internal/sim"
)

// RosterPlayer is the broadcast view of one room member. The ID is assigned
// at first join and survives reconnects; the transient connection id is kept
// off the wire.
type RosterPlayer struct {
	ID        string   `json:"id" msgpack:"id"`
	Nickname  string   `json:"nickname" msgpack:"nickname"`
	Team      sim.Team `json:"team" msgpack:"team"`
	IsHost    bool     `json:"isHost" msgpack:"isHost"`
	Connected bool     `json:"connected" msgpack:"connected"`
	Cosmetics []string `json:"cosmetics,omitempty" msgpack:"cosmetics,omitempty"`
}

// playerSlot is the room-owned record for one member. It outlives the
// connection: an ungraceful disconnect keeps the slot for the grace period
// so the same session can rebind.
type playerSlot struct {
	RosterPlayer

	connID    string
	sessionID string
	joinedAt  time.Time
	joinOrder uint64
	inMatch   bool

	// zero while connected
	disconnectedAt time.Time
}

func (s *playerSlot) snapshot() RosterPlayer {
	view := s.RosterPlayer
	if len(s.Cosmetics) > 0 {
		view.Cosmetics = append([]string(nil), s.Cosmetics...)
	}
	return view
}
