package server

import (
	"context"
	"sort"

	"goal-rush/server/logging"
)

// sessionsLocked snapshots the live sessions so callers can send after
// releasing the room lock.
func (r *Room) sessionsLocked() map[string]*session {
	sessions := make(map[string]*session, len(r.sessions))
	for connID, sess := range r.sessions {
		sessions[connID] = sess
	}
	return sessions
}

// fanOut delivers one payload to every session, marshaling once per codec.
// A failed write drops the connection into the disconnect path; the
// simulation never waits on a slow socket.
func (r *Room) fanOut(sessions map[string]*session, payload any) {
	cache := make(map[Codec][]byte, 2)
	var failed []string

	for connID, sess := range sessions {
		data, ok := cache[sess.codec]
		if !ok {
			encoded, err := sess.codec.Marshal(payload)
			if err != nil {
				r.publisher.Publish(context.Background(), logging.Event{
					Type:     "broadcast_encode_failed",
					Severity: logging.SeverityError,
					Category: logging.CategorySystem,
					Actor:    logging.EntityRef{ID: r.id, Kind: logging.EntityKindRoom},
					Extra:    map[string]any{"error": err.Error()},
				})
				continue
			}
			data = encoded
			cache[sess.codec] = data
		}
		if err := sess.conn.Send(data, sess.codec.Binary()); err != nil {
			failed = append(failed, connID)
			continue
		}
		r.telemetry.RecordBroadcast(len(data))
	}

	for _, connID := range failed {
		r.HandleDisconnect(connID)
	}
}

// viewLocked builds the roster payload, players ordered by join.
func (r *Room) viewLocked() RoomView {
	players := make([]RosterPlayer, 0, len(r.roster))
	order := make([]*playerSlot, 0, len(r.roster))
	for _, slot := range r.roster {
		order = append(order, slot)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].joinOrder < order[j].joinOrder })
	for _, slot := range order {
		players = append(players, slot.snapshot())
	}

	return RoomView{
		ID:            r.id,
		State:         r.state,
		MatchDuration: r.cfg.MatchDuration,
		HostID:        r.hostID,
		Players:       players,
		Score:         r.score,
		Obstacles:     r.cfg.Obstacles,
		BoostPads:     r.cfg.BoostPads,
	}
}
