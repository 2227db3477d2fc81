package server

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"goal-rush/server/internal/sim"
	"goal-rush/server/logging"
)

// JoinResult carries the identifiers a newly joined (or rebound) player
// needs: the public player id, the private session secret, and the roster.
type JoinResult struct {
	PlayerID  string
	SessionID string
	Room      RoomView
}

// JoinOptions collects the optional join-room fields.
type JoinOptions struct {
	Nickname  string
	HostToken string
	Cosmetics []string
}

// AddPlayer admits a new member: validates the nickname, balances them onto
// the smaller team, and makes the first member the host. A valid host token
// claims the host seat even when someone else currently holds it.
func (r *Room) AddPlayer(connID string, conn Conn, codec Codec, opts JoinOptions) (JoinResult, error) {
	nickname := strings.TrimSpace(opts.Nickname)
	if nickname == "" {
		return JoinResult{}, newError(ErrValidation, "nickname is required")
	}
	if runes := []rune(nickname); len(runes) > maxNicknameLength {
		nickname = string(runes[:maxNicknameLength])
	}

	r.mu.Lock()

	if len(r.roster) >= maxRoomSize {
		r.mu.Unlock()
		return JoinResult{}, newError(ErrCapacity, "room is full")
	}

	slot := &playerSlot{
		RosterPlayer: RosterPlayer{
			ID:        connID,
			Nickname:  nickname,
			Team:      r.smallerTeamLocked(),
			Connected: true,
			Cosmetics: append([]string(nil), opts.Cosmetics...),
		},
		connID:    connID,
		sessionID: uuid.NewString(),
		joinedAt:  r.clock(),
		joinOrder: r.joinSeq,
	}
	r.joinSeq++

	if len(r.roster) == 0 {
		slot.IsHost = true
		r.hostID = slot.ID
	} else if opts.HostToken != "" && opts.HostToken == r.hostToken {
		r.setHostLocked(slot)
	}

	r.roster[slot.ID] = slot
	r.byConn[connID] = slot.ID
	r.sessions[connID] = &session{conn: conn, codec: codec}
	r.touchLocked()

	r.publishLocked(logging.Event{
		Type:     "player_joined",
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Actor:    logging.EntityRef{ID: slot.ID, Kind: logging.EntityKindPlayer},
		Targets:  []logging.EntityRef{{ID: r.id, Kind: logging.EntityKindRoom}},
		Extra:    map[string]any{"team": slot.Team},
	})

	result := JoinResult{PlayerID: slot.ID, SessionID: slot.sessionID, Room: r.viewLocked()}
	sessions := r.sessionsLocked()
	r.mu.Unlock()

	r.fanOut(sessions, roomUpdateMessage{Ver: ProtocolVersion, Type: "room-update", Room: result.Room})
	return result, nil
}

// ReconnectPlayer rebinds a surviving slot to a new connection. The session
// id is the proof of identity; a slot whose grace period already elapsed is
// expired on the spot and the reconnect is refused.
func (r *Room) ReconnectPlayer(sessionID, connID string, conn Conn, codec Codec) (JoinResult, error) {
	r.mu.Lock()

	var slot *playerSlot
	for _, member := range r.roster {
		if member.sessionID == sessionID {
			slot = member
			break
		}
	}
	if slot == nil {
		r.mu.Unlock()
		return JoinResult{}, newError(ErrNotFound, "unknown session")
	}
	if slot.Connected {
		r.mu.Unlock()
		return JoinResult{}, newError(ErrValidation, "session is already connected")
	}
	if r.clock().Sub(slot.disconnectedAt) > r.gracePeriod {
		r.dropSlotLocked(slot)
		view := r.viewLocked()
		sessions := r.sessionsLocked()
		r.mu.Unlock()
		r.fanOut(sessions, playerLeftMessage{Ver: ProtocolVersion, Type: "player-left", PlayerID: slot.ID})
		r.fanOut(sessions, roomUpdateMessage{Ver: ProtocolVersion, Type: "room-update", Room: view})
		return JoinResult{}, newError(ErrNotFound, "session expired")
	}

	delete(r.byConn, slot.connID)
	delete(r.sessions, slot.connID)
	slot.connID = connID
	slot.Connected = true
	slot.disconnectedAt = time.Time{}
	r.byConn[connID] = slot.ID
	r.sessions[connID] = &session{conn: conn, codec: codec}
	r.touchLocked()

	r.publishLocked(logging.Event{
		Type:     "player_reconnected",
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Actor:    logging.EntityRef{ID: slot.ID, Kind: logging.EntityKindPlayer},
		Targets:  []logging.EntityRef{{ID: r.id, Kind: logging.EntityKindRoom}},
	})

	result := JoinResult{PlayerID: slot.ID, SessionID: slot.sessionID, Room: r.viewLocked()}
	sessions := r.sessionsLocked()
	r.mu.Unlock()

	r.fanOut(sessions, roomUpdateMessage{Ver: ProtocolVersion, Type: "room-update", Room: result.Room})
	return result, nil
}

// Leave removes a member permanently; used for explicit leave requests.
func (r *Room) Leave(connID string) {
	r.mu.Lock()
	playerID, ok := r.byConn[connID]
	if !ok {
		r.mu.Unlock()
		return
	}
	slot := r.roster[playerID]
	r.dropSlotLocked(slot)
	view := r.viewLocked()
	sessions := r.sessionsLocked()
	r.mu.Unlock()

	r.fanOut(sessions, playerLeftMessage{Ver: ProtocolVersion, Type: "player-left", PlayerID: playerID})
	r.fanOut(sessions, roomUpdateMessage{Ver: ProtocolVersion, Type: "room-update", Room: view})
}

// HandleDisconnect marks a member disconnected but keeps the slot for the
// grace period so the session can rebind. The host keeps the seat while the
// grace clock runs; migration happens only if the slot expires.
func (r *Room) HandleDisconnect(connID string) {
	r.mu.Lock()
	playerID, ok := r.byConn[connID]
	if !ok {
		r.mu.Unlock()
		return
	}
	slot := r.roster[playerID]
	slot.Connected = false
	slot.disconnectedAt = r.clock()
	delete(r.byConn, connID)
	if sess, ok := r.sessions[connID]; ok {
		delete(r.sessions, connID)
		sess.conn.Close()
	}
	delete(r.inputs, playerID)
	if r.engine != nil && slot.inMatch {
		r.engine.RemovePlayer(playerID)
		slot.inMatch = false
	}

	r.publishLocked(logging.Event{
		Type:     "player_disconnected",
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Actor:    logging.EntityRef{ID: playerID, Kind: logging.EntityKindPlayer},
		Targets:  []logging.EntityRef{{ID: r.id, Kind: logging.EntityKindRoom}},
	})

	view := r.viewLocked()
	sessions := r.sessionsLocked()
	r.mu.Unlock()

	r.fanOut(sessions, roomUpdateMessage{Ver: ProtocolVersion, Type: "room-update", Room: view})
}

// SwitchTeam moves the requester to the given team if it has space.
func (r *Room) SwitchTeam(connID string, team sim.Team) error {
	if team != sim.TeamA && team != sim.TeamB {
		return newError(ErrValidation, "unknown team %q", team)
	}

	r.mu.Lock()
	slot, err := r.slotByConnLocked(connID)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if slot.Team == team {
		r.mu.Unlock()
		return nil
	}
	if r.teamSizeLocked(team) >= maxTeamSize {
		r.mu.Unlock()
		return newError(ErrCapacity, "team %s is full", team)
	}
	slot.Team = team
	if r.engine != nil && slot.inMatch {
		r.engine.SetTeam(slot.ID, team)
	}
	r.touchLocked()

	view := r.viewLocked()
	sessions := r.sessionsLocked()
	r.mu.Unlock()

	r.fanOut(sessions, roomUpdateMessage{Ver: ProtocolVersion, Type: "room-update", Room: view})
	return nil
}

// Kick removes another member. Host only; kicking yourself is refused.
func (r *Room) Kick(connID, targetID string) error {
	r.mu.Lock()
	requester, err := r.slotByConnLocked(connID)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if !requester.IsHost {
		r.mu.Unlock()
		return newError(ErrAuthorization, "only the host can kick players")
	}
	if requester.ID == targetID {
		r.mu.Unlock()
		return newError(ErrValidation, "cannot kick yourself")
	}
	target, ok := r.roster[targetID]
	if !ok {
		r.mu.Unlock()
		return newError(ErrNotFound, "player %s is not in the room", targetID)
	}

	// Detach the target's session before the drop so the notice can still
	// go out on the live connection.
	kickedSess := r.sessions[target.connID]
	delete(r.sessions, target.connID)
	r.dropSlotLocked(target)

	r.publishLocked(logging.Event{
		Type:     "player_kicked",
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Actor:    logging.EntityRef{ID: requester.ID, Kind: logging.EntityKindPlayer},
		Targets:  []logging.EntityRef{{ID: targetID, Kind: logging.EntityKindPlayer}},
	})

	view := r.viewLocked()
	sessions := r.sessionsLocked()
	r.mu.Unlock()

	if kickedSess != nil {
		kickedSess.sendMessage(kickedMessage{Ver: ProtocolVersion, Type: "kicked", Reason: "removed by host"})
		kickedSess.conn.Close()
	}
	r.fanOut(sessions, playerLeftMessage{Ver: ProtocolVersion, Type: "player-left", PlayerID: targetID, Kicked: true})
	r.fanOut(sessions, roomUpdateMessage{Ver: ProtocolVersion, Type: "room-update", Room: view})
	return nil
}

// ReclaimHost restores the host seat to whoever presents the room's host
// token, displacing any migrated host.
func (r *Room) ReclaimHost(connID, token string) error {
	r.mu.Lock()
	slot, err := r.slotByConnLocked(connID)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if token == "" || token != r.hostToken {
		r.mu.Unlock()
		return newError(ErrAuthorization, "invalid host token")
	}
	if slot.IsHost {
		r.mu.Unlock()
		return nil
	}
	r.setHostLocked(slot)
	r.touchLocked()

	view := r.viewLocked()
	sessions := r.sessionsLocked()
	r.mu.Unlock()

	r.fanOut(sessions, roomUpdateMessage{Ver: ProtocolVersion, Type: "room-update", Room: view})
	return nil
}

// MigrateHost promotes the earliest-joined connected member if the current
// host is gone. No-op while the host is present or within their grace
// window.
func (r *Room) MigrateHost() {
	r.mu.Lock()
	changed := r.migrateHostLocked()
	view := r.viewLocked()
	sessions := r.sessionsLocked()
	r.mu.Unlock()

	if changed {
		r.fanOut(sessions, roomUpdateMessage{Ver: ProtocolVersion, Type: "room-update", Room: view})
	}
}

func (r *Room) migrateHostLocked() bool {
	if current, ok := r.roster[r.hostID]; ok && current.IsHost {
		return false
	}
	var next *playerSlot
	for _, slot := range r.roster {
		if !slot.Connected {
			continue
		}
		if next == nil || slot.joinOrder < next.joinOrder {
			next = slot
		}
	}
	if next == nil {
		r.hostID = ""
		return false
	}
	r.setHostLocked(next)
	r.publishLocked(logging.Event{
		Type:     "host_migrated",
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Actor:    logging.EntityRef{ID: next.ID, Kind: logging.EntityKindPlayer},
		Targets:  []logging.EntityRef{{ID: r.id, Kind: logging.EntityKindRoom}},
	})
	return true
}

func (r *Room) setHostLocked(slot *playerSlot) {
	if current, ok := r.roster[r.hostID]; ok {
		current.IsHost = false
	}
	slot.IsHost = true
	r.hostID = slot.ID
}

// dropSlotLocked is the single hard-removal path: roster, indexes, session,
// engine, and a host migration if the seat just emptied.
func (r *Room) dropSlotLocked(slot *playerSlot) {
	delete(r.roster, slot.ID)
	delete(r.byConn, slot.connID)
	if sess, ok := r.sessions[slot.connID]; ok {
		delete(r.sessions, slot.connID)
		sess.conn.Close()
	}
	delete(r.inputs, slot.ID)
	if r.engine != nil && slot.inMatch {
		r.engine.RemovePlayer(slot.ID)
	}
	if slot.IsHost {
		slot.IsHost = false
		r.migrateHostLocked()
	}
	r.touchLocked()
}

// expireDisconnectedLocked hard-removes slots whose grace period elapsed.
func (r *Room) expireDisconnectedLocked(now time.Time) {
	for _, slot := range r.roster {
		if slot.Connected {
			continue
		}
		if now.Sub(slot.disconnectedAt) > r.gracePeriod {
			r.dropSlotLocked(slot)
			r.publishLocked(logging.Event{
				Type:     "player_expired",
				Severity: logging.SeverityInfo,
				Category: logging.CategoryLifecycle,
				Actor:    logging.EntityRef{ID: slot.ID, Kind: logging.EntityKindPlayer},
				Targets:  []logging.EntityRef{{ID: r.id, Kind: logging.EntityKindRoom}},
			})
		}
	}
}

// Reclaimable reports whether the sweeper may delete the room: nobody
// connected, nobody inside their grace window, and either empty or idle
// past the threshold.
func (r *Room) Reclaimable(now time.Time, inactivity time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, slot := range r.roster {
		if slot.Connected {
			return false
		}
		if now.Sub(slot.disconnectedAt) <= r.gracePeriod {
			return false
		}
	}
	if len(r.roster) == 0 {
		// Freshly created rooms get the grace period to receive their
		// first join.
		return now.Sub(r.lastActivity) > r.gracePeriod
	}
	return now.Sub(r.lastActivity) > inactivity
}

func (r *Room) slotByConnLocked(connID string) (*playerSlot, error) {
	playerID, ok := r.byConn[connID]
	if !ok {
		return nil, newError(ErrNotFound, "connection is not in the room")
	}
	slot, ok := r.roster[playerID]
	if !ok {
		return nil, newError(ErrNotFound, "connection is not in the room")
	}
	return slot, nil
}

func (r *Room) teamSizeLocked(team sim.Team) int {
	count := 0
	for _, slot := range r.roster {
		if slot.Team == team {
			count++
		}
	}
	return count
}

// smallerTeamLocked balances new joiners; ties go to team A.
func (r *Room) smallerTeamLocked() sim.Team {
	if r.teamSizeLocked(sim.TeamB) < r.teamSizeLocked(sim.TeamA) {
		return sim.TeamB
	}
	return sim.TeamA
}
