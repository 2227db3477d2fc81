package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"goal-rush/server/internal/sim"
	"goal-rush/server/logging"
)

// Room owns one match lobby: roster, lifecycle state, the simulation engine
// while a match runs, and the attached sessions. Every exported operation is
// atomic with respect to the others and to the tick loop; the single mutex
// is the room's whole concurrency story.
type Room struct {
	mu sync.Mutex

	id        string
	state     RoomState
	cfg       sim.Config
	hostToken string
	hostID    string

	roster   map[string]*playerSlot // by player id
	byConn   map[string]string      // conn id -> player id
	sessions map[string]*session    // by conn id
	joinSeq  uint64

	engine *sim.Engine
	inputs map[string]sim.Input
	score  sim.Score

	countdown float64
	endedFor  float64

	tickStop chan struct{}

	// non-positive disables the internal ticker; the owner drives step
	// itself.
	tickInterval time.Duration

	lastActivity time.Time
	gracePeriod  time.Duration
	clock        func() time.Time

	publisher logging.Publisher
	telemetry *TelemetryCounters

	// events captured from the engine during Tick, drained by step.
	pendingGoals []goalEvent
	timerHitZero bool
}

type goalEvent struct {
	team   sim.Team
	scorer string
}

// NewRoom builds an empty lobby. The config's MatchDuration is already in
// seconds; the wire handler converts from minutes.
func NewRoom(id, hostToken string, cfg sim.Config, publisher logging.Publisher, telemetry *TelemetryCounters) *Room {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	r := &Room{
		id:           id,
		state:        StateLobby,
		cfg:          cfg,
		hostToken:    hostToken,
		roster:       make(map[string]*playerSlot),
		byConn:       make(map[string]string),
		sessions:     make(map[string]*session),
		inputs:       make(map[string]sim.Input),
		tickInterval: time.Second / tickRate,
		gracePeriod:  defaultGracePeriod,
		clock:        time.Now,
		publisher:    publisher,
		telemetry:    telemetry,
	}
	r.lastActivity = r.clock()
	return r
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// State returns the current lifecycle phase.
func (r *Room) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// View returns the roster payload for join responses and updates.
func (r *Room) View() RoomView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

// StartGame transitions lobby -> countdown, partitions the roster into a
// fresh engine, and starts the room's tick task. Host only.
func (r *Room) StartGame(connID string) error {
	r.mu.Lock()

	slot, err := r.slotByConnLocked(connID)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if !slot.IsHost {
		r.mu.Unlock()
		return newError(ErrAuthorization, "only the host can start the game")
	}
	if r.state != StateLobby {
		r.mu.Unlock()
		return newError(ErrValidation, "game already started")
	}
	if len(r.roster) == 0 {
		r.mu.Unlock()
		return newError(ErrValidation, "room is empty")
	}

	r.engine = sim.NewEngine(r.cfg, r)
	for _, member := range r.roster {
		if !member.Connected {
			continue
		}
		r.engine.AddPlayer(member.ID, member.Team)
		member.inMatch = true
	}
	r.score = sim.Score{}
	r.state = StateCountdown
	r.countdown = countdownSeconds
	r.touchLocked()

	if r.tickInterval > 0 {
		stop := make(chan struct{})
		r.tickStop = stop
		go r.run(stop)
	}

	r.publishLocked(logging.Event{
		Type:     "match_starting",
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMatch,
		Actor:    logging.EntityRef{ID: r.id, Kind: logging.EntityKindRoom},
	})

	view := r.viewLocked()
	sessions := r.sessionsLocked()
	r.mu.Unlock()

	r.fanOut(sessions, roomUpdateMessage{Ver: ProtocolVersion, Type: "room-update", Room: view})
	return nil
}

// EnterMatch attaches a late joiner to the running match without resetting
// anyone else.
func (r *Room) EnterMatch(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, err := r.slotByConnLocked(connID)
	if err != nil {
		return err
	}
	if r.state != StateCountdown && r.state != StatePlaying {
		return newError(ErrValidation, "no match in progress")
	}
	if slot.inMatch || r.engine == nil {
		return nil
	}
	r.engine.AddPlayer(slot.ID, slot.Team)
	slot.inMatch = true
	r.touchLocked()
	return nil
}

// ApplyInput stores a player's latest intent for the next tick. It reports
// false when the input is not applicable (wrong state, unknown or
// disconnected player); callers drop such inputs silently.
func (r *Room) ApplyInput(connID string, input sim.Input) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePlaying {
		return false
	}
	playerID, ok := r.byConn[connID]
	if !ok {
		return false
	}
	slot := r.roster[playerID]
	if slot == nil || !slot.Connected || !slot.inMatch {
		return false
	}
	r.inputs[playerID] = input
	r.touchLocked()
	return true
}

// Stop cancels the tick task and disposes the engine. Safe to call twice.
func (r *Room) Stop() {
	r.mu.Lock()
	if r.tickStop != nil {
		close(r.tickStop)
		r.tickStop = nil
	}
	r.engine = nil
	sessions := r.sessionsLocked()
	r.sessions = make(map[string]*session)
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.conn.Close()
	}
}

// GoalScored implements sim.Listener. It runs inside Engine.Tick while the
// room lock is held, so it only queues the event for step to drain.
func (r *Room) GoalScored(team sim.Team, scorerID string) {
	r.pendingGoals = append(r.pendingGoals, goalEvent{team: team, scorer: scorerID})
}

// TimerUpdate implements sim.Listener; same locking discipline as
// GoalScored.
func (r *Room) TimerUpdate(remaining float64) {
	if remaining <= 0 {
		r.timerHitZero = true
	}
}

// run drives the tick loop until the stop channel closes or the room falls
// back to the lobby.
func (r *Room) run(stop <-chan struct{}) {
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !r.step() {
				return
			}
		}
	}
}

// step advances the room by one tick: grace expiry, countdown or engine
// advance, queued match events, then the snapshot broadcast. A panic in any
// of it is logged and the loop keeps going; one room's failure must never
// stall the process.
func (r *Room) step() (keep bool) {
	start := time.Now()
	keep = true
	defer func() {
		if rec := recover(); rec != nil {
			r.publisher.Publish(context.Background(), logging.Event{
				Type:     "tick_panic",
				Severity: logging.SeverityError,
				Category: logging.CategorySystem,
				Actor:    logging.EntityRef{ID: r.id, Kind: logging.EntityKindRoom},
				Extra:    map[string]any{"panic": fmt.Sprint(rec)},
			})
		}
		r.telemetry.RecordTick(time.Since(start))
	}()

	const dt = 1.0 / float64(tickRate)

	r.mu.Lock()
	now := r.clock()
	r.expireDisconnectedLocked(now)

	var extra []any

	switch r.state {
	case StateCountdown:
		r.countdown -= dt
		if r.countdown <= 0 {
			r.countdown = 0
			r.state = StatePlaying
			extra = append(extra, roomUpdateMessage{Ver: ProtocolVersion, Type: "room-update", Room: r.viewLocked()})
		}
	case StatePlaying:
		if r.engine == nil {
			r.state = StateLobby
		} else {
			r.engine.Tick(r.takeInputsLocked())
			r.score = r.engine.Score()

			for _, goal := range r.pendingGoals {
				extra = append(extra, goalScoredMessage{
					Ver:    ProtocolVersion,
					Type:   "goal-scored",
					Team:   goal.team,
					Scorer: goal.scorer,
					Score:  r.score,
				})
				r.publishLocked(logging.Event{
					Type:     "goal_scored",
					Severity: logging.SeverityInfo,
					Category: logging.CategoryMatch,
					Actor:    logging.EntityRef{ID: goal.scorer, Kind: logging.EntityKindPlayer},
					Targets:  []logging.EntityRef{{ID: r.id, Kind: logging.EntityKindRoom}},
				})
			}
			r.pendingGoals = r.pendingGoals[:0]

			if r.timerHitZero {
				r.timerHitZero = false
				extra = append(extra, r.endMatchLocked())
			}
		}
	case StateEnded:
		r.endedFor -= dt
		if r.endedFor <= 0 {
			r.returnToLobbyLocked()
			extra = append(extra, roomUpdateMessage{Ver: ProtocolVersion, Type: "room-update", Room: r.viewLocked()})
			keep = false
		}
	default:
		keep = false
	}

	var snapshot *snapshotMessage
	if r.engine != nil && (r.state == StateCountdown || r.state == StatePlaying || r.state == StateEnded) {
		msg := snapshotMessage{
			Ver:       ProtocolVersion,
			Type:      "game-snapshot",
			GameState: r.state,
			Snapshot:  r.engine.Snapshot(),
		}
		if r.state == StateCountdown {
			countdown := r.countdown
			msg.Countdown = &countdown
		}
		snapshot = &msg
	}

	sessions := r.sessionsLocked()
	r.mu.Unlock()

	for _, payload := range extra {
		r.fanOut(sessions, payload)
	}
	if snapshot != nil {
		r.fanOut(sessions, *snapshot)
	}
	return keep
}

// endMatchLocked flips playing -> ended and builds the final-score message.
func (r *Room) endMatchLocked() gameEndedMessage {
	r.state = StateEnded
	r.endedFor = endedResetSeconds

	winner := "draw"
	switch {
	case r.score.TeamA > r.score.TeamB:
		winner = string(sim.TeamA)
	case r.score.TeamB > r.score.TeamA:
		winner = string(sim.TeamB)
	}

	r.publishLocked(logging.Event{
		Type:     "match_ended",
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMatch,
		Actor:    logging.EntityRef{ID: r.id, Kind: logging.EntityKindRoom},
		Extra:    map[string]any{"winner": winner},
	})

	return gameEndedMessage{Ver: ProtocolVersion, Type: "game-ended", Score: r.score, Winner: winner}
}

// returnToLobbyLocked disposes the engine and readies the room for a
// rematch. The roster and final score survive.
func (r *Room) returnToLobbyLocked() {
	r.state = StateLobby
	r.engine = nil
	r.tickStop = nil
	r.countdown = 0
	r.inputs = make(map[string]sim.Input)
	for _, slot := range r.roster {
		slot.inMatch = false
	}
	r.touchLocked()
}

// takeInputsLocked copies the current intents for the engine. Jump is a
// one-shot flag: it is cleared from the stored intent so a held packet does
// not bunny-hop.
func (r *Room) takeInputsLocked() map[string]sim.Input {
	if len(r.inputs) == 0 {
		return nil
	}
	inputs := make(map[string]sim.Input, len(r.inputs))
	for id, input := range r.inputs {
		inputs[id] = input
		if input.Jump {
			input.Jump = false
			r.inputs[id] = input
		}
	}
	return inputs
}

func (r *Room) touchLocked() {
	r.lastActivity = r.clock()
}

func (r *Room) publishLocked(event logging.Event) {
	if r.engine != nil {
		event.Tick = r.engine.TickCount()
	}
	r.publisher.Publish(context.Background(), event)
}
