package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// Engine advances one match's physical state by a fixed timestep per Tick.
// It owns players, ball, obstacles, boost pads, and power-ups, and knows
// nothing about rooms or transport. The caller serializes access.
type Engine struct {
	cfg Config
	rng *rand.Rand

	tick      uint64
	remaining float64
	lastWhole int

	players   map[string]*playerState
	ball      ballState
	obstacles []Obstacle
	pads      []BoostPad
	powerUps  []PowerUp

	powerUpTimer float64
	powerUpSeq   uint64

	lastTouch string
	score     Score

	goalPending bool
	pendingGoal Team

	listener Listener
}

type ballState struct {
	Ball
	lastGoodPos Vec3
	lastGoodVel Vec3
}

// NewEngine builds an engine for the given roster. Spawn layout and static
// geometry are placed immediately so the first snapshot is complete.
func NewEngine(cfg Config, listener Listener) *Engine {
	cfg = cfg.normalized()
	if listener == nil {
		listener = NopListener{}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e := &Engine{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(seed)),
		remaining: cfg.MatchDuration,
		lastWhole: int(cfg.MatchDuration),
		players:   make(map[string]*playerState),
		listener:  listener,
	}
	if cfg.Obstacles {
		e.obstacles = e.generateObstacles()
	}
	if cfg.BoostPads {
		e.pads = e.generateBoostPads()
	}
	e.resetBall()
	return e
}

// Config returns the normalized tunables the engine runs with.
func (e *Engine) Config() Config { return e.cfg }

// AddPlayer inserts a player and places it on its team's side. Adding an
// existing id re-spawns that player.
func (e *Engine) AddPlayer(id string, team Team) {
	if id == "" {
		return
	}
	state, ok := e.players[id]
	if !ok {
		state = &playerState{Player: Player{ID: id, Team: team}}
		e.players[id] = state
	}
	state.Team = team
	e.placePlayer(state)
}

// RemovePlayer drops a player from the simulation. Unknown ids are no-ops.
func (e *Engine) RemovePlayer(id string) {
	if e.lastTouch == id {
		e.lastTouch = ""
	}
	delete(e.players, id)
}

// SetTeam reassigns a player's side and re-spawns it there.
func (e *Engine) SetTeam(id string, team Team) {
	state, ok := e.players[id]
	if !ok {
		return
	}
	state.Team = team
	e.placePlayer(state)
}

// PlayerCount reports how many players the simulation currently holds.
func (e *Engine) PlayerCount() int { return len(e.players) }

// TickCount reports how many fixed timesteps have run.
func (e *Engine) TickCount() uint64 { return e.tick }

// Tick advances the match by one fixed timestep. Inputs for unknown players
// are ignored. The engine recovers every numeric anomaly locally; Tick never
// panics and always leaves state finite.
func (e *Engine) Tick(inputs map[string]Input) {
	dt := e.cfg.dt()
	e.tick++

	e.sanitize()
	e.applyInputs(inputs)
	e.advanceEffects(dt)
	e.movePlayers(dt)
	e.resolvePlayerCollisions()
	e.resolvePlayerObstacles()
	e.kickBall()
	e.applyMagnet(dt)
	e.moveBall(dt)
	e.advancePowerUps(dt)
	e.advanceBoostPads(dt)
	e.checkGoal()
	e.advanceClock(dt)
}

// Snapshot copies the authoritative state for broadcasting. Players are
// ordered by id so consecutive snapshots diff cleanly.
func (e *Engine) Snapshot() Snapshot {
	players := make([]Player, 0, len(e.players))
	for _, state := range e.players {
		players = append(players, state.Player)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })

	pads := make([]BoostPad, len(e.pads))
	copy(pads, e.pads)
	powerUps := make([]PowerUp, len(e.powerUps))
	copy(powerUps, e.powerUps)

	return Snapshot{
		Tick:          e.tick,
		Players:       players,
		Ball:          e.ball.Ball,
		Obstacles:     e.obstacles,
		BoostPads:     pads,
		PowerUps:      powerUps,
		Score:         e.score,
		TimeRemaining: e.remaining,
	}
}

// Score returns the running tally.
func (e *Engine) Score() Score { return e.score }

// Remaining returns the match clock in seconds.
func (e *Engine) Remaining() float64 { return e.remaining }

// ResetPositions returns ball and players to the spawn layout.
func (e *Engine) ResetPositions() {
	e.resetBall()
	for _, team := range []Team{TeamA, TeamB} {
		ids := e.teamIDs(team)
		for i, id := range ids {
			state := e.players[id]
			state.Pos = e.spawnPosition(team, i, len(ids))
			state.Vel = Vec3{}
			state.grounded = true
			state.lastGoodPos = state.Pos
			state.lastGoodVel = Vec3{}
		}
	}
}

func (e *Engine) resetBall() {
	e.ball.Pos = Vec3{X: 0, Y: e.cfg.BallSpawnY, Z: 0}
	e.ball.Vel = Vec3{}
	e.ball.lastGoodPos = e.ball.Pos
	e.ball.lastGoodVel = Vec3{}
	e.lastTouch = ""
}

func (e *Engine) applyInputs(inputs map[string]Input) {
	for id, in := range inputs {
		state, ok := e.players[id]
		if !ok {
			continue
		}
		dx, dz := in.DX, in.DZ
		if !isFinite(dx) || !isFinite(dz) {
			dx, dz = 0, 0
		}
		length := math.Hypot(dx, dz)
		if length > 1 {
			dx /= length
			dz /= length
		}
		state.intentX = dx
		state.intentZ = dz
		state.boost = in.Boost
		if in.Jump {
			state.jump = true
		}
	}
}

func (e *Engine) advanceEffects(dt float64) {
	for _, state := range e.players {
		if state.BoostCooldown > 0 {
			state.BoostCooldown = math.Max(0, state.BoostCooldown-dt)
		}
		if state.boostLeft > 0 {
			state.boostLeft = math.Max(0, state.boostLeft-dt)
			if state.boostLeft == 0 {
				state.BoostCooldown = e.cfg.BoostCooldown
			}
		}
		if state.Effect != "" {
			state.EffectTime -= dt
			if state.EffectTime <= 0 {
				state.Effect = ""
				state.EffectTime = 0
			}
		}
	}
}

func (e *Engine) advanceClock(dt float64) {
	if e.remaining <= 0 {
		return
	}
	e.remaining -= dt
	if e.remaining < 0 {
		e.remaining = 0
	}
	whole := int(math.Ceil(e.remaining))
	if whole != e.lastWhole {
		e.lastWhole = whole
		e.listener.TimerUpdate(e.remaining)
	}
}

// checkGoal consumes a goal recorded by the wall resolution in moveBall:
// exactly one event per crossing, then a full spawn reset.
func (e *Engine) checkGoal() {
	if !e.goalPending {
		return
	}
	e.goalPending = false
	team := e.pendingGoal
	scorer := e.lastTouch
	if team == TeamA {
		e.score.TeamA++
	} else {
		e.score.TeamB++
	}
	e.ResetPositions()
	e.listener.GoalScored(team, scorer)
}

func (e *Engine) teamIDs(team Team) []string {
	ids := make([]string, 0, len(e.players))
	for id, state := range e.players {
		if state.Team == team {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (e *Engine) placePlayer(state *playerState) {
	ids := e.teamIDs(state.Team)
	index := 0
	for i, id := range ids {
		if id == state.ID {
			index = i
			break
		}
	}
	state.Pos = e.spawnPosition(state.Team, index, len(ids))
	state.Vel = Vec3{}
	state.grounded = true
	state.lastGoodPos = state.Pos
	state.lastGoodVel = Vec3{}
}

func (e *Engine) nextPowerUpID() string {
	e.powerUpSeq++
	return fmt.Sprintf("powerup-%d", e.powerUpSeq)
}
