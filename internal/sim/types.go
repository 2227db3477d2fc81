package sim

// Team identifies one of the two fixed sides. Team A defends the negative-X
// goal, Team B the positive-X goal.
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// Opponent returns the other side.
func (t Team) Opponent() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

// Vec3 is a position or velocity in field space. Y is height.
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// Input is one player's intent for a tick. DX/DZ form a normalized movement
// vector; Jump is consumed one-shot, Boost applies while held.
type Input struct {
	DX    float64
	DZ    float64
	Boost bool
	Jump  bool
	Seq   uint64
}

// PowerUpType enumerates the timed pickups.
type PowerUpType string

const (
	PowerUpMagnet PowerUpType = "magnet"
	PowerUpFreeze PowerUpType = "freeze"
	PowerUpRocket PowerUpType = "rocket"
)

// EffectFrozen marks a player immobilized by an opponent's freeze. It is an
// applied effect, never a pickup on the field.
const EffectFrozen PowerUpType = "frozen"

// Player is the broadcast view of one participant inside the simulation.
type Player struct {
	ID            string      `json:"id" msgpack:"id"`
	Team          Team        `json:"team" msgpack:"team"`
	Pos           Vec3        `json:"pos" msgpack:"pos"`
	Vel           Vec3        `json:"vel" msgpack:"vel"`
	BoostCooldown float64     `json:"boostCooldown" msgpack:"boostCooldown"`
	Effect        PowerUpType `json:"effect,omitempty" msgpack:"effect,omitempty"`
	EffectTime    float64     `json:"effectTime,omitempty" msgpack:"effectTime,omitempty"`
}

// Ball is the broadcast view of the match ball.
type Ball struct {
	Pos Vec3 `json:"pos" msgpack:"pos"`
	Vel Vec3 `json:"vel" msgpack:"vel"`
}

// Obstacle is a static cylinder; immutable for the match.
type Obstacle struct {
	ID     string  `json:"id" msgpack:"id"`
	Pos    Vec3    `json:"pos" msgpack:"pos"`
	Radius float64 `json:"radius" msgpack:"radius"`
	Height float64 `json:"height" msgpack:"height"`
}

// BoostPad multiplies movement speed while a player stands inside it.
type BoostPad struct {
	ID       string  `json:"id" msgpack:"id"`
	Pos      Vec3    `json:"pos" msgpack:"pos"`
	Radius   float64 `json:"radius" msgpack:"radius"`
	Active   bool    `json:"active" msgpack:"active"`
	Recharge float64 `json:"-" msgpack:"-"`
}

// PowerUp is a pickup waiting on the field.
type PowerUp struct {
	ID       string      `json:"id" msgpack:"id"`
	Type     PowerUpType `json:"type" msgpack:"type"`
	Pos      Vec3        `json:"pos" msgpack:"pos"`
	Lifetime float64     `json:"lifetime" msgpack:"lifetime"`
}

// Score is the running tally per side.
type Score struct {
	TeamA int `json:"teamA" msgpack:"teamA"`
	TeamB int `json:"teamB" msgpack:"teamB"`
}

// Snapshot is the authoritative world state for one tick.
type Snapshot struct {
	Tick          uint64     `json:"tick" msgpack:"tick"`
	Players       []Player   `json:"players" msgpack:"players"`
	Ball          Ball       `json:"ball" msgpack:"ball"`
	Obstacles     []Obstacle `json:"obstacles,omitempty" msgpack:"obstacles,omitempty"`
	BoostPads     []BoostPad `json:"boostPads,omitempty" msgpack:"boostPads,omitempty"`
	PowerUps      []PowerUp  `json:"powerUps,omitempty" msgpack:"powerUps,omitempty"`
	Score         Score      `json:"score" msgpack:"score"`
	TimeRemaining float64    `json:"timeRemaining" msgpack:"timeRemaining"`
}

// playerState is the mutable per-player record the engine owns. The embedded
// Player doubles as the broadcast view.
type playerState struct {
	Player

	intentX   float64
	intentZ   float64
	jump      bool
	boost     bool
	boostLeft float64

	grounded bool

	// last finite values, used to recover from non-finite excursions.
	lastGoodPos Vec3
	lastGoodVel Vec3
}

// Listener receives match events from the engine. Methods are invoked
// synchronously inside Tick; implementations must not call back into the
// engine or block.
type Listener interface {
	GoalScored(team Team, scorerID string)
	TimerUpdate(remaining float64)
}

// NopListener discards every event.
type NopListener struct{}

func (NopListener) GoalScored(Team, string) {}
func (NopListener) TimerUpdate(float64)     {}
