package sim

import (
	"math"
	"testing"
)

func TestNonFiniteBallRecovers(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig(), nil)
	e.AddPlayer("p1", TeamA)

	e.ball.Pos.X = math.NaN()
	e.ball.Vel.Z = math.Inf(1)

	e.Tick(nil)

	if !finiteVec(e.ball.Pos) || !finiteVec(e.ball.Vel) {
		t.Fatalf("ball state still non-finite: pos=%+v vel=%+v", e.ball.Pos, e.ball.Vel)
	}
}

func TestNonFinitePlayerRecovers(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig(), nil)
	e.AddPlayer("p1", TeamA)
	state := e.players["p1"]

	state.Pos.Z = math.Inf(-1)
	state.Vel.X = math.NaN()

	e.Tick(nil)

	if !finiteVec(state.Pos) || !finiteVec(state.Vel) {
		t.Fatalf("player state still non-finite: pos=%+v vel=%+v", state.Pos, state.Vel)
	}
}

func TestNonFiniteInputIsDiscarded(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig(), nil)
	e.AddPlayer("p1", TeamA)
	state := e.players["p1"]
	before := state.Pos

	e.Tick(map[string]Input{"p1": {DX: math.NaN(), DZ: math.Inf(1)}})

	if !finiteVec(state.Pos) {
		t.Fatalf("position corrupted by bad input: %+v", state.Pos)
	}
	if state.Pos != before {
		t.Fatalf("bad input should be treated as no intent: %+v -> %+v", before, state.Pos)
	}
}

func TestRecoveryPrefersLastGoodPosition(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig(), nil)
	e.AddPlayer("p1", TeamA)
	state := e.players["p1"]

	// Establish a known-good position away from spawn.
	state.Pos = Vec3{X: 5, Y: 0, Z: 5}
	e.Tick(nil)
	good := state.Pos

	state.Pos.X = math.NaN()
	e.Tick(nil)

	if math.Abs(state.Pos.X-good.X) > 1 || math.Abs(state.Pos.Z-good.Z) > 1 {
		t.Fatalf("recovery should restore the last good position, got %+v want near %+v", state.Pos, good)
	}
}
