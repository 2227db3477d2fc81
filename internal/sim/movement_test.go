package sim

import "testing"

func TestInputMovesPlayerAlongX(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig(), nil)
	e.AddPlayer("p1", TeamA)
	before := e.players["p1"].Pos.X

	e.Tick(map[string]Input{"p1": {DX: 1}})

	after := e.players["p1"].Pos.X
	if after <= before {
		t.Fatalf("x must strictly increase: %v -> %v", before, after)
	}
}

func TestInputVectorIsNormalized(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig(), nil)
	e.AddPlayer("p1", TeamA)

	e.Tick(map[string]Input{"p1": {DX: 10, DZ: 0}})
	straight := e.players["p1"].Pos.X - (-e.cfg.HalfWidth / 2)

	expected := e.cfg.MoveSpeed * e.cfg.dt()
	if diff := straight - expected; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("oversized input must clamp to unit speed: moved %v, want %v", straight, expected)
	}
}

func TestJumpAndGravity(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig(), nil)
	e.AddPlayer("p1", TeamA)
	state := e.players["p1"]

	e.Tick(map[string]Input{"p1": {Jump: true}})
	if state.Vel.Y <= 0 {
		t.Fatalf("jump must yield positive vertical velocity, got %v", state.Vel.Y)
	}

	rose := false
	for i := 0; i < e.cfg.TickRate*2; i++ {
		e.Tick(nil)
		if state.Pos.Y > 0 {
			rose = true
		}
	}
	if !rose {
		t.Fatal("player never left the ground")
	}
	if state.Pos.Y != 0 {
		t.Fatalf("gravity must return the player to resting height, got %v", state.Pos.Y)
	}
	if !state.grounded {
		t.Fatal("player should be grounded after landing")
	}
}

func TestJumpRequiresGround(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig(), nil)
	e.AddPlayer("p1", TeamA)
	state := e.players["p1"]

	e.Tick(map[string]Input{"p1": {Jump: true}})
	first := state.Vel.Y

	// Mid-air jump must not add impulse.
	e.Tick(map[string]Input{"p1": {Jump: true}})
	if state.Vel.Y >= first {
		t.Fatalf("air jump must not raise velocity: %v -> %v", first, state.Vel.Y)
	}
}

func TestBoostBurnsThenCoolsDown(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig(), nil)
	e.AddPlayer("p1", TeamA)
	state := e.players["p1"]

	dt := e.cfg.dt()
	plain := e.cfg.MoveSpeed * dt
	boosted := plain * e.cfg.BoostMultiplier

	before := state.Pos.X
	e.Tick(map[string]Input{"p1": {DX: 1, Boost: true}})
	moved := state.Pos.X - before
	if diff := moved - boosted; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("boost multiplier not applied: moved %v, want %v", moved, boosted)
	}

	// Burn it out, then the cooldown must gate a re-trigger.
	burnTicks := int(e.cfg.BoostDuration/dt) + 2
	for i := 0; i < burnTicks; i++ {
		e.Tick(map[string]Input{"p1": {Boost: true}})
	}
	if state.BoostCooldown <= 0 {
		t.Fatalf("cooldown should be running after the burn, got %v", state.BoostCooldown)
	}

	before = state.Pos.X
	e.Tick(map[string]Input{"p1": {DX: 1, Boost: true}})
	moved = state.Pos.X - before
	if diff := moved - plain; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("boost must not apply during cooldown: moved %v, want %v", moved, plain)
	}
}

func TestBoostPadConsumesAndRecharges(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.BoostPads = true
	e := NewEngine(cfg, nil)
	e.AddPlayer("p1", TeamA)
	state := e.players["p1"]

	pad := &e.pads[0]
	state.Pos = pad.Pos
	state.grounded = true

	e.Tick(map[string]Input{"p1": {DX: 1}})
	if pad.Active {
		t.Fatal("pad should deactivate on use")
	}
	if pad.Recharge <= 0 {
		t.Fatalf("recharge timer should be running, got %v", pad.Recharge)
	}

	for i := 0; i < int(cfg.PadRecharge/cfg.dt())+2; i++ {
		e.Tick(nil)
	}
	if !pad.Active {
		t.Fatal("pad should reactivate after the recharge interval")
	}
}

func TestFrozenPlayerDoesNotMove(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig(), nil)
	e.AddPlayer("p1", TeamA)
	state := e.players["p1"]
	state.Effect = EffectFrozen
	state.EffectTime = 1

	before := state.Pos
	e.Tick(map[string]Input{"p1": {DX: 1, DZ: 1}})
	if state.Pos != before {
		t.Fatalf("frozen player moved: %+v -> %+v", before, state.Pos)
	}

	// Effect expires and movement resumes.
	for i := 0; i < e.cfg.TickRate+2; i++ {
		e.Tick(map[string]Input{"p1": {DX: 1}})
	}
	if state.Effect == EffectFrozen {
		t.Fatal("freeze should have expired")
	}
	if state.Pos.X <= before.X {
		t.Fatal("player should move again after thawing")
	}
}

func TestFreezePowerUpTargetsOpponents(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig(), nil)
	e.AddPlayer("holder", TeamA)
	e.AddPlayer("mate", TeamA)
	e.AddPlayer("enemy", TeamB)

	e.applyPowerUp(e.players["holder"], PowerUpFreeze)

	if e.players["enemy"].Effect != EffectFrozen {
		t.Fatal("opponent should be frozen")
	}
	if e.players["holder"].Effect == EffectFrozen || e.players["mate"].Effect == EffectFrozen {
		t.Fatal("freeze must not hit the holder's team")
	}
}

func TestMagnetPullsBallTowardHolder(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig(), nil)
	e.AddPlayer("p1", TeamA)
	state := e.players["p1"]
	state.Effect = PowerUpMagnet
	state.EffectTime = 5
	state.Pos = Vec3{X: 10, Y: 0, Z: 0}

	e.ball.Pos = Vec3{X: 0, Y: e.cfg.BallRadius, Z: 0}
	e.ball.Vel = Vec3{}

	e.Tick(nil)
	if e.ball.Vel.X <= 0 {
		t.Fatalf("ball should accelerate toward the magnet holder, vx=%v", e.ball.Vel.X)
	}
}
