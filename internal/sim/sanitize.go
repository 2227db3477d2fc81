package sim

import "math"

// sanitize runs at the start of every tick: any non-finite position or
// velocity component is rolled back to the last known good value, and the
// good values are refreshed otherwise. Malformed input can therefore never
// poison the world for more than one tick.
func (e *Engine) sanitize() {
	for _, state := range e.players {
		if !finiteVec(state.Pos) {
			state.Pos = state.lastGoodPos
			if !finiteVec(state.Pos) {
				state.Pos = e.spawnPosition(state.Team, 0, 1)
			}
		}
		if !finiteVec(state.Vel) {
			state.Vel = Vec3{}
		}
		state.lastGoodPos = state.Pos
		state.lastGoodVel = state.Vel

		if !isFinite(state.BoostCooldown) || state.BoostCooldown < 0 {
			state.BoostCooldown = 0
		}
		if !isFinite(state.EffectTime) {
			state.Effect = ""
			state.EffectTime = 0
		}
	}

	if !finiteVec(e.ball.Pos) {
		e.ball.Pos = e.ball.lastGoodPos
		if !finiteVec(e.ball.Pos) {
			e.ball.Pos = Vec3{X: 0, Y: e.cfg.BallSpawnY, Z: 0}
		}
	}
	if !finiteVec(e.ball.Vel) {
		e.ball.Vel = Vec3{}
	}
	e.ball.lastGoodPos = e.ball.Pos
	e.ball.lastGoodVel = e.ball.Vel
}

func finiteVec(v Vec3) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
