package sim

import "math"

// movePlayers integrates every player's intent for one timestep: horizontal
// movement with boost/rocket/pad multipliers, jump impulse, and gravity.
func (e *Engine) movePlayers(dt float64) {
	for _, state := range e.players {
		if state.Effect == EffectFrozen {
			// Movement lock: horizontal intent is ignored, gravity still
			// settles an airborne player.
			state.Vel.X = 0
			state.Vel.Z = 0
		} else {
			speed := e.cfg.MoveSpeed * e.speedMultiplier(state)
			state.Vel.X = state.intentX * speed
			state.Vel.Z = state.intentZ * speed

			if state.jump && state.grounded {
				state.Vel.Y = e.cfg.JumpVelocity
				state.grounded = false
			}
		}
		state.jump = false

		if !state.grounded {
			state.Vel.Y -= e.cfg.Gravity * dt
		}

		state.Pos.X += state.Vel.X * dt
		state.Pos.Y += state.Vel.Y * dt
		state.Pos.Z += state.Vel.Z * dt

		if state.Pos.Y <= 0 {
			state.Pos.Y = 0
			state.Vel.Y = 0
			state.grounded = true
		}

		limitX := e.cfg.HalfWidth - e.cfg.PlayerRadius
		limitZ := e.cfg.HalfDepth - e.cfg.PlayerRadius
		state.Pos.X = clamp(state.Pos.X, -limitX, limitX)
		state.Pos.Z = clamp(state.Pos.Z, -limitZ, limitZ)
	}
}

// speedMultiplier folds boost, rocket power-up, and boost pads into one
// factor. Boost is level-triggered: holding the key while the cooldown is
// clear starts a timed burn, and the cooldown begins when the burn ends.
func (e *Engine) speedMultiplier(state *playerState) float64 {
	factor := 1.0

	if state.boost && state.boostLeft == 0 && state.BoostCooldown == 0 {
		state.boostLeft = e.cfg.BoostDuration
	}
	if state.boostLeft > 0 {
		factor *= e.cfg.BoostMultiplier
	}

	if state.Effect == PowerUpRocket {
		factor *= e.cfg.RocketFactor
	}

	for i := range e.pads {
		pad := &e.pads[i]
		if !pad.Active {
			continue
		}
		dx := state.Pos.X - pad.Pos.X
		dz := state.Pos.Z - pad.Pos.Z
		if dx*dx+dz*dz <= pad.Radius*pad.Radius {
			factor *= e.cfg.PadSpeedBoost
			pad.Active = false
			pad.Recharge = e.cfg.PadRecharge
			break
		}
	}

	return factor
}

// moveBall integrates the ball and resolves field bounds. A crossing of the
// X boundary inside the goal mouth is recorded for checkGoal instead of
// being reflected.
func (e *Engine) moveBall(dt float64) {
	ball := &e.ball

	ball.Vel.Y -= e.cfg.Gravity * dt

	// Horizontal damping, framed as velocity retained per second.
	damping := math.Pow(e.cfg.BallDamping, dt)
	ball.Vel.X *= damping
	ball.Vel.Z *= damping

	ball.Pos.X += ball.Vel.X * dt
	ball.Pos.Y += ball.Vel.Y * dt
	ball.Pos.Z += ball.Vel.Z * dt

	if ball.Pos.Y <= e.cfg.BallRadius {
		ball.Pos.Y = e.cfg.BallRadius
		if ball.Vel.Y < 0 {
			ball.Vel.Y = -ball.Vel.Y * e.cfg.WallBounce
			if math.Abs(ball.Vel.Y) < 0.5 {
				ball.Vel.Y = 0
			}
		}
	}

	limitX := e.cfg.HalfWidth - e.cfg.BallRadius
	limitZ := e.cfg.HalfDepth - e.cfg.BallRadius

	if ball.Pos.X > limitX || ball.Pos.X < -limitX {
		inMouth := math.Abs(ball.Pos.Z) <= e.cfg.GoalHalfWidth && ball.Pos.Y <= e.cfg.GoalHeight
		if inMouth {
			if ball.Pos.X > 0 {
				e.pendingGoal = TeamA
			} else {
				e.pendingGoal = TeamB
			}
			e.goalPending = true
		} else {
			if ball.Pos.X > limitX {
				ball.Pos.X = limitX
			} else {
				ball.Pos.X = -limitX
			}
			ball.Vel.X = -ball.Vel.X * e.cfg.WallBounce
		}
	}

	if ball.Pos.Z > limitZ {
		ball.Pos.Z = limitZ
		ball.Vel.Z = -ball.Vel.Z * e.cfg.WallBounce
	} else if ball.Pos.Z < -limitZ {
		ball.Pos.Z = -limitZ
		ball.Vel.Z = -ball.Vel.Z * e.cfg.WallBounce
	}

	e.resolveBallObstacles()
}

// applyMagnet pulls the ball toward any player holding the magnet effect.
func (e *Engine) applyMagnet(dt float64) {
	for _, state := range e.players {
		if state.Effect != PowerUpMagnet {
			continue
		}
		dx := state.Pos.X - e.ball.Pos.X
		dy := state.Pos.Y - e.ball.Pos.Y
		dz := state.Pos.Z - e.ball.Pos.Z
		dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
		if dist == 0 || dist > e.cfg.MagnetRange {
			continue
		}
		pull := e.cfg.MagnetPull * dt
		e.ball.Vel.X += dx / dist * pull
		e.ball.Vel.Y += dy / dist * pull
		e.ball.Vel.Z += dz / dist * pull
	}
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
