package sim

import (
	"math"
	"sort"
)

// resolvePlayerCollisions separates overlapping players by pushing each half
// the overlap apart, iterating a few times so chains settle.
func (e *Engine) resolvePlayerCollisions() {
	if len(e.players) < 2 {
		return
	}

	ids := make([]string, 0, len(e.players))
	for id := range e.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	minDist := e.cfg.PlayerRadius * 2
	limitX := e.cfg.HalfWidth - e.cfg.PlayerRadius
	limitZ := e.cfg.HalfDepth - e.cfg.PlayerRadius

	const iterations = 4
	for iter := 0; iter < iterations; iter++ {
		adjusted := false
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				p1 := e.players[ids[i]]
				p2 := e.players[ids[j]]
				dx := p2.Pos.X - p1.Pos.X
				dz := p2.Pos.Z - p1.Pos.Z
				distSq := dx*dx + dz*dz

				var dist float64
				if distSq == 0 {
					dx, dz = 1, 0
					dist = 1
				} else {
					dist = math.Sqrt(distSq)
				}
				if dist >= minDist {
					continue
				}

				overlap := (minDist - dist) / 2
				nx := dx / dist
				nz := dz / dist

				p1.Pos.X = clamp(p1.Pos.X-nx*overlap, -limitX, limitX)
				p1.Pos.Z = clamp(p1.Pos.Z-nz*overlap, -limitZ, limitZ)
				p2.Pos.X = clamp(p2.Pos.X+nx*overlap, -limitX, limitX)
				p2.Pos.Z = clamp(p2.Pos.Z+nz*overlap, -limitZ, limitZ)

				adjusted = true
			}
		}
		if !adjusted {
			break
		}
	}
}

// resolvePlayerObstacles pushes players out of obstacle cylinders. Obstacles
// only exclude actors below their height, so a jumping player can clear a
// low one.
func (e *Engine) resolvePlayerObstacles() {
	for _, state := range e.players {
		for i := range e.obstacles {
			obs := &e.obstacles[i]
			if state.Pos.Y > obs.Height {
				continue
			}
			pushOutOfCylinder(&state.Pos, obs, e.cfg.PlayerRadius)
		}
		limitX := e.cfg.HalfWidth - e.cfg.PlayerRadius
		limitZ := e.cfg.HalfDepth - e.cfg.PlayerRadius
		state.Pos.X = clamp(state.Pos.X, -limitX, limitX)
		state.Pos.Z = clamp(state.Pos.Z, -limitZ, limitZ)
	}
}

// resolveBallObstacles reflects the ball's horizontal velocity off obstacle
// cylinders.
func (e *Engine) resolveBallObstacles() {
	ball := &e.ball
	for i := range e.obstacles {
		obs := &e.obstacles[i]
		if ball.Pos.Y-e.cfg.BallRadius > obs.Height {
			continue
		}
		dx := ball.Pos.X - obs.Pos.X
		dz := ball.Pos.Z - obs.Pos.Z
		distSq := dx*dx + dz*dz
		minDist := obs.Radius + e.cfg.BallRadius
		if distSq >= minDist*minDist {
			continue
		}
		var nx, nz float64
		if distSq == 0 {
			nx, nz = 1, 0
		} else {
			dist := math.Sqrt(distSq)
			nx, nz = dx/dist, dz/dist
		}
		ball.Pos.X = obs.Pos.X + nx*minDist
		ball.Pos.Z = obs.Pos.Z + nz*minDist

		dot := ball.Vel.X*nx + ball.Vel.Z*nz
		if dot < 0 {
			ball.Vel.X -= 2 * dot * nx * e.cfg.WallBounce
			ball.Vel.Z -= 2 * dot * nz * e.cfg.WallBounce
		}
	}
}

// kickBall transfers impulse from overlapping players to the ball, scaled by
// the relative velocity, and records last-touch attribution for scoring.
func (e *Engine) kickBall() {
	ball := &e.ball
	minDist := e.cfg.PlayerRadius + e.cfg.BallRadius

	ids := make([]string, 0, len(e.players))
	for id := range e.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		state := e.players[id]
		dx := ball.Pos.X - state.Pos.X
		dy := ball.Pos.Y - state.Pos.Y
		dz := ball.Pos.Z - state.Pos.Z
		distSq := dx*dx + dy*dy + dz*dz
		if distSq >= minDist*minDist {
			continue
		}

		var nx, ny, nz float64
		if distSq == 0 {
			nx, ny, nz = 1, 0, 0
		} else {
			dist := math.Sqrt(distSq)
			nx, ny, nz = dx/dist, dy/dist, dz/dist
		}

		relX := state.Vel.X - ball.Vel.X
		relY := state.Vel.Y - ball.Vel.Y
		relZ := state.Vel.Z - ball.Vel.Z
		relSpeed := relX*nx + relY*ny + relZ*nz
		if relSpeed < 0 {
			relSpeed = 0
		}

		impulse := relSpeed * e.cfg.KickTransfer
		if impulse < e.cfg.MinKickSpeed {
			impulse = e.cfg.MinKickSpeed
		}

		ball.Vel.X += nx * impulse
		ball.Vel.Z += nz * impulse
		if ny > 0 {
			ball.Vel.Y += ny * impulse * 0.5
		}

		// Separate so a single touch produces a single kick.
		ball.Pos.X = state.Pos.X + nx*minDist
		ball.Pos.Y = math.Max(e.cfg.BallRadius, state.Pos.Y+ny*minDist)
		ball.Pos.Z = state.Pos.Z + nz*minDist

		e.lastTouch = id
	}
}

// pushOutOfCylinder moves pos radially until it clears the obstacle by the
// given radius.
func pushOutOfCylinder(pos *Vec3, obs *Obstacle, radius float64) {
	dx := pos.X - obs.Pos.X
	dz := pos.Z - obs.Pos.Z
	distSq := dx*dx + dz*dz
	minDist := obs.Radius + radius
	if distSq >= minDist*minDist {
		return
	}
	if distSq == 0 {
		pos.X = obs.Pos.X + minDist
		return
	}
	dist := math.Sqrt(distSq)
	pos.X = obs.Pos.X + dx/dist*minDist
	pos.Z = obs.Pos.Z + dz/dist*minDist
}
