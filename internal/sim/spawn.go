package sim

import (
	"fmt"
	"math"
)

const spawnLateralSpacing = 4.0

// spawnPosition places the index-th of count teammates on the team's half,
// spread laterally, then offset away from any obstacle that sits too close.
// Team A owns the negative-X half, team B the positive-X half.
func (e *Engine) spawnPosition(team Team, index, count int) Vec3 {
	x := -e.cfg.HalfWidth / 2
	if team == TeamB {
		x = e.cfg.HalfWidth / 2
	}

	z := 0.0
	if count > 1 {
		z = (float64(index) - float64(count-1)/2) * spawnLateralSpacing
	}
	limitZ := e.cfg.HalfDepth - e.cfg.PlayerRadius
	z = clamp(z, -limitZ, limitZ)

	pos := Vec3{X: x, Y: 0, Z: z}
	e.clearSpawnFromObstacles(&pos)
	return pos
}

// clearSpawnFromObstacles analytically offsets a spawn point until it is
// farther than playerRadius+obstacleRadius from every obstacle center. This
// must hold for any obstacle layout, so after the radial pushes a final
// verification pass retries with a lateral shift if some push re-entered
// another obstacle.
func (e *Engine) clearSpawnFromObstacles(pos *Vec3) {
	if len(e.obstacles) == 0 {
		return
	}

	const passes = 8
	for pass := 0; pass < passes; pass++ {
		if e.spawnClear(*pos) {
			return
		}
		for i := range e.obstacles {
			pushOutOfCylinder(pos, &e.obstacles[i], e.cfg.PlayerRadius+spawnClearance)
		}
		e.clampToField(pos)
	}

	// Pathological layouts: walk outward along Z until a clear spot shows up.
	base := *pos
	for step := 1.0; step < e.cfg.HalfDepth*2; step += 1.0 {
		for _, sign := range []float64{1, -1} {
			candidate := base
			candidate.Z += sign * step
			e.clampToField(&candidate)
			if e.spawnClear(candidate) {
				*pos = candidate
				return
			}
		}
	}
}

// spawnClear reports whether pos keeps the required distance from every
// obstacle center.
func (e *Engine) spawnClear(pos Vec3) bool {
	for i := range e.obstacles {
		obs := &e.obstacles[i]
		dx := pos.X - obs.Pos.X
		dz := pos.Z - obs.Pos.Z
		minDist := e.cfg.PlayerRadius + obs.Radius
		if dx*dx+dz*dz <= minDist*minDist {
			return false
		}
	}
	return true
}

const spawnClearance = 0.25

func (e *Engine) clampToField(pos *Vec3) {
	limitX := e.cfg.HalfWidth - e.cfg.PlayerRadius
	limitZ := e.cfg.HalfDepth - e.cfg.PlayerRadius
	pos.X = clamp(pos.X, -limitX, limitX)
	pos.Z = clamp(pos.Z, -limitZ, limitZ)
}

// generateObstacles scatters static cylinders around the midfield, away from
// the center circle and both goal mouths.
func (e *Engine) generateObstacles() []Obstacle {
	const (
		count      = 4
		radius     = 2.0
		height     = 3.0
		centerKeep = 6.0
	)

	obstacles := make([]Obstacle, 0, count)
	attempts := 0
	maxAttempts := count * 20

	maxX := e.cfg.HalfWidth * 0.6
	maxZ := e.cfg.HalfDepth * 0.8

	for len(obstacles) < count && attempts < maxAttempts {
		attempts++

		x := (e.rng.Float64()*2 - 1) * maxX
		z := (e.rng.Float64()*2 - 1) * maxZ

		if math.Hypot(x, z) < centerKeep {
			continue
		}
		if math.Abs(z) <= e.cfg.GoalHalfWidth+radius && math.Abs(x) > e.cfg.HalfWidth*0.5 {
			continue
		}

		candidate := Obstacle{
			ID:     fmt.Sprintf("obstacle-%d", len(obstacles)+1),
			Pos:    Vec3{X: x, Z: z},
			Radius: radius,
			Height: height,
		}

		tooClose := false
		for _, obs := range obstacles {
			dx := candidate.Pos.X - obs.Pos.X
			dz := candidate.Pos.Z - obs.Pos.Z
			if math.Hypot(dx, dz) < candidate.Radius+obs.Radius+e.cfg.PlayerRadius*2 {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}

		obstacles = append(obstacles, candidate)
	}

	return obstacles
}

// generateBoostPads lays four pads symmetrically, one per quadrant.
func (e *Engine) generateBoostPads() []BoostPad {
	const padRadius = 2.0
	x := e.cfg.HalfWidth * 0.35
	z := e.cfg.HalfDepth * 0.55

	pads := make([]BoostPad, 0, 4)
	id := 0
	for _, sx := range []float64{-1, 1} {
		for _, sz := range []float64{-1, 1} {
			id++
			pads = append(pads, BoostPad{
				ID:     fmt.Sprintf("pad-%d", id),
				Pos:    Vec3{X: x * sx, Z: z * sz},
				Radius: padRadius,
				Active: true,
			})
		}
	}
	return pads
}
