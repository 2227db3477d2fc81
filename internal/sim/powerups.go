package sim

import (
	"math"
	"sort"
)

const powerUpLifetime = 20.0

var powerUpTypes = []PowerUpType{PowerUpMagnet, PowerUpFreeze, PowerUpRocket}

// advancePowerUps runs the pickup lifecycle: the spawn timer accumulates
// while players are present, expired pickups age out, and overlapping
// players consume pickups into timed effects.
func (e *Engine) advancePowerUps(dt float64) {
	if len(e.players) > 0 {
		e.powerUpTimer += dt
		if e.powerUpTimer >= e.cfg.PowerUpInterval {
			e.powerUpTimer = 0
			if len(e.powerUps) < e.cfg.PowerUpPoolCap {
				e.spawnPowerUp()
			}
		}
	}

	kept := e.powerUps[:0]
	for i := range e.powerUps {
		pu := &e.powerUps[i]
		pu.Lifetime -= dt
		if pu.Lifetime <= 0 {
			continue
		}
		if holder := e.powerUpPicker(pu); holder != nil {
			e.applyPowerUp(holder, pu.Type)
			continue
		}
		kept = append(kept, *pu)
	}
	e.powerUps = kept
}

// powerUpPicker returns the player overlapping the pickup, if any.
func (e *Engine) powerUpPicker(pu *PowerUp) *playerState {
	for _, id := range e.sortedPlayerIDs() {
		state := e.players[id]
		dx := state.Pos.X - pu.Pos.X
		dz := state.Pos.Z - pu.Pos.Z
		reach := e.cfg.PlayerRadius + e.cfg.PowerUpRadius
		if dx*dx+dz*dz <= reach*reach {
			return state
		}
	}
	return nil
}

// applyPowerUp grants the timed effect for a consumed pickup. Freeze is the
// one type that targets the opposing team rather than the holder.
func (e *Engine) applyPowerUp(holder *playerState, kind PowerUpType) {
	switch kind {
	case PowerUpMagnet:
		holder.Effect = PowerUpMagnet
		holder.EffectTime = e.cfg.MagnetDuration
	case PowerUpRocket:
		holder.Effect = PowerUpRocket
		holder.EffectTime = e.cfg.RocketDuration
	case PowerUpFreeze:
		for _, state := range e.players {
			if state.Team == holder.Team {
				continue
			}
			state.Effect = EffectFrozen
			state.EffectTime = e.cfg.FreezeDuration
		}
	}
}

// spawnPowerUp drops a random pickup at a clear field location.
func (e *Engine) spawnPowerUp() {
	kind := powerUpTypes[e.rng.Intn(len(powerUpTypes))]

	maxX := e.cfg.HalfWidth * 0.7
	maxZ := e.cfg.HalfDepth * 0.8

	pos := Vec3{}
	for attempt := 0; attempt < 10; attempt++ {
		candidate := Vec3{
			X: (e.rng.Float64()*2 - 1) * maxX,
			Z: (e.rng.Float64()*2 - 1) * maxZ,
		}
		if e.powerUpSpotClear(candidate) {
			pos = candidate
			break
		}
		pos = candidate
	}
	e.clampToField(&pos)

	e.powerUps = append(e.powerUps, PowerUp{
		ID:       e.nextPowerUpID(),
		Type:     kind,
		Pos:      pos,
		Lifetime: powerUpLifetime,
	})
}

func (e *Engine) powerUpSpotClear(pos Vec3) bool {
	for i := range e.obstacles {
		obs := &e.obstacles[i]
		dx := pos.X - obs.Pos.X
		dz := pos.Z - obs.Pos.Z
		if math.Hypot(dx, dz) < obs.Radius+e.cfg.PowerUpRadius {
			return false
		}
	}
	return true
}

// advanceBoostPads recharges pads that were consumed by a passing player.
func (e *Engine) advanceBoostPads(dt float64) {
	for i := range e.pads {
		pad := &e.pads[i]
		if pad.Active {
			continue
		}
		pad.Recharge -= dt
		if pad.Recharge <= 0 {
			pad.Recharge = 0
			pad.Active = true
		}
	}
}

func (e *Engine) sortedPlayerIDs() []string {
	ids := make([]string, 0, len(e.players))
	for id := range e.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
