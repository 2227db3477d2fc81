package server

import "time"

const (
	ProtocolVersion = 1

	writeWait = 10 * time.Second

	tickRate = 30 // simulation and broadcast updates per second

	maxTeamSize = 5
	maxRoomSize = 2 * maxTeamSize

	maxNicknameLength = 24

	countdownSeconds  = 3.0
	endedResetSeconds = 5.0

	// Disconnected players keep their slot this long before it is released.
	defaultGracePeriod = 30 * time.Second

	// Registry sweep cadence and the idle age at which a fully disconnected
	// room is reclaimed.
	defaultSweepInterval       = 30 * time.Second
	defaultInactivityThreshold = 60 * time.Second

	// Input gateway budget per connection.
	inputRatePerSecond = 25
	inputRateBurst     = 25
)

// TickRate reports the simulation and broadcast cadence in hertz.
func TickRate() int { return tickRate }
