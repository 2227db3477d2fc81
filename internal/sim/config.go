package sim

// Config captures the tunables for a single match. Values are defaults
// derived from playtesting, not hard requirements; every field can be
// overridden before the engine is constructed.
type Config struct {
	TickRate int `json:"tickRate" jsonschema:"minimum=1,description=Simulation updates per second."`

	// Field half-extents. X is the goal axis, Z the lateral axis.
	HalfWidth float64 `json:"halfWidth" jsonschema:"minimum=1"`
	HalfDepth float64 `json:"halfDepth" jsonschema:"minimum=1"`

	GoalHalfWidth float64 `json:"goalHalfWidth" jsonschema:"minimum=0,description=Half extent of the goal mouth along Z."`
	GoalHeight    float64 `json:"goalHeight" jsonschema:"minimum=0"`

	PlayerRadius float64 `json:"playerRadius" jsonschema:"minimum=0"`
	BallRadius   float64 `json:"ballRadius" jsonschema:"minimum=0"`

	MoveSpeed       float64 `json:"moveSpeed" jsonschema:"minimum=0,description=Base horizontal speed in units per second."`
	BoostMultiplier float64 `json:"boostMultiplier" jsonschema:"minimum=1"`
	BoostCooldown   float64 `json:"boostCooldown" jsonschema:"minimum=0,description=Seconds before boost may be used again."`
	BoostDuration   float64 `json:"boostDuration" jsonschema:"minimum=0"`
	JumpVelocity    float64 `json:"jumpVelocity" jsonschema:"minimum=0"`
	Gravity         float64 `json:"gravity" jsonschema:"minimum=0"`

	KickTransfer  float64 `json:"kickTransfer" jsonschema:"minimum=0,description=Fraction of relative speed transferred on a kick."`
	MinKickSpeed  float64 `json:"minKickSpeed" jsonschema:"minimum=0"`
	WallBounce    float64 `json:"wallBounce" jsonschema:"minimum=0,maximum=1,description=Restitution for ball-wall reflections."`
	BallDamping   float64 `json:"ballDamping" jsonschema:"minimum=0,maximum=1,description=Horizontal velocity retained per second."`
	BallSpawnY    float64 `json:"ballSpawnY" jsonschema:"minimum=0"`
	MagnetPull    float64 `json:"magnetPull" jsonschema:"minimum=0"`
	MagnetRange   float64 `json:"magnetRange" jsonschema:"minimum=0"`
	RocketFactor  float64 `json:"rocketFactor" jsonschema:"minimum=1"`
	PadSpeedBoost float64 `json:"padSpeedBoost" jsonschema:"minimum=1"`
	PadRecharge   float64 `json:"padRecharge" jsonschema:"minimum=0,description=Seconds before a used boost pad reactivates."`

	PowerUpInterval float64 `json:"powerUpInterval" jsonschema:"minimum=0,description=Seconds between power-up spawns."`
	PowerUpPoolCap  int     `json:"powerUpPoolCap" jsonschema:"minimum=0"`
	PowerUpRadius   float64 `json:"powerUpRadius" jsonschema:"minimum=0"`
	MagnetDuration  float64 `json:"magnetDuration" jsonschema:"minimum=0"`
	FreezeDuration  float64 `json:"freezeDuration" jsonschema:"minimum=0"`
	RocketDuration  float64 `json:"rocketDuration" jsonschema:"minimum=0"`

	// Feature toggles supplied at room creation.
	Obstacles bool `json:"obstacles"`
	BoostPads bool `json:"boostPads"`

	MatchDuration float64 `json:"matchDuration" jsonschema:"minimum=0,description=Match length in seconds."`

	Seed int64 `json:"seed,omitempty" jsonschema:"description=RNG seed; zero selects a time-based seed."`
}

// DefaultConfig returns the tunables used when a room does not override them.
func DefaultConfig() Config {
	return Config{
		TickRate:        30,
		HalfWidth:       40,
		HalfDepth:       25,
		GoalHalfWidth:   7,
		GoalHeight:      4,
		PlayerRadius:    1.2,
		BallRadius:      0.8,
		MoveSpeed:       14,
		BoostMultiplier: 1.8,
		BoostCooldown:   3,
		BoostDuration:   1.2,
		JumpVelocity:    9,
		Gravity:         24,
		KickTransfer:    1.4,
		MinKickSpeed:    6,
		WallBounce:      0.7,
		BallDamping:     0.35,
		BallSpawnY:      1.5,
		MagnetPull:      30,
		MagnetRange:     18,
		RocketFactor:    1.6,
		PadSpeedBoost:   1.5,
		PadRecharge:     5,
		PowerUpInterval: 10,
		PowerUpPoolCap:  3,
		PowerUpRadius:   1.5,
		MagnetDuration:  6,
		FreezeDuration:  3,
		RocketDuration:  5,
		Obstacles:       true,
		BoostPads:       true,
		MatchDuration:   300,
	}
}

// normalized applies defaults to any zero-valued field that must be positive.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.TickRate <= 0 {
		c.TickRate = def.TickRate
	}
	if c.HalfWidth <= 0 {
		c.HalfWidth = def.HalfWidth
	}
	if c.HalfDepth <= 0 {
		c.HalfDepth = def.HalfDepth
	}
	if c.GoalHalfWidth <= 0 {
		c.GoalHalfWidth = def.GoalHalfWidth
	}
	if c.GoalHeight <= 0 {
		c.GoalHeight = def.GoalHeight
	}
	if c.PlayerRadius <= 0 {
		c.PlayerRadius = def.PlayerRadius
	}
	if c.BallRadius <= 0 {
		c.BallRadius = def.BallRadius
	}
	if c.MoveSpeed <= 0 {
		c.MoveSpeed = def.MoveSpeed
	}
	if c.BoostMultiplier <= 1 {
		c.BoostMultiplier = def.BoostMultiplier
	}
	if c.JumpVelocity <= 0 {
		c.JumpVelocity = def.JumpVelocity
	}
	if c.Gravity <= 0 {
		c.Gravity = def.Gravity
	}
	if c.BoostCooldown <= 0 {
		c.BoostCooldown = def.BoostCooldown
	}
	if c.BoostDuration <= 0 {
		c.BoostDuration = def.BoostDuration
	}
	if c.KickTransfer <= 0 {
		c.KickTransfer = def.KickTransfer
	}
	if c.MinKickSpeed <= 0 {
		c.MinKickSpeed = def.MinKickSpeed
	}
	if c.WallBounce <= 0 {
		c.WallBounce = def.WallBounce
	}
	if c.BallDamping <= 0 || c.BallDamping >= 1 {
		c.BallDamping = def.BallDamping
	}
	if c.BallSpawnY <= 0 {
		c.BallSpawnY = def.BallSpawnY
	}
	if c.MagnetPull <= 0 {
		c.MagnetPull = def.MagnetPull
	}
	if c.MagnetRange <= 0 {
		c.MagnetRange = def.MagnetRange
	}
	if c.RocketFactor <= 1 {
		c.RocketFactor = def.RocketFactor
	}
	if c.PadSpeedBoost <= 1 {
		c.PadSpeedBoost = def.PadSpeedBoost
	}
	if c.PadRecharge <= 0 {
		c.PadRecharge = def.PadRecharge
	}
	if c.PowerUpInterval <= 0 {
		c.PowerUpInterval = def.PowerUpInterval
	}
	if c.PowerUpPoolCap <= 0 {
		c.PowerUpPoolCap = def.PowerUpPoolCap
	}
	if c.PowerUpRadius <= 0 {
		c.PowerUpRadius = def.PowerUpRadius
	}
	if c.MagnetDuration <= 0 {
		c.MagnetDuration = def.MagnetDuration
	}
	if c.FreezeDuration <= 0 {
		c.FreezeDuration = def.FreezeDuration
	}
	if c.RocketDuration <= 0 {
		c.RocketDuration = def.RocketDuration
	}
	if c.MatchDuration <= 0 {
		c.MatchDuration = def.MatchDuration
	}
	return c
}

// dt returns the fixed timestep in seconds.
func (c Config) dt() float64 {
	return 1.0 / float64(c.TickRate)
}
