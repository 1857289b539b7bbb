// Package model defines the data structures for autonomous play and
// behavior-model conformance checking.
package model

// EntityState is the normalized discrete state of the tracked entity.
type EntityState string

const (
	// StateIdle means the entity is not yet in a level (menu, load screen).
	StateIdle EntityState = "idle"
	// StateMoving means the entity is on the ground with horizontal motion.
	StateMoving EntityState = "moving"
	// StateJumping means the entity is airborne.
	StateJumping EntityState = "jumping"
	// StateCrouching means the entity is ducking on the ground.
	StateCrouching EntityState = "crouching"
	// StateShooting means the entity is discharging a projectile this tick.
	StateShooting EntityState = "shooting"
	// StatePoweredSmall is the grounded resting state at base power.
	StatePoweredSmall EntityState = "powered-small"
	// StatePoweredBig is the grounded resting state after a size powerup.
	StatePoweredBig EntityState = "powered-big"
	// StatePoweredFire is the grounded resting state after a fire powerup.
	StatePoweredFire EntityState = "powered-fire"
	// StateInvulnerable means a post-hit or star invulnerability window is active.
	StateInvulnerable EntityState = "invulnerable"
	// StateDead means the entity died this life.
	StateDead EntityState = "dead"
	// StateLevelComplete means the level goal has been reached.
	StateLevelComplete EntityState = "level-complete"
)

// AllEntityStates lists every discrete state, for exhaustiveness checks.
var AllEntityStates = []EntityState{
	StateIdle,
	StateMoving,
	StateJumping,
	StateCrouching,
	StateShooting,
	StatePoweredSmall,
	StatePoweredBig,
	StatePoweredFire,
	StateInvulnerable,
	StateDead,
	StateLevelComplete,
}

// Power is the entity's powerup level, tracked separately from the discrete
// state so movement states do not erase it.
type Power int

const (
	PowerSmall Power = iota
	PowerBig
	PowerFire
)

// State returns the resting discrete state for the power level.
func (p Power) State() EntityState {
	switch p {
	case PowerBig:
		return StatePoweredBig
	case PowerFire:
		return StatePoweredFire
	default:
		return StatePoweredSmall
	}
}

// HazardKind identifies a hazard or enemy type in a Snapshot.
type HazardKind string

const (
	HazardWalker HazardKind = "walker"
	HazardFlyer  HazardKind = "flyer"
	HazardPit    HazardKind = "pit"
	// HazardPowerup is not harmful; it is carried in the same typed record
	// set so event derivation sees pickups the way it sees hazards.
	HazardPowerup HazardKind = "powerup"
)

// Hazard is one active hazard, enemy or pickup observed in a tick. X is the
// record's center; Width is its horizontal extent (pits span their whole
// width, contact hazards use the engine's contact range instead).
type Hazard struct {
	Kind  HazardKind
	X     float64
	Y     float64
	Width float64
	Alive bool
}

// Snapshot is the observable game state at one tick. It is immutable once
// produced by the observer; components hand it off by value.
type Snapshot struct {
	Tick          uint64
	Level         string
	LevelChecksum string
	GoalX         float64

	State EntityState
	Power Power
	X     float64
	Y     float64
	VelX  float64
	VelY  float64

	Score       int
	Lives       int
	Timer       int
	GoalReached bool
	Grounded    bool

	Hazards []Hazard
}

// HazardsNear returns the alive hazards within dist world units of the
// entity's x position.
func (s Snapshot) HazardsNear(dist float64) []Hazard {
	var near []Hazard

	for _, h := range s.Hazards {
		if !h.Alive {
			continue
		}

		d := h.X - s.X
		if d < 0 {
			d = -d
		}

		if d <= dist {
			near = append(near, h)
		}
	}

	return near
}
