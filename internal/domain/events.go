// Package domain implements the play engine: behavior model, conformance
// oracle, path explorer and session driver.
package domain

import (
	m "autoplay.dev/pkg/autoplay/internal/model"
)

// Event is a typed occurrence derived from the previous tick's snapshot plus
// the action being applied. Events drive behavior-model transitions.
type Event string

const (
	EventNone           Event = "none"
	EventTimerExpiry    Event = "timer-expiry"
	EventEnemyCollision Event = "enemy-collision"
	EventEnemyStomp     Event = "enemy-stomp"
	EventPitFall        Event = "pit-fall"
	EventGoalTouch      Event = "goal-touch"
	EventItemPickup     Event = "item-pickup"
	// EventAirborne marks that the entity will be off the ground this
	// tick. It is kinematic, not a hazard, and never changes power or
	// liveness on its own.
	EventAirborne Event = "airborne"
	// EventWallBlocked marks that a held direction produces no horizontal
	// motion this tick (level boundary).
	EventWallBlocked Event = "wall-blocked"
)

// AllEvents lists every event the transition table must handle.
var AllEvents = []Event{
	EventNone,
	EventTimerExpiry,
	EventEnemyCollision,
	EventEnemyStomp,
	EventPitFall,
	EventGoalTouch,
	EventItemPickup,
	EventAirborne,
	EventWallBlocked,
}

// Params are the documented behavior constants of the game under test. The
// model predicts with them; they mirror the game's loop, they do not
// simulate it.
type Params struct {
	WalkSpeed    float64
	RunSpeed     float64
	JumpImpulse  float64
	ContactX     float64
	ContactY     float64
	RespawnDelay int
	InvulnTicks  int
	StompScore   int
	PickupScore  int
	HistorySize  int
}

// DefaultParams match the reference platformer's loop constants.
func DefaultParams() Params {
	return Params{
		WalkSpeed:    2,
		RunSpeed:     3,
		JumpImpulse:  3,
		ContactX:     10,
		ContactY:     4,
		RespawnDelay: 30,
		InvulnTicks:  45,
		StompScore:   100,
		PickupScore:  1000,
		HistorySize:  32,
	}
}

// ExpectedVelX is the horizontal velocity the action produces given the
// previous tick's snapshot.
func (p Params) ExpectedVelX(prev m.Snapshot, action m.Action) float64 {
	if action.Has(m.ControlCrouch) && prev.Grounded {
		return 0
	}

	speed := p.WalkSpeed
	if action.Has(m.ControlRun) {
		speed = p.RunSpeed
	}

	switch {
	case action.Has(m.ControlRight):
		return speed
	case action.Has(m.ControlLeft):
		if prev.X-speed < 0 {
			return -prev.X
		}

		return -speed
	default:
		return 0
	}
}

// ExpectedY is the vertical position after this tick, before any ground
// clamp. The loop applies the jump impulse, then integrates, so both are
// derivable from the previous snapshot and the action.
func (p Params) ExpectedY(prev m.Snapshot, action m.Action) float64 {
	if prev.Grounded {
		if action.Has(m.ControlJump) {
			return p.JumpImpulse
		}

		return 0
	}

	return prev.Y + prev.VelY
}

// DeriveEvents computes the events the coming tick will produce, ordered by
// severity (index 0 is the primary event). It reads only the previous
// snapshot and the action; it never inspects live game internals.
func DeriveEvents(prev m.Snapshot, action m.Action, p Params) []Event {
	if prev.State == m.StateIdle || prev.State == m.StateDead || prev.State == m.StateLevelComplete {
		// Terminal and pre-level states advance on internal gates only.
		return []Event{EventNone}
	}

	var events []Event

	nextX := prev.X + p.ExpectedVelX(prev, action)
	nextY := p.ExpectedY(prev, action)

	if prev.Timer == 1 {
		events = append(events, EventTimerExpiry)
	}

	if collision, stomp := enemyContact(prev, p); collision {
		if stomp {
			events = append(events, EventEnemyStomp)
		} else if prev.State != m.StateInvulnerable {
			events = append(events, EventEnemyCollision)
		}
	}

	if nextY <= 0 && overPit(prev, nextX) {
		events = append(events, EventPitFall)
	}

	if nextX >= prev.GoalX {
		events = append(events, EventGoalTouch)
	}

	if powerupContact(prev, p) {
		events = append(events, EventItemPickup)
	}

	if nextY > 0 {
		events = append(events, EventAirborne)
	}

	if (action.Has(m.ControlLeft) || action.Has(m.ControlRight)) && nextX == prev.X {
		events = append(events, EventWallBlocked)
	}

	if len(events) == 0 {
		events = []Event{EventNone}
	}

	sortBySeverity(events)

	return events
}

// eventSeverity orders simultaneous events the way the game loop resolves
// them: timer death, then pre-move enemy contact, then post-move pit and
// goal checks, then pickups and bookkeeping.
var eventSeverity = map[Event]int{
	EventTimerExpiry:    0,
	EventEnemyCollision: 1,
	EventPitFall:        2,
	EventGoalTouch:      3,
	EventItemPickup:     4,
	EventEnemyStomp:     5,
	EventAirborne:       6,
	EventWallBlocked:    7,
	EventNone:           8,
}

func sortBySeverity(events []Event) {
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && eventSeverity[events[j]] < eventSeverity[events[j-1]]; j-- {
			events[j], events[j-1] = events[j-1], events[j]
		}
	}
}

func enemyContact(prev m.Snapshot, p Params) (collision, stomp bool) {
	for _, h := range prev.Hazards {
		if !h.Alive || (h.Kind != m.HazardWalker && h.Kind != m.HazardFlyer) {
			continue
		}

		dx := prev.X - h.X
		if dx < 0 {
			dx = -dx
		}

		if dx > p.ContactX || prev.Y > p.ContactY {
			continue
		}

		if prev.VelY < 0 && prev.Y > 0 {
			return true, true
		}

		return true, false
	}

	return false, false
}

func powerupContact(prev m.Snapshot, p Params) bool {
	for _, h := range prev.Hazards {
		if !h.Alive || h.Kind != m.HazardPowerup {
			continue
		}

		dx := prev.X - h.X
		if dx < 0 {
			dx = -dx
		}

		if dx <= p.ContactX && prev.Y <= p.ContactY {
			return true
		}
	}

	return false
}

func overPit(prev m.Snapshot, x float64) bool {
	for _, h := range prev.Hazards {
		if h.Kind != m.HazardPit {
			continue
		}

		half := h.Width / 2
		if x > h.X-half && x < h.X+half {
			return true
		}
	}

	return false
}

func hasEvent(events []Event, e Event) bool {
	for _, ev := range events {
		if ev == e {
			return true
		}
	}

	return false
}
