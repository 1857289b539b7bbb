package domain

import (
	m "autoplay.dev/pkg/autoplay/internal/model"
)

// ModelState is the behavior model's belief about the tracked entity. It is
// a value: Advance returns a new state and never mutates its input, which is
// what makes identical inputs always yield identical output.
type ModelState struct {
	Tick  uint64
	State m.EntityState
	Power m.Power

	ExpectedScore int
	ExpectedLives int
	ExpectedGoal  bool

	// DeadTicks counts down the respawn gate after a death; Invuln counts
	// down the post-hit invulnerability window.
	DeadTicks int
	Invuln    int

	// History is a bounded buffer of the last accepted transitions, kept
	// for divergence diagnostics.
	History []m.TransitionRecord
}

// NewModelState seeds the model's belief from the first stable in-level
// snapshot.
func NewModelState(snap m.Snapshot) ModelState {
	return ModelState{
		Tick:          snap.Tick,
		State:         snap.State,
		Power:         snap.Power,
		ExpectedScore: snap.Score,
		ExpectedLives: snap.Lives,
		ExpectedGoal:  snap.GoalReached,
	}
}

// transitionKind tags what a (state, event) pair does. Targets that depend
// on held input or power level carry the dependency in the tag, keeping the
// table itself total and explicit.
type transitionKind int

const (
	// tSelf keeps the current state.
	tSelf transitionKind = iota
	// tMove resolves the next movement state from the applied action.
	tMove
	// tHit kills a small entity and downgrades a powered one.
	tHit
	// tDeath kills unconditionally.
	tDeath
	// tComplete enters level-complete.
	tComplete
	// tPickup upgrades power one step and credits the pickup score.
	tPickup
	// tStomp credits the stomp score, then resolves movement.
	tStomp
	// tGate runs the dead-state respawn countdown.
	tGate
)

type transition struct {
	kind transitionKind
}

// transitionTable is the total (state x event) mapping. Every pair is
// present; TestTransitionTableIsTotal enforces it.
var transitionTable = buildTransitionTable()

func buildTransitionTable() map[m.EntityState]map[Event]transition {
	table := make(map[m.EntityState]map[Event]transition, len(m.AllEntityStates))

	liveRow := map[Event]transition{
		EventNone:           {kind: tMove},
		EventAirborne:       {kind: tMove},
		EventWallBlocked:    {kind: tMove},
		EventTimerExpiry:    {kind: tDeath},
		EventEnemyCollision: {kind: tHit},
		EventEnemyStomp:     {kind: tStomp},
		EventPitFall:        {kind: tDeath},
		EventGoalTouch:      {kind: tComplete},
		EventItemPickup:     {kind: tPickup},
	}

	for _, state := range []m.EntityState{
		m.StateMoving,
		m.StateJumping,
		m.StateCrouching,
		m.StateShooting,
		m.StatePoweredSmall,
		m.StatePoweredBig,
		m.StatePoweredFire,
	} {
		table[state] = liveRow
	}

	// Invulnerable entities shrug off enemy contact; everything else
	// behaves like a live state. Pits and the timer kill regardless.
	invulnRow := make(map[Event]transition, len(liveRow))
	for event, tr := range liveRow {
		invulnRow[event] = tr
	}

	invulnRow[EventEnemyCollision] = transition{kind: tMove}
	table[m.StateInvulnerable] = invulnRow

	// Death routes through the respawn gate for every event. In
	// particular dead -> level-complete is unreachable by construction.
	deadRow := make(map[Event]transition, len(AllEvents))
	completeRow := make(map[Event]transition, len(AllEvents))
	idleRow := make(map[Event]transition, len(AllEvents))

	for _, event := range AllEvents {
		deadRow[event] = transition{kind: tGate}
		completeRow[event] = transition{kind: tSelf}
		idleRow[event] = transition{kind: tSelf}
	}

	table[m.StateDead] = deadRow
	table[m.StateLevelComplete] = completeRow
	table[m.StateIdle] = idleRow

	return table
}

// Advance computes the model's prediction for the coming tick from the prior
// state, the action being applied, and the events derived from the previous
// snapshot. It is pure and deterministic.
func (p Params) Advance(prior ModelState, action m.Action, events []Event) ModelState {
	next := prior
	next.Tick = prior.Tick + 1

	if next.Invuln > 0 {
		next.Invuln--
	}

	if len(events) == 0 {
		events = []Event{EventNone}
	}

	primary := events[0]
	airborne := hasEvent(events, EventAirborne)
	blocked := hasEvent(events, EventWallBlocked)

	switch transitionTable[prior.State][primary].kind {
	case tSelf:
		// state unchanged

	case tGate:
		next = p.advanceDeadGate(next)

	case tDeath:
		next = p.kill(next)

	case tHit:
		if prior.Power == m.PowerSmall {
			next = p.kill(next)
		} else {
			next.Power--
			next.Invuln = p.InvulnTicks
			next.State = m.StateInvulnerable
		}

	case tComplete:
		next.State = m.StateLevelComplete
		next.ExpectedGoal = true

	case tPickup:
		if next.Power < m.PowerFire {
			next.Power++
		}

		next.ExpectedScore += p.PickupScore
		next.State = resolveMovement(next.Power, action, airborne, blocked)

	case tStomp:
		next.ExpectedScore += p.StompScore
		next.State = resolveMovement(next.Power, action, airborne, blocked)

	case tMove:
		next.State = resolveMovement(next.Power, action, airborne, blocked)
	}

	// The invulnerability window shows through every live state until it
	// runs out.
	if next.Invuln > 0 && next.State != m.StateDead && next.State != m.StateLevelComplete {
		next.State = m.StateInvulnerable
	}

	next.History = appendHistory(prior.History, m.TransitionRecord{
		Tick:   next.Tick,
		From:   prior.State,
		To:     next.State,
		Action: action,
		Events: eventNames(events),
	}, p.HistorySize)

	return next
}

func (p Params) kill(next ModelState) ModelState {
	next.State = m.StateDead
	next.Power = m.PowerSmall
	next.ExpectedLives--
	next.DeadTicks = p.RespawnDelay
	next.Invuln = 0

	return next
}

// advanceDeadGate counts down the respawn delay. With lives left the entity
// respawns small at the gate's end; without, it stays dead (game over).
func (p Params) advanceDeadGate(next ModelState) ModelState {
	if next.DeadTicks > 0 {
		next.DeadTicks--
	}

	if next.DeadTicks == 0 && next.ExpectedLives > 0 {
		next.State = m.StatePoweredSmall
		next.Power = m.PowerSmall
		next.Invuln = 0
	}

	return next
}

// resolveMovement maps held input to a movement state, mirroring the
// observer's salience order.
func resolveMovement(power m.Power, action m.Action, airborne, blocked bool) m.EntityState {
	switch {
	case airborne:
		return m.StateJumping
	case action.Has(m.ControlCrouch):
		return m.StateCrouching
	case action.Has(m.ControlRun) && power == m.PowerFire:
		return m.StateShooting
	case (action.Has(m.ControlLeft) || action.Has(m.ControlRight)) && !blocked:
		return m.StateMoving
	default:
		return power.State()
	}
}

func appendHistory(history []m.TransitionRecord, record m.TransitionRecord, size int) []m.TransitionRecord {
	out := make([]m.TransitionRecord, len(history), len(history)+1)
	copy(out, history)
	out = append(out, record)

	if size > 0 && len(out) > size {
		out = out[len(out)-size:]
	}

	return out
}

func eventNames(events []Event) []string {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = string(e)
	}

	return names
}
