package model

// TransitionRecord is one accepted behavior-model transition, kept in a
// bounded history for diagnostics.
type TransitionRecord struct {
	Tick   uint64
	From   EntityState
	To     EntityState
	Action Action
	Events []string
}

// DivergenceField names the discrete field that diverged.
type DivergenceField string

const (
	DivergenceState DivergenceField = "state"
	DivergenceLives DivergenceField = "lives"
	DivergenceGoal  DivergenceField = "goal-reached"
	DivergenceScore DivergenceField = "score"
)

// DivergenceReport is produced when the observed snapshot contradicts the
// behavior model's prediction on a discrete field. It is a terminal artifact
// consumed by the failure reporting surface.
type DivergenceReport struct {
	Tick     uint64
	Field    DivergenceField
	Expected string
	Actual   string
	Cause    string

	// LastActions holds the most recent inputs leading up to the mismatch.
	LastActions []Action
	// History is the model's accepted transition history at the time of
	// the mismatch.
	History []TransitionRecord

	Snapshot Snapshot
}

// SessionOutcome classifies how a play session ended.
type SessionOutcome string

const (
	OutcomeGoalReached SessionOutcome = "goal-reached"
	OutcomeTimeExpired SessionOutcome = "time-expired"
	OutcomeDivergence  SessionOutcome = "divergence"
	OutcomeUnreachable SessionOutcome = "goal-unreachable"
	OutcomeInterrupted SessionOutcome = "interrupted"
)

// SessionResult is the structured result of one play session.
type SessionResult struct {
	Outcome    SessionOutcome
	Mode       string
	Ticks      uint64
	Final      Snapshot
	Divergence *DivergenceReport
	PathName   string
	PathSaved  bool
	VideoFile  string
}
