package domain

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	m "autoplay.dev/pkg/autoplay/internal/model"
)

// Tolerance bounds the oracle's leniency on continuous fields. Discrete
// fields are never tolerated.
type Tolerance struct {
	// MaxPositionStep is the largest per-tick position change considered
	// sane.
	MaxPositionStep float64
	// MaxVelocity is the largest velocity magnitude considered sane.
	MaxVelocity float64
}

// DefaultTolerance is a starting point meant to be tuned against replay
// data, not an exact bound.
func DefaultTolerance() Tolerance {
	return Tolerance{
		MaxPositionStep: 16,
		MaxVelocity:     12,
	}
}

// Oracle compares observed snapshots against behavior-model predictions
// once per tick. Discrete mismatches fail the scenario; continuous drift is
// only logged. The model certifies logical behavior, it does not re-simulate
// physics.
type Oracle struct {
	tolerance Tolerance

	expectedTrace []string
	observedTrace []string
	traceSize     int
}

// NewOracle constructs an Oracle with the given tolerance.
func NewOracle(tolerance Tolerance) *Oracle {
	return &Oracle{tolerance: tolerance, traceSize: 64}
}

// Check compares one tick. prior is the model state before this tick's
// advance, predicted the state after it, prev the previous snapshot and snap
// the one just observed. A nil report means the tick conforms.
func (o *Oracle) Check(prior, predicted ModelState, prev, snap m.Snapshot) *m.DivergenceReport {
	o.recordTrace(predicted, snap)

	if snap.State != predicted.State {
		return o.report(predicted, snap, m.DivergenceState,
			string(predicted.State), string(snap.State),
			"observed discrete state contradicts model prediction")
	}

	if snap.Lives != predicted.ExpectedLives {
		return o.report(predicted, snap, m.DivergenceLives,
			fmt.Sprintf("%d", predicted.ExpectedLives), fmt.Sprintf("%d", snap.Lives),
			"life accounting mismatch")
	}

	if snap.GoalReached != predicted.ExpectedGoal {
		return o.report(predicted, snap, m.DivergenceGoal,
			fmt.Sprintf("%t", predicted.ExpectedGoal), fmt.Sprintf("%t", snap.GoalReached),
			"goal-reached flag mismatch")
	}

	if snap.Score != predicted.ExpectedScore {
		// On the tick a transition credits points, the live score may
		// trail the model by exactly that credit; it must have caught up
		// by the next check, where prior equals predicted again.
		boundary := predicted.ExpectedScore != prior.ExpectedScore
		lagging := boundary && snap.Score == prior.ExpectedScore

		if !lagging {
			return o.report(predicted, snap, m.DivergenceScore,
				fmt.Sprintf("%d", predicted.ExpectedScore), fmt.Sprintf("%d", snap.Score),
				"score mismatch beyond one-tick accrual lag")
		}
	}

	o.checkContinuous(prev, snap)

	return nil
}

// checkContinuous sanity-checks position and velocity. Violations are
// logged, never failed.
func (o *Oracle) checkContinuous(prev, snap m.Snapshot) {
	// Respawn teleports back to the spawn point; that jump is expected.
	respawning := prev.State == m.StateDead || snap.State == m.StateDead

	if step := abs(snap.X - prev.X); step > o.tolerance.MaxPositionStep && !respawning {
		slog.Warn("continuous drift: position step out of bounds",
			"tick", snap.Tick, "step", step, "max", o.tolerance.MaxPositionStep)
	}

	if v := abs(snap.VelX); v > o.tolerance.MaxVelocity {
		slog.Warn("continuous drift: horizontal velocity out of bounds",
			"tick", snap.Tick, "velocity", v, "max", o.tolerance.MaxVelocity)
	}

	if v := abs(snap.VelY); v > o.tolerance.MaxVelocity {
		slog.Warn("continuous drift: vertical velocity out of bounds",
			"tick", snap.Tick, "velocity", v, "max", o.tolerance.MaxVelocity)
	}
}

func (o *Oracle) report(predicted ModelState, snap m.Snapshot, field m.DivergenceField, expected, actual, cause string) *m.DivergenceReport {
	return &m.DivergenceReport{
		Tick:        snap.Tick,
		Field:       field,
		Expected:    expected,
		Actual:      actual,
		Cause:       cause,
		LastActions: lastActions(predicted.History, 8),
		History:     predicted.History,
		Snapshot:    snap,
	}
}

func (o *Oracle) recordTrace(predicted ModelState, snap m.Snapshot) {
	expected := fmt.Sprintf("tick %d: %s score=%d lives=%d goal=%t",
		predicted.Tick, predicted.State, predicted.ExpectedScore, predicted.ExpectedLives, predicted.ExpectedGoal)
	observed := fmt.Sprintf("tick %d: %s score=%d lives=%d goal=%t",
		snap.Tick, snap.State, snap.Score, snap.Lives, snap.GoalReached)

	o.expectedTrace = appendTrace(o.expectedTrace, expected, o.traceSize)
	o.observedTrace = appendTrace(o.observedTrace, observed, o.traceSize)
}

// RenderDiff returns a unified diff of the expected and observed tick
// traces, for human-readable divergence reports.
func (o *Oracle) RenderDiff() string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(strings.Join(o.expectedTrace, "\n") + "\n"),
		B:        difflib.SplitLines(strings.Join(o.observedTrace, "\n") + "\n"),
		FromFile: "expected",
		ToFile:   "observed",
		Context:  3,
	})
	if err != nil {
		return ""
	}

	return diff
}

func lastActions(history []m.TransitionRecord, n int) []m.Action {
	if len(history) > n {
		history = history[len(history)-n:]
	}

	actions := make([]m.Action, len(history))
	for i, record := range history {
		actions[i] = record.Action
	}

	return actions
}

func appendTrace(trace []string, line string, size int) []string {
	trace = append(trace, line)
	if len(trace) > size {
		trace = trace[len(trace)-size:]
	}

	return trace
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}
