package model

import (
	"sort"
	"strconv"
	"strings"
)

// Control is one logical input the game understands.
type Control string

const (
	ControlLeft   Control = "left"
	ControlRight  Control = "right"
	ControlJump   Control = "jump"
	ControlCrouch Control = "crouch"
	// ControlRun doubles as the shoot button, matching the game's keymap.
	ControlRun Control = "run"
)

// Controls is the full input vocabulary in canonical order.
var Controls = []Control{ControlLeft, ControlRight, ControlJump, ControlCrouch, ControlRun}

// Action is a single tick's input vector: the set of held controls and how
// many consecutive ticks it is held. Immutable once recorded.
type Action struct {
	Held  []Control `yaml:"held,flow"`
	Ticks int       `yaml:"ticks"`
}

// NewAction builds a one-tick action holding the given controls.
func NewAction(held ...Control) Action {
	return Action{Held: normalizeControls(held), Ticks: 1}
}

// Hold returns a copy of the action held for n ticks.
func (a Action) Hold(n int) Action {
	a.Ticks = n
	return a
}

// Has reports whether the control is held.
func (a Action) Has(c Control) bool {
	for _, held := range a.Held {
		if held == c {
			return true
		}
	}

	return false
}

// IsIdle reports whether no control is held.
func (a Action) IsIdle() bool {
	return len(a.Held) == 0
}

// Equal compares two actions structurally.
func (a Action) Equal(other Action) bool {
	if a.Ticks != other.Ticks || len(a.Held) != len(other.Held) {
		return false
	}

	for i := range a.Held {
		if a.Held[i] != other.Held[i] {
			return false
		}
	}

	return true
}

// String renders the action as e.g. "right+jump x12" for logs and diffs.
func (a Action) String() string {
	if a.IsIdle() {
		return joinTicks("idle", a.Ticks)
	}

	names := make([]string, 0, len(a.Held))
	for _, c := range a.Held {
		names = append(names, string(c))
	}

	return joinTicks(strings.Join(names, "+"), a.Ticks)
}

func joinTicks(name string, ticks int) string {
	if ticks <= 1 {
		return name
	}

	return name + " x" + strconv.Itoa(ticks)
}

func normalizeControls(held []Control) []Control {
	seen := make(map[Control]bool, len(held))
	out := make([]Control, 0, len(held))

	for _, c := range held {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool { return controlRank(out[i]) < controlRank(out[j]) })

	return out
}

func controlRank(c Control) int {
	for i, known := range Controls {
		if known == c {
			return i
		}
	}

	return len(Controls)
}
