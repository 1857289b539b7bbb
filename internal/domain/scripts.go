package domain

import (
	"fmt"
	"sort"

	m "autoplay.dev/pkg/autoplay/internal/model"
)

// Scripts are the classical fixed input sequences: no model, no search, just
// a known key script played against the live game.
var scripts = map[string][]m.Action{
	"stand-still": {
		m.NewAction().Hold(30),
	},
	"walk-right": {
		m.NewAction(m.ControlRight).Hold(30),
	},
	"walk-left": {
		m.NewAction(m.ControlLeft).Hold(30),
	},
	"run-right": {
		m.NewAction(m.ControlRight, m.ControlRun).Hold(30),
	},
	"run-left": {
		m.NewAction(m.ControlLeft, m.ControlRun).Hold(30),
	},
	"jump-high": {
		m.NewAction(m.ControlJump).Hold(8),
		m.NewAction().Hold(22),
	},
	"jump-right": {
		m.NewAction(m.ControlRight).Hold(10),
		m.NewAction(m.ControlRight, m.ControlJump).Hold(8),
		m.NewAction(m.ControlRight).Hold(12),
	},
	"jump-left": {
		m.NewAction(m.ControlLeft).Hold(10),
		m.NewAction(m.ControlLeft, m.ControlJump).Hold(8),
		m.NewAction(m.ControlLeft).Hold(12),
	},
	"crouch": {
		m.NewAction(m.ControlCrouch).Hold(10),
	},
}

// Script returns the named classical input script.
func Script(name string) ([]m.Action, error) {
	actions, ok := scripts[name]
	if !ok {
		return nil, fmt.Errorf("unknown script %q (known: %v)", name, ScriptNames())
	}

	out := make([]m.Action, len(actions))
	copy(out, actions)

	return out, nil
}

// ScriptNames lists the known scripts in stable order.
func ScriptNames() []string {
	names := make([]string, 0, len(scripts))
	for name := range scripts {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
