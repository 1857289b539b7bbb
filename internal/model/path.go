package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Path is an ordered action sequence recorded against a specific level
// layout. It replays only while the level checksum still matches.
type Path struct {
	Name     string   `yaml:"name"`
	Level    string   `yaml:"level"`
	Checksum string   `yaml:"checksum"`
	Score    int      `yaml:"score"`
	Actions  []Action `yaml:"actions"`
}

// ValidFor reports whether the path was recorded against the given level
// layout and may be replayed.
func (p Path) ValidFor(level, checksum string) bool {
	return p.Level == level && p.Checksum == checksum
}

// TickLength is the total number of ticks the path spans.
func (p Path) TickLength() int {
	total := 0

	for _, a := range p.Actions {
		ticks := a.Ticks
		if ticks < 1 {
			ticks = 1
		}

		total += ticks
	}

	return total
}

// Expand flattens the run-length encoded actions into one action per tick.
func (p Path) Expand() []Action {
	out := make([]Action, 0, p.TickLength())

	for _, a := range p.Actions {
		ticks := a.Ticks
		if ticks < 1 {
			ticks = 1
		}

		single := a
		single.Ticks = 1

		for i := 0; i < ticks; i++ {
			out = append(out, single)
		}
	}

	return out
}

// Equal compares two paths by level, checksum and action sequence, ignoring
// the name. De-duplication in the store uses this structural identity.
func (p Path) Equal(other Path) bool {
	if p.Level != other.Level || p.Checksum != other.Checksum {
		return false
	}

	if len(p.Actions) != len(other.Actions) {
		return false
	}

	for i := range p.Actions {
		if !p.Actions[i].Equal(other.Actions[i]) {
			return false
		}
	}

	return true
}

// ContentHash is a stable digest of the path's level identity and actions,
// used for generated names and structural de-duplication.
func (p Path) ContentHash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|", p.Level, p.Checksum)

	for _, a := range p.Actions {
		fmt.Fprintf(h, "%s;", a.String())
	}

	return hex.EncodeToString(h.Sum(nil))
}

// CompressActions run-length encodes a per-tick action sequence so stored
// paths stay human-diffable.
func CompressActions(actions []Action) []Action {
	var out []Action

	for _, a := range actions {
		ticks := a.Ticks
		if ticks < 1 {
			ticks = 1
		}

		single := a
		single.Ticks = 1

		if n := len(out); n > 0 && out[n-1].Ticks >= 1 && sameHeld(out[n-1], single) {
			out[n-1].Ticks += ticks
			continue
		}

		single.Ticks = ticks
		out = append(out, single)
	}

	return out
}

func sameHeld(a, b Action) bool {
	if len(a.Held) != len(b.Held) {
		return false
	}

	for i := range a.Held {
		if a.Held[i] != b.Held[i] {
			return false
		}
	}

	return true
}
