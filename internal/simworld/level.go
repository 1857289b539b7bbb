// Package simworld is a deterministic, single-threaded platformer used as a
// built-in game harness. It implements the adapter feed contract so the
// engine can be exercised end to end without an external game process.
package simworld

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	m "autoplay.dev/pkg/autoplay/internal/model"
)

// HazardSpec places one hazard in a level. Walkers and flyers patrol between
// PatrolMin and PatrolMax; pits are spans of missing ground around X; power
// items sit still until collected.
type HazardSpec struct {
	Kind      m.HazardKind
	X         float64
	Y         float64
	Width     float64
	PatrolMin float64
	PatrolMax float64
	Speed     float64
}

// Level is a static level layout. The layout alone determines the checksum,
// so the same layout always replays the same way.
type Level struct {
	Name       string
	GoalX      float64
	StartTimer int
	StartLives int
	Hazards    []HazardSpec
}

// Checksum fingerprints the layout. Stored paths carry it so a path recorded
// against one layout is never replayed against another.
func (l Level) Checksum() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s|%.0f|%d|%d", l.Name, l.GoalX, l.StartTimer, l.StartLives)
	for _, h := range l.Hazards {
		fmt.Fprintf(&b, "|%s:%.0f:%.0f:%.0f:%.0f:%.0f:%.0f",
			h.Kind, h.X, h.Y, h.Width, h.PatrolMin, h.PatrolMax, h.Speed)
	}

	sum := sha256.Sum256([]byte(b.String()))

	return hex.EncodeToString(sum[:])
}

// DefaultLevel is a short stage with one of everything: two patrolling
// walkers, a bobbing flyer, a power item, and a pit wide enough that only a
// running jump clears it.
func DefaultLevel() Level {
	return Level{
		Name:       "plains-1",
		GoalX:      600,
		StartTimer: 3000,
		StartLives: 3,
		Hazards: []HazardSpec{
			{Kind: m.HazardWalker, X: 150, PatrolMin: 140, PatrolMax: 170, Speed: 1},
			{Kind: m.HazardPowerup, X: 250},
			{Kind: m.HazardFlyer, X: 320, Y: 2, PatrolMin: 310, PatrolMax: 340, Speed: 1},
			{Kind: m.HazardPit, X: 400, Width: 14},
			{Kind: m.HazardWalker, X: 480, PatrolMin: 470, PatrolMax: 500, Speed: 1},
		},
	}
}
