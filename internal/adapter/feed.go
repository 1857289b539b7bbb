// Package adapter provides the infrastructure components that connect the
// play engine to a running game: state observation, input injection, path
// persistence and video capture.
package adapter

import (
	"context"
	"image"

	m "autoplay.dev/pkg/autoplay/internal/model"
)

// RawState is one unnormalized read of the game loop's observable state.
// The feed computes everything; the observer only normalizes it.
type RawState struct {
	Tick          uint64
	Level         string
	LevelChecksum string
	GoalX         float64

	PlayerX float64
	PlayerY float64
	VelX    float64
	VelY    float64

	Big          bool
	Fire         bool
	Dead         bool
	Invulnerable bool
	Grounded     bool
	Crouching    bool
	Shooting     bool

	// InLevel is false on menu and load screens.
	InLevel bool
	// Transitioning is true while the loop is mid state-flip; a snapshot
	// taken now would be torn.
	Transitioning bool

	Score       int
	Lives       int
	Timer       int
	GoalReached bool

	Hazards []m.Hazard
}

// GameFeed is the contract a game harness implements to be driven by the
// engine. The loop is cooperative and single-threaded: Step advances exactly
// one tick with the given controls held, and Read returns the state computed
// by that tick. Neither is called concurrently.
type GameFeed interface {
	Step(ctx context.Context, held []m.Control) error
	Read() RawState

	// Reset restarts the current level from its spawn point. The explorer
	// uses it to backtrack by replaying a shorter prefix.
	Reset(ctx context.Context) error
}

// FrameSource is implemented by feeds that can also render the current tick
// as an image. Video capture is best effort and optional.
type FrameSource interface {
	Frame() image.Image
}
