// Package controller provides output surfaces for play sessions.
package controller

import (
	"context"

	m "autoplay.dev/pkg/autoplay/internal/model"
)

// UI displays session progress and results. Implementations can use
// different output methods (simple text, TUI, etc).
type UI interface {
	DisplaySessionStart(ctx context.Context, mode string, level string)
	DisplayResult(ctx context.Context, result m.SessionResult) error
	// DisplayDivergence shows the conformance failure with the rendered
	// expected/observed trace diff.
	DisplayDivergence(ctx context.Context, report *m.DivergenceReport, diff string)
	DisplayPaths(ctx context.Context, level string, paths []m.Path) error
	DisplayScripts(ctx context.Context, names []string)
}
