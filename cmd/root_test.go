package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoplay.dev/pkg/autoplay/internal/domain"
	m "autoplay.dev/pkg/autoplay/internal/model"
)

func TestExitCodeClassification(t *testing.T) {
	divergence := &domain.DivergenceError{
		Report: &m.DivergenceReport{Tick: 10, Field: m.DivergenceState, Expected: "moving", Actual: "dead"},
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"divergence is a behavioral finding", divergence, exitBehavioral},
		{"wrapped divergence is a behavioral finding", fmt.Errorf("session: %w", divergence), exitBehavioral},
		{"unreachable goal is a behavioral finding", domain.ErrGoalUnreachable, exitBehavioral},
		{"wrapped unreachable goal", fmt.Errorf("session: %w", domain.ErrGoalUnreachable), exitBehavioral},
		{"anything else is infrastructure", errors.New("window lost"), exitInfrastructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestScriptsCommandListsScripts(t *testing.T) {
	cmd := newScriptsCmd()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "walk-right")
	assert.Contains(t, out.String(), "jump-right")
}

func TestVersionCommandNamesTheTool(t *testing.T) {
	cmd := newVersionCmd()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "autoplay version")
}

func TestPlayCommandFlagSurface(t *testing.T) {
	flags := newPlayCmd().Flags()

	for _, name := range []string{
		"mode", "play-seconds", "tick-rate", "with-model",
		"script", "save-video", "journal", "save-paths", "load-paths",
	} {
		assert.NotNil(t, flags.Lookup(name), "flag --%s", name)
	}
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"manual", "autonomous", "classical"} {
		mode, err := domain.ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, string(mode))
	}

	_, err := domain.ParseMode("attract")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
