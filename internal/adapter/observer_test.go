package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "autoplay.dev/pkg/autoplay/internal/model"
)

func inLevelState() RawState {
	return RawState{
		Tick:          42,
		Level:         "plains-1",
		LevelChecksum: "abc123",
		GoalX:         600,
		PlayerX:       100,
		PlayerY:       0,
		Grounded:      true,
		InLevel:       true,
		Score:         500,
		Lives:         3,
		Timer:         2000,
		Hazards: []m.Hazard{
			{Kind: m.HazardWalker, X: 150, Alive: true},
		},
	}
}

func TestObserverDefersMidTransition(t *testing.T) {
	feed := &stubFeed{state: inLevelState()}
	feed.state.Transitioning = true

	_, ok := NewFeedObserver(feed).Observe()
	assert.False(t, ok)
}

func TestObserverNormalizesSnapshot(t *testing.T) {
	feed := &stubFeed{state: inLevelState()}
	feed.tick = 42

	snap, ok := NewFeedObserver(feed).Observe()
	require.True(t, ok)

	assert.Equal(t, uint64(42), snap.Tick)
	assert.Equal(t, "plains-1", snap.Level)
	assert.Equal(t, "abc123", snap.LevelChecksum)
	assert.Equal(t, m.StatePoweredSmall, snap.State)
	assert.Equal(t, m.PowerSmall, snap.Power)
	assert.Equal(t, 100.0, snap.X)
	assert.Equal(t, 500, snap.Score)
	assert.Equal(t, 3, snap.Lives)
	require.Len(t, snap.Hazards, 1)
	assert.Equal(t, m.HazardWalker, snap.Hazards[0].Kind)
}

func TestObserverStateSalience(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawState)
		want   m.EntityState
	}{
		{"load screen", func(r *RawState) { r.InLevel = false }, m.StateIdle},
		{"dead beats everything live", func(r *RawState) { r.Dead = true; r.Invulnerable = true; r.VelX = 2 }, m.StateDead},
		{"goal beats invulnerable", func(r *RawState) { r.GoalReached = true; r.Invulnerable = true }, m.StateLevelComplete},
		{"invulnerable beats movement", func(r *RawState) { r.Invulnerable = true; r.VelX = 2 }, m.StateInvulnerable},
		{"crouching on the ground", func(r *RawState) { r.Crouching = true }, m.StateCrouching},
		{"crouch input airborne is a jump", func(r *RawState) { r.Crouching = true; r.Grounded = false }, m.StateJumping},
		{"airborne", func(r *RawState) { r.Grounded = false; r.PlayerY = 5 }, m.StateJumping},
		{"shooting", func(r *RawState) { r.Shooting = true }, m.StateShooting},
		{"moving", func(r *RawState) { r.VelX = 3 }, m.StateMoving},
		{"at rest small", func(*RawState) {}, m.StatePoweredSmall},
		{"at rest big", func(r *RawState) { r.Big = true }, m.StatePoweredBig},
		{"at rest fire", func(r *RawState) { r.Fire = true }, m.StatePoweredFire},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := inLevelState()
			tt.mutate(&state)

			feed := &stubFeed{state: state}

			snap, ok := NewFeedObserver(feed).Observe()
			require.True(t, ok)
			assert.Equal(t, tt.want, snap.State)
		})
	}
}

func TestObserverCopiesHazards(t *testing.T) {
	state := inLevelState()
	feed := &stubFeed{state: state}

	snap, ok := NewFeedObserver(feed).Observe()
	require.True(t, ok)

	snap.Hazards[0].Alive = false
	assert.True(t, feed.state.Hazards[0].Alive, "snapshot must not alias the feed's slice")
}
