package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionString(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   string
	}{
		{name: "idle single tick", action: NewAction(), want: "idle"},
		{name: "single control", action: NewAction(ControlRight), want: "right"},
		{name: "held controls ordered", action: NewAction(ControlJump, ControlRight), want: "right+jump"},
		{name: "run length", action: NewAction(ControlRight).Hold(10), want: "right x10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.action.String())
		})
	}
}

func TestActionNormalization(t *testing.T) {
	a := NewAction(ControlRun, ControlRight, ControlRight, ControlLeft)

	// Duplicates collapse and order is canonical regardless of input order.
	assert.Equal(t, []Control{ControlLeft, ControlRight, ControlRun}, a.Held)
	assert.True(t, a.Equal(NewAction(ControlLeft, ControlRun, ControlRight)))
}

func TestPathExpandCompressRoundTrip(t *testing.T) {
	path := Path{
		Level:    "1-1",
		Checksum: "abc",
		Actions: []Action{
			NewAction(ControlRight).Hold(10),
			NewAction(ControlRight, ControlJump).Hold(2),
			NewAction(ControlRight).Hold(5),
		},
	}

	expanded := path.Expand()
	require.Len(t, expanded, 17)

	for _, a := range expanded {
		assert.Equal(t, 1, a.Ticks)
	}

	recompressed := CompressActions(expanded)
	require.Len(t, recompressed, len(path.Actions))

	for i := range recompressed {
		assert.True(t, recompressed[i].Equal(path.Actions[i]),
			"action %d: got %s want %s", i, recompressed[i], path.Actions[i])
	}
}

func TestPathEqualIgnoresName(t *testing.T) {
	a := Path{Name: "one", Level: "1-1", Checksum: "abc", Actions: []Action{NewAction(ControlRight)}}
	b := Path{Name: "two", Level: "1-1", Checksum: "abc", Actions: []Action{NewAction(ControlRight)}}

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.ContentHash(), b.ContentHash())

	b.Checksum = "other"
	assert.False(t, a.Equal(b))
}

func TestPathValidFor(t *testing.T) {
	p := Path{Level: "1-1", Checksum: "abc"}

	assert.True(t, p.ValidFor("1-1", "abc"))
	assert.False(t, p.ValidFor("1-1", "stale"))
	assert.False(t, p.ValidFor("1-2", "abc"))
}

func TestSnapshotHazardsNear(t *testing.T) {
	snap := Snapshot{
		X: 100,
		Hazards: []Hazard{
			{Kind: HazardWalker, X: 110, Alive: true},
			{Kind: HazardWalker, X: 400, Alive: true},
			{Kind: HazardPit, X: 105, Alive: true},
			{Kind: HazardWalker, X: 101, Alive: false},
		},
	}

	near := snap.HazardsNear(32)
	require.Len(t, near, 2)
	assert.Equal(t, HazardWalker, near[0].Kind)
	assert.Equal(t, HazardPit, near[1].Kind)
}
