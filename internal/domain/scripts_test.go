package domain

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "autoplay.dev/pkg/autoplay/internal/model"
)

func TestScriptNames(t *testing.T) {
	names := ScriptNames()

	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "walk-right")
	assert.Contains(t, names, "jump-right")
	assert.Contains(t, names, "stand-still")
}

func TestScriptUnknown(t *testing.T) {
	_, err := Script("moonwalk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown script")
}

func TestScriptExpansion(t *testing.T) {
	script, err := Script("jump-right")
	require.NoError(t, err)

	expanded := expandAll(script)
	require.Len(t, expanded, 30)

	// Walk-in, jump phase, walk-out.
	assert.False(t, expanded[0].Has(m.ControlJump))
	assert.True(t, expanded[10].Has(m.ControlJump))
	assert.True(t, expanded[17].Has(m.ControlJump))
	assert.False(t, expanded[18].Has(m.ControlJump))

	for i, action := range expanded {
		assert.True(t, action.Has(m.ControlRight), "tick %d should hold right", i)
		assert.Equal(t, 1, action.Ticks)
	}
}

func TestScriptReturnsACopy(t *testing.T) {
	first, err := Script("walk-right")
	require.NoError(t, err)

	first[0] = m.NewAction(m.ControlLeft)

	second, err := Script("walk-right")
	require.NoError(t, err)
	assert.True(t, second[0].Has(m.ControlRight))
}
