package domain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoplay.dev/pkg/autoplay/internal/adapter"
	m "autoplay.dev/pkg/autoplay/internal/model"
	"autoplay.dev/pkg/autoplay/internal/simworld"
)

// testLevel is a hazard-light stage: one power item and one pit that only a
// running jump clears. No enemies, so runs are fully reproducible without
// patrol phase alignment.
func testLevel() simworld.Level {
	return simworld.Level{
		Name:       "test-1",
		GoalX:      600,
		StartTimer: 3000,
		StartLives: 3,
		Hazards: []simworld.HazardSpec{
			{Kind: m.HazardPowerup, X: 250},
			{Kind: m.HazardPit, X: 400, Width: 14},
		},
	}
}

type harness struct {
	world    *simworld.World
	channel  *adapter.InputChannel
	observer adapter.Observer
}

func newHarness(level simworld.Level) harness {
	world := simworld.New(level)

	return harness{
		world:    world,
		channel:  adapter.NewInputChannel(world),
		observer: adapter.NewFeedObserver(world),
	}
}

// forwardCandidates keeps exploration deterministic in tests: run on the
// ground, jump only when running ahead predicts death.
func forwardCandidates() []m.Action {
	return []m.Action{
		m.NewAction(m.ControlRight, m.ControlRun),
		m.NewAction(m.ControlRight, m.ControlJump, m.ControlRun),
	}
}

func (h harness) explorer(cfg ExplorerConfig) *Explorer {
	return NewExplorer(DefaultParams(), cfg, h.world, h.channel, h.observer)
}

func (h harness) session(cfg SessionConfig, store adapter.PathStore, explorer *Explorer, input InputSource) *Session {
	return h.sessionWithParams(DefaultParams(), cfg, store, explorer, input)
}

func (h harness) sessionWithParams(params Params, cfg SessionConfig, store adapter.PathStore, explorer *Explorer, input InputSource) *Session {
	return NewSession(params, cfg, h.world, h.channel, h.observer, store, explorer,
		NewOracle(DefaultTolerance()), nil, input)
}

func TestStabilizeWaitsOutLoadScreen(t *testing.T) {
	h := newHarness(testLevel())

	snap, err := Stabilize(context.Background(), h.channel, h.observer)
	require.NoError(t, err)

	assert.Equal(t, m.StatePoweredSmall, snap.State)
	assert.Equal(t, "test-1", snap.Level)
	assert.True(t, snap.Grounded)
	assert.Equal(t, 0.0, snap.X)
}

func TestExplorerReachesGoal(t *testing.T) {
	h := newHarness(testLevel())

	snap, err := Stabilize(context.Background(), h.channel, h.observer)
	require.NoError(t, err)

	cfg := DefaultExplorerConfig()
	cfg.Candidates = forwardCandidates()

	path, err := h.explorer(cfg).Explore(context.Background(), snap)
	require.NoError(t, err)

	assert.True(t, path.ValidFor("test-1", testLevel().Checksum()))
	assert.Greater(t, path.Score, 100000, "goal completion bonus missing")
	assert.NotEmpty(t, path.Actions)

	// The run must actually have jumped the pit.
	jumped := false

	for _, action := range path.Actions {
		if action.Has(m.ControlJump) {
			jumped = true
		}
	}

	assert.True(t, jumped)
}

func TestExplorerGoalUnreachable(t *testing.T) {
	level := testLevel()
	level.Hazards = []simworld.HazardSpec{
		// Far too wide for any jump arc.
		{Kind: m.HazardPit, X: 100, Width: 60},
	}

	h := newHarness(level)

	snap, err := Stabilize(context.Background(), h.channel, h.observer)
	require.NoError(t, err)

	cfg := ExplorerConfig{TickBudget: 600, StallWindow: 30}

	_, err = h.explorer(cfg).Explore(context.Background(), snap)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGoalUnreachable)
}

func TestSessionClassicalScript(t *testing.T) {
	h := newHarness(testLevel())

	cfg := SessionConfig{Mode: ModeClassical, Script: "walk-right", TickRate: 60}

	result, err := h.session(cfg, nil, nil, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, m.OutcomeTimeExpired, result.Outcome)
	assert.Equal(t, uint64(30), result.Ticks)
	assert.Equal(t, 60.0, result.Final.X)
	assert.Equal(t, 3, result.Final.Lives)
}

func TestSessionClassicalUnknownScript(t *testing.T) {
	h := newHarness(testLevel())

	cfg := SessionConfig{Mode: ModeClassical, Script: "moonwalk", TickRate: 60}

	_, err := h.session(cfg, nil, nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown script")
}

func TestSessionExploreThenConformingReplay(t *testing.T) {
	pathsFile := filepath.Join(t.TempDir(), "paths.yaml")
	level := testLevel()

	cfg := SessionConfig{
		Mode:      ModeAutonomous,
		TickRate:  60,
		LoadPaths: true,
		SavePaths: true,
	}

	explorerCfg := DefaultExplorerConfig()
	explorerCfg.Candidates = forwardCandidates()

	// First session: empty store, so the explorer discovers the path.
	h := newHarness(level)
	store := adapter.NewFilePathStore(pathsFile)

	result, err := h.session(cfg, store, h.explorer(explorerCfg), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, m.OutcomeGoalReached, result.Outcome)
	assert.True(t, result.PathSaved)
	require.FileExists(t, pathsFile)

	// Second session: a fresh game replays the stored path under the
	// oracle's eye and must conform tick for tick.
	h2 := newHarness(level)
	store2 := adapter.NewFilePathStore(pathsFile)

	result2, err := h2.session(cfg, store2, h2.explorer(explorerCfg), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, m.OutcomeGoalReached, result2.Outcome)
	assert.NotEmpty(t, result2.PathName, "second run should replay, not explore")
	assert.False(t, result2.PathSaved)
	assert.True(t, result2.Final.GoalReached)
	assert.Equal(t, 1000, result2.Final.Score, "power item pickup missing")
}

func TestSessionStalePathFallsBackToExplorer(t *testing.T) {
	pathsFile := filepath.Join(t.TempDir(), "paths.yaml")
	level := testLevel()

	stale := m.Path{
		Name:     "stale",
		Level:    level.Name,
		Checksum: "0000deadbeef",
		Score:    999999,
		Actions:  []m.Action{m.NewAction(m.ControlRight).Hold(50)},
	}

	seed := adapter.NewFilePathStore(pathsFile)
	require.NoError(t, seed.Save(context.Background(), stale))
	require.NoError(t, seed.Flush(context.Background()))

	cfg := SessionConfig{Mode: ModeAutonomous, TickRate: 60, LoadPaths: true, SavePaths: true}

	explorerCfg := DefaultExplorerConfig()
	explorerCfg.Candidates = forwardCandidates()

	h := newHarness(level)
	store := adapter.NewFilePathStore(pathsFile)

	result, err := h.session(cfg, store, h.explorer(explorerCfg), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, m.OutcomeGoalReached, result.Outcome)
	assert.Empty(t, result.PathName, "stale path must not be replayed")
	assert.True(t, result.PathSaved)
}

func TestSessionCorruptStoreFailsBeforeInput(t *testing.T) {
	pathsFile := filepath.Join(t.TempDir(), "paths.yaml")
	require.NoError(t, os.WriteFile(pathsFile, []byte("version: 99\nlevels: {}\n"), 0o600))

	h := newHarness(testLevel())
	store := adapter.NewFilePathStore(pathsFile)

	cfg := SessionConfig{Mode: ModeAutonomous, TickRate: 60, LoadPaths: true}

	_, err := h.session(cfg, store, h.explorer(DefaultExplorerConfig()), nil).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, adapter.ErrStoreFormat)

	// The failure must surface before any input reaches the game.
	assert.Equal(t, uint64(0), h.world.Read().Tick)
}

func TestSessionReplayDivergesOnMisdocumentedScore(t *testing.T) {
	pathsFile := filepath.Join(t.TempDir(), "paths.yaml")
	level := testLevel()

	// A straight run across the power item, stopping before the pit.
	seedPath := m.Path{
		Name:     "seed",
		Level:    level.Name,
		Checksum: level.Checksum(),
		Score:    270,
		Actions:  []m.Action{m.NewAction(m.ControlRight, m.ControlRun).Hold(90)},
	}

	seed := adapter.NewFilePathStore(pathsFile)
	require.NoError(t, seed.Save(context.Background(), seedPath))
	require.NoError(t, seed.Flush(context.Background()))

	// The model believes a pickup is worth 999 points; the game credits
	// 1000. The oracle must catch the disagreement at the pickup tick.
	params := DefaultParams()
	params.PickupScore = 999

	cfg := SessionConfig{Mode: ModeAutonomous, TickRate: 60, LoadPaths: true}

	h := newHarness(level)
	store := adapter.NewFilePathStore(pathsFile)
	session := h.sessionWithParams(params, cfg, store, h.explorer(DefaultExplorerConfig()), nil)

	result, err := session.Run(context.Background())
	require.Error(t, err)

	var divergence *DivergenceError

	require.ErrorAs(t, err, &divergence)
	assert.Equal(t, m.DivergenceScore, divergence.Report.Field)
	assert.Equal(t, m.OutcomeDivergence, result.Outcome)
	require.NotNil(t, result.Divergence)
	assert.Equal(t, "999", result.Divergence.Expected)
	assert.Equal(t, "1000", result.Divergence.Actual)
}

func TestSessionReplayConformsThroughHitAndRespawn(t *testing.T) {
	pathsFile := filepath.Join(t.TempDir(), "paths.yaml")

	// A power item on the way in, then a static walker: the run picks up
	// the item, takes a downgrade hit standing at the contact edge, rides
	// out the shield window in place, dies to the second exposure, and
	// respawns — every phase predicted by the model and checked.
	level := simworld.Level{
		Name:       "gauntlet",
		GoalX:      600,
		StartTimer: 3000,
		StartLives: 3,
		Hazards: []simworld.HazardSpec{
			{Kind: m.HazardPowerup, X: 30},
			{Kind: m.HazardWalker, X: 100},
		},
	}

	// 45 ticks of walking reach the walker's contact edge at x=90; the
	// idle tail covers hit, shield, death, the respawn wait, and a few
	// ticks standing at spawn.
	seedPath := m.Path{
		Name:     "into-the-walker",
		Level:    level.Name,
		Checksum: level.Checksum(),
		Score:    90,
		Actions: []m.Action{
			m.NewAction(m.ControlRight).Hold(45),
			m.NewAction().Hold(82),
		},
	}

	seed := adapter.NewFilePathStore(pathsFile)
	require.NoError(t, seed.Save(context.Background(), seedPath))
	require.NoError(t, seed.Flush(context.Background()))

	cfg := SessionConfig{Mode: ModeAutonomous, TickRate: 60, LoadPaths: true}

	h := newHarness(level)
	store := adapter.NewFilePathStore(pathsFile)

	result, err := h.session(cfg, store, h.explorer(DefaultExplorerConfig()), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "into-the-walker", result.PathName)
	assert.Equal(t, m.OutcomeTimeExpired, result.Outcome)
	assert.Equal(t, uint64(127), result.Ticks)
	assert.Nil(t, result.Divergence)

	assert.Equal(t, 2, result.Final.Lives)
	assert.Equal(t, 1000, result.Final.Score, "pickup credited, no stomp")
	assert.Equal(t, m.StatePoweredSmall, result.Final.State, "respawned small, unshielded")
	assert.Equal(t, 0.0, result.Final.X, "standing at spawn")
}

type scriptedInput struct {
	action m.Action
}

func (s scriptedInput) NextAction(_ context.Context, _ m.Snapshot) (m.Action, error) {
	return s.action, nil
}

func TestSessionManualModeHonorsDeadline(t *testing.T) {
	h := newHarness(testLevel())

	cfg := SessionConfig{Mode: ModeManual, PlaySeconds: 1, TickRate: 10}
	input := scriptedInput{action: m.NewAction(m.ControlRight)}

	result, err := h.session(cfg, nil, nil, input).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, m.OutcomeTimeExpired, result.Outcome)
	assert.Equal(t, uint64(10), result.Ticks)
	assert.Equal(t, 20.0, result.Final.X)
}

func TestSessionWritesJournal(t *testing.T) {
	dir := t.TempDir()
	journalFile := filepath.Join(dir, "session.journal")

	h := newHarness(testLevel())

	cfg := SessionConfig{
		Mode:        ModeClassical,
		Script:      "walk-right",
		TickRate:    60,
		JournalFile: journalFile,
	}

	_, err := h.session(cfg, nil, nil, nil).Run(context.Background())
	require.NoError(t, err)

	info, err := os.Stat(journalFile)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
