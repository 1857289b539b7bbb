package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"autoplay.dev/pkg/autoplay/internal/adapter"
	m "autoplay.dev/pkg/autoplay/internal/model"
)

// ErrGoalUnreachable is returned when exploration exhausts its backtracking
// alternatives or its tick budget without reaching the goal. It is a
// scenario failure, not a crash.
var ErrGoalUnreachable = errors.New("goal unreachable: exploration budget exhausted")

// ExplorerConfig bounds an exploration run.
type ExplorerConfig struct {
	// TickBudget is the total number of ticks the run may consume,
	// including backtrack replays.
	TickBudget int
	// StallWindow is how many consecutive ticks without heuristic
	// improvement count as a local dead end.
	StallWindow int
	// Candidates restricts the action vocabulary; empty means the full
	// default set.
	Candidates []m.Action
}

// DefaultExplorerConfig returns the standard exploration bounds.
func DefaultExplorerConfig() ExplorerConfig {
	return ExplorerConfig{
		TickBudget:  6000,
		StallWindow: 90,
	}
}

// defaultCandidates is the exploration vocabulary in fixed tie-break
// priority: forward movement, then jump, then run/shoot, then idle. The
// order makes exploration reproducible from identical starting conditions.
func defaultCandidates() []m.Action {
	return []m.Action{
		m.NewAction(m.ControlRight),
		m.NewAction(m.ControlRight, m.ControlJump),
		m.NewAction(m.ControlRight, m.ControlJump, m.ControlRun),
		m.NewAction(m.ControlJump),
		m.NewAction(m.ControlRight, m.ControlRun),
		m.NewAction(),
	}
}

// decision is one point during exploration where more than one viable action
// existed. Backtracking returns here and tries the next alternative.
type decision struct {
	tick         int // length of the executed prefix at this point
	alternatives []m.Action
}

// Explorer discovers an action sequence toward the level goal by greedy
// online search with model-guided death avoidance and reset-based
// backtracking.
type Explorer struct {
	params   Params
	cfg      ExplorerConfig
	feed     adapter.GameFeed
	channel  *adapter.InputChannel
	observer adapter.Observer
}

// NewExplorer constructs an Explorer over the live feed.
func NewExplorer(params Params, cfg ExplorerConfig, feed adapter.GameFeed, channel *adapter.InputChannel, observer adapter.Observer) *Explorer {
	return &Explorer{
		params:   params,
		cfg:      cfg,
		feed:     feed,
		channel:  channel,
		observer: observer,
	}
}

// Explore runs the search from the given stable in-level snapshot and
// returns the discovered path. The game is left in its end-of-run state.
func (e *Explorer) Explore(ctx context.Context, start m.Snapshot) (m.Path, error) {
	candidates := e.cfg.Candidates
	if len(candidates) == 0 {
		candidates = defaultCandidates()
	}

	var (
		executed  []m.Action
		decisions []decision
	)

	snap := start
	ms := NewModelState(snap)
	budget := e.cfg.TickBudget
	bestDist := snap.GoalX - snap.X
	stall := 0

	for {
		if err := ctx.Err(); err != nil {
			return m.Path{}, err
		}

		if budget <= 0 {
			return m.Path{}, fmt.Errorf("%w: tick budget spent after %d ticks", ErrGoalUnreachable, e.cfg.TickBudget)
		}

		if snap.GoalReached {
			return e.buildPath(start, snap, executed), nil
		}

		deadEnd := snap.State == m.StateDead || stall >= e.cfg.StallWindow

		var viable []m.Action
		if !deadEnd {
			viable = e.rankViable(snap, ms, candidates)
			deadEnd = len(viable) == 0
		}

		if deadEnd {
			prefix, alternative, rest, ok := popDecision(decisions)
			if !ok {
				return m.Path{}, fmt.Errorf("%w: no unexplored alternatives left", ErrGoalUnreachable)
			}

			decisions = rest

			slog.Debug("exploration dead end, backtracking",
				"executed", len(executed), "prefix", prefix, "alternative", alternative.String())

			executed = executed[:prefix]

			var err error

			snap, ms, err = e.replayPrefix(ctx, executed, &budget)
			if err != nil {
				return m.Path{}, err
			}

			bestDist = snap.GoalX - snap.X
			stall = 0
			viable = []m.Action{alternative}
		}

		action := viable[0]
		if len(viable) > 1 {
			decisions = append(decisions, decision{tick: len(executed), alternatives: viable[1:]})
		}

		var err error

		snap, ms, err = e.step(ctx, snap, ms, action, &budget)
		if err != nil {
			return m.Path{}, err
		}

		executed = append(executed, action)

		if dist := snap.GoalX - snap.X; dist < bestDist {
			bestDist = dist
			stall = 0
		} else {
			stall++
		}
	}
}

// rankViable orders candidates by heuristic improvement, keeping the fixed
// priority order for ties, and drops any action the model predicts to end in
// a dead transition given the observed hazards.
func (e *Explorer) rankViable(snap m.Snapshot, ms ModelState, candidates []m.Action) []m.Action {
	type ranked struct {
		action m.Action
		dist   float64
	}

	var viable []ranked

	for _, action := range candidates {
		if e.predictsDeath(snap, ms, action) {
			continue
		}

		nextX := snap.X + e.params.ExpectedVelX(snap, action)
		viable = append(viable, ranked{action: action, dist: abs(snap.GoalX - nextX)})
	}

	sort.SliceStable(viable, func(i, j int) bool { return viable[i].dist < viable[j].dist })

	out := make([]m.Action, len(viable))
	for i, r := range viable {
		out[i] = r.action
	}

	return out
}

// predictsDeath consults the behavior model one tick out, then one further
// hypothetical tick with the same action held, so the entity stops short of
// walking into contact range.
func (e *Explorer) predictsDeath(snap m.Snapshot, ms ModelState, action m.Action) bool {
	events := DeriveEvents(snap, action, e.params)
	next := e.params.Advance(ms, action, events)

	if next.State == m.StateDead {
		return true
	}

	hyp := snap
	hyp.X += e.params.ExpectedVelX(snap, action)
	hyp.Y = e.params.ExpectedY(snap, action)
	hyp.Grounded = hyp.Y <= 0
	hyp.VelY = hyp.Y - snap.Y
	hyp.State = next.State

	if hyp.Timer > 1 {
		hyp.Timer--
	}

	events = DeriveEvents(hyp, action, e.params)
	after := e.params.Advance(next, action, events)

	return after.State == m.StateDead
}

func (e *Explorer) step(ctx context.Context, snap m.Snapshot, ms ModelState, action m.Action, budget *int) (m.Snapshot, ModelState, error) {
	events := DeriveEvents(snap, action, e.params)
	predicted := e.params.Advance(ms, action, events)

	if err := e.channel.Submit(action); err != nil {
		return m.Snapshot{}, ModelState{}, err
	}

	if _, err := e.channel.AwaitTick(ctx); err != nil {
		return m.Snapshot{}, ModelState{}, err
	}

	*budget--

	next, ok := e.observer.Observe()
	if !ok {
		// Deferred observation: the action is committed, ride out the
		// transition with the model's prediction intact.
		next = snap
		next.Tick++
	}

	return next, predicted, nil
}

// replayPrefix resets the level and re-executes the kept prefix, rebuilding
// the model state as it goes.
func (e *Explorer) replayPrefix(ctx context.Context, prefix []m.Action, budget *int) (m.Snapshot, ModelState, error) {
	if err := e.feed.Reset(ctx); err != nil {
		return m.Snapshot{}, ModelState{}, fmt.Errorf("reset level for backtrack: %w", err)
	}

	snap, err := Stabilize(ctx, e.channel, e.observer)
	if err != nil {
		return m.Snapshot{}, ModelState{}, err
	}

	ms := NewModelState(snap)

	for _, action := range prefix {
		snap, ms, err = e.step(ctx, snap, ms, action, budget)
		if err != nil {
			return m.Snapshot{}, ModelState{}, err
		}

		if *budget <= 0 {
			return m.Snapshot{}, ModelState{}, fmt.Errorf("%w: tick budget spent during backtrack replay", ErrGoalUnreachable)
		}
	}

	return snap, ms, nil
}

func (e *Explorer) buildPath(start, final m.Snapshot, executed []m.Action) m.Path {
	return m.Path{
		Level:    start.Level,
		Checksum: start.LevelChecksum,
		Score:    scoreRun(final),
		Actions:  m.CompressActions(executed),
	}
}

// scoreRun weighs goal completion far above raw progress, so stored paths
// that finish the level always outrank partial runs.
func scoreRun(final m.Snapshot) int {
	score := int(final.X)
	if final.GoalReached {
		score += 100000
	}

	return score
}

func popDecision(decisions []decision) (prefix int, alternative m.Action, rest []decision, ok bool) {
	for i := len(decisions) - 1; i >= 0; i-- {
		d := decisions[i]
		if len(d.alternatives) == 0 {
			continue
		}

		alternative = d.alternatives[0]

		rest = append([]decision(nil), decisions[:i]...)
		if len(d.alternatives) > 1 {
			rest = append(rest, decision{tick: d.tick, alternatives: d.alternatives[1:]})
		}

		return d.tick, alternative, rest, true
	}

	return 0, m.Action{}, nil, false
}
