package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"autoplay.dev/pkg/autoplay/internal/adapter"
	m "autoplay.dev/pkg/autoplay/internal/model"
	"autoplay.dev/pkg/autoplay/pkg"
)

// Mode selects how a session sources its input.
type Mode string

const (
	// ModeManual takes input from a human via an InputSource.
	ModeManual Mode = "manual"
	// ModeAutonomous replays a stored path, falling back to exploration.
	ModeAutonomous Mode = "autonomous"
	// ModeClassical plays a named fixed input script, no model.
	ModeClassical Mode = "classical"
)

// ParseMode validates a mode string from the CLI.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeManual, ModeAutonomous, ModeClassical:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q (want manual, autonomous or classical)", s)
	}
}

// DivergenceError carries a conformance failure through error returns so the
// CLI boundary can map it to its own exit class.
type DivergenceError struct {
	Report *m.DivergenceReport
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("divergence at tick %d: %s expected %s, observed %s",
		e.Report.Tick, e.Report.Field, e.Report.Expected, e.Report.Actual)
}

// InputSource supplies the next action each tick in manual mode. The latest
// snapshot is passed so the source can render live state.
type InputSource interface {
	NextAction(ctx context.Context, snap m.Snapshot) (m.Action, error)
}

// SessionConfig configures one play session.
type SessionConfig struct {
	Mode      Mode
	WithModel bool
	Script    string

	PlaySeconds int
	TickRate    int

	LoadPaths bool
	SavePaths bool

	VideoFile string

	// JournalFile, when set, receives every accepted model transition as a
	// gob append log for post-session inspection.
	JournalFile string

	// ReadyTicks bounds the wait for a stable in-level state.
	ReadyTicks int
}

// Session orchestrates a run across observer, channel, model, oracle,
// explorer and store. It serializes every component call within a tick; the
// only parallelism is the fire-and-forget recorder.
type Session struct {
	params   Params
	cfg      SessionConfig
	feed     adapter.GameFeed
	channel  *adapter.InputChannel
	observer adapter.Observer
	store    adapter.PathStore
	explorer *Explorer
	oracle   *Oracle
	recorder *adapter.Recorder
	input    InputSource
	journal  pkg.Journal[m.TransitionRecord]
}

// NewSession wires a session. store may be nil when path persistence is not
// requested, input is required for manual mode, recorder may be nil.
func NewSession(
	params Params,
	cfg SessionConfig,
	feed adapter.GameFeed,
	channel *adapter.InputChannel,
	observer adapter.Observer,
	store adapter.PathStore,
	explorer *Explorer,
	oracle *Oracle,
	recorder *adapter.Recorder,
	input InputSource,
) *Session {
	return &Session{
		params:   params,
		cfg:      cfg,
		feed:     feed,
		channel:  channel,
		observer: observer,
		store:    store,
		explorer: explorer,
		oracle:   oracle,
		recorder: recorder,
		input:    input,
	}
}

// Run plays one session to completion: goal, duration expiry, divergence or
// exploration failure, whichever comes first. Behavioral failures are
// reported both in the result and as a typed error.
func (s *Session) Run(ctx context.Context) (m.SessionResult, error) {
	result := m.SessionResult{Mode: string(s.cfg.Mode), VideoFile: s.cfg.VideoFile}

	if s.recorder != nil {
		s.recorder.Start()
		defer s.teardownRecorder()
	}

	if s.cfg.JournalFile != "" {
		journal, err := pkg.NewJournal[m.TransitionRecord](s.cfg.JournalFile)
		if err != nil {
			return result, err
		}

		s.journal = journal

		defer func() {
			if err := s.journal.Close(); err != nil {
				slog.Warn("journal close failed", "path", s.cfg.JournalFile, "error", err)
			}
		}()
	}

	// Paths load first: a corrupt store must surface before any input is
	// injected into the game.
	var stored []m.Path

	if s.cfg.Mode == ModeAutonomous && s.cfg.LoadPaths && s.store != nil {
		var err error

		stored, err = s.store.Load(ctx, s.feed.Read().Level)
		if err != nil {
			return result, err
		}
	}

	snap, err := Stabilize(ctx, s.channel, s.observer)
	if err != nil {
		return result, err
	}

	result.Final = snap

	switch s.cfg.Mode {
	case ModeAutonomous:
		err = s.runAutonomous(ctx, snap, stored, &result)
	case ModeManual:
		err = s.runScripted(ctx, snap, nil, s.cfg.WithModel, &result)
	case ModeClassical:
		var script []m.Action

		script, err = Script(s.cfg.Script)
		if err == nil {
			err = s.runScripted(ctx, snap, expandAll(script), false, &result)
		}
	default:
		err = fmt.Errorf("unknown session mode %q", s.cfg.Mode)
	}

	if flushErr := s.flushPaths(ctx); flushErr != nil && err == nil {
		err = flushErr
	}

	return result, err
}

// runAutonomous replays the best stored path valid for the live level, or
// falls back to exploration when none exists or the stored ones are stale.
func (s *Session) runAutonomous(ctx context.Context, snap m.Snapshot, stored []m.Path, result *m.SessionResult) error {
	for _, path := range stored {
		if !path.ValidFor(snap.Level, snap.LevelChecksum) {
			slog.Warn("stored path is stale, skipping",
				"name", path.Name, "recorded", path.Checksum, "live", snap.LevelChecksum)
			continue
		}

		slog.Info("replaying stored path", "name", path.Name, "score", path.Score, "ticks", path.TickLength())
		result.PathName = path.Name

		return s.runScripted(ctx, snap, path.Expand(), true, result)
	}

	slog.Info("no replayable path stored, exploring", "level", snap.Level)

	path, err := s.explorer.Explore(ctx, snap)
	if err != nil {
		result.Outcome = outcomeForError(err)
		return err
	}

	result.Outcome = m.OutcomeGoalReached
	result.Ticks = uint64(path.TickLength())
	if last, ok := s.observer.Observe(); ok {
		result.Final = last
	}

	if s.cfg.SavePaths && s.store != nil {
		if err := s.store.Save(ctx, path); err != nil {
			return err
		}

		result.PathSaved = true
	}

	return nil
}

// runScripted drives the per-tick loop with a fixed action sequence, or with
// the interactive input source when script is nil.
func (s *Session) runScripted(ctx context.Context, snap m.Snapshot, script []m.Action, withModel bool, result *m.SessionResult) error {
	maxTicks := s.cfg.PlaySeconds * s.cfg.TickRate
	ms := NewModelState(snap)
	ticks := 0

	for {
		if err := ctx.Err(); err != nil {
			result.Outcome = m.OutcomeInterrupted
			result.Final = snap

			return err
		}

		if snap.GoalReached {
			result.Outcome = m.OutcomeGoalReached
			break
		}

		if script != nil && ticks >= len(script) {
			result.Outcome = m.OutcomeTimeExpired
			break
		}

		if maxTicks > 0 && ticks >= maxTicks {
			result.Outcome = m.OutcomeTimeExpired
			break
		}

		action, err := s.nextAction(ctx, snap, script, ticks)
		if err != nil {
			return err
		}

		events := DeriveEvents(snap, action, s.params)
		predicted := s.params.Advance(ms, action, events)

		if s.journal != nil && len(predicted.History) > 0 {
			if err := s.journal.Append(predicted.History[len(predicted.History)-1]); err != nil {
				return err
			}
		}

		if err := s.channel.Submit(action); err != nil {
			return err
		}

		if _, err := s.channel.AwaitTick(ctx); err != nil {
			return err
		}

		ticks++

		next, ok := s.observer.Observe()
		if !ok {
			// Torn tick: defer the read, keep the model's belief.
			ms = predicted
			continue
		}

		if s.recorder != nil {
			s.recorder.Capture(s.feed)
		}

		if withModel && s.oracle != nil {
			if report := s.oracle.Check(ms, predicted, snap, next); report != nil {
				result.Outcome = m.OutcomeDivergence
				result.Divergence = report
				result.Final = next
				result.Ticks = uint64(ticks)

				return &DivergenceError{Report: report}
			}
		}

		ms = predicted
		snap = next
	}

	result.Final = snap
	result.Ticks = uint64(ticks)

	return nil
}

func (s *Session) nextAction(ctx context.Context, snap m.Snapshot, script []m.Action, tick int) (m.Action, error) {
	if script != nil {
		return script[tick], nil
	}

	if s.input == nil {
		return m.Action{}, errors.New("manual mode requires an input source")
	}

	return s.input.NextAction(ctx, snap)
}

func (s *Session) flushPaths(ctx context.Context) error {
	if s.store == nil || !s.cfg.SavePaths {
		return nil
	}

	return s.store.Flush(ctx)
}

func (s *Session) teardownRecorder() {
	if err := s.recorder.Stop(); err != nil {
		slog.Warn("video recording failed", "error", err)
	}
}

func outcomeForError(err error) m.SessionOutcome {
	switch {
	case errors.Is(err, ErrGoalUnreachable):
		return m.OutcomeUnreachable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return m.OutcomeInterrupted
	default:
		return m.OutcomeInterrupted
	}
}

func expandAll(script []m.Action) []m.Action {
	path := m.Path{Actions: script}
	return path.Expand()
}

// Stabilize submits no-op ticks until the feed reports a stable in-level
// state, mirroring the wait-for-ready handshake at level start.
func Stabilize(ctx context.Context, channel *adapter.InputChannel, observer adapter.Observer) (m.Snapshot, error) {
	const readyBudget = 600

	for i := 0; i < readyBudget; i++ {
		if err := ctx.Err(); err != nil {
			return m.Snapshot{}, err
		}

		snap, ok := observer.Observe()
		if ok && snap.State != m.StateIdle {
			return snap, nil
		}

		if err := channel.Submit(m.NewAction()); err != nil {
			return m.Snapshot{}, err
		}

		if _, err := channel.AwaitTick(ctx); err != nil {
			return m.Snapshot{}, err
		}
	}

	return m.Snapshot{}, errors.New("game never reached a stable in-level state")
}
