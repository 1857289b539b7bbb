package adapter

import (
	"log/slog"

	m "autoplay.dev/pkg/autoplay/internal/model"
)

// Observer extracts one structured Snapshot per tick boundary from a game
// feed. It never computes game logic; it only normalizes what the loop has
// already computed.
type Observer interface {
	// Observe reads the current tick. ok is false when the loop is
	// mid-transition and observation must be deferred to the next
	// boundary.
	Observe() (snapshot m.Snapshot, ok bool)
}

// FeedObserver is the Observer over a live GameFeed.
type FeedObserver struct {
	feed GameFeed
}

// NewFeedObserver constructs a FeedObserver.
func NewFeedObserver(feed GameFeed) *FeedObserver {
	return &FeedObserver{feed: feed}
}

// Observe normalizes the feed's raw read into an immutable Snapshot.
func (o *FeedObserver) Observe() (m.Snapshot, bool) {
	raw := o.feed.Read()

	if raw.Transitioning {
		slog.Debug("observation deferred, loop mid-transition", "tick", raw.Tick)
		return m.Snapshot{}, false
	}

	hazards := make([]m.Hazard, len(raw.Hazards))
	copy(hazards, raw.Hazards)

	return m.Snapshot{
		Tick:          raw.Tick,
		Level:         raw.Level,
		LevelChecksum: raw.LevelChecksum,
		GoalX:         raw.GoalX,
		State:         normalizeState(raw),
		Power:         normalizePower(raw),
		X:             raw.PlayerX,
		Y:             raw.PlayerY,
		VelX:          raw.VelX,
		VelY:          raw.VelY,
		Score:         raw.Score,
		Lives:         raw.Lives,
		Timer:         raw.Timer,
		GoalReached:   raw.GoalReached,
		Grounded:      raw.Grounded,
		Hazards:       hazards,
	}, true
}

func normalizePower(raw RawState) m.Power {
	switch {
	case raw.Fire:
		return m.PowerFire
	case raw.Big:
		return m.PowerBig
	default:
		return m.PowerSmall
	}
}

// normalizeState maps raw entity flags to the discrete state enum. The
// salience order is fixed: liveness and terminal conditions first, then the
// invulnerability window, then movement, then the resting power state. The
// behavior model predicts against this same enum independently.
func normalizeState(raw RawState) m.EntityState {
	switch {
	case !raw.InLevel:
		return m.StateIdle
	case raw.Dead:
		return m.StateDead
	case raw.GoalReached:
		return m.StateLevelComplete
	case raw.Invulnerable:
		return m.StateInvulnerable
	case raw.Crouching && raw.Grounded:
		return m.StateCrouching
	case !raw.Grounded:
		return m.StateJumping
	case raw.Shooting:
		return m.StateShooting
	case raw.VelX != 0:
		return m.StateMoving
	default:
		return normalizePower(raw).State()
	}
}
