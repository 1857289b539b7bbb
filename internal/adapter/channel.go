package adapter

import (
	"context"
	"errors"
	"fmt"

	m "autoplay.dev/pkg/autoplay/internal/model"
)

// ErrChannelBusy is returned when an action is submitted while the prior one
// has not yet been consumed by a tick. It signals an input-discipline bug in
// the driver and is fatal to the scenario.
var ErrChannelBusy = errors.New("input channel busy: action already in flight")

// TickHandle identifies the tick that consumed a committed action.
type TickHandle struct {
	Tick uint64
}

// InputChannel injects one action per tick into the game loop. Submit stages
// an action; AwaitTick commits it at the next tick boundary and blocks until
// the loop has consumed it. At most one action is in flight at a time.
//
// A staged action may be withdrawn only before AwaitTick runs; after that it
// is committed and cannot be rolled back.
type InputChannel struct {
	feed    GameFeed
	pending *m.Action
}

// NewInputChannel constructs an InputChannel over the feed.
func NewInputChannel(feed GameFeed) *InputChannel {
	return &InputChannel{feed: feed}
}

// Submit stages the action for the next tick. It fails with ErrChannelBusy
// if the prior action has not been consumed yet.
func (c *InputChannel) Submit(action m.Action) error {
	if c.pending != nil {
		return fmt.Errorf("submit %s: %w", action, ErrChannelBusy)
	}

	c.pending = &action

	return nil
}

// Withdraw removes a staged action before it commits. It reports whether
// anything was withdrawn.
func (c *InputChannel) Withdraw() bool {
	if c.pending == nil {
		return false
	}

	c.pending = nil

	return true
}

// AwaitTick commits the staged action (or no input) and advances the game
// loop exactly one tick. Cancellation is honored at the boundary only, never
// mid-tick, so an action is never half-applied.
func (c *InputChannel) AwaitTick(ctx context.Context) (TickHandle, error) {
	if err := ctx.Err(); err != nil {
		return TickHandle{}, err
	}

	var held []m.Control
	if c.pending != nil {
		held = c.pending.Held
	}

	if err := c.feed.Step(ctx, held); err != nil {
		c.pending = nil
		return TickHandle{}, fmt.Errorf("advance tick: %w", err)
	}

	c.pending = nil

	return TickHandle{Tick: c.feed.Read().Tick}, nil
}
