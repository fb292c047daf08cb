package poller

import (
	"context"
	"time"
)

// Poller drives the engine's RX wait according to its configured
// Strategy.
type Poller struct {
	strategy   Strategy
	spinWindow time.Duration
	clock      Clock
	waiter     Waiter
	state      State
}

// New constructs a Poller. A zero spinWindow is replaced with
// DefaultSpinWindow; a nil clock uses the real wall clock. waiter may
// be nil for the Busy strategy, which never blocks.
func New(strategy Strategy, spinWindow time.Duration, clock Clock, waiter Waiter) *Poller {
	if spinWindow <= 0 {
		spinWindow = DefaultSpinWindow
	}
	if clock == nil {
		clock = realClock{}
	}
	return &Poller{
		strategy:   strategy,
		spinWindow: spinWindow,
		clock:      clock,
		waiter:     waiter,
		state:      Spinning,
	}
}

// State reports the Adaptive poller's current phase. Meaningless for
// Busy and Syscall, which have no intermediate state.
func (p *Poller) State() State { return p.state }

// Wait blocks (spinning, waiting, or some mix per Strategy) until
// available reports a non-zero count, or ctx is cancelled, in which
// case ctx.Err() is returned. Cancellation is checked on every probe
// and on every Adaptive state transition, per the cooperative
// cancellation contract.
func (p *Poller) Wait(ctx context.Context, available func() uint32) error {
	switch p.strategy {
	case Busy:
		return p.waitBusy(ctx, available)
	case Syscall:
		return p.waitSyscall(ctx, available)
	default:
		return p.waitAdaptive(ctx, available)
	}
}

func (p *Poller) waitBusy(ctx context.Context, available func() uint32) error {
	for {
		if available() > 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (p *Poller) waitSyscall(ctx context.Context, available func() uint32) error {
	for {
		if available() > 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.waiter.WaitReadable(ctx); err != nil {
			return err
		}
	}
}

// waitAdaptive implements the {Spinning, Waiting} state machine: spin
// until the window since entering Spinning elapses with zero RX, then
// fall back to a blocking readiness wait; any readiness edge or
// successful RX returns to Spinning.
func (p *Poller) waitAdaptive(ctx context.Context, available func() uint32) error {
	p.state = Spinning
	deadline := p.clock.Now().Add(p.spinWindow)

	for {
		if available() > 0 {
			p.state = Spinning
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if p.state == Spinning && !p.clock.Now().Before(deadline) {
			p.state = Waiting
		}

		if p.state == Waiting {
			if err := p.waiter.WaitReadable(ctx); err != nil {
				return err
			}
			p.state = Spinning
			deadline = p.clock.Now().Add(p.spinWindow)
		}
	}
}
