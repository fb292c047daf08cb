// Package poller implements the engine's RX wait strategies: Busy,
// Syscall, and Adaptive, plus the Adaptive state machine that switches
// between spinning and a blocking readiness wait.
package poller

import (
	"context"
	"time"
)

// Strategy selects how the engine waits when the RX ring is empty.
type Strategy int

const (
	// Adaptive spins for a bounded window after the last successful
	// RX, then falls back to a blocking readiness wait; it resumes
	// spinning on the next readiness edge or successful RX. This is
	// the default.
	Adaptive Strategy = iota
	// Busy spins continuously and never yields. Lowest latency,
	// highest CPU cost.
	Busy
	// Syscall yields immediately via a blocking readiness wait.
	// Lowest CPU cost, latency bounded by the kernel scheduler.
	Syscall
)

func (s Strategy) String() string {
	switch s {
	case Busy:
		return "busy"
	case Syscall:
		return "syscall"
	default:
		return "adaptive"
	}
}

// DefaultSpinWindow is the default wall-clock budget an Adaptive
// poller spins for after the last successful RX before falling back
// to a blocking wait.
const DefaultSpinWindow = 50 * time.Microsecond

// Waiter is the readiness wait primitive a Poller drives when it falls
// back from spinning: block until the socket's file handle is ready
// for reading, or ctx is cancelled. Implemented over poll(2)/epoll by
// the production socket backend, and by a condition variable in the
// simulator.
type Waiter interface {
	WaitReadable(ctx context.Context) error
}

// State is the Adaptive poller's current phase.
type State int

const (
	// Spinning means the poller is busy-polling within its spin
	// window.
	Spinning State = iota
	// Waiting means the spin budget was exhausted with no RX and the
	// poller has fallen back to a blocking readiness wait.
	Waiting
)

func (s State) String() string {
	if s == Waiting {
		return "waiting"
	}
	return "spinning"
}
