// Package engine implements Mode A, the managed hot loop: Run drives
// batches of received packets through a user callback and settles
// each batch's intents against the TX, Fill, and Completion rings.
package engine

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/fluxio/fluxio/internal/allocator"
	"github.com/fluxio/fluxio/internal/cpuaffinity"
	"github.com/fluxio/fluxio/internal/logging"
	"github.com/fluxio/fluxio/internal/metrics"
	"github.com/fluxio/fluxio/internal/poller"
	"github.com/fluxio/fluxio/internal/umem"
	"github.com/fluxio/fluxio/internal/xdpsock"
)

// ErrInvalidBatchSize is returned by New when BatchSize is outside
// [1, 256].
var ErrInvalidBatchSize = errors.New("engine: batch_size must be between 1 and 256")

// Config configures a managed engine.
type Config struct {
	// BatchSize bounds how many PacketRefs one callback invocation
	// sees. Must be in [1, 256].
	BatchSize uint32
	// Poller selects the RX wait strategy. Defaults to Adaptive.
	Poller poller.Strategy
	// SpinWindow overrides Adaptive's spin budget. Zero uses
	// poller.DefaultSpinWindow.
	SpinWindow time.Duration
	// Clock overrides Adaptive's wall clock; nil uses the real clock.
	// Exposed for deterministic tests, not meant to be set in
	// production use.
	Clock poller.Clock
	// PinCPU, if non-nil, pins the goroutine that calls Run to this
	// CPU core before entering the loop.
	PinCPU *int

	// OnWakeupError, if set, receives wakeup syscall failures instead
	// of them being silently retried next batch. Optional.
	OnWakeupError func(ring string, err error)

	// Metrics, if non-nil, mirrors per-batch counters into Prometheus.
	// A nil Metrics is a valid, cost-free choice.
	Metrics *metrics.Collector

	// Logger, if non-nil, receives ring-full and poller state-transition
	// events with structured fields. A nil Logger discards them; the
	// underlying counters and gauges are unaffected either way.
	Logger *logging.Logger
}

// Stats is a point-in-time snapshot of one Engine's counters, for
// callers that want a value rather than a Prometheus scrape.
type Stats struct {
	RXPackets      uint64
	RXBytes        uint64
	TXPackets      uint64
	TXBytes        uint64
	RecycledFrames uint64
	Wakeups        uint64
	FillUnderflows uint64
	FramesFree     int
}

// Engine runs the managed hot loop against one AF_XDP socket.
type Engine struct {
	socket    xdpsock.Socket
	arena     *umem.Arena
	free      *allocator.Stack
	poller    *poller.Poller
	batchSize uint32
	pinCPU    *int
	onWakeErr func(ring string, err error)
	metrics   *metrics.Collector
	logger    *logging.Logger

	rxPackets      atomic.Uint64
	rxBytes        atomic.Uint64
	txPackets      atomic.Uint64
	txBytes        atomic.Uint64
	recycledFrames atomic.Uint64
	wakeups        atomic.Uint64
	fillUnderflows atomic.Uint64

	lastPollerWaiting atomic.Bool
	pollerStateKnown  atomic.Bool
}

// New constructs an Engine bound to socket. It seeds the frame
// allocator with every frame in the arena and performs the initial
// Fill ring population, so the kernel has buffers to receive into
// before Run's first iteration.
func New(socket xdpsock.Socket, cfg Config) (*Engine, error) {
	if cfg.BatchSize == 0 || cfg.BatchSize > 256 {
		return nil, ErrInvalidBatchSize
	}

	arena := socket.Arena()
	free := allocator.NewStack(arena.FrameCount())
	free.Seed(arena.FrameCount())

	var waiter poller.Waiter
	if cfg.Poller != poller.Busy {
		waiter = socket
	}
	p := poller.New(cfg.Poller, cfg.SpinWindow, cfg.Clock, waiter)

	e := &Engine{
		socket:    socket,
		arena:     arena,
		free:      free,
		poller:    p,
		batchSize: cfg.BatchSize,
		pinCPU:    cfg.PinCPU,
		onWakeErr: cfg.OnWakeupError,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
	e.refillFill(socket.Rings())
	return e, nil
}

// FreeCount reports the number of frames currently held by the engine's
// allocator, for metrics and tests.
func (e *Engine) FreeCount() int { return e.free.Len() }

// Stats returns a point-in-time snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	return Stats{
		RXPackets:      e.rxPackets.Load(),
		RXBytes:        e.rxBytes.Load(),
		TXPackets:      e.txPackets.Load(),
		TXBytes:        e.txBytes.Load(),
		RecycledFrames: e.recycledFrames.Load(),
		Wakeups:        e.wakeups.Load(),
		FillUnderflows: e.fillUnderflows.Load(),
		FramesFree:     e.free.Len(),
	}
}

func (e *Engine) pinIfConfigured() error {
	if e.pinCPU == nil {
		return nil
	}
	return cpuaffinity.Pin(*e.pinCPU)
}
