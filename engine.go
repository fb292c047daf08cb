package fluxio

import (
	"time"

	"github.com/fluxio/fluxio/internal/engine"
	"github.com/fluxio/fluxio/internal/poller"
)

// Engine is Mode A: the managed hot loop. It drives batches of
// received packets through a user callback and settles each batch's
// intents against the TX, Fill, and Completion rings.
type Engine = engine.Engine

// Batch is one callback invocation's worth of received PacketRefs.
type Batch = engine.Batch

// EngineStats is a point-in-time snapshot of one Engine's counters.
type EngineStats = engine.Stats

// PollerStrategy selects how the engine waits when RX is empty.
type PollerStrategy = poller.Strategy

const (
	PollerAdaptive = poller.Adaptive
	PollerBusy     = poller.Busy
	PollerSyscall  = poller.Syscall
)

// NewEngine constructs a managed Engine over socket, using cfg's
// batch_size, poller, and pin_cpu settings. metricsCollector and
// logger may both be nil; when logger is set, wakeup syscall failures
// are logged through it instead of silently retried next batch with no
// trace.
func (s *Socket) NewEngine(metricsCollector *MetricsCollector, logger *Logger) (*Engine, error) {
	return s.newEngine(metricsCollector, logger, poller.DefaultSpinWindow)
}

// NewEngineWithSpinWindow is NewEngine with an explicit Adaptive spin
// window, for callers that want a budget other than
// poller.DefaultSpinWindow.
func (s *Socket) NewEngineWithSpinWindow(metricsCollector *MetricsCollector, logger *Logger, spinWindow time.Duration) (*Engine, error) {
	return s.newEngine(metricsCollector, logger, spinWindow)
}

func (s *Socket) newEngine(metricsCollector *MetricsCollector, logger *Logger, spinWindow time.Duration) (*Engine, error) {
	strategy, err := s.cfg.PollerStrategy()
	if err != nil {
		return nil, err
	}

	var onWakeErr func(ring string, err error)
	if logger != nil {
		onWakeErr = logger.LogWakeupError
	}

	return engine.New(s.raw, engine.Config{
		BatchSize:     s.cfg.BatchSize,
		Poller:        strategy,
		SpinWindow:    spinWindow,
		PinCPU:        s.cfg.PinCPU,
		OnWakeupError: onWakeErr,
		Metrics:       metricsCollector,
		Logger:        logger,
	})
}
