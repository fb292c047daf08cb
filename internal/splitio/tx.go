package splitio

import (
	"runtime"
	"sync/atomic"

	"github.com/fluxio/fluxio/internal/allocator"
	"github.com/fluxio/fluxio/internal/cpuaffinity"
	"github.com/fluxio/fluxio/internal/frame"
	"github.com/fluxio/fluxio/internal/metrics"
	"github.com/fluxio/fluxio/internal/ring"
	"github.com/fluxio/fluxio/internal/umem"
	"github.com/fluxio/fluxio/internal/xdpsock"
)

// PinCPU pins the calling goroutine's OS thread to cpuCore. Call it
// once, from whichever goroutine will call Send/Flush in a loop,
// before entering that loop.
func (tx *FluxTx) PinCPU(cpuCore int) error { return cpuaffinity.Pin(cpuCore) }

// FluxTx owns the TX and Completion rings of a split socket.
type FluxTx struct {
	arena  *umem.Arena
	socket xdpsock.Socket
	tx     *ring.Producer[ring.Descriptor]
	comp   *ring.Consumer[uint64]
	pool   *allocator.MPSC

	congestion CongestionStrategy
	staged     []ring.Descriptor

	// OnWakeupError, if set, receives TX wakeup syscall failures.
	OnWakeupError func(err error)

	// Metrics, if non-nil, mirrors per-call counters into Prometheus.
	Metrics *metrics.Collector

	txPackets atomic.Uint64
	txBytes   atomic.Uint64
	wakeups   atomic.Uint64
	ringFull  atomic.Uint64
}

// TxStats is a point-in-time snapshot of one FluxTx's counters.
type TxStats struct {
	Packets  uint64
	Bytes    uint64
	Wakeups  uint64
	RingFull uint64
}

// Stats returns a point-in-time snapshot of tx's counters.
func (tx *FluxTx) Stats() TxStats {
	return TxStats{
		Packets:  tx.txPackets.Load(),
		Bytes:    tx.txBytes.Load(),
		Wakeups:  tx.wakeups.Load(),
		RingFull: tx.ringFull.Load(),
	}
}

// CongestionStrategy reports the configured backpressure policy.
func (tx *FluxTx) CongestionStrategy() CongestionStrategy { return tx.congestion }

// SetCongestionStrategy changes the policy applied by future Send
// calls.
func (tx *FluxTx) SetCongestionStrategy(c CongestionStrategy) { tx.congestion = c }

// Send consumes packet's handle and stages it for transmission. Under
// DropNew, Send returns ErrRingFull (and leaves packet un-consumed) if
// staged sends already fill the TX ring's free space; under Block it
// spins until room opens up. Staged descriptors are not visible to the
// kernel until Flush.
func (tx *FluxTx) Send(packet *frame.Packet) error {
	for uint32(len(tx.staged)) >= tx.tx.Available() {
		if tx.congestion == Block {
			runtime.Gosched()
			continue
		}
		tx.ringFull.Add(1)
		tx.Metrics.ObserveRingFull("tx")
		return ErrRingFull
	}

	d, err := packet.IntoRawDescriptor()
	if err != nil {
		return err
	}
	tx.staged = append(tx.staged, d)
	return nil
}

// Pending reports the number of sends staged but not yet committed by
// Flush, so callers can coalesce before paying for a commit + wakeup.
func (tx *FluxTx) Pending() int { return len(tx.staged) }

// Flush reclaims completed frames into the shared free pool, commits
// every staged descriptor to the TX ring, and wakes the kernel if it
// requested it.
func (tx *FluxTx) Flush() {
	tx.reclaimCompletions()

	if len(tx.staged) > 0 {
		g := tx.tx.Reserve(uint32(len(tx.staged)))
		n := g.N()
		var bytes uint64
		for i := uint32(0); i < n; i++ {
			g.Write(i, tx.staged[i])
			bytes += uint64(tx.staged[i].Len)
		}
		g.Commit(n)
		if n > 0 {
			tx.txPackets.Add(uint64(n))
			tx.txBytes.Add(bytes)
			tx.Metrics.ObserveTX(n)
		}
		// n == len(staged) in practice: Send never stages more than
		// Available() allowed, and nothing but Commit shrinks Available
		// between Send and Flush on a single-threaded FluxTx. Trim
		// defensively rather than assume it.
		remaining := tx.staged[n:]
		tx.staged = append(tx.staged[:0], remaining...)
	}

	if tx.socket.NeedsWakeupTX() {
		if err := tx.socket.WakeupTX(); err != nil {
			if tx.OnWakeupError != nil {
				tx.OnWakeupError(err)
			}
		} else {
			tx.wakeups.Add(1)
			tx.Metrics.ObserveWakeup("tx")
		}
	}
}

func (tx *FluxTx) reclaimCompletions() {
	g := tx.comp.Consume(0)
	n := g.N()
	for i := uint32(0); i < n; i++ {
		tx.pool.Push(tx.arena.FrameIndexForAddr(g.Read(i)))
	}
	g.Release(n)
}
