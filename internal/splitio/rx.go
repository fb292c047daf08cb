package splitio

import (
	"context"
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
// once, from whichever goroutine will call Recv/RecvAsync in a loop,
// before entering that loop.
func (rx *FluxRx) PinCPU(cpuCore int) error { return cpuaffinity.Pin(cpuCore) }

// FluxRx owns the RX and Fill rings of a split socket.
type FluxRx struct {
	arena  *umem.Arena
	socket xdpsock.Socket
	rx     *ring.Consumer[ring.Descriptor]
	fill   *ring.Producer[uint64]
	pool   *allocator.MPSC

	// pending/overflow stage frame indices drained from pool between
	// refill calls: Drain empties the whole queue at once, so any
	// indices beyond what Fill can currently accept are held here for
	// the next refill instead of being re-pushed (which would just
	// reorder them behind whatever arrives in the meantime).
	pending  []uint32
	overflow []uint32

	// OnWakeupError, if set, receives RX wakeup syscall failures.
	OnWakeupError func(err error)

	// Metrics, if non-nil, mirrors per-call counters into Prometheus.
	Metrics *metrics.Collector

	rxPackets      atomic.Uint64
	rxBytes        atomic.Uint64
	wakeups        atomic.Uint64
	fillUnderflows atomic.Uint64
}

// RxStats is a point-in-time snapshot of one FluxRx's counters.
type RxStats struct {
	Packets        uint64
	Bytes          uint64
	Wakeups        uint64
	FillUnderflows uint64
}

// Stats returns a point-in-time snapshot of rx's counters.
func (rx *FluxRx) Stats() RxStats {
	return RxStats{
		Packets:        rx.rxPackets.Load(),
		Bytes:          rx.rxBytes.Load(),
		Wakeups:        rx.wakeups.Load(),
		FillUnderflows: rx.fillUnderflows.Load(),
	}
}

// Recv drains up to max newly received frames from RX as owned
// Packets, then tops up the Fill ring from the free pool and wakes the
// kernel if it asked to be. Non-blocking; returns an empty slice if RX
// was empty.
func (rx *FluxRx) Recv(max uint32) []*frame.Packet {
	g := rx.rx.Consume(max)
	n := g.N()

	pkts := make([]*frame.Packet, n)
	var bytes uint64
	for i := uint32(0); i < n; i++ {
		d := g.Read(i)
		idx := rx.arena.FrameIndexForAddr(d.Addr)
		offset := uint32(d.Addr - rx.arena.FrameBaseAddr(idx))
		pkts[i] = frame.NewPacket(rx.arena, rx.pool, idx, offset, d.Len)
		bytes += uint64(d.Len)
	}
	g.Release(n)

	if n > 0 {
		rx.rxPackets.Add(uint64(n))
		rx.rxBytes.Add(bytes)
		rx.Metrics.ObserveRX(n)
	}

	rx.refill()
	return pkts
}

// RecvAsync attempts a non-blocking Recv; if it comes back empty, it
// waits on reactor for a readiness edge and retries. Dropping the
// returned context (via cancellation) is safe at any point: no ring is
// touched between the last Recv attempt and return.
func (rx *FluxRx) RecvAsync(ctx context.Context, reactor Reactor, max uint32) ([]*frame.Packet, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if pkts := rx.Recv(max); len(pkts) > 0 {
			return pkts, nil
		}
		if err := reactor.Wait(ctx); err != nil {
			return nil, err
		}
	}
}

// refill tops up the Fill ring from the shared free pool and wakes the
// kernel's RX side if it requested it.
func (rx *FluxRx) refill() {
	avail := rx.fill.Available()
	if avail > 0 {
		rx.stage(avail)
		if len(rx.pending) == 0 {
			rx.fillUnderflows.Add(1)
			rx.Metrics.ObserveFillUnderflow()
		}
	}

	if len(rx.pending) > 0 {
		g := rx.fill.Reserve(uint32(len(rx.pending)))
		n := g.N()
		for i := uint32(0); i < n; i++ {
			g.Write(i, rx.arena.FrameBaseAddr(rx.pending[i]))
		}
		g.Commit(n)
		if n < uint32(len(rx.pending)) {
			rx.overflow = append(rx.overflow, rx.pending[n:]...)
		}
		rx.pending = rx.pending[:0]
	}

	if rx.socket.NeedsWakeupRX() {
		if err := rx.socket.WakeupRX(); err != nil {
			if rx.OnWakeupError != nil {
				rx.OnWakeupError(err)
			}
		} else {
			rx.wakeups.Add(1)
			rx.Metrics.ObserveWakeup("rx")
		}
	}
}

// stage fills rx.pending with up to want frame indices, preferring
// whatever is already held in overflow from a previous refill before
// draining the pool for more.
func (rx *FluxRx) stage(want uint32) {
	for want > 0 && len(rx.overflow) > 0 {
		last := len(rx.overflow) - 1
		rx.pending = append(rx.pending, rx.overflow[last])
		rx.overflow = rx.overflow[:last]
		want--
	}
	if want == 0 {
		return
	}
	rx.pool.Drain(func(idx uint32) {
		if want > 0 {
			rx.pending = append(rx.pending, idx)
			want--
			return
		}
		rx.overflow = append(rx.overflow, idx)
	})
}
