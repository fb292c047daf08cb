package engine

import (
	"context"

	"github.com/fluxio/fluxio/internal/frame"
	"github.com/fluxio/fluxio/internal/poller"
	"github.com/fluxio/fluxio/internal/ring"
	"github.com/fluxio/fluxio/internal/xdpsock"
)

// Run drives the managed hot loop until ctx is cancelled, invoking
// callback once per batch of newly received frames. On each batch end
// it performs, in order: Completion reclaim, TX settlement for
// transmit-intent refs (with overflow downgraded to recycle), free-list
// return for recycle-intent refs, Fill ring refill, and a conditional
// kernel wakeup. Returns ctx.Err() when cancellation is observed between
// batches or poller state transitions — this is the expected, logged-
// as-non-error termination path, not a fault.
func (e *Engine) Run(ctx context.Context, callback func(*Batch)) error {
	if err := e.pinIfConfigured(); err != nil {
		return err
	}

	rings := e.socket.Rings()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := e.poller.Wait(ctx, rings.RX.Available); err != nil {
			return err
		}

		e.reclaimCompletions(rings)

		g := rings.RX.Consume(e.batchSize)
		n := g.N()
		if n == 0 {
			continue
		}

		batch := e.buildBatch(g, n)
		g.Release(n)

		waiting := e.poller.State() == poller.Waiting
		e.metrics.SetPollerState(waiting)
		e.logPollerTransition(waiting)

		callback(batch)

		e.settle(rings, batch)
		e.refillFill(rings)
		e.kick()
		// The managed loop never lets a ref outlive its batch, so at
		// this sampling point every frame is either free or sitting on
		// a kernel-owned ring; user-owned is always zero here.
		free := e.free.Len()
		e.metrics.SetFrameCounts(free, int(e.arena.FrameCount())-free, 0)
	}
}

// logPollerTransition logs only actual waiting/spinning transitions, not
// every batch, so the poller stays quiet while its state is steady.
func (e *Engine) logPollerTransition(waiting bool) {
	if e.logger == nil {
		return
	}
	wasWaiting := e.lastPollerWaiting.Load()
	known := e.pollerStateKnown.Load()
	if known && wasWaiting == waiting {
		return
	}
	e.pollerStateKnown.Store(true)
	e.lastPollerWaiting.Store(waiting)
	if !known {
		return
	}

	label := func(w bool) string {
		if w {
			return "waiting"
		}
		return "spinning"
	}
	e.logger.WithFields(map[string]interface{}{
		"from": label(wasWaiting),
		"to":   label(waiting),
	}).Info("poller state transition")
}

func (e *Engine) reclaimCompletions(rings xdpsock.Rings) {
	g := rings.Comp.Consume(0)
	n := g.N()
	for i := uint32(0); i < n; i++ {
		addr := g.Read(i)
		e.free.Push(e.arena.FrameIndexForAddr(addr))
	}
	g.Release(n)
	if n > 0 {
		e.recycledFrames.Add(uint64(n))
	}
}

func (e *Engine) buildBatch(g *ring.ConsumerGuard[ring.Descriptor], n uint32) *Batch {
	refs := make([]*frame.Ref, n)
	var bytes uint64
	for i := uint32(0); i < n; i++ {
		d := g.Read(i)
		idx := e.arena.FrameIndexForAddr(d.Addr)
		offset := uint32(d.Addr - e.arena.FrameBaseAddr(idx))
		refs[i] = frame.NewRef(e.arena, idx, offset, d.Len)
		bytes += uint64(d.Len)
	}
	e.rxPackets.Add(uint64(n))
	e.rxBytes.Add(bytes)
	e.metrics.ObserveRX(n)
	return &Batch{refs: refs}
}

// settle applies each ref's intent to the TX ring or the free list.
// Transmit-intent refs that don't fit in the available TX space are
// downgraded to recycle, per the overflow rule.
func (e *Engine) settle(rings xdpsock.Rings, batch *Batch) {
	var wantTX uint32
	for _, r := range batch.refs {
		if r.Intent() == frame.IntentTransmit {
			wantTX++
		}
	}

	txGuard := rings.TX.Reserve(wantTX)
	if txGuard.N() < wantTX {
		e.metrics.ObserveRingFull("tx")
		if e.logger != nil {
			e.logger.LogRingFull("tx", wantTX, txGuard.N())
		}
	}
	written := uint32(0)
	var bytes uint64
	for _, r := range batch.refs {
		if r.Intent() != frame.IntentTransmit {
			e.free.Push(r.FrameIndex())
			continue
		}
		if written < txGuard.N() {
			d := r.Descriptor()
			txGuard.Write(written, d)
			bytes += uint64(d.Len)
			written++
			continue
		}
		// TX ring overflow: downgrade to recycle.
		e.free.Push(r.FrameIndex())
	}
	txGuard.Commit(written)
	if written > 0 {
		e.txPackets.Add(uint64(written))
		e.txBytes.Add(bytes)
		e.metrics.ObserveTX(written)
	}
}

// refillFill tops up the Fill ring from the free list, bounded by
// whichever is smaller: available ring space or free-list depth.
func (e *Engine) refillFill(rings xdpsock.Rings) {
	n := rings.Fill.Available()
	if free := uint32(e.free.Len()); free < n {
		if free == 0 && n > 0 {
			e.fillUnderflows.Add(1)
			e.metrics.ObserveFillUnderflow()
		}
		n = free
	}
	if n == 0 {
		return
	}

	g := rings.Fill.Reserve(n)
	var i uint32
	for ; i < g.N(); i++ {
		idx, ok := e.free.Pop()
		if !ok {
			break
		}
		g.Write(i, e.arena.FrameBaseAddr(idx))
	}
	g.Commit(i)
}

func (e *Engine) kick() {
	if e.socket.NeedsWakeupTX() {
		if err := e.socket.WakeupTX(); err != nil {
			if e.onWakeErr != nil {
				e.onWakeErr("tx", err)
			}
		} else {
			e.wakeups.Add(1)
			e.metrics.ObserveWakeup("tx")
		}
	}
	if e.socket.NeedsWakeupRX() {
		if err := e.socket.WakeupRX(); err != nil {
			if e.onWakeErr != nil {
				e.onWakeErr("rx", err)
			}
		} else {
			e.wakeups.Add(1)
			e.metrics.ObserveWakeup("rx")
		}
	}
}
