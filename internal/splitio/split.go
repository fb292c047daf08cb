package splitio

import (
	"github.com/fluxio/fluxio/internal/allocator"
	"github.com/fluxio/fluxio/internal/metrics"
	"github.com/fluxio/fluxio/internal/xdpsock"
)

// SplitOptions configures the handles Split constructs.
type SplitOptions struct {
	// Metrics, if non-nil, is shared by both returned handles and
	// mirrors their counters into Prometheus.
	Metrics *metrics.Collector
}

// Split divides socket into a FluxRx and a FluxTx. Both share the
// socket's UMEM arena by reference and a single MPSC free-frame pool:
// FluxRx drains it to refill the Fill ring, and anything that reclaims
// a frame on another goroutine — a dropped Packet, a completed send —
// pushes back into it without touching either ring directly.
//
// Neither handle is safe for concurrent use from more than one
// goroutine at a time; FluxRx must stay pinned to whichever goroutine
// calls Recv, and FluxTx to whichever calls Send/Flush, for the
// lifetime of the handle.
func Split(socket xdpsock.Socket) (*FluxRx, *FluxTx, error) {
	return SplitWithOptions(socket, SplitOptions{})
}

// SplitWithOptions is Split with metrics attached.
func SplitWithOptions(socket xdpsock.Socket, opts SplitOptions) (*FluxRx, *FluxTx, error) {
	arena := socket.Arena()
	pool := allocator.NewMPSC()
	for i := uint32(0); i < arena.FrameCount(); i++ {
		pool.Push(i)
	}

	rings := socket.Rings()

	rx := &FluxRx{
		arena:   arena,
		socket:  socket,
		rx:      rings.RX,
		fill:    rings.Fill,
		pool:    pool,
		Metrics: opts.Metrics,
	}
	tx := &FluxTx{
		arena:      arena,
		socket:     socket,
		tx:         rings.TX,
		comp:       rings.Comp,
		pool:       pool,
		congestion: DropNew,
		Metrics:    opts.Metrics,
	}

	rx.refill()
	return rx, tx, nil
}
