package fluxio

import (
	"context"

	"github.com/fluxio/fluxio/internal/splitio"
)

// RxStats is a point-in-time snapshot of one Rx's counters.
type RxStats = splitio.RxStats

// TxStats is a point-in-time snapshot of one Tx's counters.
type TxStats = splitio.TxStats

// CongestionStrategy is Tx's backpressure policy under TX ring
// exhaustion.
type CongestionStrategy = splitio.CongestionStrategy

const (
	DropNew = splitio.DropNew
	Block   = splitio.Block
)

// Reactor is the async-adapter hook Rx.RecvAsync waits on when RX
// comes back empty. fluxio ships no default implementation — the
// async runtime integration (epoll-backed, io_uring-backed, or
// whatever the caller's event loop already uses) is a specified
// interface only, matching the library's scope.
type Reactor = splitio.Reactor

// Rx owns the RX and Fill rings of a split socket. Not safe for
// concurrent use from more than one goroutine. Embeds *splitio.FluxRx
// directly — Stats, PinCPU, and Recv are promoted unchanged; RecvAsync
// is shadowed below to classify its returned error into *fluxio.Error.
type Rx struct {
	*splitio.FluxRx
}

// Tx owns the TX and Completion rings of a split socket. Not safe for
// concurrent use from more than one goroutine. Embeds *splitio.FluxTx
// directly — Stats, PinCPU, Pending, Flush, and the congestion
// accessors are promoted unchanged; Send is shadowed below to classify
// its returned error into *fluxio.Error.
type Tx struct {
	*splitio.FluxTx
}

// RecvAsync shadows the embedded FluxRx.RecvAsync to classify a
// cancelled/deadline-exceeded context into KindCancelled rather than
// leaving the caller to compare against context.Canceled directly.
func (rx *Rx) RecvAsync(ctx context.Context, reactor Reactor, max uint32) ([]*Packet, error) {
	pkts, err := rx.FluxRx.RecvAsync(ctx, reactor, max)
	if err != nil {
		return nil, classifyRuntimeErr(err)
	}
	return pkts, nil
}

// Send shadows the embedded FluxTx.Send to classify a DropNew
// rejection into *fluxio.Error{Kind: KindRingFull}.
func (tx *Tx) Send(packet *Packet) error {
	return classifyRuntimeErr(tx.FluxTx.Send(packet))
}

// Split divides socket into an Rx and a Tx sharing one free-frame
// pool: a frame dropped on the Tx goroutine, or never sent at all, is
// returned to the pool and picked up by the Rx goroutine's next
// refill without either side touching the other's ring directly.
func Split(socket *Socket, metricsCollector *MetricsCollector) (*Rx, *Tx, error) {
	rawRx, rawTx, err := splitio.SplitWithOptions(socket.raw, splitio.SplitOptions{Metrics: metricsCollector})
	if err != nil {
		return nil, nil, err
	}
	return &Rx{rawRx}, &Tx{rawTx}, nil
}
