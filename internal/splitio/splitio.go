// Package splitio implements Mode B: split ownership handles. Split
// divides one socket into a FluxRx (owns RX and Fill) and a FluxTx
// (owns TX and Completion), sharing the UMEM arena and a single MPSC
// free-frame pool so Packets received on one goroutine may be sent, or
// simply dropped, on another.
package splitio

import "errors"

// CongestionStrategy governs FluxTx.Send when the TX ring has no room
// for another descriptor.
type CongestionStrategy int

const (
	// DropNew rejects the send immediately, returning ErrRingFull. The
	// caller keeps the Packet and decides whether to retry or drop it.
	DropNew CongestionStrategy = iota
	// Block spins until TX has room. Only suspension point in FluxTx
	// besides the wakeup syscall.
	Block
)

func (c CongestionStrategy) String() string {
	switch c {
	case Block:
		return "block"
	default:
		return "drop_new"
	}
}

// ErrRingFull is returned by FluxTx.Send under DropNew congestion when
// the TX ring (accounting for already-staged sends) has no free slot.
var ErrRingFull = errors.New("splitio: tx ring full")
