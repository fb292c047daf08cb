// Package frame implements the two frame-lifetime views layered over a
// umem.Arena: PacketRef, the batch-scoped borrowed view produced by the
// managed engine, and Packet, the movable owned handle used by the
// split-ownership mode.
package frame

import "errors"

// Intent records what should happen to a borrowed frame once its batch
// ends: recycled back to the free list, or handed to the TX ring.
type Intent int

const (
	// IntentRecycle is the default: the frame returns to the free list
	// at batch end.
	IntentRecycle Intent = iota
	// IntentTransmit means Send was called: the frame is queued on the
	// TX ring at batch end (subject to downgrade back to IntentRecycle
	// if the TX ring has no room).
	IntentTransmit
)

func (i Intent) String() string {
	switch i {
	case IntentTransmit:
		return "transmit"
	default:
		return "recycle"
	}
}

var (
	errLengthOutOfRange    = errors.New("frame: length exceeds frame capacity")
	errAdjustHeadOutOfRange = errors.New("frame: adjust_head would move offset or length out of frame bounds")
	errAlreadyReleased      = errors.New("frame: handle already released")
)
