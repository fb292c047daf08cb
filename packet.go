package fluxio

import (
	"github.com/fluxio/fluxio/internal/frame"
)

// PacketRef is a borrowed view onto one received frame, valid only for
// the duration of the batch callback that received it (Mode A).
// Calling Send sets its intent to transmit (DropPacket keeps the
// default, recycle); the engine settles it against the TX ring or the free list once the
// callback returns.
type PacketRef = frame.Ref

// Packet is an owned handle onto one received frame (Mode B/C). It
// outlives the call that produced it and must eventually be consumed —
// by IntoRawDescriptor (handing it to a Tx) or by Close (recycling it
// to the free pool) — exactly once.
type Packet = frame.Packet

// Intent records what a PacketRef's holder decided to do with it by
// the time its batch callback returns.
type Intent = frame.Intent

const (
	IntentRecycle  = frame.IntentRecycle
	IntentTransmit = frame.IntentTransmit
)
