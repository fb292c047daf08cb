package frame

import (
	"github.com/fluxio/fluxio/internal/ring"
	"github.com/fluxio/fluxio/internal/umem"
)

// Ref is a transient, batch-scoped borrowed view over one frame —
// PacketRef in the design vocabulary. It is produced only by the
// managed engine's batch iterator and must not be retained past the
// batch that produced it: nothing in the type enforces that at
// compile time (Go has no borrow checker), so the engine never hands
// one out past the callback invocation that received it.
type Ref struct {
	arena      *umem.Arena
	frameIndex uint32
	base       uint64
	offset     uint32
	length     uint32
	intent     Intent
}

// NewRef wraps the frame at frameIndex as a borrowed view covering
// [offset, offset+length) relative to the frame base, with intent
// defaulting to recycle.
func NewRef(arena *umem.Arena, frameIndex uint32, offset, length uint32) *Ref {
	return &Ref{
		arena:      arena,
		frameIndex: frameIndex,
		base:       arena.FrameBaseAddr(frameIndex),
		offset:     offset,
		length:     length,
	}
}

// FrameIndex returns the underlying frame index.
func (r *Ref) FrameIndex() uint32 { return r.frameIndex }

// Len returns the current payload length.
func (r *Ref) Len() uint32 { return r.length }

// Intent returns the current disposition: recycle or transmit.
func (r *Ref) Intent() Intent { return r.intent }

// Addr returns the absolute UMEM address of the current payload start,
// the value written into RX/TX descriptors.
func (r *Ref) Addr() uint64 { return r.base + uint64(r.offset) }

// Bytes returns a byte view of the current payload. The slice aliases
// UMEM memory directly; callers must not retain it past the batch.
func (r *Ref) Bytes() []byte {
	return r.arena.Slice(r.Addr(), r.length)
}

// SetLen changes the payload length in place. n must fit within the
// frame starting at the current offset.
func (r *Ref) SetLen(n uint32) error {
	if n > r.arena.FrameSize()-r.offset {
		return errLengthOutOfRange
	}
	r.length = n
	return nil
}

// AdjustHead moves the logical payload start by delta while preserving
// the payload's trailing edge (offset+length stays fixed): a positive
// delta strips delta bytes from the front (VLAN strip), a negative
// delta reveals delta bytes of headroom before the current start
// (tunnel encap). adjust_head(k) followed by adjust_head(-k) restores
// the original offset and length exactly.
func (r *Ref) AdjustHead(delta int32) error {
	newOffset, newLength, err := adjustHead(r.offset, r.length, r.arena.FrameSize(), delta)
	if err != nil {
		return err
	}
	r.offset, r.length = newOffset, newLength
	return nil
}

// Send transitions the intent to transmit: at batch end the engine
// reserves a TX slot and writes this frame's descriptor, re-using the
// same frame with no copy.
func (r *Ref) Send() { r.intent = IntentTransmit }

// DropPacket is an explicit no-op: recycle is already the default
// intent. It exists so callers can express the decision not to
// transmit as clearly as they express Send.
func (r *Ref) DropPacket() {}

// Descriptor returns the RX/TX descriptor corresponding to the current
// offset and length, for use by the engine when committing this ref's
// disposition to a ring.
func (r *Ref) Descriptor() ring.Descriptor {
	return ring.Descriptor{Addr: r.Addr(), Len: r.length}
}

// adjustHead contains the bounds arithmetic shared by Ref and Packet.
func adjustHead(offset, length, frameSize uint32, delta int32) (newOffset, newLength uint32, err error) {
	signedOffset := int64(offset) + int64(delta)
	signedLength := int64(length) - int64(delta)
	if signedOffset < 0 || signedLength < 0 {
		return 0, 0, errAdjustHeadOutOfRange
	}
	newOffset = uint32(signedOffset)
	newLength = uint32(signedLength)
	if newOffset > frameSize || newLength > frameSize-newOffset {
		return 0, 0, errAdjustHeadOutOfRange
	}
	return newOffset, newLength, nil
}
