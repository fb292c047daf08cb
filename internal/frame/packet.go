package frame

import (
	"github.com/fluxio/fluxio/internal/allocator"
	"github.com/fluxio/fluxio/internal/ring"
	"github.com/fluxio/fluxio/internal/umem"
)

// Packet is a movable, sole-ownership handle over a frame — used by
// the split-ownership mode, where a FluxRx hands packets to arbitrary
// worker goroutines. Unlike Ref it carries no batch lifetime and may
// cross goroutine boundaries freely.
//
// Go has no destructor, so the "push the frame back to the free pool
// on destruction without transmit" rule from the design is expressed
// as Close, meant to be invoked via `defer p.Close()` by whichever
// goroutine ends up owning the handle — the same pattern used by
// ring.ConsumerGuard.Close. IntoRawDescriptor and Close both consume
// the handle exactly once; a second call to either is a safe no-op,
// which is what prevents double-freeing the frame index.
type Packet struct {
	arena      *umem.Arena
	pool       *allocator.MPSC
	frameIndex uint32
	base       uint64
	offset     uint32
	length     uint32
	consumed   bool
}

// NewPacket wraps the frame at frameIndex as an owned handle covering
// [offset, offset+length), backed by pool for recycling on Close.
func NewPacket(arena *umem.Arena, pool *allocator.MPSC, frameIndex uint32, offset, length uint32) *Packet {
	return &Packet{
		arena:      arena,
		pool:       pool,
		frameIndex: frameIndex,
		base:       arena.FrameBaseAddr(frameIndex),
		offset:     offset,
		length:     length,
	}
}

// FrameIndex returns the underlying frame index.
func (p *Packet) FrameIndex() uint32 { return p.frameIndex }

// Len returns the current payload length.
func (p *Packet) Len() uint32 { return p.length }

// Addr returns the absolute UMEM address of the current payload start.
func (p *Packet) Addr() uint64 { return p.base + uint64(p.offset) }

// Bytes returns a byte view of the current payload. Panics if the
// handle has already been consumed by Close or IntoRawDescriptor.
func (p *Packet) Bytes() []byte {
	if p.consumed {
		panic("frame: Bytes called on a consumed Packet")
	}
	return p.arena.Slice(p.Addr(), p.length)
}

// AdjustHead moves the logical payload start by delta while preserving
// the payload's trailing edge. See Ref.AdjustHead for the exact law.
func (p *Packet) AdjustHead(delta int32) error {
	if p.consumed {
		return errAlreadyReleased
	}
	newOffset, newLength, err := adjustHead(p.offset, p.length, p.arena.FrameSize(), delta)
	if err != nil {
		return err
	}
	p.offset, p.length = newOffset, newLength
	return nil
}

// IntoRawDescriptor irreversibly releases the handle to the caller,
// yielding the descriptor for the TX ring. After this call the frame
// belongs to the ring, not the allocator, so Close becomes a no-op.
func (p *Packet) IntoRawDescriptor() (ring.Descriptor, error) {
	if p.consumed {
		return ring.Descriptor{}, errAlreadyReleased
	}
	p.consumed = true
	return ring.Descriptor{Addr: p.Addr(), Len: p.length}, nil
}

// Close returns the frame index to the MPSC free pool if the handle
// has not already been consumed by IntoRawDescriptor or a prior Close.
// Idempotent, intended for `defer p.Close()`.
func (p *Packet) Close() {
	if p.consumed {
		return
	}
	p.consumed = true
	p.pool.Push(p.frameIndex)
}
