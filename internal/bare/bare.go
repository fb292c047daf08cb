// Package bare implements Mode C: direct access to the raw UMEM arena
// and the four ring primitives, with no engine, no allocator policy,
// and no frame-handle wrapping. It exists for research use and custom
// allocators that want the SPSC rings without any of the ownership
// bookkeeping the other two modes impose.
package bare

import (
	"github.com/fluxio/fluxio/internal/ring"
	"github.com/fluxio/fluxio/internal/umem"
	"github.com/fluxio/fluxio/internal/xdpsock"
)

// Socket re-exports a bound AF_XDP (or simulator) socket's arena and
// raw rings for direct manipulation. Callers are responsible for every
// invariant the other two modes otherwise enforce: frame ownership,
// descriptor bounds, and commit/release ordering.
type Socket struct {
	underlying xdpsock.Socket
}

// Open wraps an already-bound socket for bare-ring access. It performs
// no Fill-ring priming and no frame allocation: callers own that.
func Open(socket xdpsock.Socket) *Socket {
	return &Socket{underlying: socket}
}

// Arena returns the UMEM arena backing the socket's frames.
func (s *Socket) Arena() *umem.Arena { return s.underlying.Arena() }

// RX returns the raw RX consumer ring.
func (s *Socket) RX() *ring.Consumer[ring.Descriptor] { return s.underlying.Rings().RX }

// Fill returns the raw Fill producer ring.
func (s *Socket) Fill() *ring.Producer[uint64] { return s.underlying.Rings().Fill }

// TX returns the raw TX producer ring.
func (s *Socket) TX() *ring.Producer[ring.Descriptor] { return s.underlying.Rings().TX }

// Completion returns the raw Completion consumer ring.
func (s *Socket) Completion() *ring.Consumer[uint64] { return s.underlying.Rings().Comp }

// NeedsWakeupRX, NeedsWakeupTX, WakeupRX, and WakeupTX pass straight
// through to the underlying socket; bare mode adds no policy around
// when to call them.
func (s *Socket) NeedsWakeupRX() bool { return s.underlying.NeedsWakeupRX() }
func (s *Socket) NeedsWakeupTX() bool { return s.underlying.NeedsWakeupTX() }
func (s *Socket) WakeupRX() error     { return s.underlying.WakeupRX() }
func (s *Socket) WakeupTX() error     { return s.underlying.WakeupTX() }

// Close tears down the underlying socket. Callers must ensure no frame
// from this socket's arena is still kernel- or user-owned first — bare
// mode has no allocator to check that for them.
func (s *Socket) Close() error { return s.underlying.Close() }

// Occupancy is a point-in-time snapshot of each ring's ready/free slot
// count, for debugging and tests.
type Occupancy struct {
	RXAvailable   uint32
	FillAvailable uint32
	TXAvailable   uint32
	CompAvailable uint32
}

// Available reports Occupancy across all four rings in one call, so a
// caller can log or assert on ring state without racing a sequence of
// individual Available() calls against a concurrently running kernel.
func (s *Socket) Available() Occupancy {
	rings := s.underlying.Rings()
	return Occupancy{
		RXAvailable:   rings.RX.Available(),
		FillAvailable: rings.Fill.Available(),
		TXAvailable:   rings.TX.Available(),
		CompAvailable: rings.Comp.Available(),
	}
}
