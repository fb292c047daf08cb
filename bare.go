package fluxio

import (
	"github.com/fluxio/fluxio/internal/bare"
)

// Bare is Mode C: direct ring access with no allocator policy and no
// frame-ownership bookkeeping. Every descriptor the caller reads or
// writes is its own to account for.
type Bare = bare.Socket

// BareOccupancy is a single-call snapshot of all four rings'
// available space.
type BareOccupancy = bare.Occupancy

// OpenBare wraps socket for raw ring access, bypassing the allocator
// and frame-ownership tracking both Engine and Split provide.
func OpenBare(socket *Socket) *Bare {
	return bare.Open(socket.raw)
}
