// Package xdpsock defines the AF_XDP socket contract — creation,
// UMEM registration, the four ring mappings, and the wakeup
// predicates/operations — and provides the real Linux implementation.
// Everything above this package (allocator, frame, engine, splitio,
// bare) is written against the Socket interface so it never touches a
// raw file descriptor directly.
package xdpsock

import (
	"context"
	"errors"

	"github.com/fluxio/fluxio/internal/logging"
	"github.com/fluxio/fluxio/internal/ring"
	"github.com/fluxio/fluxio/internal/umem"
)

// Config is the setup-time configuration for one AF_XDP socket.
type Config struct {
	Interface  string
	QueueID    uint32
	FrameSize  uint32
	FrameCount uint32

	RxRingSize   uint32
	TxRingSize   uint32
	FillRingSize uint32
	CompRingSize uint32

	ZeroCopy   bool
	NeedWakeup bool
	HugePages  bool

	// Logger, if non-nil, receives the ring-corruption check Open
	// performs against the kernel-reported producer/consumer counters
	// before binding. A nil Logger discards the event; Open still
	// returns ErrRingCorruption either way.
	Logger *logging.Logger
}

// DefaultConfig returns a Config populated with the spec's documented
// defaults; callers override only the fields they care about.
func DefaultConfig(iface string, queueID uint32) Config {
	return Config{
		Interface:    iface,
		QueueID:      queueID,
		FrameSize:    umem.FrameSize2K,
		FrameCount:   4096,
		RxRingSize:   2048,
		TxRingSize:   2048,
		FillRingSize: 2048,
		CompRingSize: 2048,
		NeedWakeup:   true,
	}
}

// Rings bundles the four ring primitives a Socket exposes, already
// generic over their respective descriptor types.
type Rings struct {
	RX   *ring.Consumer[ring.Descriptor]
	Fill *ring.Producer[uint64]
	TX   *ring.Producer[ring.Descriptor]
	Comp *ring.Consumer[uint64]
}

// Stats mirrors the kernel's struct xdp_statistics.
type Stats struct {
	RxDropped        uint64
	RxInvalidDescs   uint64
	TxInvalidDescs   uint64
	RxRingFull       uint64
	RxFillEmptyDescs uint64
}

// Socket is the contract every backend (the real Linux socket, and
// the deterministic in-process simulator used by tests) implements.
// Non-Linux builds only need to satisfy this contract to compile —
// they are not expected to move real packets.
type Socket interface {
	// Arena returns the UMEM arena backing this socket's frames.
	Arena() *umem.Arena
	// Rings returns the four ring primitives. Valid for the socket's
	// lifetime; callers must not call Rings concurrently with Close.
	Rings() Rings

	// NeedsWakeupRX / NeedsWakeupTX read the kernel-published flag
	// indicating the kernel halted its side of that ring pending an
	// explicit wake. Non-blocking.
	NeedsWakeupRX() bool
	NeedsWakeupTX() bool
	// WakeupRX / WakeupTX issue the notification syscall. Safe to call
	// when the flag is clear but wasteful.
	WakeupRX() error
	WakeupTX() error

	// WaitReadable blocks until the socket's file handle is readable
	// or ctx is cancelled. Satisfies poller.Waiter.
	WaitReadable(ctx context.Context) error

	// Stats returns a snapshot of the kernel-maintained counters.
	Stats() (Stats, error)

	// Close tears down the socket, its ring mappings, and its UMEM
	// registration. Must not be called while any frame from this
	// socket's arena is still Kernel-owned or User-owned.
	Close() error
}

// ErrUnsupportedPlatform is returned by Open on platforms without a
// real AF_XDP backend.
var ErrUnsupportedPlatform = errors.New("xdpsock: AF_XDP is only available on linux")
