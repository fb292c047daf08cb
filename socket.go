// Package fluxio is a kernel-bypass, zero-copy AF_XDP packet I/O
// library. It owns the UMEM arena, the four descriptor rings, and
// frame-ownership bookkeeping, and offers three ways to drive them: a
// managed single-threaded engine (Engine), split ownership handles for
// a dedicated RX and TX goroutine (Rx/Tx via Split), and raw ring
// access with no allocator policy at all (Bare).
//
// fluxio does not load or attach the kernel-side XDP redirect program,
// and does not populate the xskmap that redirects packets into this
// socket's queue — that remains an external loader's job (see
// DESIGN.md). Open expects the interface and queue already capable of
// receiving AF_XDP traffic.
package fluxio

import (
	"github.com/spf13/cobra"

	"github.com/fluxio/fluxio/internal/config"
	"github.com/fluxio/fluxio/internal/xdpsock"
)

// Config is the full configuration surface for one fluxio socket:
// interface/queue selection, UMEM sizing, ring sizes, the poller and
// congestion policy, and the CPU core to pin the hot loop to.
type Config = config.Config

// BindMode selects the binding style the demo CLI (or any caller) uses
// to pick between Engine and Split at startup; it is informational —
// Socket itself supports constructing either (or Bare) regardless of
// what Config.BindMode says.
type BindMode = config.BindMode

const (
	BindEngine = config.BindEngine
	BindSplit  = config.BindSplit
)

// LoadConfig builds a Config from cmd's bound flags, FLUXIO_-prefixed
// environment variables, and an optional --config file, in that
// descending order of precedence.
func LoadConfig(cmd *cobra.Command) (*Config, error) {
	return config.Load(cmd)
}

// SocketStats is a snapshot of the kernel-maintained per-socket
// counters (struct xdp_statistics).
type SocketStats = xdpsock.Stats

// Socket is one bound, ready-to-drive AF_XDP socket: its UMEM arena is
// allocated and registered, its four rings are mapped, and it is bound
// to Config.Interface/QueueID. Exactly one of Engine, Split, or Bare
// should be used against a given Socket for its lifetime.
type Socket struct {
	raw xdpsock.Socket
	cfg Config
}

// Open creates and fully configures an AF_XDP socket from cfg: UMEM
// registration, the four ring-size options, ring mmap'ing, and binding
// to (Interface, QueueID). Socket always binds zero-copy with
// need_wakeup enabled — the two settings this library's wake-minimal
// design assumes. A setup-time ring-corruption check still fails Open
// but is not logged; call OpenWithLogger to have it logged.
func Open(cfg Config) (*Socket, error) {
	return OpenWithLogger(cfg, nil)
}

// OpenWithLogger is Open, with logger receiving the ring-corruption
// check Open performs while mapping the rings. A nil logger behaves
// exactly like Open.
func OpenWithLogger(cfg Config, logger *Logger) (*Socket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	raw, err := xdpsock.Open(xdpsock.Config{
		Interface:    cfg.Interface,
		QueueID:      cfg.QueueID,
		FrameSize:    cfg.FrameSize,
		FrameCount:   cfg.FrameCount,
		RxRingSize:   cfg.RxRingSize,
		TxRingSize:   cfg.TxRingSize,
		FillRingSize: cfg.FillRingSize,
		CompRingSize: cfg.CompRingSize,
		ZeroCopy:     true,
		NeedWakeup:   true,
		Logger:       logger,
	})
	if err != nil {
		return nil, classifySetupErr(err)
	}
	return &Socket{raw: raw, cfg: cfg}, nil
}

// Stats returns a snapshot of the kernel-maintained counters for this
// socket.
func (s *Socket) Stats() (SocketStats, error) {
	stats, err := s.raw.Stats()
	if err != nil {
		return SocketStats{}, classifySetupErr(err)
	}
	return stats, nil
}

// Close tears down the socket, its ring mappings, and its UMEM
// registration. Must not be called while any frame from this socket's
// arena is still kernel-owned or user-owned.
func (s *Socket) Close() error {
	return s.raw.Close()
}
