//go:build fluxio_sim

package simulator

import (
	"context"
	"sync"

	"github.com/fluxio/fluxio/internal/ring"
	"github.com/fluxio/fluxio/internal/umem"
	"github.com/fluxio/fluxio/internal/xdpsock"
)

// Socket plays the kernel's role on all four rings: it is the
// producer on RX and Completion, the consumer on Fill and TX, exactly
// mirroring the roles the real kernel holds in production (see the
// concurrency model's producer/consumer table). Tests drive it
// directly instead of going through a NIC.
type Socket struct {
	arena *umem.Arena
	rings xdpsock.Rings

	// kernel-side counters: the simulator is the producer on RX/Comp
	// and the consumer on Fill/TX, so it needs its own producer/
	// consumer views mirroring the user-side ones in rings.
	rxProd   *ring.Producer[ring.Descriptor]
	fillCons *ring.Consumer[uint64]
	txCons   *ring.Consumer[ring.Descriptor]
	compProd *ring.Producer[uint64]

	mu        sync.Mutex
	readiness chan struct{}

	autoComplete bool
}

// Option configures a new Socket.
type Option func(*Socket)

// WithAutoComplete makes every TX descriptor the simulator drains
// immediately reappear on the Completion ring, as if transmission
// finished instantly. Off by default, so tests can exercise TX
// back-pressure (S2) before choosing to complete anything.
func WithAutoComplete() Option {
	return func(s *Socket) { s.autoComplete = true }
}

// New builds a simulator socket with its own UMEM arena and four
// plain-memory rings of the given sizes (each must be a power of two).
func New(frameSize, frameCount, rxSize, fillSize, txSize, compSize uint32, opts ...Option) (*Socket, error) {
	arena, err := umem.Create(frameSize, frameCount, umem.Flags{})
	if err != nil {
		return nil, err
	}

	rxDesc, rxCounters := ring.NewBacking[ring.Descriptor](rxSize)
	fillDesc, fillCounters := ring.NewBacking[uint64](fillSize)
	txDesc, txCounters := ring.NewBacking[ring.Descriptor](txSize)
	compDesc, compCounters := ring.NewBacking[uint64](compSize)

	s := &Socket{
		arena: arena,
		rings: xdpsock.Rings{
			RX:   ring.NewConsumer[ring.Descriptor](rxDesc, rxCounters),
			Fill: ring.NewProducer[uint64](fillDesc, fillCounters),
			TX:   ring.NewProducer[ring.Descriptor](txDesc, txCounters),
			Comp: ring.NewConsumer[uint64](compDesc, compCounters),
		},
		rxProd:   ring.NewProducer[ring.Descriptor](rxDesc, rxCounters),
		fillCons: ring.NewConsumer[uint64](fillDesc, fillCounters),
		txCons:   ring.NewConsumer[ring.Descriptor](txDesc, txCounters),
		compProd: ring.NewProducer[uint64](compDesc, compCounters),

		readiness: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Socket) Arena() *umem.Arena   { return s.arena }
func (s *Socket) Rings() xdpsock.Rings { return s.rings }

func (s *Socket) NeedsWakeupRX() bool { return false }
func (s *Socket) NeedsWakeupTX() bool { return false }
func (s *Socket) WakeupRX() error     { return nil }
func (s *Socket) WakeupTX() error     { return nil }

func (s *Socket) Stats() (xdpsock.Stats, error) { return xdpsock.Stats{}, nil }

func (s *Socket) Close() error { return s.arena.Teardown() }

// WaitReadable blocks until InjectRX has made new descriptors
// available, or ctx is cancelled.
func (s *Socket) WaitReadable(ctx context.Context) error {
	select {
	case <-s.readiness:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Socket) signalReady() {
	select {
	case s.readiness <- struct{}{}:
	default:
	}
}

// InjectRX plays the kernel producer role on RX: writes one descriptor
// and publishes it, as if a packet had just arrived at addr/length.
// Returns false if the RX ring has no space (the simulator never
// blocks the caller).
func (s *Socket) InjectRX(addr uint64, length uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.rxProd.Reserve(1)
	if g.N() == 0 {
		return false
	}
	g.Write(0, ring.Descriptor{Addr: addr, Len: length})
	g.Commit(1)
	s.signalReady()
	return true
}

// DrainFill plays the kernel consumer role on Fill: claims every
// address the user side published, simulating the NIC taking frames
// for future RX. Returns the addresses taken.
func (s *Socket) DrainFill() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.fillCons.Consume(0)
	out := make([]uint64, g.N())
	for i := uint32(0); i < g.N(); i++ {
		out[i] = g.Read(i)
	}
	g.Release(g.N())
	return out
}

// DrainTX plays the kernel consumer role on TX: claims every
// descriptor the user side published, simulating transmission. If
// WithAutoComplete was set, each drained descriptor's address is
// immediately published to the Completion ring.
func (s *Socket) DrainTX() []ring.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.txCons.Consume(0)
	out := make([]ring.Descriptor, g.N())
	for i := uint32(0); i < g.N(); i++ {
		out[i] = g.Read(i)
	}
	g.Release(g.N())

	if s.autoComplete && len(out) > 0 {
		cg := s.compProd.Reserve(uint32(len(out)))
		for i := uint32(0); i < cg.N(); i++ {
			cg.Write(i, out[i].Addr)
		}
		cg.Commit(cg.N())
	}
	return out
}

// CompleteTX plays the kernel producer role on Completion directly,
// for tests that want to control completion timing independently of
// DrainTX's auto-complete option.
func (s *Socket) CompleteTX(addrs ...uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.compProd.Reserve(uint32(len(addrs)))
	for i := uint32(0); i < g.N(); i++ {
		g.Write(i, addrs[i])
	}
	g.Commit(g.N())
	return int(g.N())
}
