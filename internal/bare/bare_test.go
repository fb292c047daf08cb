//go:build fluxio_sim

package bare

import (
	"testing"

	"github.com/fluxio/fluxio/internal/ring"
	"github.com/fluxio/fluxio/internal/simulator"
)

func TestAvailableReportsAllFourRings(t *testing.T) {
	sock, err := simulator.New(2048, 64, 8, 8, 8, 8)
	if err != nil {
		t.Fatalf("simulator.New: %v", err)
	}
	defer sock.Close()

	b := Open(sock)

	occ := b.Available()
	if occ.RXAvailable != 0 {
		t.Fatalf("expected 0 RX available before any injection, got %d", occ.RXAvailable)
	}
	if occ.FillAvailable != 8 {
		t.Fatalf("expected 8 Fill slots free, got %d", occ.FillAvailable)
	}
	if occ.TXAvailable != 8 {
		t.Fatalf("expected 8 TX slots free, got %d", occ.TXAvailable)
	}
	if occ.CompAvailable != 0 {
		t.Fatalf("expected 0 Completion available before any completion, got %d", occ.CompAvailable)
	}
}

func TestRawRingAccessBypassesAllocatorPolicy(t *testing.T) {
	sock, err := simulator.New(2048, 64, 8, 8, 8, 8)
	if err != nil {
		t.Fatalf("simulator.New: %v", err)
	}
	defer sock.Close()

	b := Open(sock)

	g := b.Fill().Reserve(4)
	for i := uint32(0); i < g.N(); i++ {
		g.Write(i, b.Arena().FrameBaseAddr(i))
	}
	g.Commit(g.N())

	filled := sock.DrainFill()
	if len(filled) != 4 {
		t.Fatalf("expected 4 addresses pushed to Fill, got %d", len(filled))
	}

	base := sock.Arena().FrameBaseAddr(0)
	if !sock.InjectRX(base, 16) {
		t.Fatal("InjectRX failed")
	}

	rxGuard := b.RX().Consume(0)
	if rxGuard.N() != 1 {
		t.Fatalf("expected 1 RX descriptor, got %d", rxGuard.N())
	}
	d := rxGuard.Read(0)
	if d.Addr != base {
		t.Fatalf("expected addr %d, got %d", base, d.Addr)
	}
	rxGuard.Release(1)

	txGuard := b.TX().Reserve(1)
	if txGuard.N() != 1 {
		t.Fatal("expected 1 TX slot")
	}
	txGuard.Write(0, ring.Descriptor{Addr: d.Addr, Len: d.Len})
	txGuard.Commit(1)

	sent := sock.DrainTX()
	if len(sent) != 1 || sent[0].Addr != base {
		t.Fatalf("expected 1 descriptor at %d, got %v", base, sent)
	}
}
