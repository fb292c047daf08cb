package frame

import (
	"testing"

	"github.com/fluxio/fluxio/internal/allocator"
	"github.com/fluxio/fluxio/internal/umem"
)

func newArena(t *testing.T) *umem.Arena {
	t.Helper()
	a, err := umem.Create(2048, 64, umem.Flags{})
	if err != nil {
		t.Fatalf("umem.Create: %v", err)
	}
	t.Cleanup(func() { a.Teardown() })
	return a
}

func TestRefAdjustHeadRoundTrip(t *testing.T) {
	a := newArena(t)
	r := NewRef(a, 0, 64, 512)

	if err := r.AdjustHead(16); err != nil {
		t.Fatalf("AdjustHead(+16): %v", err)
	}
	if r.offset != 80 || r.length != 496 {
		t.Fatalf("unexpected offset/length after strip: %d/%d", r.offset, r.length)
	}

	if err := r.AdjustHead(-16); err != nil {
		t.Fatalf("AdjustHead(-16): %v", err)
	}
	if r.offset != 64 || r.length != 512 {
		t.Fatalf("round trip did not restore original offset/length: %d/%d", r.offset, r.length)
	}
}

func TestRefAdjustHeadRejectsOutOfRange(t *testing.T) {
	a := newArena(t)
	r := NewRef(a, 0, 0, 2048)

	if err := r.AdjustHead(-1); err == nil {
		t.Fatal("expected error moving offset negative")
	}
	if err := r.AdjustHead(2049); err == nil {
		t.Fatal("expected error shrinking length below zero")
	}
}

func TestRefSetLenBounds(t *testing.T) {
	a := newArena(t)
	r := NewRef(a, 0, 100, 50)

	if err := r.SetLen(1948); err != nil {
		t.Fatalf("SetLen to exact remaining capacity: %v", err)
	}
	if err := r.SetLen(1949); err == nil {
		t.Fatal("expected error exceeding frame capacity")
	}
}

func TestRefBytesAliasesArena(t *testing.T) {
	a := newArena(t)
	r := NewRef(a, 2, 0, 16)
	r.Bytes()[0] = 0x42

	if got := a.Frame(2)[0]; got != 0x42 {
		t.Fatalf("expected write through Ref.Bytes to be visible via Arena.Frame, got %#x", got)
	}
}

func TestRefDescriptorTracksOffsetAndLength(t *testing.T) {
	a := newArena(t)
	r := NewRef(a, 1, 10, 20)
	d := r.Descriptor()
	if d.Addr != a.FrameBaseAddr(1)+10 || d.Len != 20 {
		t.Fatalf("unexpected descriptor %+v", d)
	}

	r.Send()
	if r.Intent() != IntentTransmit {
		t.Fatalf("expected intent transmit after Send, got %v", r.Intent())
	}
}

func TestPacketCloseReturnsFrameToPool(t *testing.T) {
	a := newArena(t)
	pool := allocator.NewMPSC()
	p := NewPacket(a, pool, 5, 0, 128)

	p.Close()

	var reclaimed []uint32
	pool.Drain(func(idx uint32) { reclaimed = append(reclaimed, idx) })
	if len(reclaimed) != 1 || reclaimed[0] != 5 {
		t.Fatalf("expected frame 5 reclaimed exactly once, got %v", reclaimed)
	}

	// Closing again must not push a second time.
	p.Close()
	n := pool.Drain(func(uint32) {})
	if n != 0 {
		t.Fatalf("expected no further reclaim after double Close, got %d", n)
	}
}

func TestPacketIntoRawDescriptorPreventsDoubleFree(t *testing.T) {
	a := newArena(t)
	pool := allocator.NewMPSC()
	p := NewPacket(a, pool, 7, 0, 64)

	d, err := p.IntoRawDescriptor()
	if err != nil {
		t.Fatalf("IntoRawDescriptor: %v", err)
	}
	if d.Addr != a.FrameBaseAddr(7) || d.Len != 64 {
		t.Fatalf("unexpected descriptor %+v", d)
	}

	// A handle consumed by IntoRawDescriptor belongs to the ring now;
	// Close must not also return it to the allocator.
	p.Close()
	if n := pool.Drain(func(uint32) {}); n != 0 {
		t.Fatalf("expected zero frames reclaimed after IntoRawDescriptor, got %d", n)
	}

	if _, err := p.IntoRawDescriptor(); err == nil {
		t.Fatal("expected error calling IntoRawDescriptor twice")
	}
}

func TestPacketAdjustHeadRoundTrip(t *testing.T) {
	a := newArena(t)
	pool := allocator.NewMPSC()
	p := NewPacket(a, pool, 3, 32, 200)
	defer p.Close()

	if err := p.AdjustHead(-8); err != nil {
		t.Fatalf("AdjustHead(-8): %v", err)
	}
	if p.offset != 24 || p.length != 208 {
		t.Fatalf("unexpected offset/length after prepend: %d/%d", p.offset, p.length)
	}
	if err := p.AdjustHead(8); err != nil {
		t.Fatalf("AdjustHead(+8): %v", err)
	}
	if p.offset != 32 || p.length != 200 {
		t.Fatalf("round trip did not restore original offset/length: %d/%d", p.offset, p.length)
	}
}
