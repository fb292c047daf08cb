package ring

import "testing"

func newPair(size uint32) (*Producer[uint64], *Consumer[uint64]) {
	desc, counters := NewBacking[uint64](size)
	return NewProducer[uint64](desc, counters), NewConsumer[uint64](desc, counters)
}

func TestReserveWriteCommitConsumeRelease(t *testing.T) {
	p, c := newPair(8)

	g := p.Reserve(3)
	if g.N() != 3 {
		t.Fatalf("expected 3 reserved slots, got %d", g.N())
	}
	g.Write(0, 10)
	g.Write(1, 20)
	g.Write(2, 30)
	g.Commit(3)

	cg := c.Consume(0)
	if cg.N() != 3 {
		t.Fatalf("expected 3 ready slots, got %d", cg.N())
	}
	if cg.Read(0) != 10 || cg.Read(1) != 20 || cg.Read(2) != 30 {
		t.Fatal("read back wrong values")
	}
	cg.Release(3)

	if c.Available() != 0 {
		t.Fatalf("expected 0 ready after release, got %d", c.Available())
	}
	if p.Available() != 8 {
		t.Fatalf("expected all 8 slots free after release, got %d", p.Available())
	}
}

func TestUncommittedGuardPublishesNothing(t *testing.T) {
	p, _ := newPair(4)

	before := p.Available()
	g := p.Reserve(4)
	g.Write(0, 1)
	g.Write(1, 2)
	// Deliberately never call Commit — simulates a dropped guard.
	g.Close()

	after := p.Available()
	if before != after {
		t.Fatalf("expected available() unchanged by an uncommitted guard: before=%d after=%d", before, after)
	}

	// A fresh reserve must still see the full ring, proving no partial
	// commit leaked through.
	g2 := p.Reserve(4)
	if g2.N() != 4 {
		t.Fatalf("expected full ring still available, got %d", g2.N())
	}
}

func TestConsumerGuardCloseReleasesRemainder(t *testing.T) {
	p, c := newPair(8)

	g := p.Reserve(4)
	for i := uint32(0); i < 4; i++ {
		g.Write(i, uint64(i))
	}
	g.Commit(4)

	cg := c.Consume(0)
	if cg.N() != 4 {
		t.Fatalf("expected 4 ready, got %d", cg.N())
	}
	cg.Release(1) // release only one explicitly
	cg.Close()    // should release the remaining 3

	if c.Available() != 0 {
		t.Fatalf("expected 0 ready after close, got %d", c.Available())
	}
	if p.Available() != 8 {
		t.Fatalf("expected producer to see all 8 slots free, got %d", p.Available())
	}

	// Close must be idempotent.
	cg.Close()
}

func TestReserveReturnsPartialOnFullRing(t *testing.T) {
	p, c := newPair(4)

	g := p.Reserve(4)
	for i := uint32(0); i < 4; i++ {
		g.Write(i, uint64(i))
	}
	g.Commit(4)

	// Ring is now full: consumer hasn't released anything.
	g2 := p.Reserve(4)
	if g2.N() != 0 {
		t.Fatalf("expected 0 slots on a full ring, got %d", g2.N())
	}

	cg := c.Consume(0)
	cg.Release(2)

	g3 := p.Reserve(4)
	if g3.N() != 2 {
		t.Fatalf("expected 2 slots freed up, got %d", g3.N())
	}
}

func TestConsumeOnEmptyRing(t *testing.T) {
	_, c := newPair(4)
	cg := c.Consume(0)
	if cg.N() != 0 {
		t.Fatalf("expected 0 on empty ring, got %d", cg.N())
	}
}

func TestCounterWrapAtUint32Max(t *testing.T) {
	size := uint32(8)
	desc, counters := NewBacking[uint64](size)
	// Seed both counters near the u32 wrap boundary.
	*counters.Producer = ^uint32(0) - 2
	*counters.Consumer = ^uint32(0) - 2

	p := NewProducer[uint64](desc, counters)
	c := NewConsumer[uint64](desc, counters)

	for round := 0; round < 5; round++ {
		g := p.Reserve(3)
		if g.N() != 3 {
			t.Fatalf("round %d: expected 3 slots, got %d", round, g.N())
		}
		for i := uint32(0); i < 3; i++ {
			g.Write(i, uint64(round*3+int(i)))
		}
		g.Commit(3)

		cg := c.Consume(0)
		if cg.N() != 3 {
			t.Fatalf("round %d: expected 3 ready, got %d", round, cg.N())
		}
		for i := uint32(0); i < 3; i++ {
			want := uint64(round*3 + int(i))
			if got := cg.Read(i); got != want {
				t.Fatalf("round %d: slot %d: want %d got %d", round, i, want, got)
			}
		}
		cg.Release(3)
	}

	// The subtraction producer-consumer must still be valid across the
	// wrap: available space must equal the full ring once drained.
	if p.Available() != size {
		t.Fatalf("expected ring fully available after wrap, got %d", p.Available())
	}
}
