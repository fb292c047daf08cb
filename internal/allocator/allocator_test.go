package allocator

import (
	"sort"
	"sync"
	"testing"
)

func TestStackSeedAndLIFOOrder(t *testing.T) {
	s := NewStack(4)
	s.Seed(4)
	if s.Len() != 4 {
		t.Fatalf("expected 4 seeded indices, got %d", s.Len())
	}

	// LIFO: the last seeded index (3) pops first.
	idx, ok := s.Pop()
	if !ok || idx != 3 {
		t.Fatalf("expected idx 3, got %d ok=%v", idx, ok)
	}

	s.Push(99)
	idx, ok = s.Pop()
	if !ok || idx != 99 {
		t.Fatalf("expected idx 99, got %d ok=%v", idx, ok)
	}
}

func TestStackPopEmpty(t *testing.T) {
	s := NewStack(0)
	if _, ok := s.Pop(); ok {
		t.Fatal("expected Pop on empty stack to report ok=false")
	}
}

func TestMPSCPushDrainSingleGoroutine(t *testing.T) {
	q := NewMPSC()
	for i := uint32(0); i < 8; i++ {
		q.Push(i)
	}

	var got []uint32
	n := q.Drain(func(idx uint32) { got = append(got, idx) })
	if n != 8 || len(got) != 8 {
		t.Fatalf("expected 8 drained, got %d (%v)", n, got)
	}

	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	for i, v := range got {
		if v != uint32(i) {
			t.Fatalf("expected index %d, got %d", i, v)
		}
	}

	// A second drain on an empty list must report zero.
	if n := q.Drain(func(uint32) {}); n != 0 {
		t.Fatalf("expected empty drain, got %d", n)
	}
}

func TestMPSCConcurrentPushes(t *testing.T) {
	q := NewMPSC()
	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		base := uint32(p * perProducer)
		go func(base uint32) {
			defer wg.Done()
			for i := uint32(0); i < perProducer; i++ {
				q.Push(base + i)
			}
		}(base)
	}
	wg.Wait()

	seen := make(map[uint32]bool, producers*perProducer)
	n := q.Drain(func(idx uint32) { seen[idx] = true })
	if n != producers*perProducer {
		t.Fatalf("expected %d drained, got %d", producers*perProducer, n)
	}
	if len(seen) != producers*perProducer {
		t.Fatalf("expected %d unique indices, got %d (duplicate or lost push)", producers*perProducer, len(seen))
	}
}

// TestFrameConservationAcrossStackAndMPSC mirrors the conservation
// property: every index seeded into a Stack is eventually reclaimable
// either directly or after a round trip through the MPSC list, and
// the total count never changes.
func TestFrameConservationAcrossStackAndMPSC(t *testing.T) {
	const frameCount = 16
	stack := NewStack(frameCount)
	stack.Seed(frameCount)

	mp := NewMPSC()

	// Drain half the stack, simulate those frames being handed to
	// worker goroutines and dropped back through the MPSC list.
	for i := 0; i < frameCount/2; i++ {
		idx, ok := stack.Pop()
		if !ok {
			t.Fatal("unexpected empty stack")
		}
		mp.Push(idx)
	}

	reclaimed := mp.Drain(func(idx uint32) { stack.Push(idx) })
	if reclaimed != frameCount/2 {
		t.Fatalf("expected %d reclaimed, got %d", frameCount/2, reclaimed)
	}
	if stack.Len() != frameCount {
		t.Fatalf("expected all %d frames accounted for, got %d", frameCount, stack.Len())
	}
}
