package allocator

import "sync/atomic"

// mpscNode is a single link in the MPSC free list. Nodes are discarded
// (left to the garbage collector) once drained; frame indices are
// cheap enough that per-push node allocation is not worth pooling.
type mpscNode struct {
	idx  uint32
	next *mpscNode
}

// MPSC is a lock-free multi-producer, single-consumer free list of
// frame indices. Any goroutine dropping an owned frame handle pushes
// its index here; only the designated RX goroutine drains it. Push is
// a single CAS retry loop (lock-free: contention only ever comes from
// other concurrent pushers, never from the drainer); Drain swaps the
// whole list out in one CAS and walks it locally, so its amortized
// cost per returned index is constant.
type MPSC struct {
	head atomic.Pointer[mpscNode]
}

// NewMPSC returns an empty MPSC free list.
func NewMPSC() *MPSC {
	return &MPSC{}
}

// Push returns idx to the free list. Safe to call concurrently from
// any number of goroutines.
func (q *MPSC) Push(idx uint32) {
	n := &mpscNode{idx: idx}
	for {
		old := q.head.Load()
		n.next = old
		if q.head.CompareAndSwap(old, n) {
			return
		}
	}
}

// Drain removes every index currently on the list and invokes fn for
// each, in most-recently-pushed-first order. Must only be called from
// the single consumer goroutine. Returns the number of indices
// drained.
func (q *MPSC) Drain(fn func(idx uint32)) int {
	n := q.head.Swap(nil)
	count := 0
	for n != nil {
		fn(n.idx)
		n = n.next
		count++
	}
	return count
}
