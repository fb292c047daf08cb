package ring

// Producer is the user-owned producer side of a ring (Fill, TX). The
// kernel is the consumer. Producer caches the kernel's last-observed
// consumer counter so a full batch of space checks costs one atomic
// load instead of one per call, per spec §4.2.
type Producer[T any] struct {
	desc       []T
	counters   *Counters
	cachedCons uint32
	localProd  uint32 // mirrors *counters.Producer; avoids a load on every call
}

// NewProducer wraps desc (length must equal counters.Size()) as a
// producer ring view.
func NewProducer[T any](desc []T, counters *Counters) *Producer[T] {
	if uint32(len(desc)) != counters.Size() {
		panic("ring: descriptor slice length must equal ring size")
	}
	return &Producer[T]{
		desc:       desc,
		counters:   counters,
		cachedCons: loadAcquire(counters.Consumer),
		localProd:  loadAcquire(counters.Producer),
	}
}

// Available reports the number of free slots without advancing anything,
// refreshing the cached consumer counter unless the cached value already
// shows the whole ring free.
func (p *Producer[T]) Available() uint32 {
	return p.free(p.counters.Size())
}

// free reports the number of free slots, reloading the cached consumer
// counter only when the cached value shows fewer than needed.
func (p *Producer[T]) free(needed uint32) uint32 {
	n := p.counters.Size() - (p.localProd - p.cachedCons)
	if n < needed {
		p.cachedCons = loadAcquire(p.counters.Consumer)
		n = p.counters.Size() - (p.localProd - p.cachedCons)
	}
	return n
}

// ProducerGuard grants write access to up to N contiguous slots starting
// at the ring's current (uncommitted) producer cursor. Reserve does not
// advance the published producer counter — only Commit does.
type ProducerGuard[T any] struct {
	ring *Producer[T]
	base uint32
	n    uint32
}

// N returns the number of slots this guard was granted (may be less than
// requested, including zero).
func (g *ProducerGuard[T]) N() uint32 { return g.n }

// Write stores a descriptor at reserved position i (0 <= i < N()). It
// does not publish anything; only Commit does.
func (g *ProducerGuard[T]) Write(i uint32, v T) {
	g.ring.desc[(g.base+i)&g.ring.counters.Mask] = v
}

// Commit publishes m (<= N()) of the written slots by release-storing
// the advanced producer counter. Slots beyond m are left unpublished —
// a subsequent Reserve call may reuse them.
//
// A guard that is never committed publishes nothing: this is the
// decided behavior for the "drop without commit" ambiguity in spec §9.
// Close is the explicit spelling of that no-op, kept for symmetry with
// ConsumerGuard.Close.
func (g *ProducerGuard[T]) Commit(m uint32) {
	if m > g.n {
		m = g.n
	}
	g.ring.localProd += m
	storeRelease(g.ring.counters.Producer, g.ring.localProd)
}

// Close is a documented no-op: per the decided policy, an uncommitted
// guard publishes zero slots. Calling Close is never required, but
// callers that want a defer-symmetric style with ConsumerGuard may do
// `defer guard.Close()` safely — it will never publish anything Commit
// didn't already publish.
func (g *ProducerGuard[T]) Close() {}

// Reserve claims up to desired contiguous slots for writing. The
// returned guard's N() may be less than desired, including zero, when
// the ring doesn't have enough space.
func (p *Producer[T]) Reserve(desired uint32) *ProducerGuard[T] {
	n := p.free(desired)
	if n > desired {
		n = desired
	}
	return &ProducerGuard[T]{ring: p, base: p.localProd, n: n}
}
