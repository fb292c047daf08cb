package ring

// Consumer is the user-owned consumer side of a ring (RX, Completion).
// The kernel is the producer.
type Consumer[T any] struct {
	desc       []T
	counters   *Counters
	cachedProd uint32
	localCons  uint32 // mirrors *counters.Consumer
}

// NewConsumer wraps desc (length must equal counters.Size()) as a
// consumer ring view.
func NewConsumer[T any](desc []T, counters *Counters) *Consumer[T] {
	if uint32(len(desc)) != counters.Size() {
		panic("ring: descriptor slice length must equal ring size")
	}
	return &Consumer[T]{
		desc:       desc,
		counters:   counters,
		cachedProd: loadAcquire(counters.Producer),
		localCons:  loadAcquire(counters.Consumer),
	}
}

// Available reports the number of ready-to-read slots, refreshing the
// cached producer counter if the cache says there's nothing new.
func (c *Consumer[T]) Available() uint32 {
	n := c.cachedProd - c.localCons
	if n == 0 {
		c.cachedProd = loadAcquire(c.counters.Producer)
		n = c.cachedProd - c.localCons
	}
	return n
}

// ConsumerGuard grants read access to every currently ready descriptor.
// Consume claims all of them at once (spec §4.2: "consume() claims all
// ready descriptors"); Release publishes a prefix of them back to the
// remote producer, and Close releases whatever prefix wasn't explicitly
// released yet — the Go stand-in for the source's "drop releases all"
// rule, since Go has no deterministic destructor to hang that behavior
// off of.
type ConsumerGuard[T any] struct {
	ring     *Consumer[T]
	base     uint32
	n        uint32
	released uint32
}

// N returns the number of slots claimed by this guard.
func (g *ConsumerGuard[T]) N() uint32 { return g.n }

// Read returns the descriptor at reserved position i (0 <= i < N()).
func (g *ConsumerGuard[T]) Read(i uint32) T {
	return g.ring.desc[(g.base+i)&g.ring.counters.Mask]
}

// Release publishes m (<= N()-released) more of the claimed slots back
// to the remote producer by release-storing the advanced consumer
// counter. May be called multiple times to release in increments; the
// total released across all calls (plus an eventual Close) must not
// exceed N().
func (g *ConsumerGuard[T]) Release(m uint32) {
	if remaining := g.n - g.released; m > remaining {
		m = remaining
	}
	g.released += m
	g.ring.localCons += m
	storeRelease(g.ring.counters.Consumer, g.ring.localCons)
}

// Close releases every slot claimed by this guard that wasn't already
// released by an explicit Release call. Idempotent. Intended to be used
// as `defer g.Close()` immediately after Consume, mirroring the source's
// "drop releases all" semantics deterministically instead of relying on
// a finalizer.
func (g *ConsumerGuard[T]) Close() {
	if remaining := g.n - g.released; remaining > 0 {
		g.Release(remaining)
	}
}

// Consume claims every currently ready descriptor (up to max, if max > 0;
// max == 0 means unbounded). Returns a guard with N() possibly zero.
func (c *Consumer[T]) Consume(max uint32) *ConsumerGuard[T] {
	n := c.Available()
	if max > 0 && n > max {
		n = max
	}
	return &ConsumerGuard[T]{ring: c, base: c.localCons, n: n}
}
