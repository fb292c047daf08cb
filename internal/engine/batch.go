package engine

import "github.com/fluxio/fluxio/internal/frame"

// Batch presents up to Config.BatchSize freshly received frames to the
// callback passed to Run. Each Ref's lifetime is scoped to the batch:
// callers must not retain a Ref (or a byte slice obtained from one)
// past the callback invocation that received it.
type Batch struct {
	refs []*frame.Ref
}

// Refs returns the batch's frame views, in RX ring order.
func (b *Batch) Refs() []*frame.Ref { return b.refs }

// Len returns the number of frames in this batch.
func (b *Batch) Len() int { return len(b.refs) }
