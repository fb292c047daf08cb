// Package allocator implements the frame allocator: the authoritative
// holder of every frame index currently in the Free state. It comes in
// two shapes, both operating on the same currency — a frame index into
// a umem.Arena, never the bytes themselves:
//
//   - Stack, a single-consumer LIFO used inside the managed engine and
//     inside a thread-affine split handle, where only the owning
//     goroutine ever touches the free list.
//   - MPSC, a lock-free multi-producer/single-consumer free list used
//     when owned frame handles may be dropped from any worker
//     goroutine and must be reclaimed by the goroutine driving RX.
package allocator
