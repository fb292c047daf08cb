//go:build !fluxio_debug

package umem

// checkFrameIndex is a no-op in release builds; see debug_on.go.
func checkFrameIndex(a *Arena, index uint32) {}
