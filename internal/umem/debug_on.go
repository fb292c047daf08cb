//go:build fluxio_debug

package umem

import "fmt"

// checkFrameIndex panics on an out-of-range frame index. Only compiled
// into debug builds (-tags fluxio_debug); release builds skip the extra
// branch on the per-batch hot path and rely on the Go runtime's slice
// bounds check to catch programming errors instead.
func checkFrameIndex(a *Arena, index uint32) {
	if index >= a.frameCount {
		panic(fmt.Sprintf("umem: frame index %d out of range [0,%d)", index, a.frameCount))
	}
}
