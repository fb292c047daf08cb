//go:build !linux

package umem

import "fmt"

// Create provides a pure-Go arena for platforms without AF_XDP (used by
// the fluxio_sim-backed socket in tests on non-Linux hosts). Huge pages
// are never available off Linux.
func Create(frameSize, frameCount uint32, flags Flags) (*Arena, error) {
	if !validFrameSize(frameSize) {
		return nil, &Error{Kind: KindUnsupported, Err: errInvalidFrameSize(frameSize)}
	}
	if !validFrameCount(frameCount) {
		return nil, &Error{Kind: KindUnsupported, Err: errInvalidFrameCount(frameCount)}
	}
	if flags.HugePages {
		return nil, &Error{Kind: KindPermissionDenied, Err: fmt.Errorf("huge pages unavailable on this platform")}
	}

	size := uint64(frameSize) * uint64(frameCount)
	return &Arena{mem: make([]byte, size), frameSize: frameSize, frameCount: frameCount}, nil
}

// Teardown releases the arena. On non-Linux platforms this just drops
// the reference for the garbage collector to reclaim.
func (a *Arena) Teardown() error {
	a.mem = nil
	return nil
}
