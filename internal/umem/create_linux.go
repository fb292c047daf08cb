//go:build linux

package umem

import (
	"golang.org/x/sys/unix"
)

// Create reserves and maps a frame_size x frame_count arena. Fails with
// KindUnsupported if frameSize is not one of {2048, 4096} or frameCount
// is not a power of two >= MinFrameCount, KindOutOfMemory if the mapping
// itself fails, and KindPermissionDenied if huge-page backing was
// requested but the mapping could not be satisfied with it.
func Create(frameSize, frameCount uint32, flags Flags) (*Arena, error) {
	if !validFrameSize(frameSize) {
		return nil, &Error{Kind: KindUnsupported, Err: errInvalidFrameSize(frameSize)}
	}
	if !validFrameCount(frameCount) {
		return nil, &Error{Kind: KindUnsupported, Err: errInvalidFrameCount(frameCount)}
	}

	size := int(uint64(frameSize) * uint64(frameCount))
	mmapFlags := unix.MAP_PRIVATE | unix.MAP_ANONYMOUS
	if flags.HugePages {
		mmapFlags |= unix.MAP_HUGETLB
	}

	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, mmapFlags)
	if err != nil {
		if flags.HugePages {
			return nil, &Error{Kind: KindPermissionDenied, Err: err}
		}
		return nil, &Error{Kind: KindOutOfMemory, Err: err}
	}

	return &Arena{mem: mem, frameSize: frameSize, frameCount: frameCount}, nil
}

// Teardown unmaps the arena. The caller (the owning socket) must ensure
// no ring still references frames inside before calling this — the
// arena itself does not track outstanding references.
func (a *Arena) Teardown() error {
	if a.mem == nil {
		return nil
	}
	err := unix.Munmap(a.mem)
	a.mem = nil
	return err
}
