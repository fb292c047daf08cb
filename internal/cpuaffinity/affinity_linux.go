//go:build linux

// Package cpuaffinity pins the calling goroutine's OS thread to a
// single CPU core, used by the managed engine and split handles to
// keep the RX/TX-processing thread off the scheduler's migration path
// — cache locality matters far more than spinning when the hot loop
// is doing tens of millions of iterations a second.
package cpuaffinity

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its current OS thread and sets
// that thread's scheduling affinity to cpuCore. It must be called from
// the goroutine that will run the hot loop, before entering it — the
// engine's Run does this when a core was configured, and a split
// handle's PinCPU method does it when its caller invokes it.
func Pin(cpuCore int) error {
	runtime.LockOSThread()

	numCPU := runtime.NumCPU()
	if cpuCore < 0 || cpuCore >= numCPU {
		return fmt.Errorf("cpuaffinity: core %d out of range (0..%d)", cpuCore, numCPU-1)
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(cpuCore)

	if err := unix.SchedSetaffinity(unix.Gettid(), &set); err != nil {
		return fmt.Errorf("cpuaffinity: set affinity to core %d: %w", cpuCore, err)
	}
	return nil
}
