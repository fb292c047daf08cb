//go:build !linux

package cpuaffinity

import "fmt"

// Pin is contract-only outside Linux: sched_setaffinity has no
// portable equivalent, and AF_XDP itself is Linux-only, so there is
// nothing useful to pin on other platforms.
func Pin(cpuCore int) error {
	return fmt.Errorf("cpuaffinity: CPU pinning is only available on linux")
}
