package xdpsock

import (
	"errors"
	"time"
)

// Sentinel errors this package wraps its syscall failures in, so the
// root package can classify them into the library's ErrorKind without
// string matching.
var (
	// ErrRingCorruption is returned when a post-setup sanity check
	// shows producer < consumer on a freshly mapped ring.
	ErrRingCorruption = errors.New("xdpsock: ring counter invariant violated (producer < consumer)")
	// ErrInterfaceNotSupported is returned when the named interface
	// cannot be found or has no AF_XDP-capable driver bound.
	ErrInterfaceNotSupported = errors.New("xdpsock: interface not found or not AF_XDP-capable")
)

// timeUntilMs returns the number of whole milliseconds between now and
// deadline, floored at 0.
func timeUntilMs(deadline time.Time) int64 {
	d := time.Until(deadline).Milliseconds()
	if d < 0 {
		return 0
	}
	return d
}
