//go:build !linux

package xdpsock

// Open is contract-only outside Linux: AF_XDP does not exist on other
// platforms, so there is nothing to simulate here at the socket level
// (the deterministic in-process simulator in internal/simulator is
// the supported way to exercise the rest of the stack without a real
// NIC). Open always fails so callers get a clear error instead of a
// silent no-op socket.
func Open(cfg Config) (Socket, error) {
	return nil, ErrUnsupportedPlatform
}
