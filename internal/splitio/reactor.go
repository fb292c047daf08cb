package splitio

import "context"

// Reactor is the external asynchronous readiness adapter FluxRx.RecvAsync
// plugs into — an epoll, io_uring, or runtime-specific event loop
// integration. fluxio ships no implementation of this interface; it
// specifies only the contract an adapter must satisfy, the same way the
// socket's own readiness wait does for the synchronous path.
type Reactor interface {
	// Wait blocks until the registered socket becomes readable, or ctx
	// is cancelled, in which case it returns ctx.Err(). Must be safe to
	// call repeatedly and to abandon mid-wait without side effects.
	Wait(ctx context.Context) error
}
