// Package simulator provides a deterministic, in-process stand-in for
// the kernel side of an AF_XDP socket, used by the rest of the module's
// tests to exercise the engine, split-ownership, and bare modes
// without a real NIC or elevated privileges.
//
// The simulator is test infrastructure, not a production transport: it
// is compiled in only under the fluxio_sim build tag, so production
// binaries carry no trace of it.
package simulator
