package fluxio

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/fluxio/fluxio/internal/splitio"
	"github.com/fluxio/fluxio/internal/xdpsock"
)

// ErrorKind classifies a fluxio.Error per the library's error handling
// design: setup failures (InterfaceNotSupported, PermissionDenied, Io,
// RingCorruption) are fatal, RingFull and NoFreeFrames are local
// back-pressure a caller can act on, and Cancelled marks the expected,
// cooperative-cancel termination path rather than a fault.
type ErrorKind int

const (
	KindInterfaceNotSupported ErrorKind = iota
	KindPermissionDenied
	KindIO
	KindRingCorruption
	KindRingFull
	KindNoFreeFrames
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindInterfaceNotSupported:
		return "interface_not_supported"
	case KindPermissionDenied:
		return "permission_denied"
	case KindIO:
		return "io"
	case KindRingCorruption:
		return "ring_corruption"
	case KindRingFull:
		return "ring_full"
	case KindNoFreeFrames:
		return "no_free_frames"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is the library's error type: a Kind plus, for KindIO, the
// underlying syscall or os error it wraps.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fluxio: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("fluxio: %s", e.Kind)
}

// Unwrap exposes the underlying error (set for KindIO) to errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// Is matches target against e's Kind so errors.Is(err, fluxio.ErrRingFull)
// works regardless of what, if anything, e wraps.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Sentinel values for errors.Is comparisons, one per ErrorKind, per
// spec's error kind table.
var (
	ErrInterfaceNotSupported = &Error{Kind: KindInterfaceNotSupported}
	ErrPermissionDenied      = &Error{Kind: KindPermissionDenied}
	ErrIO                    = &Error{Kind: KindIO}
	ErrRingCorruption        = &Error{Kind: KindRingCorruption}
	ErrRingFull              = &Error{Kind: KindRingFull}
	ErrNoFreeFrames          = &Error{Kind: KindNoFreeFrames}
	ErrCancelled             = &Error{Kind: KindCancelled}
)

// classifySetupErr turns an xdpsock.Open failure into a *Error with
// the right Kind, by walking the wrapped error chain for the sentinels
// xdpsock and the kernel report.
func classifySetupErr(err error) *Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, xdpsock.ErrInterfaceNotSupported):
		return newError(KindInterfaceNotSupported, err)
	case errors.Is(err, xdpsock.ErrRingCorruption):
		return newError(KindRingCorruption, err)
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return newError(KindPermissionDenied, err)
	default:
		return newError(KindIO, err)
	}
}

// classifyRuntimeErr turns an error surfaced from a Recv/Send/Flush
// call into a *Error, recognizing context cancellation and the
// splitio.ErrRingFull sentinel for local TX back-pressure.
func classifyRuntimeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newError(KindCancelled, err)
	case errors.Is(err, splitio.ErrRingFull):
		return newError(KindRingFull, err)
	default:
		return newError(KindIO, err)
	}
}
