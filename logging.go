package fluxio

import (
	"github.com/fluxio/fluxio/internal/logging"
)

// Logger wraps a logrus entry, carrying structured fields (interface,
// queue_id, ring) through setup failures, wake-retry events,
// ring-corruption detection, and poller state transitions. Open,
// OpenWithLogger and NewEngine accept a nil Logger and then log
// nothing; the Logger methods themselves must not be called on nil.
type Logger = logging.Logger

// NewLogger creates a structured logger at the given level
// (case-insensitive; an unrecognized level falls back to info).
func NewLogger(level string) (*Logger, error) {
	return logging.New(level)
}
