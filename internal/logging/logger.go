// Package logging provides structured logging for fluxio's data plane.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus entry pre-populated with fields identifying
// the bound socket (interface, queue) so every log line from a given
// engine, FluxRx, or FluxTx is attributable without callers repeating
// those fields at every call site.
type Logger struct {
	*logrus.Entry
}

// New creates a structured logger at the given level (case-insensitive;
// an unrecognized level falls back to info), emitting JSON lines on
// stdout.
func New(level string) (*Logger, error) {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	logger.SetOutput(os.Stdout)

	return &Logger{Entry: logger.WithField("component", "fluxio")}, nil
}

// WithSocket returns a derived logger tagging every subsequent line
// with the bound interface and queue, the pair that identifies one
// AF_XDP socket.
func (l *Logger) WithSocket(iface string, queueID uint32) *Logger {
	return &Logger{Entry: l.Entry.WithFields(logrus.Fields{
		"interface": iface,
		"queue_id":  queueID,
	})}
}

// WithField adds a single field to the logger.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{Entry: l.Entry.WithField(key, value)}
}

// WithFields adds multiple fields to the logger.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{Entry: l.Entry.WithFields(fields)}
}

// LogRingFull logs a TX or Fill reservation that came back short,
// recording the ring name and how many slots were wanted versus
// granted.
func (l *Logger) LogRingFull(ring string, wanted, granted uint32) {
	l.Entry.WithFields(logrus.Fields{
		"ring":    ring,
		"wanted":  wanted,
		"granted": granted,
		"type":    "ring_full",
	}).Warn("ring reservation short")
}

// LogWakeupError logs a failed wakeup syscall. Per the error design,
// wake failures are logged and retried next batch rather than treated
// as fatal.
func (l *Logger) LogWakeupError(ring string, err error) {
	l.Entry.WithFields(logrus.Fields{
		"ring": ring,
		"type": "wakeup_error",
	}).WithError(err).Warn("kernel wakeup failed, retrying next batch")
}

// LogRingCorruption logs the fatal counter-invariant violation that
// precedes an immediate stop.
func (l *Logger) LogRingCorruption(ring string, producer, consumer uint32) {
	l.Entry.WithFields(logrus.Fields{
		"ring":     ring,
		"producer": producer,
		"consumer": consumer,
		"type":     "ring_corruption",
	}).Error("ring counter invariant violated, stopping")
}
