//go:build fluxio_sim

package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fluxio/fluxio/internal/poller"
	"github.com/fluxio/fluxio/internal/simulator"
)

// TestRunWithTasksCancelsTaskWhenHotLoopStops drives the hot loop with
// an empty RX ring until the caller cancels the outer context, and
// checks that the auxiliary task observes the same cancellation
// through the errgroup-derived context rather than running forever.
func TestRunWithTasksCancelsTaskWhenHotLoopStops(t *testing.T) {
	sock, err := simulator.New(2048, 64, 8, 8, 8, 8, simulator.WithAutoComplete())
	if err != nil {
		t.Fatalf("simulator.New: %v", err)
	}
	defer sock.Close()

	e, err := New(sock, Config{BatchSize: 8, Poller: poller.Busy})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	taskObservedCancel := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- e.RunWithTasks(ctx, func(*Batch) {}, func(taskCtx context.Context) error {
			<-taskCtx.Done()
			close(taskObservedCancel)
			return taskCtx.Err()
		})
	}()

	cancel()

	select {
	case <-taskObservedCancel:
	case <-time.After(2 * time.Second):
		t.Fatal("task goroutine never observed the derived context's cancellation")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunWithTasks: expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunWithTasks did not return after cancellation")
	}
}

// TestRunWithTasksPropagatesTaskError checks that a task failure stops
// the hot loop too, by cancelling the shared derived context.
func TestRunWithTasksPropagatesTaskError(t *testing.T) {
	sock, err := simulator.New(2048, 64, 8, 8, 8, 8, simulator.WithAutoComplete())
	if err != nil {
		t.Fatalf("simulator.New: %v", err)
	}
	defer sock.Close()

	e, err := New(sock, Config{BatchSize: 8, Poller: poller.Busy})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	wantErr := errors.New("task failed")
	err = e.RunWithTasks(context.Background(), func(*Batch) {}, func(context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}
