//go:build linux

package cpuaffinity

import (
	"runtime"
	"testing"
)

func TestPinRejectsOutOfRangeCore(t *testing.T) {
	if err := Pin(runtime.NumCPU() + 10); err == nil {
		t.Fatal("expected error pinning to an out-of-range core")
	}
}

func TestPinToCoreZero(t *testing.T) {
	if err := Pin(0); err != nil {
		t.Fatalf("expected pinning to core 0 to succeed, got %v", err)
	}
}
