//go:build fluxio_sim

package splitio

import (
	"testing"

	"github.com/fluxio/fluxio/internal/simulator"
)

// TestRecvDrainsAndRefillsFill mirrors half of S1: the initial Split
// refill fills the whole Fill ring, and one injected RX packet then
// becomes exactly one Packet at the injected address.
func TestRecvDrainsAndRefillsFill(t *testing.T) {
	sock, err := simulator.New(2048, 64, 8, 8, 8, 8)
	if err != nil {
		t.Fatalf("simulator.New: %v", err)
	}
	defer sock.Close()

	rx, _, err := Split(sock)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	filled := sock.DrainFill()
	if len(filled) != 8 {
		t.Fatalf("expected initial fill of 8 (ring size), got %d", len(filled))
	}

	base := sock.Arena().FrameBaseAddr(3)
	if !sock.InjectRX(base, 40) {
		t.Fatal("InjectRX failed")
	}

	pkts := rx.Recv(8)
	if len(pkts) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(pkts))
	}
	if pkts[0].Addr() != base {
		t.Fatalf("expected addr %d, got %d", base, pkts[0].Addr())
	}
	pkts[0].Close()
}

// TestSendFlushRoundTrip exercises Send staging, Flush committing, and
// Completion reclaim feeding back into the shared free pool.
func TestSendFlushRoundTrip(t *testing.T) {
	sock, err := simulator.New(2048, 64, 8, 8, 8, 8, simulator.WithAutoComplete())
	if err != nil {
		t.Fatalf("simulator.New: %v", err)
	}
	defer sock.Close()

	rx, tx, err := Split(sock)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	base := sock.Arena().FrameBaseAddr(5)
	if !sock.InjectRX(base, 32) {
		t.Fatal("InjectRX failed")
	}
	pkts := rx.Recv(8)
	if len(pkts) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(pkts))
	}

	if err := tx.Send(pkts[0]); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := tx.Pending(); got != 1 {
		t.Fatalf("expected 1 pending send, got %d", got)
	}

	tx.Flush()
	if got := tx.Pending(); got != 0 {
		t.Fatalf("expected 0 pending after Flush, got %d", got)
	}

	sent := sock.DrainTX()
	if len(sent) != 1 || sent[0].Addr != base {
		t.Fatalf("expected 1 descriptor at addr %d, got %v", base, sent)
	}

	// auto-complete published the completion already; the next Flush
	// reclaims it into the shared pool.
	tx.Flush()
}

// TestSendRejectsWhenRingFullUnderDropNew exercises the DropNew
// congestion policy: once staged sends fill the ring's free space,
// further sends are rejected and the handle is returned un-consumed.
func TestSendRejectsWhenRingFullUnderDropNew(t *testing.T) {
	sock, err := simulator.New(2048, 64, 8, 8, 2, 8)
	if err != nil {
		t.Fatalf("simulator.New: %v", err)
	}
	defer sock.Close()

	rx, tx, err := Split(sock)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	for i := uint32(0); i < 3; i++ {
		addr := sock.Arena().FrameBaseAddr(10 + i)
		if !sock.InjectRX(addr, 16) {
			t.Fatalf("InjectRX %d failed", i)
		}
	}

	recvd := rx.Recv(8)
	if len(recvd) != 3 {
		t.Fatalf("expected 3 packets, got %d", len(recvd))
	}

	if err := tx.Send(recvd[0]); err != nil {
		t.Fatalf("Send 0: %v", err)
	}
	if err := tx.Send(recvd[1]); err != nil {
		t.Fatalf("Send 1: %v", err)
	}
	// TX ring size 2: staged already equals Available(), third send
	// must be rejected under DropNew without consuming the handle.
	if err := tx.Send(recvd[2]); err != ErrRingFull {
		t.Fatalf("expected ErrRingFull, got %v", err)
	}

	// The rejected handle is still usable; recycle it explicitly.
	recvd[2].Close()
}

// TestDroppedPacketReturnsFrameToSharedPool is the S3 scenario: packets
// received on one side are dropped (never sent) and the next Recv call
// observes the reclaimed frames via the Fill ring topping back up.
func TestDroppedPacketReturnsFrameToSharedPool(t *testing.T) {
	sock, err := simulator.New(2048, 64, 16, 16, 16, 16)
	if err != nil {
		t.Fatalf("simulator.New: %v", err)
	}
	defer sock.Close()

	rx, _, err := Split(sock)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	sock.DrainFill() // drain the initial refill so we can observe the next one precisely

	for i := uint32(0); i < 8; i++ {
		addr := sock.Arena().FrameBaseAddr(20 + i)
		if !sock.InjectRX(addr, 20) {
			t.Fatalf("InjectRX %d failed", i)
		}
	}

	pkts := rx.Recv(8)
	if len(pkts) != 8 {
		t.Fatalf("expected 8 packets, got %d", len(pkts))
	}

	// Simulate a worker goroutine dropping every packet without
	// sending: the frame indices go to the shared MPSC pool.
	for _, p := range pkts {
		p.Close()
	}

	// Next Recv (even with nothing new on RX) drains the pool into
	// Fill as part of its refill step.
	more := rx.Recv(8)
	if len(more) != 0 {
		t.Fatalf("expected no new packets, got %d", len(more))
	}

	refilled := sock.DrainFill()
	if len(refilled) != 8 {
		t.Fatalf("expected 8 reclaimed frames refilled into Fill, got %d", len(refilled))
	}
}
