package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRXIncrementsCounter(t *testing.T) {
	c, _ := NewCollector()
	c.ObserveRX(5)
	c.ObserveRX(3)

	if got := testutil.ToFloat64(c.rxPackets); got != 8 {
		t.Errorf("expected fluxio_rx_packets_total=8, got %v", got)
	}
}

func TestObserveTXIncrementsCounter(t *testing.T) {
	c, _ := NewCollector()
	c.ObserveTX(4)

	if got := testutil.ToFloat64(c.txPackets); got != 4 {
		t.Errorf("expected fluxio_tx_packets_total=4, got %v", got)
	}
}

func TestSetFrameCountsUpdatesGauges(t *testing.T) {
	c, _ := NewCollector()
	c.SetFrameCounts(60, 3, 1)

	if got := testutil.ToFloat64(c.framesFree); got != 60 {
		t.Errorf("expected fluxio_frames_free=60, got %v", got)
	}
	if got := testutil.ToFloat64(c.framesKernel); got != 3 {
		t.Errorf("expected fluxio_frames_kernel_owned=3, got %v", got)
	}
	if got := testutil.ToFloat64(c.framesUser); got != 1 {
		t.Errorf("expected fluxio_frames_user_owned=1, got %v", got)
	}
}

func TestObserveWakeupIsPerRing(t *testing.T) {
	c, _ := NewCollector()
	c.ObserveWakeup("rx")
	c.ObserveWakeup("rx")
	c.ObserveWakeup("tx")

	if got := testutil.ToFloat64(c.wakeups.WithLabelValues("rx")); got != 2 {
		t.Errorf("expected rx wakeups=2, got %v", got)
	}
	if got := testutil.ToFloat64(c.wakeups.WithLabelValues("tx")); got != 1 {
		t.Errorf("expected tx wakeups=1, got %v", got)
	}
}

func TestObserveRingFullIsPerRing(t *testing.T) {
	c, _ := NewCollector()
	c.ObserveRingFull("tx")

	if got := testutil.ToFloat64(c.ringFull.WithLabelValues("tx")); got != 1 {
		t.Errorf("expected tx ring_full=1, got %v", got)
	}
	if got := testutil.ToFloat64(c.ringFull.WithLabelValues("rx")); got != 0 {
		t.Errorf("expected rx ring_full=0, got %v", got)
	}
}

func TestObserveFillUnderflow(t *testing.T) {
	c, _ := NewCollector()
	c.ObserveFillUnderflow()
	c.ObserveFillUnderflow()

	if got := testutil.ToFloat64(c.fillUnderrun); got != 2 {
		t.Errorf("expected fluxio_fill_underflow_total=2, got %v", got)
	}
}

func TestSetPollerState(t *testing.T) {
	c, _ := NewCollector()
	c.SetPollerState(true)
	if got := testutil.ToFloat64(c.pollerState); got != 1 {
		t.Errorf("expected poller_state=1 (Waiting), got %v", got)
	}
	c.SetPollerState(false)
	if got := testutil.ToFloat64(c.pollerState); got != 0 {
		t.Errorf("expected poller_state=0 (Spinning), got %v", got)
	}
}

func TestNilCollectorMethodsAreNoOps(t *testing.T) {
	var c *Collector
	c.ObserveRX(1)
	c.ObserveTX(1)
	c.SetFrameCounts(1, 1, 1)
	c.ObserveWakeup("rx")
	c.ObserveRingFull("tx")
	c.ObserveFillUnderflow()
	c.SetPollerState(true)
}

func TestHandlerServesExpositionFormat(t *testing.T) {
	c, handler := NewCollector()
	c.ObserveRX(7)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	handler.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fluxio_rx_packets_total 7") {
		t.Errorf("expected exposition body to contain rx_packets_total, got:\n%s", rec.Body.String())
	}
}
