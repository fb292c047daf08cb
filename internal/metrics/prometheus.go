// Package metrics exposes fluxio's data-plane counters and gauges as
// Prometheus collectors, grounded on the teacher's own
// prometheus.NewRegistry()/MustRegister wiring pattern.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric the data plane reports. A nil
// *Collector is a valid, cost-free no-op receiver for every method
// here — Engine, FluxRx, and FluxTx check for nil once per batch, not
// once per frame, so attaching metrics never shows up in the hot-path
// budget.
type Collector struct {
	registry *prometheus.Registry

	rxPackets    prometheus.Counter
	txPackets    prometheus.Counter
	framesFree   prometheus.Gauge
	framesKernel prometheus.Gauge
	framesUser   prometheus.Gauge
	wakeups      *prometheus.CounterVec
	ringFull     *prometheus.CounterVec
	fillUnderrun prometheus.Counter
	pollerState  prometheus.Gauge
}

// NewCollector builds a Collector registered on a fresh registry, and
// an http.Handler serving it in the Prometheus text exposition format.
func NewCollector() (*Collector, http.Handler) {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		rxPackets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fluxio_rx_packets_total",
			Help: "Total packets consumed from the RX ring.",
		}),
		txPackets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fluxio_tx_packets_total",
			Help: "Total descriptors committed to the TX ring.",
		}),
		framesFree: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fluxio_frames_free",
			Help: "Frames currently held by the allocator in the Free state.",
		}),
		framesKernel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fluxio_frames_kernel_owned",
			Help: "Frames currently outstanding on the Fill or TX ring (Kernel-owned state).",
		}),
		framesUser: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fluxio_frames_user_owned",
			Help: "Frames currently held as a PacketRef or Packet (User-owned state).",
		}),
		wakeups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fluxio_wakeups_total",
			Help: "Wakeup calls that returned without error (including throttled ones that issued no syscall), by ring.",
		}, []string{"ring"}),
		ringFull: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fluxio_ring_full_total",
			Help: "Reservations that came back short of what was requested, by ring.",
		}, []string{"ring"}),
		fillUnderrun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fluxio_fill_underflow_total",
			Help: "Refill attempts that found the free pool empty — the silent RX back-pressure signal.",
		}),
		pollerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fluxio_poller_state",
			Help: "Adaptive poller state: 0=Spinning, 1=Waiting.",
		}),
	}

	reg.MustRegister(
		c.rxPackets, c.txPackets,
		c.framesFree, c.framesKernel, c.framesUser,
		c.wakeups, c.ringFull, c.fillUnderrun, c.pollerState,
	)

	return c, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// ObserveRX records n packets consumed from RX in one batch.
func (c *Collector) ObserveRX(n uint32) {
	if c == nil {
		return
	}
	c.rxPackets.Add(float64(n))
}

// ObserveTX records n descriptors committed to TX in one batch.
func (c *Collector) ObserveTX(n uint32) {
	if c == nil {
		return
	}
	c.txPackets.Add(float64(n))
}

// SetFrameCounts updates the three frame-ownership-state gauges. A
// caller should pass a consistent snapshot — the conservation
// invariant (free+kernel+user == frame_count) is a property of the
// values passed in, not enforced here.
func (c *Collector) SetFrameCounts(free, kernelOwned, userOwned int) {
	if c == nil {
		return
	}
	c.framesFree.Set(float64(free))
	c.framesKernel.Set(float64(kernelOwned))
	c.framesUser.Set(float64(userOwned))
}

// ObserveWakeup records one wakeup call for ring ("rx" or "tx") that
// returned without error; a call the throttle suppressed counts too.
func (c *Collector) ObserveWakeup(ring string) {
	if c == nil {
		return
	}
	c.wakeups.WithLabelValues(ring).Inc()
}

// ObserveRingFull records one reservation on ring that came back
// shorter than requested.
func (c *Collector) ObserveRingFull(ring string) {
	if c == nil {
		return
	}
	c.ringFull.WithLabelValues(ring).Inc()
}

// ObserveFillUnderflow records one refill attempt that found the free
// pool empty.
func (c *Collector) ObserveFillUnderflow() {
	if c == nil {
		return
	}
	c.fillUnderrun.Inc()
}

// SetPollerState mirrors the adaptive poller's current state (0
// Spinning, 1 Waiting) as a gauge.
func (c *Collector) SetPollerState(waiting bool) {
	if c == nil {
		return
	}
	if waiting {
		c.pollerState.Set(1)
		return
	}
	c.pollerState.Set(0)
}
