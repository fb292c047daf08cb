package fluxio

import (
	"net/http"

	"github.com/fluxio/fluxio/internal/metrics"
)

// MetricsCollector holds every Prometheus metric the data plane
// reports. A nil collector is a valid, cost-free no-op — pass it to
// NewEngine/Split and every call site simply skips the update.
type MetricsCollector = metrics.Collector

// NewMetricsCollector builds a MetricsCollector and an http.Handler
// serving it in the Prometheus text exposition format.
func NewMetricsCollector() (*MetricsCollector, http.Handler) {
	return metrics.NewCollector()
}
