package routing

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// routingMetrics contains Prometheus metrics for route resolution.
type routingMetrics struct {
	resolutionsTotal *prometheus.CounterVec
	resolveDuration  prometheus.Histogram
}

var (
	routingMetricsInstance *routingMetrics
	routingMetricsOnce     sync.Once
)

// getRoutingMetrics returns the singleton routing metrics instance.
func getRoutingMetrics() *routingMetrics {
	routingMetricsOnce.Do(func() {
		routingMetricsInstance = &routingMetrics{
			resolutionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "badgeapi",
					Subsystem: "routing",
					Name:      "resolutions_total",
					Help:      "Total number of route resolutions by result",
				},
				[]string{"result"},
			),
			resolveDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "badgeapi",
					Subsystem: "routing",
					Name:      "resolve_duration_seconds",
					Help:      "Duration of route resolution",
					Buckets:   []float64{.000001, .000005, .00001, .00005, .0001, .0005, .001},
				},
			),
		}
	})
	return routingMetricsInstance
}

// observeResolve records the outcome and duration of one resolution.
func observeResolve(result string, elapsed time.Duration) {
	m := getRoutingMetrics()
	m.resolutionsTotal.WithLabelValues(result).Inc()
	m.resolveDuration.Observe(elapsed.Seconds())
}
