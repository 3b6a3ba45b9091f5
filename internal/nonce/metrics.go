package nonce

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NonceMetrics holds Prometheus metrics for nonce validation.
type NonceMetrics struct {
	validationsTotal *prometheus.CounterVec
	storeErrorsTotal prometheus.Counter
}

var (
	nonceMetricsInstance *NonceMetrics
	nonceMetricsOnce     sync.Once
)

// GetNonceMetrics returns the singleton nonce metrics instance.
func GetNonceMetrics() *NonceMetrics {
	nonceMetricsOnce.Do(func() {
		nonceMetricsInstance = &NonceMetrics{
			validationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "badgeapi",
					Subsystem: "nonce",
					Name:      "validations_total",
					Help:      "Total number of nonce validations by result",
				},
				[]string{"result"},
			),
			storeErrorsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "badgeapi",
					Subsystem: "nonce",
					Name:      "store_errors_total",
					Help:      "Total number of nonce store failures",
				},
			),
		}
	})
	return nonceMetricsInstance
}
