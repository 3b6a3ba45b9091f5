package results

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// resultsMetrics holds Prometheus metrics for the results store.
type resultsMetrics struct {
	writesTotal      prometheus.Counter
	storeErrorsTotal prometheus.Counter
}

var (
	resultsMetricsInstance *resultsMetrics
	resultsMetricsOnce     sync.Once
)

func getResultsMetrics() *resultsMetrics {
	resultsMetricsOnce.Do(func() {
		resultsMetricsInstance = &resultsMetrics{
			writesTotal: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "badgeapi",
				Subsystem: "results",
				Name:      "writes_total",
				Help:      "Total number of stored test runs",
			}),
			storeErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "badgeapi",
				Subsystem: "results",
				Name:      "store_errors_total",
				Help:      "Total number of results store failures",
			}),
		}
	})
	return resultsMetricsInstance
}
