package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CacheMetrics holds Prometheus metrics for cache operations.
type CacheMetrics struct {
	hitsTotal      prometheus.Counter
	missesTotal    prometheus.Counter
	evictionsTotal prometheus.Counter
	sizeGauge      prometheus.Gauge
}

var (
	cacheMetricsInstance *CacheMetrics
	cacheMetricsOnce     sync.Once
)

// GetCacheMetrics returns the singleton cache metrics instance.
func GetCacheMetrics() *CacheMetrics {
	cacheMetricsOnce.Do(func() {
		cacheMetricsInstance = &CacheMetrics{
			hitsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "badgeapi",
					Subsystem: "cache",
					Name:      "hits_total",
					Help:      "Total number of cache hits",
				},
			),
			missesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "badgeapi",
					Subsystem: "cache",
					Name:      "misses_total",
					Help:      "Total number of cache misses",
				},
			),
			evictionsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "badgeapi",
					Subsystem: "cache",
					Name:      "evictions_total",
					Help:      "Total number of cache evictions",
				},
			),
			sizeGauge: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "badgeapi",
					Subsystem: "cache",
					Name:      "size",
					Help:      "Current number of items in cache",
				},
			),
		}
	})
	return cacheMetricsInstance
}
