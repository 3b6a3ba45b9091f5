package httpapi

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// httpMetrics holds Prometheus metrics for dispatched requests.
type httpMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var (
	httpMetricsInstance *httpMetrics
	httpMetricsOnce     sync.Once
)

func getHTTPMetrics() *httpMetrics {
	httpMetricsOnce.Do(func() {
		httpMetricsInstance = &httpMetrics{
			requestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "badgeapi",
					Subsystem: "http",
					Name:      "requests_total",
					Help:      "Total number of dispatched HTTP requests",
				},
				[]string{"route", "method", "status"},
			),
			requestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "badgeapi",
					Subsystem: "http",
					Name:      "request_duration_seconds",
					Help:      "Duration of dispatched HTTP requests in seconds",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"route", "method"},
			),
		}
	})
	return httpMetricsInstance
}

// observeRequest records metrics for one dispatched request.
func observeRequest(route, method string, status int, duration time.Duration) {
	if status == 0 {
		status = 200
	}
	m := getHTTPMetrics()
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}
