package hmac

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// authMetrics holds Prometheus metrics for authentication attempts.
type authMetrics struct {
	attemptsTotal   *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
}

var (
	authMetricsInstance *authMetrics
	authMetricsOnce     sync.Once
)

func getAuthMetrics() *authMetrics {
	authMetricsOnce.Do(func() {
		authMetricsInstance = &authMetrics{
			attemptsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "badgeapi",
					Subsystem: "auth",
					Name:      "attempts_total",
					Help:      "Total number of authentication attempts",
				},
				[]string{"outcome"},
			),
			attemptDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "badgeapi",
					Subsystem: "auth",
					Name:      "attempt_duration_seconds",
					Help:      "Duration of authentication attempts in seconds",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"outcome"},
			),
		}
	})
	return authMetricsInstance
}

// recordAttempt records metrics for one authentication attempt.
func recordAttempt(outcome Outcome, duration time.Duration) {
	m := getAuthMetrics()
	m.attemptsTotal.WithLabelValues(outcome.String()).Inc()
	m.attemptDuration.WithLabelValues(outcome.String()).Observe(duration.Seconds())
}
