package httpapi

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findMetric locates a metric family sample matching the given label values.
func findMetric(t *testing.T, name string, labels map[string]string) *dto.Metric {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			matched := 0
			for _, pair := range metric.GetLabel() {
				if labels[pair.GetName()] == pair.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return metric
			}
		}
	}
	return nil
}

func TestObserveRequest(t *testing.T) {
	observeRequest("metrics_sample", "GET", 200, 42*time.Millisecond)
	observeRequest("metrics_sample", "GET", 200, 10*time.Millisecond)

	counter := findMetric(t, "badgeapi_http_requests_total", map[string]string{
		"route":  "metrics_sample",
		"method": "GET",
		"status": "200",
	})
	require.NotNil(t, counter, "request counter not registered")
	assert.Equal(t, float64(2), counter.GetCounter().GetValue())

	histogram := findMetric(t, "badgeapi_http_request_duration_seconds", map[string]string{
		"route":  "metrics_sample",
		"method": "GET",
	})
	require.NotNil(t, histogram, "duration histogram not registered")
	assert.Equal(t, uint64(2), histogram.GetHistogram().GetSampleCount())
	assert.InDelta(t, 0.052, histogram.GetHistogram().GetSampleSum(), 0.001)
}

func TestObserveRequest_ZeroStatusDefaultsTo200(t *testing.T) {
	observeRequest("metrics_sample_zero", "HEAD", 0, time.Millisecond)

	counter := findMetric(t, "badgeapi_http_requests_total", map[string]string{
		"route":  "metrics_sample_zero",
		"method": "HEAD",
		"status": "200",
	})
	require.NotNil(t, counter)
	assert.Equal(t, float64(1), counter.GetCounter().GetValue())
}
