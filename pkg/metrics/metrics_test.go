package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveSuccess("https", 200, 512, 20*time.Millisecond)
	c.ObserveSuccess("https", 404, 128, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.RequestsTotal.WithLabelValues("https", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StatusCodes.WithLabelValues("2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StatusCodes.WithLabelValues("4xx")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.RequestDuration))
}

func TestObserveError(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveError("", "validation", time.Millisecond)
	c.ObserveError("http", "connection", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.RequestsTotal.WithLabelValues("unknown", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ErrorsTotal.WithLabelValues("validation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ErrorsTotal.WithLabelValues("connection")))
}

func TestRegisteredNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.ObserveSuccess("http", 200, 1, time.Millisecond)
	c.ObserveError("http", "io", time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"rawfetch_requests_total",
		"rawfetch_errors_total",
		"rawfetch_request_duration_seconds",
		"rawfetch_response_size_bytes",
		"rawfetch_responses_total",
	}, names)
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveSuccess("http", 200, 1, time.Millisecond)
		c.ObserveError("http", "io", time.Millisecond)
	})
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "1xx", StatusClass(101))
	assert.Equal(t, "3xx", StatusClass(301))
	assert.Equal(t, "5xx", StatusClass(503))
	assert.Equal(t, "unknown", StatusClass(-1))
	assert.Equal(t, "unknown", StatusClass(999))
}
