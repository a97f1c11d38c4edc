// Package metrics exposes Prometheus collectors for submitted requests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rawfetch"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Collector holds the request metrics of one client.
type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    prometheus.Histogram
	StatusCodes     *prometheus.CounterVec
}

// NewCollector registers the collectors with reg. A nil reg creates them
// unregistered.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of submitted requests",
			},
			[]string{"scheme", "outcome"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of failed requests by error type",
			},
			[]string{"type"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "End-to-end request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"scheme"},
		),
		ResponseSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "response_size_bytes",
				Help:      "Raw response size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000, 10000000, 100000000},
			},
		),
		StatusCodes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "responses_total",
				Help:      "Parsed responses by status class",
			},
			[]string{"class"},
		),
	}
}

// ObserveSuccess records a completed request.
func (c *Collector) ObserveSuccess(scheme string, statusCode int, rawSize int, duration time.Duration) {
	if c == nil {
		return
	}
	c.RequestsTotal.WithLabelValues(scheme, OutcomeSuccess).Inc()
	c.RequestDuration.WithLabelValues(scheme).Observe(duration.Seconds())
	c.ResponseSize.Observe(float64(rawSize))
	c.StatusCodes.WithLabelValues(StatusClass(statusCode)).Inc()
}

// ObserveError records a failed request. scheme may be empty when the URL
// could not be parsed.
func (c *Collector) ObserveError(scheme, errType string, duration time.Duration) {
	if c == nil {
		return
	}
	if scheme == "" {
		scheme = "unknown"
	}
	c.RequestsTotal.WithLabelValues(scheme, OutcomeError).Inc()
	c.ErrorsTotal.WithLabelValues(errType).Inc()
	c.RequestDuration.WithLabelValues(scheme).Observe(duration.Seconds())
}

// StatusClass maps a status code to "1xx".."5xx", or "unknown".
func StatusClass(code int) string {
	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
