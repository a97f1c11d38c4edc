// Package timing provides performance measurement utilities for HTTP requests.
package timing

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// Metrics captures detailed timing information for a request.
type Metrics struct {
	// DNSLookup is the time spent performing DNS resolution
	DNSLookup time.Duration `json:"dns_lookup"`

	// TCPConnect is the time spent establishing the TCP connection
	TCPConnect time.Duration `json:"tcp_connect"`

	// TLSHandshake is the time spent performing the TLS handshake (0 for HTTP)
	TLSHandshake time.Duration `json:"tls_handshake"`

	// TTFB (Time To First Byte) is the time between the request being written
	// and the first response byte arriving
	TTFB time.Duration `json:"ttfb"`

	// Parse is the time spent in the response parser
	Parse time.Duration `json:"parse"`

	// TotalTime is the total end-to-end request time
	TotalTime time.Duration `json:"total_time"`
}

// Timer helps measure request timings.
type Timer struct {
	clock      clock.Clock
	start      time.Time
	dnsStart   time.Time
	dnsEnd     time.Time
	tcpStart   time.Time
	tcpEnd     time.Time
	tlsStart   time.Time
	tlsEnd     time.Time
	ttfbStart  time.Time
	ttfbEnd    time.Time
	parseStart time.Time
	parseEnd   time.Time
}

// NewTimer creates a new timing measurement session on the wall clock.
func NewTimer() *Timer {
	return NewTimerWithClock(clock.New())
}

// NewTimerWithClock creates a timing session driven by c.
func NewTimerWithClock(c clock.Clock) *Timer {
	if c == nil {
		c = clock.New()
	}
	return &Timer{
		clock: c,
		start: c.Now(),
	}
}

// StartDNS marks the beginning of DNS resolution.
func (t *Timer) StartDNS() { t.dnsStart = t.clock.Now() }

// EndDNS marks the end of DNS resolution.
func (t *Timer) EndDNS() { t.dnsEnd = t.clock.Now() }

// StartTCP marks the beginning of TCP connection.
func (t *Timer) StartTCP() { t.tcpStart = t.clock.Now() }

// EndTCP marks the end of TCP connection.
func (t *Timer) EndTCP() { t.tcpEnd = t.clock.Now() }

// StartTLS marks the beginning of TLS handshake.
func (t *Timer) StartTLS() { t.tlsStart = t.clock.Now() }

// EndTLS marks the end of TLS handshake.
func (t *Timer) EndTLS() { t.tlsEnd = t.clock.Now() }

// StartTTFB marks when we start waiting for the first response byte.
func (t *Timer) StartTTFB() { t.ttfbStart = t.clock.Now() }

// EndTTFB marks when we receive the first response byte. Only the first call counts.
func (t *Timer) EndTTFB() {
	if t.ttfbEnd.IsZero() {
		t.ttfbEnd = t.clock.Now()
	}
}

// StartParse marks the beginning of response parsing.
func (t *Timer) StartParse() { t.parseStart = t.clock.Now() }

// EndParse marks the end of response parsing.
func (t *Timer) EndParse() { t.parseEnd = t.clock.Now() }

// GetMetrics returns the calculated timing metrics.
func (t *Timer) GetMetrics() Metrics {
	return Metrics{
		DNSLookup:    span(t.dnsStart, t.dnsEnd),
		TCPConnect:   span(t.tcpStart, t.tcpEnd),
		TLSHandshake: span(t.tlsStart, t.tlsEnd),
		TTFB:         span(t.ttfbStart, t.ttfbEnd),
		Parse:        span(t.parseStart, t.parseEnd),
		TotalTime:    t.clock.Since(t.start),
	}
}

func span(start, end time.Time) time.Duration {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return end.Sub(start)
}

// GetConnectionTime returns the total connection establishment time (DNS + TCP + TLS).
func (m Metrics) GetConnectionTime() time.Duration {
	return m.DNSLookup + m.TCPConnect + m.TLSHandshake
}

// String provides a human-readable representation of the metrics.
func (m Metrics) String() string {
	return fmt.Sprintf("DNSLookup: %v, TCPConnect: %v, TLSHandshake: %v, TTFB: %v, Parse: %v, TotalTime: %v",
		m.DNSLookup, m.TCPConnect, m.TLSHandshake, m.TTFB, m.Parse, m.TotalTime)
}
