package qivivo

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus metrics for API calls, token exchanges and
// freshness decisions. A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
	reads    *prometheus.CounterVec
}

// NewMetrics creates the client metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default registry,
// or nil to keep them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qivivo_api_requests_total",
				Help: "Qivivo API requests by method, resource and status code",
			},
			[]string{"method", "resource", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qivivo_api_request_duration_seconds",
				Help:    "Qivivo API request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "resource"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qivivo_token_acquisitions_total",
				Help: "Client-credentials exchanges by result",
			},
			[]string{"result"},
		),
		reads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qivivo_device_reads_total",
				Help: "Device attribute reads by device type, attribute and source (cache or network)",
			},
			[]string{"device_type", "attribute", "source"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.tokens, m.reads)
	}
	return m
}

// WithMetrics records request, token and cache metrics on m.
//
// Example:
//
//	metrics := qivivo.NewMetrics(prometheus.DefaultRegisterer)
//	client, _ := qivivo.NewClient(id, secret, qivivo.WithMetrics(metrics))
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func (m *Metrics) observeRequest(method, resource string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, resource, code).Inc()
	m.duration.WithLabelValues(method, resource).Observe(duration.Seconds())
}

func (m *Metrics) observeTokenAcquisition(result string) {
	if m == nil {
		return
	}
	m.tokens.WithLabelValues(result).Inc()
}

func (m *Metrics) observeRead(deviceType DeviceType, attribute string, fetched bool) {
	if m == nil {
		return
	}
	source := "cache"
	if fetched {
		source = "network"
	}
	m.reads.WithLabelValues(string(deviceType), attribute, source).Inc()
}
