// Package metrics exposes Prometheus collectors for remote bookkeeping calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels
const (
	OutcomeSuccess     = "success"
	OutcomeRemoteError = "remote_error"
	OutcomeTransport   = "transport_error"
)

// RemoteCalls records calls made against the remote bookkeeping service
type RemoteCalls struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRemoteCalls creates the collectors and registers them with reg.
// A nil registerer leaves them unregistered.
func NewRemoteCalls(reg prometheus.Registerer) *RemoteCalls {
	m := &RemoteCalls{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eboekhouden",
			Name:      "remote_calls_total",
			Help:      "Remote SOAP operations by outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "eboekhouden",
			Name:      "remote_call_duration_seconds",
			Help:      "Latency of remote SOAP operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(m.total, m.duration)
	}
	return m
}

// Observe records one finished call
func (m *RemoteCalls) Observe(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.total.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Count returns the counter for an operation/outcome pair
func (m *RemoteCalls) Count(operation, outcome string) prometheus.Counter {
	return m.total.WithLabelValues(operation, outcome)
}
