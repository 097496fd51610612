package tneapi

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tneregistro/portal/core"
)

// Call outcomes, as reported in the `outcome` label.
const (
	OutcomeOK         = "ok"
	OutcomeConnection = "connection"
	OutcomeRejected   = "rejected"
	OutcomeMalformed  = "malformed"
	OutcomeError      = "error"
)

// Metrics counts backend calls. A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tne",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Backend calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tne",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Backend call latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// observe is deferred by the client; errp points at the call's named error result.
func (m *Metrics) observe(op string, start time.Time, errp *error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, Outcome(*errp)).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Outcome classifies a call result.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	switch cause := errors.Cause(err); cause {
	case core.ErrConnection:
		return OutcomeConnection
	case core.ErrMalformedResponse, ErrStatusNotOK, ErrMissingRole:
		return OutcomeMalformed
	default:
		if _, ok := cause.(*core.RejectedError); ok {
			return OutcomeRejected
		}
	}
	return OutcomeError
}
