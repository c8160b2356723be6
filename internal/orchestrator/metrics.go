package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments gateway operations. A nil *Metrics is a no-op, so
// callers that do not care about prometheus pass nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_gateway_operations_total",
			Help: "Gateway operations by operation, gateway and resulting status.",
		}, []string{"operation", "gateway", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payment_gateway_operation_duration_seconds",
			Help:    "Duration of gateway operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "gateway"}),
	}
	reg.MustRegister(m.operations, m.duration)
	return m
}

func (m *Metrics) observe(operation, gateway, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, gateway, status).Inc()
	m.duration.WithLabelValues(operation, gateway).Observe(d.Seconds())
}
