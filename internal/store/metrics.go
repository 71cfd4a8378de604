package store

import (
	"github.com/prometheus/client_golang/prometheus"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Metric names for the store circuit breaker.
const (
	MetricBreakerState    = "fyp_store_circuit_breaker_state"
	MetricBreakerRejected = "fyp_store_circuit_breaker_rejected_total"
)

// BreakerMetrics exposes circuit breaker state to Prometheus.
type BreakerMetrics struct {
	state    *prometheus.GaugeVec
	rejected *prometheus.CounterVec
}

// NewBreakerMetrics creates unregistered breaker metrics.
func NewBreakerMetrics() *BreakerMetrics {
	return &BreakerMetrics{
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricBreakerState,
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"breaker"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricBreakerRejected,
			Help: "Total number of store calls rejected by an open circuit",
		}, []string{"breaker"}),
	}
}

// Register registers all metrics with the given registry.
func (m *BreakerMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.state, m.rejected} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *BreakerMetrics) setState(name string, state gobreaker.State) {
	var v float64
	switch state {
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	m.state.WithLabelValues(name).Set(v)
}

func (m *BreakerMetrics) incRejected(name string) {
	m.rejected.WithLabelValues(name).Inc()
}
