package fyp

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricFeedRequests      = "fyp_feed_requests_total"
	MetricStageDuration     = "fyp_stage_duration_seconds"
	MetricSourceErrors      = "fyp_source_errors_total"
	MetricCandidatePoolSize = "fyp_candidate_pool_size"
	MetricFallbacks         = "fyp_fallback_total"
)

// Feed request outcomes.
const (
	OutcomePersonalized = "personalized"
	OutcomeFallback     = "fallback"
)

// Metrics contains Prometheus metrics for feed generation.
// All operations are thread-safe.
type Metrics struct {
	feedRequests      *prometheus.CounterVec
	stageDuration     *prometheus.HistogramVec
	sourceErrors      *prometheus.CounterVec
	candidatePoolSize prometheus.Histogram
	fallbacks         *prometheus.CounterVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		feedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricFeedRequests,
			Help: "Total number of feed requests by outcome",
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricStageDuration,
			Help:    "Duration of feed pipeline stages in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"stage"}),
		sourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSourceErrors,
			Help: "Total number of data source failures degraded to empty results",
		}, []string{"source"}),
		candidatePoolSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricCandidatePoolSize,
			Help:    "Number of deduplicated candidates entering the scoring stage",
			Buckets: []float64{0, 5, 10, 15, 20, 25, 30, 35, 40},
		}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricFallbacks,
			Help: "Total number of feed requests served by the fallback path, by failed stage",
		}, []string{"stage"}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns every collector owned by m.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.feedRequests,
		m.stageDuration,
		m.sourceErrors,
		m.candidatePoolSize,
		m.fallbacks,
	}
}

// IncFeedRequest counts a served feed by outcome.
func (m *Metrics) IncFeedRequest(outcome string) {
	m.feedRequests.WithLabelValues(outcome).Inc()
}

// ObserveStage records how long a pipeline stage took.
func (m *Metrics) ObserveStage(stage State, d time.Duration) {
	m.stageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
}

// IncSourceError counts a data source failure.
func (m *Metrics) IncSourceError(source string) {
	m.sourceErrors.WithLabelValues(source).Inc()
}

// ObservePoolSize records the size of a deduplicated candidate pool.
func (m *Metrics) ObservePoolSize(n int) {
	m.candidatePoolSize.Observe(float64(n))
}

// IncFallback counts a fallback triggered by a failure in stage.
func (m *Metrics) IncFallback(stage State) {
	m.fallbacks.WithLabelValues(string(stage)).Inc()
}
