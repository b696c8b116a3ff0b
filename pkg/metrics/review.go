package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReviewMetrics records review decision outcomes and latency.
type ReviewMetrics struct {
	duration  *prometheus.HistogramVec
	decisions *prometheus.CounterVec
	failures  *prometheus.CounterVec
}

// NewReviewMetrics registers the review metrics on the provided registerer.
func NewReviewMetrics(reg prometheus.Registerer) *ReviewMetrics {
	if reg == nil {
		return &ReviewMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "review_decision_duration_seconds",
		Help:    "Duration of review decisions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"decision"})
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "review_decisions_total",
		Help: "Review decisions applied, by decision kind.",
	}, []string{"decision"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "review_decision_failures_total",
		Help: "Review decisions that failed, by error code.",
	}, []string{"decision", "code"})
	reg.MustRegister(duration, decisions, failures)
	return &ReviewMetrics{
		duration:  duration,
		decisions: decisions,
		failures:  failures,
	}
}

// ObserveDuration records the latency for the named decision.
func (m *ReviewMetrics) ObserveDuration(decision string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(decision)).Observe(duration.Seconds())
}

// IncDecision increments the applied-decision counter.
func (m *ReviewMetrics) IncDecision(decision string) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.WithLabelValues(normalizeLabel(decision)).Inc()
}

// IncFailure increments the failure counter for the named decision and code.
func (m *ReviewMetrics) IncFailure(decision, code string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(decision), normalizeLabel(code)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return strings.ReplaceAll(value, " ", "_")
}
