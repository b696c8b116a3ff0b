package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestReviewMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReviewMetrics(reg)

	m.IncDecision("approve")
	m.IncDecision("approve")
	m.IncFailure("reject", "STATE_CONFLICT")
	m.ObserveDuration("approve", 25*time.Millisecond)

	if got := testutil.ToFloat64(m.decisions.WithLabelValues("approve")); got != 2 {
		t.Fatalf("unexpected decision count %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("reject", "state_conflict")); got != 1 {
		t.Fatalf("unexpected failure count %v", got)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *ReviewMetrics
	m.IncDecision("approve")
	m.IncFailure("approve", "x")
	m.ObserveDuration("approve", time.Second)

	empty := NewReviewMetrics(nil)
	empty.IncDecision("approve")
}
