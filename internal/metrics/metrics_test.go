package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"solana-gate/internal/candidate"
	"solana-gate/internal/exit"
)

func TestRegistry_ObserveDecisionIncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	d := candidate.Decision{
		State:       candidate.StateBlocked,
		RiskScore:   decimal.NewFromInt(10),
		FailedRules: []candidate.RuleID{candidate.RuleLPOwnershipDistribution},
	}
	r.ObserveDecision(d, 42)

	if got := testutil.ToFloat64(r.DecisionsTotal.WithLabelValues("BLOCKED")); got != 1 {
		t.Fatalf("expected 1 BLOCKED decision, got %v", got)
	}
	if got := testutil.ToFloat64(r.RuleFailuresTotal.WithLabelValues(string(candidate.RuleLPOwnershipDistribution))); got != 1 {
		t.Fatalf("expected 1 rule failure recorded, got %v", got)
	}
	if r.Latency().P50() != 42 {
		t.Fatalf("expected P50 latency of 42ms with one sample, got %d", r.Latency().P50())
	}
}

func TestRegistry_ObserveExitIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveExit(exit.ReasonTakeProfit)

	if got := testutil.ToFloat64(r.ExitTriggersTotal.WithLabelValues(string(exit.ReasonTakeProfit))); got != 1 {
		t.Fatalf("expected 1 take_profit trigger, got %v", got)
	}
}

func TestLatencyTracker_PercentilesOverMultipleSamples(t *testing.T) {
	lt := NewLatencyTracker()
	for _, ms := range []int64{10, 20, 30, 40, 50} {
		lt.Record(ms)
	}
	if lt.P50() != 30 {
		t.Fatalf("expected P50 of 30, got %d", lt.P50())
	}
}
