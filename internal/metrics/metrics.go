// Package metrics exposes Prometheus counters and a latency tracker for
// the Gate Orchestrator and Auto-Exit Engine, grounded on
// trading.Metrics's percentile sampler and chidi150c-coinbase's
// Prometheus wiring.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"solana-gate/internal/candidate"
	"solana-gate/internal/exit"
)

// Registry bundles every metric this repo exports. It is safe to
// register against the default Prometheus registerer once at startup.
type Registry struct {
	DecisionsTotal    *prometheus.CounterVec
	RuleFailuresTotal *prometheus.CounterVec
	ExitTriggersTotal *prometheus.CounterVec
	QuoteCacheHits    prometheus.Counter
	QuoteCacheMisses  prometheus.Counter

	latency *LatencyTracker
}

// New builds a Registry and registers its collectors against reg.
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gate",
			Name:      "decisions_total",
			Help:      "Gate Orchestrator decisions by final state.",
		}, []string{"state"}),
		RuleFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gate",
			Name:      "rule_failures_total",
			Help:      "Rule Catalog failures by rule ID.",
		}, []string{"rule_id"}),
		ExitTriggersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exit",
			Name:      "triggers_total",
			Help:      "Auto-Exit Engine triggers by reason.",
		}, []string{"reason"}),
		QuoteCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quote",
			Name:      "cache_hits_total",
			Help:      "Quote Client TTL cache hits.",
		}),
		QuoteCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quote",
			Name:      "cache_misses_total",
			Help:      "Quote Client TTL cache misses.",
		}),
		latency: NewLatencyTracker(),
	}

	reg.MustRegister(
		r.DecisionsTotal,
		r.RuleFailuresTotal,
		r.ExitTriggersTotal,
		r.QuoteCacheHits,
		r.QuoteCacheMisses,
	)

	return r
}

// ObserveDecision records one gate evaluation's outcome and latency.
func (r *Registry) ObserveDecision(d candidate.Decision, latencyMs int64) {
	r.DecisionsTotal.WithLabelValues(string(d.State)).Inc()
	for _, id := range d.FailedRules {
		r.RuleFailuresTotal.WithLabelValues(string(id)).Inc()
	}
	r.latency.Record(latencyMs)
}

// ObserveExit records one Auto-Exit Engine trigger.
func (r *Registry) ObserveExit(reason exit.Reason) {
	r.ExitTriggersTotal.WithLabelValues(string(reason)).Inc()
}

// Latency returns the decision-latency tracker so callers can surface
// P50/P95/P99 without round-tripping through Prometheus's own
// histogram buckets.
func (r *Registry) Latency() *LatencyTracker {
	return r.latency
}

// LatencyTracker is a fixed-window percentile sampler, adapted from
// trading.Metrics's sample ring buffer.
type LatencyTracker struct {
	mu        sync.Mutex
	samples   []int64
	sampleIdx int
}

// NewLatencyTracker keeps the last 200 decision latencies.
func NewLatencyTracker() *LatencyTracker {
	return &LatencyTracker{samples: make([]int64, 200)}
}

// Record adds one latency sample in milliseconds.
func (t *LatencyTracker) Record(latencyMs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples[t.sampleIdx%len(t.samples)] = latencyMs
	t.sampleIdx++
}

// P50 returns the 50th percentile latency observed so far.
func (t *LatencyTracker) P50() int64 { return t.percentile(50) }

// P95 returns the 95th percentile latency observed so far.
func (t *LatencyTracker) P95() int64 { return t.percentile(95) }

// P99 returns the 99th percentile latency observed so far.
func (t *LatencyTracker) P99() int64 { return t.percentile(99) }

func (t *LatencyTracker) percentile(p int) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := t.sampleIdx
	if count > len(t.samples) {
		count = len(t.samples)
	}
	if count == 0 {
		return 0
	}

	sorted := make([]int64, count)
	copy(sorted, t.samples[:count])
	for i := 0; i < len(sorted)-1; i++ {
		for j := 0; j < len(sorted)-i-1; j++ {
			if sorted[j] > sorted[j+1] {
				sorted[j], sorted[j+1] = sorted[j+1], sorted[j]
			}
		}
	}

	idx := (p * count) / 100
	if idx >= count {
		idx = count - 1
	}
	return sorted[idx]
}
