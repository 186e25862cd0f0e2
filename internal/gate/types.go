// Package gate implements the Gate Orchestrator: the 12-step decision
// algorithm that turns a Candidate plus the Rule Catalog's verdicts
// into a Decision (spec §4.F).
package gate

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"solana-gate/internal/activity"
	"solana-gate/internal/candidate"
	"solana-gate/internal/cluster"
	"solana-gate/internal/liquidity"
	"solana-gate/internal/quote"
	"solana-gate/internal/rules"
	"solana-gate/internal/solrpc"
	"solana-gate/internal/tradability"
)

// Config holds the orchestrator's tunable thresholds, hot-reloadable
// via internal/config.
type Config struct {
	DynamicCapCeiling        decimal.Decimal
	ObservationDelay         time.Duration
	HighLiquidityFastPathUSD decimal.Decimal
	ObservationDriftPct      decimal.Decimal
}

// DefaultConfig returns the spec's literal defaults.
func DefaultConfig() Config {
	return Config{
		DynamicCapCeiling:        decimal.NewFromInt(40),
		ObservationDelay:         3 * time.Second,
		HighLiquidityFastPathUSD: decimal.NewFromInt(100_000),
		ObservationDriftPct:      decimal.NewFromInt(15),
	}
}

// Collaborators are the optional external services a candidate's rule
// evaluation may consult. All are injected, none are process-global
// singletons (DESIGN NOTES §9).
type Collaborators struct {
	QuoteClient  *quote.Client
	RPCClient    *solrpc.Client
	Monitor      *liquidity.Monitor
	FundingCache *cluster.Cache
	Probe        *tradability.Probe
	Sink         activity.Sink
}

// Orchestrator runs the gate algorithm. It holds no mutable state of
// its own beyond its config, collaborators, and a bounded decision
// history for dashboards; concurrency control for a single evaluation
// lives entirely within Evaluate's call stack.
type Orchestrator struct {
	config        Config
	collaborators Collaborators
	onDecision    func(candidate.Candidate, candidate.Decision)
	history       *decisionHistory
}

// New builds an Orchestrator.
func New(config Config, collaborators Collaborators) *Orchestrator {
	return &Orchestrator{config: config, collaborators: collaborators, history: newDecisionHistory(200)}
}

// DecisionRecord pairs a Decision with the token symbol it was made
// for, for dashboard consumption.
type DecisionRecord struct {
	TokenSymbol string
	Decision    candidate.Decision
}

// RecentDecisions returns up to n of the most recent decisions,
// oldest first, grounded on activity.MemorySink's bounded ring buffer.
func (o *Orchestrator) RecentDecisions(n int) []DecisionRecord {
	return o.history.recent(n)
}

// decisionHistory is a bounded, drop-oldest ring buffer of past
// decisions, mirroring activity.MemorySink's shape.
type decisionHistory struct {
	mu      sync.Mutex
	records []DecisionRecord
	cap     int
	head    int
	size    int
}

func newDecisionHistory(capacity int) *decisionHistory {
	if capacity <= 0 {
		capacity = 200
	}
	return &decisionHistory{records: make([]DecisionRecord, capacity), cap: capacity}
}

func (h *decisionHistory) record(r DecisionRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := (h.head + h.size) % h.cap
	h.records[idx] = r
	if h.size < h.cap {
		h.size++
	} else {
		h.head = (h.head + 1) % h.cap
	}
}

func (h *decisionHistory) recent(n int) []DecisionRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n <= 0 || n > h.size {
		n = h.size
	}
	out := make([]DecisionRecord, n)
	start := h.head + h.size - n
	for i := 0; i < n; i++ {
		out[i] = h.records[(start+i)%h.cap]
	}
	return out
}

// OnDecision registers a callback invoked after every evaluation,
// generalized from the teacher Executor's onTradeExecuted hook.
func (o *Orchestrator) OnDecision(fn func(candidate.Candidate, candidate.Decision)) {
	o.onDecision = fn
}
