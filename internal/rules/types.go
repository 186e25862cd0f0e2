// Package rules implements the ~23 independent rule functions of the
// Rule Catalog (spec §4.E): structural hard-blocks, behavioral-penalty
// rules, and standard rules, each a pure-where-possible function of a
// Candidate plus whatever collaborators it needs.
package rules

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"solana-gate/internal/candidate"
	"solana-gate/internal/cluster"
	"solana-gate/internal/liquidity"
	"solana-gate/internal/quote"
	"solana-gate/internal/solrpc"
	"solana-gate/internal/tradability"
)

// RuleResult is one rule's verdict, produced independently of the
// candidate it was computed from (DESIGN NOTES §9: never attach this
// back onto the Candidate).
type RuleResult struct {
	RuleID    candidate.RuleID
	Passed    bool
	Skipped   bool
	Reason    string
	Penalty   decimal.Decimal
	HardBlock bool
	Details   map[string]any
}

// skipped builds a skipped-rule result (disabled toggle, tier gating,
// or insufficient data).
func skipped(id candidate.RuleID, reason string) RuleResult {
	return RuleResult{RuleID: id, Passed: true, Skipped: true, Reason: reason, Penalty: decimal.Zero}
}

func passed(id candidate.RuleID) RuleResult {
	return RuleResult{RuleID: id, Passed: true, Penalty: decimal.Zero}
}

func failed(id candidate.RuleID, reason string, penalty decimal.Decimal, hardBlock bool) RuleResult {
	return RuleResult{RuleID: id, Passed: false, Reason: reason, Penalty: penalty, HardBlock: hardBlock}
}

// RuleContext carries the collaborators a rule may need. All fields
// are optional; a rule whose collaborator is nil must skip rather than
// panic.
type RuleContext struct {
	Ctx          context.Context
	QuoteClient  *quote.Client
	RPCClient    *solrpc.Client
	Monitor      *liquidity.Monitor
	FundingCache *cluster.Cache
	Probe        *tradability.Probe
	Now          time.Time
}

// Rule is the signature every catalog entry satisfies.
type Rule func(c candidate.Candidate, rc *RuleContext) RuleResult

// defaultPenalty is used when a failing rule does not compute its own
// penalty value (spec §4.F step 5).
var defaultPenalty = decimal.NewFromInt(15)

// DefaultPenalty exposes defaultPenalty to the orchestrator, which
// applies it when a failing RuleResult leaves Penalty at zero.
func DefaultPenalty() decimal.Decimal {
	return defaultPenalty
}
