// Package candidate holds the gate's input/output data model: the
// Candidate a caller submits for evaluation and the Decision the gate
// emits in response.
package candidate

import (
	"time"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

// ExecutionMode selects the minimum score required for EXECUTABLE.
type ExecutionMode string

const (
	ModeAuto   ExecutionMode = "auto"
	ModeManual ExecutionMode = "manual"
)

// MinScore returns the mode_min threshold from spec §3.
func (m ExecutionMode) MinScore() decimal.Decimal {
	if m == ModeManual {
		return decimal.NewFromInt(55)
	}
	return decimal.NewFromInt(65)
}

// TopHolder is one entry of a holder distribution.
type TopHolder struct {
	Address string
	Percent decimal.Decimal
}

// TimestampedBuy is a recent buy with timing for cluster/freshness checks.
type TimestampedBuy struct {
	Address string
	AmountSOL decimal.Decimal
	Timestamp time.Time
}

// BuyerTimestamp records a buyer's first-seen time and optional funder,
// used by wallet-cluster and funding-source rules.
type BuyerTimestamp struct {
	Address   string
	Timestamp time.Time
	Funder    string // empty if unknown
}

// TierFeatures are the subscription-tier boolean flags the gate consumes.
// The tier/billing system itself is an external collaborator (spec §1).
type TierFeatures struct {
	AdvancedClustering  bool
	CapitalPreservation bool
}

// Candidate is the immutable input to the Gate Orchestrator. It is
// value-copied into the orchestrator; callers retain ownership of
// whatever they built it from (spec §3 Ownership).
type Candidate struct {
	// required
	TokenAddress   string
	TokenSymbol    string
	TokenName      string
	LiquidityUSD   decimal.Decimal
	ExecutionMode  ExecutionMode

	// tradability
	PoolCreatedAt  time.Time
	HasBuyRoute    bool
	BuySlippageBps int
	IsPumpFun      bool
	SourceTag      string

	// holders
	HolderCount int
	TopHolders  []TopHolder
	HolderData  []TopHolder

	// wallets
	DeployerWallet   string
	LPCreatorWallet  string
	BuyerWallets     []string
	RecentBuyers     []TimestampedBuy
	BuyerTimestamps  []BuyerTimestamp

	// market
	PriceUSD         decimal.Decimal
	PreviousPriceUSD decimal.Decimal
	FDVUSD           decimal.Decimal
	MarketCapUSD     decimal.Decimal
	BuyAmountSOL     decimal.Decimal
	MaxSlippageBps   int
	SOLPriceUSD      decimal.Decimal

	// lp shape
	LPMintAddress            string
	LPHolderConcentration    decimal.Decimal // 0-100
	LPOwnerIsDeployer        bool
	LPRecentlyMinted         bool
	LPRecentlyTransferred    bool
	LiquidityAgeSeconds      int64

	// controls
	ValidationToggles map[RuleID]bool
	TierFeatures      TierFeatures

	// StressProbeTx is a base64-encoded, unsigned exit-stress
	// transaction (e.g. a sell-sized swap) assembled by the caller for
	// CAPITAL_PRESERVATION's simulateTransaction check. Building it
	// requires a wallet pubkey and pool routing, which live with the
	// caller's signing collaborator, not the rule layer; empty means
	// the rule has nothing to simulate and skips.
	StressProbeTx string

	// target buyer positions, used by BUYER_POSITION rule; empty = unrestricted
	TargetBuyerPositions map[int]bool
	BuyerPosition        int

	// mint-account facts supplied by the caller (the orchestrator does
	// not fetch them); FreezeAuthorityKnown is false when the caller
	// did not supply them.
	FreezeAuthorityNull  bool
	FreezeAuthorityKnown bool
}

// Validate checks the structural invariants from spec §3. It never
// mutates the Candidate and never panics.
func (c Candidate) Validate() []string {
	var problems []string

	if c.TokenAddress == "" {
		problems = append(problems, "missing token_address")
	} else if !isValidPubkey(c.TokenAddress) {
		problems = append(problems, "token_address is not a valid base58 pubkey")
	}
	if c.TokenSymbol == "" {
		problems = append(problems, "missing token_symbol")
	}
	if c.TokenName == "" {
		problems = append(problems, "missing token_name")
	}
	if c.LiquidityUSD.IsNegative() {
		problems = append(problems, "liquidity_usd must be >= 0")
	}
	if c.ExecutionMode != ModeAuto && c.ExecutionMode != ModeManual {
		problems = append(problems, "execution_mode must be auto or manual")
	}

	sum := decimal.Zero
	for _, h := range c.TopHolders {
		if h.Percent.IsNegative() || h.Percent.GreaterThan(decimal.NewFromInt(100)) {
			problems = append(problems, "top_holders percentage out of [0,100]")
		}
		sum = sum.Add(h.Percent)
	}
	epsilon := decimal.NewFromFloat(0.01)
	if sum.GreaterThan(decimal.NewFromInt(100).Add(epsilon)) {
		problems = append(problems, "top_holders percentages sum exceeds 100")
	}

	for _, addr := range []string{c.DeployerWallet, c.LPCreatorWallet, c.LPMintAddress} {
		if addr != "" && !isValidPubkey(addr) {
			problems = append(problems, "wallet/mint address is not a valid base58 pubkey: "+addr)
		}
	}

	return problems
}

func isValidPubkey(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(decoded) == 32
}

// State is the ternary outcome of a gate evaluation.
type State string

const (
	StateExecutable State = "EXECUTABLE"
	StateObserved   State = "OBSERVED"
	StateBlocked    State = "BLOCKED"
)

// RuleDetail captures one rule's contribution for the Decision's
// per-rule breakdown (spec §3 Decision.per_rule_details).
type RuleDetail struct {
	RuleID    RuleID
	Passed    bool
	Reason    string
	Penalty   decimal.Decimal
	HardBlock bool
	Details   map[string]any
}

// Decision is the Gate Orchestrator's output. Ownership passes to the
// caller once emitted (spec §3 Ownership).
type Decision struct {
	Allowed        bool
	State          State
	RiskScore      decimal.Decimal
	Reasons        []string
	FailedRules    []RuleID
	PassedRules    []RuleID
	Timestamp      time.Time
	PerRuleDetails []RuleDetail
	CapReasons     []string
	EarlyTrustBonus decimal.Decimal
	CorrelationID  string // groups this decision with its activity-log entries
}
