package gate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana-gate/internal/candidate"
	"solana-gate/internal/cluster"
	"solana-gate/internal/liquidity"
	"solana-gate/internal/quote"
	"solana-gate/internal/rules"
)

func rulesResultFor(id candidate.RuleID, passed, hardBlock bool, penalty decimal.Decimal) rules.RuleResult {
	return rules.RuleResult{RuleID: id, Passed: passed, HardBlock: hardBlock, Penalty: penalty, Reason: "test"}
}

func healthyCandidate() candidate.Candidate {
	return candidate.Candidate{
		TokenAddress:  "So11111111111111111111111111111111111111112",
		TokenSymbol:   "WOOFCAT",
		TokenName:     "Woof Cat",
		LiquidityUSD:  decimal.NewFromInt(150_000),
		ExecutionMode: candidate.ModeManual,
		PoolCreatedAt: time.Now().Add(-time.Hour),
		HasBuyRoute:   true,
		FDVUSD:        decimal.NewFromInt(1_000_000),
		TopHolders: []candidate.TopHolder{
			{Address: "A", Percent: decimal.NewFromInt(10)},
			{Address: "B", Percent: decimal.NewFromInt(10)},
			{Address: "C", Percent: decimal.NewFromInt(10)},
			{Address: "D", Percent: decimal.NewFromInt(10)},
		},
		LiquidityAgeSeconds: 600,
		HolderCount:         150,
		LPMintAddress:       "LPMint11111111111111111111111111111111111",
		FreezeAuthorityKnown: true,
		FreezeAuthorityNull:  true,
		PreviousPriceUSD:     decimal.NewFromFloat(0.01),
		PriceUSD:             decimal.NewFromFloat(0.0105),
		DeployerWallet:       "Deployer1111111111111111111111111111111111",
		RecentBuyers: []candidate.TimestampedBuy{
			{Address: "W1", AmountSOL: decimal.NewFromFloat(1.1), Timestamp: time.Now().Add(-50 * time.Second)},
			{Address: "W2", AmountSOL: decimal.NewFromFloat(2.3), Timestamp: time.Now().Add(-40 * time.Second)},
			{Address: "W3", AmountSOL: decimal.NewFromFloat(0.7), Timestamp: time.Now().Add(-30 * time.Second)},
			{Address: "W4", AmountSOL: decimal.NewFromFloat(1.9), Timestamp: time.Now().Add(-20 * time.Second)},
			{Address: "W5", AmountSOL: decimal.NewFromFloat(3.2), Timestamp: time.Now().Add(-10 * time.Second)},
		},
		BuyerTimestamps: []candidate.BuyerTimestamp{
			{Address: "W1", Timestamp: time.Now().Add(-50 * time.Second), Funder: "FunderA"},
			{Address: "W2", Timestamp: time.Now().Add(-40 * time.Second), Funder: "FunderB"},
		},
	}
}

func withFundingCache(wallet string) *cluster.Cache {
	cache := cluster.NewCache()
	cache.Put(cluster.FundingRecord{
		Address:           wallet,
		IsFresh:           false,
		IsCEXFunded:       true,
		WalletAgeHours:    500,
		InitialFundingSOL: 5,
	})
	return cache
}

func TestEvaluate_HealthyCandidateWithCollaboratorsIsExecutable(t *testing.T) {
	c := healthyCandidate()
	o := New(DefaultConfig(), Collaborators{
		FundingCache: withFundingCache(c.DeployerWallet),
		Monitor:      liquidity.NewMonitor(),
	})

	d := o.Evaluate(context.Background(), c)

	if d.State != candidate.StateExecutable {
		t.Fatalf("expected EXECUTABLE for a well-formed, high-liquidity candidate, got %s (reasons: %v)", d.State, d.Reasons)
	}
	if len(d.PerRuleDetails) == 0 {
		t.Fatalf("expected per-rule details to be populated")
	}
}

func TestEvaluate_InsufficientDataBlocksViaDataCompleteness(t *testing.T) {
	o := New(DefaultConfig(), Collaborators{})
	d := o.Evaluate(context.Background(), candidate.Candidate{
		TokenAddress:  "So11111111111111111111111111111111111111112",
		TokenSymbol:   "WOOFCAT",
		TokenName:     "Woof Cat",
		LiquidityUSD:  decimal.NewFromInt(10_000),
		ExecutionMode: candidate.ModeManual,
		HasBuyRoute:   true,
	})

	if d.State != candidate.StateBlocked || d.Allowed {
		t.Fatalf("expected a data-starved candidate with no collaborators to be BLOCKED, got %+v", d)
	}
}

func TestEvaluate_LPOwnedByDeployerHardBlocks(t *testing.T) {
	c := healthyCandidate()
	o := New(DefaultConfig(), Collaborators{
		FundingCache: withFundingCache(c.DeployerWallet),
		Monitor:      liquidity.NewMonitor(),
	})
	c.LPOwnerIsDeployer = true

	d := o.Evaluate(context.Background(), c)

	if d.State != candidate.StateBlocked || d.Allowed {
		t.Fatalf("expected hard-block for LP owned by deployer, got %+v", d)
	}
}

func TestEvaluate_SpoofedSymbolContributesToBlock(t *testing.T) {
	c := healthyCandidate()
	o := New(DefaultConfig(), Collaborators{
		FundingCache: withFundingCache(c.DeployerWallet),
		Monitor:      liquidity.NewMonitor(),
	})
	c.TokenSymbol = "USDC"
	c.TokenAddress = "NotTheRealUSDCMint11111111111111111111111"

	d := o.Evaluate(context.Background(), c)

	found := false
	for _, id := range d.FailedRules {
		if id == candidate.RuleSymbolSpoofing {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected SYMBOL_SPOOFING to be recorded as failed, got %+v", d.FailedRules)
	}
}

func TestTentativeState_ObservedBandCoversNonZeroSubMinScores(t *testing.T) {
	modeMin := decimal.NewFromInt(65)

	if got := tentativeState(decimal.NewFromInt(70), modeMin); got != candidate.StateExecutable {
		t.Errorf("score above mode_min: got %s, want EXECUTABLE", got)
	}
	if got := tentativeState(decimal.NewFromInt(30), modeMin); got != candidate.StateObserved {
		t.Errorf("mid-range non-zero score: got %s, want OBSERVED", got)
	}
	if got := tentativeState(decimal.NewFromInt(1), modeMin); got != candidate.StateObserved {
		t.Errorf("barely-positive score: got %s, want OBSERVED", got)
	}
	if got := tentativeState(decimal.Zero, modeMin); got != candidate.StateBlocked {
		t.Errorf("zero score: got %s, want BLOCKED", got)
	}
}

func TestAggregate_BehavioralPenaltyFailureIsPassedWithPenaltyNotFailed(t *testing.T) {
	o := New(DefaultConfig(), Collaborators{})
	state := newEvalState()
	state.record(rulesResultFor(candidate.RuleHolderEntropy, false, false, decimal.NewFromInt(15)))

	d := o.aggregate(context.Background(), healthyCandidate(), state, time.Now())

	for _, id := range d.FailedRules {
		if id == candidate.RuleHolderEntropy {
			t.Fatalf("expected non-hard-block HOLDER_ENTROPY failure to stay out of FailedRules, got %+v", d.FailedRules)
		}
	}
	found := false
	for _, id := range d.PassedRules {
		if id == candidate.RuleHolderEntropy {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected non-hard-block HOLDER_ENTROPY failure to be classified passed-with-penalty, got %+v", d.PassedRules)
	}
}

func TestAggregate_BehavioralPenaltyHardBlockStillFails(t *testing.T) {
	o := New(DefaultConfig(), Collaborators{})
	state := newEvalState()
	state.record(rulesResultFor(candidate.RuleHolderEntropy, false, true, decimal.NewFromInt(60)))

	d := o.aggregate(context.Background(), healthyCandidate(), state, time.Now())

	found := false
	for _, id := range d.FailedRules {
		if id == candidate.RuleHolderEntropy {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected hard-block HOLDER_ENTROPY failure to remain in FailedRules, got %+v", d.FailedRules)
	}
	if d.State != candidate.StateBlocked {
		t.Fatalf("expected hard-block to BLOCK the decision, got %s", d.State)
	}
}

func TestConfirmWithObservationDelay_DemotesOnLiquidityDrift(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"outAmount":      "1000",
			"priceImpactPct": "1.0",
			"routePlan": []map[string]any{
				{"swapInfo": map[string]any{"label": "raydium", "ammKey": "pool123"}},
			},
		})
	}))
	defer srv.Close()

	config := DefaultConfig()
	config.ObservationDelay = time.Millisecond
	o := New(config, Collaborators{
		QuoteClient: quote.NewClient([]quote.Endpoint{{Name: "only", BaseURL: srv.URL}}),
	})

	c := candidate.Candidate{TokenAddress: "Mint1111111111111111111111111111111111111", LiquidityUSD: decimal.NewFromInt(50_000)}
	state := o.confirmWithObservationDelay(context.Background(), c, decimal.NewFromInt(70), decimal.NewFromInt(65))
	if state != candidate.StateObserved {
		t.Fatalf("expected a fresh quote reporting far lower liquidity to demote to OBSERVED, got %s", state)
	}
}

func TestConfirmWithObservationDelay_NoCollaboratorsStaysExecutable(t *testing.T) {
	config := DefaultConfig()
	config.ObservationDelay = time.Millisecond
	o := New(config, Collaborators{})

	c := candidate.Candidate{TokenAddress: "Mint1111111111111111111111111111111111111", LiquidityUSD: decimal.NewFromInt(50_000)}
	state := o.confirmWithObservationDelay(context.Background(), c, decimal.NewFromInt(70), decimal.NewFromInt(65))
	if state != candidate.StateExecutable {
		t.Fatalf("expected EXECUTABLE when no collaborator can re-sample liquidity, got %s", state)
	}
}

func TestEvaluate_OnDecisionCallbackInvoked(t *testing.T) {
	c := healthyCandidate()
	o := New(DefaultConfig(), Collaborators{
		FundingCache: withFundingCache(c.DeployerWallet),
		Monitor:      liquidity.NewMonitor(),
	})
	called := false
	o.OnDecision(func(c candidate.Candidate, d candidate.Decision) {
		called = true
	})
	o.Evaluate(context.Background(), c)

	if !called {
		t.Fatalf("expected OnDecision callback to run")
	}
}
