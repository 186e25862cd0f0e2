package rules

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"solana-gate/internal/candidate"
	"solana-gate/internal/quote"
)

func TestSymbolSpoofing_RejectsImpersonator(t *testing.T) {
	c := candidate.Candidate{
		TokenSymbol:  "USDC",
		TokenAddress: "SomeRandomMint111111111111111111111111111",
	}
	result := SymbolSpoofing(c, &RuleContext{})
	if result.Passed {
		t.Fatalf("expected SYMBOL_SPOOFING to fail for impersonator")
	}
	if result.RuleID != candidate.RuleSymbolSpoofing {
		t.Errorf("unexpected rule id: %s", result.RuleID)
	}
}

func TestSymbolSpoofing_AllowsOfficialMint(t *testing.T) {
	c := candidate.Candidate{
		TokenSymbol:  "USDC",
		TokenAddress: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	}
	result := SymbolSpoofing(c, &RuleContext{})
	if !result.Passed {
		t.Fatalf("expected SYMBOL_SPOOFING to pass for official mint, got reason: %s", result.Reason)
	}
}

func TestSymbolSpoofing_AllowsUnprotectedSymbol(t *testing.T) {
	c := candidate.Candidate{TokenSymbol: "WOOFCAT", TokenAddress: "Mint1111111111111111111111111111111111111"}
	result := SymbolSpoofing(c, &RuleContext{})
	if !result.Passed {
		t.Fatalf("expected unprotected symbol to pass")
	}
}

func TestExecutableSell_FailsWithoutBuyRoute(t *testing.T) {
	c := candidate.Candidate{HasBuyRoute: false}
	result := ExecutableSell(c, &RuleContext{})
	if result.Passed {
		t.Fatalf("expected EXECUTABLE_SELL to fail without a buy route")
	}
}

func TestExecutableSell_ConfirmedRoutePopulatesDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"outAmount":      "500000000",
			"priceImpactPct": "1.5",
			"routePlan": []map[string]any{
				{"swapInfo": map[string]any{"label": "raydium", "ammKey": "pool123"}},
			},
		})
	}))
	defer srv.Close()

	c := candidate.Candidate{
		TokenAddress: "Mint1111111111111111111111111111111111111",
		HasBuyRoute:  true,
	}
	rc := &RuleContext{Ctx: context.Background(), QuoteClient: quote.NewClient([]quote.Endpoint{{Name: "only", BaseURL: srv.URL}})}
	result := ExecutableSell(c, rc)
	if !result.Passed {
		t.Fatalf("expected EXECUTABLE_SELL to pass with a confirmed route, got %+v", result)
	}
	if confirmed, _ := result.Details["sell_route_confirmed"].(bool); !confirmed {
		t.Fatalf("expected sell_route_confirmed=true in Details, got %+v", result.Details)
	}
	if bps, _ := result.Details["sell_slippage_bps"].(int); bps != 150 {
		t.Fatalf("expected sell_slippage_bps=150 (1.5%% in bps), got %v", result.Details["sell_slippage_bps"])
	}
}

func TestBuyerPosition_PassesWhenUnrestricted(t *testing.T) {
	c := candidate.Candidate{}
	result := BuyerPosition(c, &RuleContext{})
	if !result.Passed {
		t.Fatalf("expected pass when target_buyer_positions is empty")
	}
}

func TestBuyerPosition_FailsOutsideTargetSet(t *testing.T) {
	c := candidate.Candidate{
		TargetBuyerPositions: map[int]bool{1: true, 2: true},
		BuyerPosition:        5,
	}
	result := BuyerPosition(c, &RuleContext{})
	if result.Passed {
		t.Fatalf("expected fail when buyer position is outside target set")
	}
}

func TestHolderEntropy_HardBlocksSingleHolderOver50Pct(t *testing.T) {
	c := candidate.Candidate{
		TopHolders: []candidate.TopHolder{
			{Address: "A", Percent: decimal.NewFromInt(55)},
			{Address: "B", Percent: decimal.NewFromInt(20)},
			{Address: "C", Percent: decimal.NewFromInt(25)},
		},
	}
	result := HolderEntropy(c, &RuleContext{})
	if result.Passed || !result.HardBlock {
		t.Fatalf("expected hard-block for single holder over 50%%, got %+v", result)
	}
}

func TestRugProbability_PassesForHealthyCandidate(t *testing.T) {
	c := candidate.Candidate{
		FDVUSD:       decimal.NewFromInt(1_000_000),
		LiquidityUSD: decimal.NewFromInt(150_000),
		TopHolders: []candidate.TopHolder{
			{Address: "A", Percent: decimal.NewFromInt(10)},
			{Address: "B", Percent: decimal.NewFromInt(10)},
			{Address: "C", Percent: decimal.NewFromInt(10)},
			{Address: "D", Percent: decimal.NewFromInt(10)},
		},
	}
	result := RugProbability(c, &RuleContext{})
	if !result.Passed {
		t.Errorf("expected RUG_PROBABILITY to pass for a healthy candidate, got %+v", result)
	}
}
