package rules

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"solana-gate/internal/candidate"
	"solana-gate/internal/solrpc"
)

func TestCapitalPreservation_SkipsWhenTierFeatureDisabled(t *testing.T) {
	c := candidate.Candidate{TierFeatures: candidate.TierFeatures{CapitalPreservation: false}}
	result := CapitalPreservation(c, &RuleContext{})
	if !result.Skipped {
		t.Fatalf("expected skip when tier feature disabled, got %+v", result)
	}
}

func TestCapitalPreservation_SkipsWithoutProbeTx(t *testing.T) {
	c := candidate.Candidate{
		TierFeatures:  candidate.TierFeatures{CapitalPreservation: true},
		StressProbeTx: "",
	}
	rc := &RuleContext{Ctx: context.Background(), RPCClient: solrpc.NewClient([]solrpc.Endpoint{{Name: "x", URL: "http://localhost"}})}
	result := CapitalPreservation(c, rc)
	if !result.Skipped {
		t.Fatalf("expected skip without a stress-probe transaction, got %+v", result)
	}
}

func TestCapitalPreservation_PassesOnSimOK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":{"err":null,"logs":[]}}}`))
	}))
	defer ts.Close()

	c := candidate.Candidate{
		TierFeatures:  candidate.TierFeatures{CapitalPreservation: true},
		StressProbeTx: "ZGVhZGJlZWY=",
	}
	rc := &RuleContext{Ctx: context.Background(), RPCClient: solrpc.NewClient([]solrpc.Endpoint{{Name: "test", URL: ts.URL}})}
	result := CapitalPreservation(c, rc)
	if !result.Passed {
		t.Fatalf("expected SIM_OK to pass, got %+v", result)
	}
}

func TestCapitalPreservation_HardBlocksOnSimFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":{"err":{"InstructionError":[0,"Custom"]},"logs":[]}}}`))
	}))
	defer ts.Close()

	c := candidate.Candidate{
		TierFeatures:  candidate.TierFeatures{CapitalPreservation: true},
		StressProbeTx: "ZGVhZGJlZWY=",
	}
	rc := &RuleContext{Ctx: context.Background(), RPCClient: solrpc.NewClient([]solrpc.Endpoint{{Name: "test", URL: ts.URL}})}
	result := CapitalPreservation(c, rc)
	if result.Passed || !result.HardBlock {
		t.Fatalf("expected a failed simulation to hard-block, got %+v", result)
	}
}
