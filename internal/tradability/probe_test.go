package tradability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"solana-gate/internal/quote"
	"solana-gate/internal/solrpc"
)

func TestProbe_BondingCurveStageWins(t *testing.T) {
	bonding := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pumpFunCoinResponse{
			Mint:               "Mint1111111111111111111111111111111111111",
			Complete:           false,
			VirtualSolReserves: 30_000_000_000,
		})
	}))
	defer bonding.Close()

	qc := quote.NewClient(nil)
	rc := solrpc.NewClient(nil)
	p := NewProbe(bonding.URL, qc, rc, 5.0, 6)

	res := p.Probe(context.Background(), "Mint1111111111111111111111111111111111111")
	if res.Status != StatusTradable || res.Stage != StageBonding {
		t.Fatalf("expected bonding stage, got %+v", res)
	}
	if res.Liquidity != 30.0 {
		t.Errorf("expected liquidity 30.0, got %f", res.Liquidity)
	}
}

func TestProbe_FallsThroughToDiscarded(t *testing.T) {
	bonding := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bonding.Close()

	qc := quote.NewClient(nil) // no aggregator endpoints configured -> no route
	rc := solrpc.NewClient(nil)
	p := NewProbe(bonding.URL, qc, rc, 5.0, 6)

	res := p.Probe(context.Background(), "Mint2222222222222222222222222222222222222")
	if res.Status != StatusDiscarded {
		t.Fatalf("expected discarded, got %+v", res)
	}
}

func TestCheckPoolReadiness_RejectsUninitializedStatus(t *testing.T) {
	p := NewProbe("", quote.NewClient(nil), solrpc.NewClient(nil), 5.0, 6)
	pool := &solrpc.PoolAccount{Status: 3}
	check := p.CheckPoolReadiness(pool, 1000, 10, 10, 100)
	if check.Ready {
		t.Errorf("expected not ready for status 3")
	}
}

func TestCheckPoolReadiness_RejectsBelowMinLiquidity(t *testing.T) {
	p := NewProbe("", quote.NewClient(nil), solrpc.NewClient(nil), 50.0, 6)
	pool := &solrpc.PoolAccount{Status: 6, OpenTime: 500}
	check := p.CheckPoolReadiness(pool, 1000, 10, 10, 10)
	if check.Ready {
		t.Errorf("expected not ready below min liquidity")
	}
}

func TestCheckPoolReadiness_AcceptsHealthyPool(t *testing.T) {
	p := NewProbe("", quote.NewClient(nil), solrpc.NewClient(nil), 5.0, 6)
	pool := &solrpc.PoolAccount{Status: 6, OpenTime: 500}
	check := p.CheckPoolReadiness(pool, 1000, 10, 10, 100)
	if !check.Ready {
		t.Errorf("expected ready, got reason: %s", check.Reason)
	}
}
