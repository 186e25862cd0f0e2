package quote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func jsonServer(t *testing.T, delay time.Duration, outAmount string, priceImpact string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		resp := aggregatorResponse{
			OutAmount:      outAmount,
			PriceImpactPct: priceImpact,
			RoutePlan: []struct {
				SwapInfo struct {
					Label  string `json:"label"`
					AmmKey string `json:"ammKey"`
				} `json:"swapInfo"`
			}{{}},
		}
		resp.RoutePlan[0].SwapInfo.Label = "raydium"
		resp.RoutePlan[0].SwapInfo.AmmKey = "pool123"
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestBuyQuote_FirstNonErrorWins(t *testing.T) {
	slow := jsonServer(t, 200*time.Millisecond, "1000", "1.0")
	defer slow.Close()
	fast := jsonServer(t, 0, "2000", "1.0")
	defer fast.Close()

	c := NewClient([]Endpoint{
		{Name: "slow", BaseURL: slow.URL},
		{Name: "fast", BaseURL: fast.URL},
	})

	res := c.BuyQuote(context.Background(), "MintAddress111111111111111111111111111111", 1_000_000, 100)
	if !res.Success || !res.HasRoute {
		t.Fatalf("expected successful route, got %+v", res)
	}
	if res.OutAmount != 2000 {
		t.Errorf("expected fast endpoint's 2000 out amount, got %d", res.OutAmount)
	}
}

func TestBuyQuote_CachesWithinTTL(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(aggregatorResponse{OutAmount: "500", PriceImpactPct: "1.0"})
	}))
	defer srv.Close()

	c := NewClient([]Endpoint{{Name: "only", BaseURL: srv.URL}})

	mint := "MintAddress111111111111111111111111111111"
	first := c.BuyQuote(context.Background(), mint, 1_000_000, 100)
	second := c.BuyQuote(context.Background(), mint, 1_000_000, 100)

	if calls != 1 {
		t.Errorf("expected 1 upstream call due to cache hit, got %d", calls)
	}
	if first.OutAmount != second.OutAmount {
		t.Errorf("cached result mismatch: %+v vs %+v", first, second)
	}
}

func TestBuyQuote_RejectsExtremePriceImpact(t *testing.T) {
	srv := jsonServer(t, 0, "1000", "75.0")
	defer srv.Close()

	c := NewClient([]Endpoint{{Name: "only", BaseURL: srv.URL}})
	res := c.BuyQuote(context.Background(), "MintAddress222222222222222222222222222222", 1_000_000, 100)

	if res.HasRoute {
		t.Errorf("expected has_route=false for >50%% price impact, got %+v", res)
	}
}

func TestBuyQuote_RateLimitTripsBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient([]Endpoint{{Name: "only", BaseURL: srv.URL}})
	mint := "MintAddress333333333333333333333333333333"

	res := c.BuyQuote(context.Background(), mint, 1_000_000, 100)
	if res.Success {
		t.Fatalf("expected failure on 429, got %+v", res)
	}
	if !c.breaker.isOpen() {
		t.Fatalf("expected circuit breaker to trip after rate-limited failure")
	}

	res2 := c.BuyQuote(context.Background(), mint+"x", 1_000_000, 100)
	if res2.Success {
		t.Errorf("expected immediate failure while breaker is open, got %+v", res2)
	}
}
