package solrpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func rpcServer(t *testing.T, handler func(req Request) Response) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		resp := handler(req)
		resp.JSONRPC = "2.0"
		resp.ID = req.ID
		json.NewEncoder(w).Encode(resp)
	}))
}

func mustResult(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	return b
}

func TestGetSlot_UsesFirstHealthyEndpoint(t *testing.T) {
	srv := rpcServer(t, func(req Request) Response {
		return Response{Result: mustResult(t, 12345)}
	})
	defer srv.Close()

	c := NewClient([]Endpoint{{Name: "primary", URL: srv.URL}})
	slot, err := c.GetSlot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot != 12345 {
		t.Errorf("got slot %d, want 12345", slot)
	}
}

func TestGetSlot_CascadesToFallback(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := rpcServer(t, func(req Request) Response {
		return Response{Result: mustResult(t, 999)}
	})
	defer good.Close()

	c := NewClient([]Endpoint{
		{Name: "primary", URL: bad.URL},
		{Name: "fallback", URL: good.URL},
	})
	slot, err := c.GetSlot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot != 999 {
		t.Errorf("got slot %d, want 999 from fallback endpoint", slot)
	}
}

func TestGetTokenSupplyParallel_QueriesAllEndpoints(t *testing.T) {
	srvA := rpcServer(t, func(req Request) Response {
		return Response{Result: mustResult(t, map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value":   map[string]interface{}{"amount": "1000000", "decimals": 6},
		})}
	})
	defer srvA.Close()
	srvB := rpcServer(t, func(req Request) Response {
		return Response{Result: mustResult(t, map[string]interface{}{
			"context": map[string]interface{}{"slot": 2},
			"value":   map[string]interface{}{"amount": "1000000", "decimals": 6},
		})}
	})
	defer srvB.Close()

	c := NewClient([]Endpoint{
		{Name: "a", URL: srvA.URL},
		{Name: "b", URL: srvB.URL},
	})

	results := c.GetTokenSupplyParallel(context.Background(), "Mint1111111111111111111111111111111111111")
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("endpoint %s: unexpected error %v", r.Endpoint, r.Err)
		}
		if r.Supply != 1000000 {
			t.Errorf("endpoint %s: got supply %d, want 1000000", r.Endpoint, r.Supply)
		}
	}
}

func TestSimulateTransaction_ClassifiesNotReady(t *testing.T) {
	srv := rpcServer(t, func(req Request) Response {
		return Response{Result: mustResult(t, map[string]interface{}{
			"value": map[string]interface{}{
				"err": map[string]interface{}{"InstructionError": []interface{}{0, "NotOpenTimeYet"}},
			},
		})}
	})
	defer srv.Close()

	c := NewClient([]Endpoint{{Name: "only", URL: srv.URL}})
	res := c.SimulateTransaction(context.Background(), base64.StdEncoding.EncodeToString([]byte("tx")))
	if res.Outcome != "NOT_READY" {
		t.Errorf("got outcome %s, want NOT_READY", res.Outcome)
	}
}

func TestSimulateTransaction_OkWhenNoError(t *testing.T) {
	srv := rpcServer(t, func(req Request) Response {
		return Response{Result: mustResult(t, map[string]interface{}{
			"value": map[string]interface{}{"err": nil},
		})}
	})
	defer srv.Close()

	c := NewClient([]Endpoint{{Name: "only", URL: srv.URL}})
	res := c.SimulateTransaction(context.Background(), base64.StdEncoding.EncodeToString([]byte("tx")))
	if res.Outcome != "SIM_OK" {
		t.Errorf("got outcome %s, want SIM_OK", res.Outcome)
	}
}
