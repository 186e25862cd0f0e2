package blockchain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendTransaction(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req RPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Method != "sendTransaction" {
			t.Errorf("expected method sendTransaction, got %s", req.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"5sigHash"}`))
	}))
	defer ts.Close()

	client := NewRPCClient(ts.URL, ts.URL, "test-api-key")
	sig, err := client.SendTransaction(context.Background(), "deadbeef==", true)
	if err != nil {
		t.Fatalf("SendTransaction failed: %v", err)
	}
	if sig != "5sigHash" {
		t.Errorf("expected signature 5sigHash, got %s", sig)
	}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"ok"}`))
	}))
	defer good.Close()

	client := NewRPCClient(bad.URL, good.URL, "")
	for i := 0; i < 5; i++ {
		if _, err := client.SendTransaction(context.Background(), "tx", true); err != nil {
			t.Fatalf("call %d: unexpected error from fallback: %v", i, err)
		}
	}
	if !client.isCircuitOpen() {
		t.Error("expected circuit breaker to open after 5 primary failures")
	}
}
