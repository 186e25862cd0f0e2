package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana-gate/internal/activity"
	"solana-gate/internal/candidate"
	"solana-gate/internal/exit"
)

type fakeOrchestrator struct {
	decision candidate.Decision
}

func (f *fakeOrchestrator) Evaluate(ctx context.Context, c candidate.Candidate) candidate.Decision {
	return f.decision
}

func TestServer_SubmitCandidateReturnsDecision(t *testing.T) {
	fake := &fakeOrchestrator{decision: candidate.Decision{
		State:     candidate.StateExecutable,
		RiskScore: decimal.NewFromInt(80),
		Timestamp: time.Now(),
	}}
	server := NewServer("0.0.0.0", 0, fake, nil, nil, nil)

	payload := candidate.Candidate{
		TokenAddress:  "So11111111111111111111111111111111111111112",
		TokenSymbol:   "WOOFCAT",
		TokenName:     "Woof Cat",
		LiquidityUSD:  decimal.NewFromInt(150_000),
		ExecutionMode: candidate.ModeManual,
	}
	body, _ := json.Marshal(payload)

	req, _ := http.NewRequest("POST", "/candidates", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.app.Test(req, 1000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got candidate.Decision
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.State != candidate.StateExecutable {
		t.Fatalf("expected EXECUTABLE, got %s", got.State)
	}
}

func TestServer_SubmitCandidateRejectsInvalidPayload(t *testing.T) {
	fake := &fakeOrchestrator{}
	server := NewServer("0.0.0.0", 0, fake, nil, nil, nil)

	payload := candidate.Candidate{TokenSymbol: "BAD"} // missing token_address, execution_mode
	body, _ := json.Marshal(payload)

	req, _ := http.NewRequest("POST", "/candidates", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.app.Test(req, 1000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestServer_ActivityEndpointReturnsRecentEntries(t *testing.T) {
	sink := activity.NewMemorySink(10)
	sink.Emit(activity.Entry{TokenSymbol: "WOOFCAT", Level: activity.LevelInfo, Category: activity.CategoryEvaluate, Message: "evaluated", Timestamp: time.Now()})

	server := NewServer("0.0.0.0", 0, &fakeOrchestrator{}, nil, sink, nil)

	req, _ := http.NewRequest("GET", "/activity", nil)
	resp, err := server.app.Test(req, 1000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got []activity.Entry
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 1 || got[0].TokenSymbol != "WOOFCAT" {
		t.Fatalf("expected one WOOFCAT entry, got %+v", got)
	}
}

func TestServer_OpenPositionRegistersWithEngine(t *testing.T) {
	engine := exit.New(exit.Config{}, exit.Collaborators{})
	server := NewServer("0.0.0.0", 0, &fakeOrchestrator{}, engine, nil, nil)

	payload := map[string]any{
		"token_address":   "So11111111111111111111111111111111111111112",
		"token_symbol":    "WOOFCAT",
		"amount":          1_000_000,
		"entry_sol":       0.5,
		"entry_price_usd": 0.002,
	}
	body, _ := json.Marshal(payload)

	req, _ := http.NewRequest("POST", "/positions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.app.Test(req, 1000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var got exit.Position
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID == "" {
		t.Fatal("expected a generated position ID")
	}

	if len(engine.Positions()) != 1 {
		t.Fatalf("expected engine to track the opened position, got %d", len(engine.Positions()))
	}
}

func TestServer_OpenPositionRejectsMissingFields(t *testing.T) {
	engine := exit.New(exit.Config{}, exit.Collaborators{})
	server := NewServer("0.0.0.0", 0, &fakeOrchestrator{}, engine, nil, nil)

	req, _ := http.NewRequest("POST", "/positions", bytes.NewReader([]byte(`{"token_symbol":"BAD"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.app.Test(req, 1000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestServer_HealthEndpoint(t *testing.T) {
	server := NewServer("0.0.0.0", 0, &fakeOrchestrator{}, nil, nil, nil)

	req, _ := http.NewRequest("GET", "/health", nil)
	resp, err := server.app.Test(req, 1000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
