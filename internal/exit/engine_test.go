package exit

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type fakePrices struct {
	price float64
	err   error
}

func (f *fakePrices) PriceUSD(ctx context.Context, tokenAddress string) (float64, error) {
	return f.price, f.err
}

type fakeSigner struct {
	calls int32
	txSig string
	err   error
}

func (f *fakeSigner) SignAndSubmitSell(ctx context.Context, mint string, amount uint64) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.txSig, f.err
}

func newTestPosition(entryPrice float64) *Position {
	return &Position{
		ID:            "pos-1",
		TokenAddress:  "Mint11111111111111111111111111111111111111",
		TokenSymbol:   "WOOFCAT",
		Amount:        1_000_000,
		EntryPriceUSD: entryPrice,
		OpenedAt:      time.Now(),
	}
}

func TestEngine_TakeProfitTriggersExit(t *testing.T) {
	signer := &fakeSigner{txSig: "sig123"}
	e := New(Config{TakeProfitPercent: 100, StopLossPercent: -30, AutoExecute: true}, Collaborators{
		Prices: &fakePrices{price: 0.02}, // entry 0.01 -> 100% gain
		Signer: signer,
	})
	p := newTestPosition(0.01)
	e.Open(p)

	e.scan(context.Background())

	if p.Status != StatusClosed || p.ExitReason != ReasonTakeProfit {
		t.Fatalf("expected take-profit close, got status=%s reason=%s", p.Status, p.ExitReason)
	}
	if atomic.LoadInt32(&signer.calls) != 1 {
		t.Fatalf("expected exactly one signer call, got %d", signer.calls)
	}
}

func TestEngine_StopLossTriggersExit(t *testing.T) {
	signer := &fakeSigner{txSig: "sig456"}
	e := New(Config{TakeProfitPercent: 100, StopLossPercent: -30, AutoExecute: true}, Collaborators{
		Prices: &fakePrices{price: 0.006}, // entry 0.01 -> -40% loss
		Signer: signer,
	})
	p := newTestPosition(0.01)
	e.Open(p)

	e.scan(context.Background())

	if p.Status != StatusClosed || p.ExitReason != ReasonStopLoss {
		t.Fatalf("expected stop-loss close, got status=%s reason=%s", p.Status, p.ExitReason)
	}
}

func TestEngine_NoTriggerLeavesPositionOpen(t *testing.T) {
	e := New(Config{TakeProfitPercent: 100, StopLossPercent: -30, AutoExecute: true}, Collaborators{
		Prices: &fakePrices{price: 0.0105}, // +5%, inside band
	})
	p := newTestPosition(0.01)
	e.Open(p)

	e.scan(context.Background())

	if p.Status != StatusOpen {
		t.Fatalf("expected position to remain open, got %s", p.Status)
	}
}

func TestEngine_AutoExecuteDisabledEmitsPendingNotificationOnly(t *testing.T) {
	signer := &fakeSigner{txSig: "should-not-be-used"}
	e := New(Config{TakeProfitPercent: 100, StopLossPercent: -30, AutoExecute: false}, Collaborators{
		Prices: &fakePrices{price: 0.02},
		Signer: signer,
	})
	p := newTestPosition(0.01)
	e.Open(p)

	e.scan(context.Background())

	if p.Status != StatusOpen {
		t.Fatalf("expected position to remain open pending manual action, got %s", p.Status)
	}
	if atomic.LoadInt32(&signer.calls) != 0 {
		t.Fatalf("expected signer to not be called when auto_execute is disabled")
	}
}

func TestEngine_ConcurrentTriggersCoalesceToOneSignerCall(t *testing.T) {
	signer := &fakeSigner{txSig: "sig789"}
	e := New(Config{TakeProfitPercent: 100, StopLossPercent: -30, AutoExecute: true}, Collaborators{
		Signer: signer,
	})
	p := newTestPosition(0.01)
	e.Open(p)

	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		go func() {
			e.requestExit(context.Background(), p, ReasonTakeProfit)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}

	if atomic.LoadInt32(&signer.calls) != 1 {
		t.Fatalf("expected exactly one signer call across concurrent triggers, got %d", signer.calls)
	}
}

func TestEngine_OnExitCallbackInvoked(t *testing.T) {
	signer := &fakeSigner{txSig: "sigabc"}
	e := New(Config{TakeProfitPercent: 100, StopLossPercent: -30, AutoExecute: true}, Collaborators{
		Prices: &fakePrices{price: 0.02},
		Signer: signer,
	})
	var closed *Position
	e.OnExit(func(p *Position) { closed = p })

	p := newTestPosition(0.01)
	e.Open(p)
	e.scan(context.Background())

	if closed == nil || closed.TokenAddress != p.TokenAddress {
		t.Fatalf("expected OnExit callback to fire with the closed position")
	}
}
