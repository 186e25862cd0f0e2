package liquidity

import (
	"encoding/json"
	"testing"
)

type fakeWSClient struct {
	handlers map[string]func(json.RawMessage)
}

func newFakeWSClient() *fakeWSClient {
	return &fakeWSClient{handlers: make(map[string]func(json.RawMessage))}
}

func (f *fakeWSClient) AccountSubscribe(address string, handler func(json.RawMessage)) (uint64, error) {
	f.handlers[address] = handler
	return 1, nil
}

func (f *fakeWSClient) notify(address string, payload string) {
	if h, ok := f.handlers[address]; ok {
		h(json.RawMessage(payload))
	}
}

func TestFeed_TrackPoolRecordsWithdrawalOnLamportDrop(t *testing.T) {
	ws := newFakeWSClient()
	monitor := NewMonitor()
	monitor.StartSession("Mint1111111111111111111111111111111111111", 50_000, 0.01, StartOpts{})

	feed := NewFeed(ws, monitor)
	if err := feed.TrackPool("Mint1111111111111111111111111111111111111", "Pool111111111111111111111111111111111111111"); err != nil {
		t.Fatalf("TrackPool failed: %v", err)
	}

	ws.notify("Pool111111111111111111111111111111111111111", `{"value":{"lamports":1000000}}`)
	ws.notify("Pool111111111111111111111111111111111111111", `{"value":{"lamports":100000}}`)

	result := monitor.Evaluate("Mint1111111111111111111111111111111111111")
	if !result.LPWithdrawalDetected {
		t.Fatalf("expected LP withdrawal to be detected after lamport drop")
	}
}

func TestFeed_TrackLPMintRecordsAuthorityChange(t *testing.T) {
	ws := newFakeWSClient()
	monitor := NewMonitor()
	monitor.StartSession("Mint2222222222222222222222222222222222222", 50_000, 0.01, StartOpts{})

	feed := NewFeed(ws, monitor)
	if err := feed.TrackLPMint("Mint2222222222222222222222222222222222222", "LPMint22222222222222222222222222222222222"); err != nil {
		t.Fatalf("TrackLPMint failed: %v", err)
	}

	ws.notify("LPMint22222222222222222222222222222222222", `{"value":{"data":{"parsed":{"info":{"supply":"1000","mintAuthority":"AuthorityA"}}}}}`)
	ws.notify("LPMint22222222222222222222222222222222222", `{"value":{"data":{"parsed":{"info":{"supply":"2000","mintAuthority":"AuthorityB"}}}}}`)

	result := monitor.Evaluate("Mint2222222222222222222222222222222222222")
	if !result.LPAuthorityChanged {
		t.Fatalf("expected LP authority change to be detected")
	}
	if !result.LPMintEventDetected || !result.LPSupplyIncreased {
		t.Fatalf("expected supply growth to register as a mint event")
	}
}
