package solrpc

import (
	"bytes"
	"testing"
)

func samplePool() *PoolAccount {
	p := &PoolAccount{
		Status:        6,
		OpenTime:      1732000000,
		BaseDecimals:  9,
		QuoteDecimals: 6,
	}
	for i := range p.BaseMint {
		p.BaseMint[i] = byte(i + 1)
	}
	for i := range p.QuoteMint {
		p.QuoteMint[i] = byte(i + 2)
	}
	for i := range p.BaseVault {
		p.BaseVault[i] = byte(i + 3)
	}
	for i := range p.QuoteVault {
		p.QuoteVault[i] = byte(i + 4)
	}
	return p
}

func TestDecodePoolAccount_RoundTrip(t *testing.T) {
	want := samplePool()
	data := EncodePoolAccount(want)

	got, err := DecodePoolAccount(data, RaydiumAMMV4Program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Status != want.Status {
		t.Errorf("status: got %d, want %d", got.Status, want.Status)
	}
	if got.OpenTime != want.OpenTime {
		t.Errorf("open_time: got %d, want %d", got.OpenTime, want.OpenTime)
	}
	if got.BaseDecimals != want.BaseDecimals || got.QuoteDecimals != want.QuoteDecimals {
		t.Errorf("decimals: got (%d,%d), want (%d,%d)", got.BaseDecimals, got.QuoteDecimals, want.BaseDecimals, want.QuoteDecimals)
	}
	if !bytes.Equal(got.BaseMint[:], want.BaseMint[:]) {
		t.Errorf("base_mint mismatch")
	}
	if !bytes.Equal(got.QuoteMint[:], want.QuoteMint[:]) {
		t.Errorf("quote_mint mismatch")
	}
	if !bytes.Equal(got.BaseVault[:], want.BaseVault[:]) {
		t.Errorf("base_vault mismatch")
	}
	if !bytes.Equal(got.QuoteVault[:], want.QuoteVault[:]) {
		t.Errorf("quote_vault mismatch")
	}
}

func TestDecodePoolAccount_RejectsWrongOwner(t *testing.T) {
	data := EncodePoolAccount(samplePool())
	_, err := DecodePoolAccount(data, "SomeOtherProgram11111111111111111111111111")
	if err != ErrNotRaydiumPool {
		t.Fatalf("expected ErrNotRaydiumPool, got %v", err)
	}
}

func TestDecodePoolAccount_RejectsShortAccount(t *testing.T) {
	_, err := DecodePoolAccount(make([]byte, 10), RaydiumAMMV4Program)
	if err == nil {
		t.Fatalf("expected error for undersized account")
	}
}
