package solrpc

import (
	"encoding/binary"
	"fmt"
)

// RaydiumAMMV4Program is the on-chain program ID that must own any
// account passed to DecodePoolAccount.
const RaydiumAMMV4Program = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"

// pool account byte offsets, bit-exact per spec §6.
const (
	offsetStatus        = 0
	offsetOpenTime       = 8
	offsetBaseDecimals  = 24
	offsetQuoteDecimals = 25
	offsetBaseMint      = 72
	offsetQuoteMint     = 104
	offsetBaseVault     = 136
	offsetQuoteVault    = 168
	minPoolAccountLen   = 200
)

// PoolAccount is the decoded subset of a Raydium AMM V4 pool account
// needed by the tradability probe and liquidity monitor.
type PoolAccount struct {
	Status        uint8
	OpenTime      uint64
	BaseDecimals  uint8
	QuoteDecimals uint8
	BaseMint      [32]byte
	QuoteMint     [32]byte
	BaseVault     [32]byte
	QuoteVault    [32]byte
}

// ErrNotRaydiumPool is returned when the account owner does not match
// RaydiumAMMV4Program.
var ErrNotRaydiumPool = fmt.Errorf("account is not owned by the Raydium AMM V4 program")

// DecodePoolAccount decodes raw account data at the exact byte offsets
// the Raydium AMM V4 layout defines (spec §6). owner is the account's
// on-chain owner field, checked before any offset is read.
func DecodePoolAccount(data []byte, owner string) (*PoolAccount, error) {
	if owner != RaydiumAMMV4Program {
		return nil, ErrNotRaydiumPool
	}
	if len(data) < minPoolAccountLen {
		return nil, fmt.Errorf("pool account too short: got %d bytes, need at least %d", len(data), minPoolAccountLen)
	}

	p := &PoolAccount{
		Status:        data[offsetStatus],
		OpenTime:      binary.LittleEndian.Uint64(data[offsetOpenTime : offsetOpenTime+8]),
		BaseDecimals:  data[offsetBaseDecimals],
		QuoteDecimals: data[offsetQuoteDecimals],
	}
	copy(p.BaseMint[:], data[offsetBaseMint:offsetBaseMint+32])
	copy(p.QuoteMint[:], data[offsetQuoteMint:offsetQuoteMint+32])
	copy(p.BaseVault[:], data[offsetBaseVault:offsetBaseVault+32])
	copy(p.QuoteVault[:], data[offsetQuoteVault:offsetQuoteVault+32])

	return p, nil
}

// EncodePoolAccount is the inverse of DecodePoolAccount, writing a
// PoolAccount back out at the same offsets. Used by decode_test.go's
// round-trip property (spec §8) and by tests constructing synthetic
// pool accounts.
func EncodePoolAccount(p *PoolAccount) []byte {
	data := make([]byte, minPoolAccountLen)
	data[offsetStatus] = p.Status
	binary.LittleEndian.PutUint64(data[offsetOpenTime:offsetOpenTime+8], p.OpenTime)
	data[offsetBaseDecimals] = p.BaseDecimals
	data[offsetQuoteDecimals] = p.QuoteDecimals
	copy(data[offsetBaseMint:offsetBaseMint+32], p.BaseMint[:])
	copy(data[offsetQuoteMint:offsetQuoteMint+32], p.QuoteMint[:])
	copy(data[offsetBaseVault:offsetBaseVault+32], p.BaseVault[:])
	copy(data[offsetQuoteVault:offsetQuoteVault+32], p.QuoteVault[:])
	return data
}
