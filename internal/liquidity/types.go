// Package liquidity implements the LP/Liquidity Monitor: a process-wide
// per-token Session store with snapshots, wallet-volume tracking, LP
// event counters, and an evaluator that derives stability — spec §4.D.
package liquidity

import "time"

// MonitoringDuration is the nominal monitoring window; sessions are
// evicted once they exceed 2x this age (spec §3 Monitoring Session).
const MonitoringDuration = 240 * time.Second

// Snapshot is one point-in-time liquidity/price observation.
type Snapshot struct {
	Timestamp time.Time
	LiqUSD    float64
	PriceUSD  float64
	Vol24h    *float64
}

// WalletVolume tracks one wallet's buy/sell activity within a session.
type WalletVolume struct {
	BuyUSD  float64
	SellUSD float64
	TxCount int
}

// Counters tracks LP structural events for a session.
type Counters struct {
	LPWithdrawals       int
	LPMintEvents        int
	LPAuthorityChanges  int
	LPSupplyChanges     int
	DeployerLPTransfers int
}

// StartOpts configures an optional deployer wallet to watch for
// LP-transfer events.
type StartOpts struct {
	DeployerWallet string
}

// Result is the output of Evaluate (spec §4.D).
type Result struct {
	LiquidityDropPercent  float64
	DominantBuyerPercent  float64
	LPWithdrawalDetected  bool
	LPMintEventDetected   bool
	LPAuthorityChanged    bool
	LPSupplyIncreased     bool
	DeployerLPTransfer    bool
	Stable                bool
}

const (
	stableMaxDropPercent    = 30.0
	stableMaxDominantBuyer  = 70.0
)
