package liquidity

import (
	"sync"
	"time"
)

// Session is a single token's monitoring state, exclusively owned by
// the monitor (spec §3 Ownership). Grounded on trading.Position's
// mutex-guarded mutate/Snapshot split: mutations go through dedicated
// methods, reads get a value copy, never a pointer into live state.
type Session struct {
	mu sync.Mutex

	tokenAddress       string
	startedAt          time.Time
	initialLiquidityUSD float64
	deployerWallet     string

	snapshots      []Snapshot
	volumeByWallet map[string]*WalletVolume
	counters       Counters
	isActive       bool
}

func newSession(tokenAddress string, initialLiquidityUSD, initialPriceUSD float64, opts StartOpts) *Session {
	now := time.Now()
	return &Session{
		tokenAddress:        tokenAddress,
		startedAt:           now,
		initialLiquidityUSD: initialLiquidityUSD,
		deployerWallet:      opts.DeployerWallet,
		snapshots:           []Snapshot{{Timestamp: now, LiqUSD: initialLiquidityUSD, PriceUSD: initialPriceUSD}},
		volumeByWallet:      make(map[string]*WalletVolume),
		isActive:            true,
	}
}

// AddSnapshot appends a new time-ordered observation (spec §3 invariant:
// snapshots are append-only and time-ordered).
func (s *Session) AddSnapshot(liqUSD, priceUSD float64, vol24h *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, Snapshot{
		Timestamp: time.Now(),
		LiqUSD:    liqUSD,
		PriceUSD:  priceUSD,
		Vol24h:    vol24h,
	})
}

// RecordTransaction records a buy or sell by wallet, in USD.
func (s *Session) RecordTransaction(wallet string, isBuy bool, usd float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wv, ok := s.volumeByWallet[wallet]
	if !ok {
		wv = &WalletVolume{}
		s.volumeByWallet[wallet] = wv
	}
	if isBuy {
		wv.BuyUSD += usd
	} else {
		wv.SellUSD += usd
	}
	wv.TxCount++
}

func (s *Session) RecordLPWithdrawal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.LPWithdrawals++
}

func (s *Session) RecordLPMint() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.LPMintEvents++
}

func (s *Session) RecordLPAuthorityChange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.LPAuthorityChanges++
}

func (s *Session) RecordLPSupplyChange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.LPSupplyChanges++
}

// RecordDeployerLPTransfer records an LP transfer from wallet, counted
// only when it matches the session's tracked deployer wallet.
func (s *Session) RecordDeployerLPTransfer(wallet string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deployerWallet != "" && wallet == s.deployerWallet {
		s.counters.DeployerLPTransfers++
	}
}

func (s *Session) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isActive = false
}

func (s *Session) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isActive
}

func (s *Session) age() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.startedAt)
}

// evaluate derives the stability Result from the session's current
// state (spec §4.D evaluator).
func (s *Session) evaluate() Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.initialLiquidityUSD
	if len(s.snapshots) > 0 {
		current = s.snapshots[len(s.snapshots)-1].LiqUSD
	}

	dropPct := 0.0
	if s.initialLiquidityUSD > 0 {
		dropPct = (s.initialLiquidityUSD - current) / s.initialLiquidityUSD * 100
	}

	var totalBuy, maxSingleBuy float64
	for _, wv := range s.volumeByWallet {
		totalBuy += wv.BuyUSD
		if wv.BuyUSD > maxSingleBuy {
			maxSingleBuy = wv.BuyUSD
		}
	}
	dominantPct := 0.0
	if totalBuy > 0 {
		dominantPct = maxSingleBuy / totalBuy * 100
	}

	structuralFlag := s.counters.LPWithdrawals > 0 ||
		s.counters.LPMintEvents > 0 ||
		s.counters.LPAuthorityChanges > 0 ||
		s.counters.LPSupplyChanges > 0 ||
		s.counters.DeployerLPTransfers > 0

	stable := dropPct <= stableMaxDropPercent && dominantPct <= stableMaxDominantBuyer && !structuralFlag

	return Result{
		LiquidityDropPercent: dropPct,
		DominantBuyerPercent: dominantPct,
		LPWithdrawalDetected: s.counters.LPWithdrawals > 0,
		LPMintEventDetected:  s.counters.LPMintEvents > 0,
		LPAuthorityChanged:   s.counters.LPAuthorityChanges > 0,
		LPSupplyIncreased:    s.counters.LPSupplyChanges > 0,
		DeployerLPTransfer:   s.counters.DeployerLPTransfers > 0,
		Stable:               stable,
	}
}
