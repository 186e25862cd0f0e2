package rules

import (
	"time"

	"github.com/shopspring/decimal"

	"solana-gate/internal/candidate"
)

// protectedTickers and their known official mints (spec §4.E, §6). A
// ticker present here with an empty official mint has no confirmed
// official address in scope; any candidate claiming that symbol fails.
var protectedTickers = map[string]string{
	"SOL":  "So11111111111111111111111111111111111111112",
	"USDC": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	"USDT": "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
	"BTC":  "",
	"ETH":  "",
	"BNB":  "",
	"XRP":  "",
	"DOGE": "",
	"SHIB": "",
	"MATIC": "",
	"AVAX": "",
	"DOT":  "",
	"LINK": "",
	"UNI":  "",
	"WBTC": "",
	"WETH": "",
	"WSOL": "",
	"TRX":  "",
}

// SymbolSpoofing rejects a candidate whose symbol matches a protected
// ticker unless its address is the known official mint for that
// ticker (spec §4.E, §8 scenario 1/2).
func SymbolSpoofing(c candidate.Candidate, rc *RuleContext) RuleResult {
	officialMint, protected := protectedTickers[c.TokenSymbol]
	if !protected {
		return passed(candidate.RuleSymbolSpoofing)
	}
	if officialMint != "" && c.TokenAddress == officialMint {
		return passed(candidate.RuleSymbolSpoofing)
	}
	return failed(candidate.RuleSymbolSpoofing, "token symbol impersonates "+c.TokenSymbol+" but address is not the known official mint", decimal.NewFromInt(100), false)
}

// TimeBuffer requires a minimum elapsed time since pool creation
// before evaluation, guarding against pools still settling.
func TimeBuffer(c candidate.Candidate, rc *RuleContext) RuleResult {
	if c.PoolCreatedAt.IsZero() {
		return skipped(candidate.RuleTimeBuffer, "pool_created_at not provided")
	}
	now := rc.Now
	if now.IsZero() {
		now = time.Now()
	}
	const minBuffer = 10 * time.Second
	if now.Sub(c.PoolCreatedAt) < minBuffer {
		return failed(candidate.RuleTimeBuffer, "pool was created too recently to evaluate safely", decimal.NewFromInt(20), false)
	}
	return passed(candidate.RuleTimeBuffer)
}

// LiquidityReality cross-checks reported liquidity against the
// aggregator's own estimated liquidity from a buy quote, catching
// inflated or phantom liquidity figures.
func LiquidityReality(c candidate.Candidate, rc *RuleContext) RuleResult {
	if rc == nil || rc.QuoteClient == nil {
		return skipped(candidate.RuleLiquidityReality, "quote client unavailable")
	}
	amountLamports := uint64(0.01 * 1e9)
	res := rc.QuoteClient.BuyQuote(rc.Ctx, c.TokenAddress, amountLamports, 1500)
	if !res.Success || !res.HasRoute || res.EstimatedLiquidity.IsZero() {
		return skipped(candidate.RuleLiquidityReality, "no aggregator route to estimate liquidity against")
	}

	reported, _ := c.LiquidityUSD.Float64()
	estimated, _ := res.EstimatedLiquidity.Float64()
	if reported <= 0 {
		return skipped(candidate.RuleLiquidityReality, "liquidity_usd not provided")
	}

	ratio := estimated / reported
	if ratio < 0.2 {
		return failed(candidate.RuleLiquidityReality, "aggregator-estimated liquidity is far below reported liquidity_usd", decimal.NewFromInt(35), false)
	}
	return passed(candidate.RuleLiquidityReality)
}

// ExecutableSell requires a confirmed buy route within slippage
// tolerance AND a confirmed sell route — a one-way trap fails this
// (spec §4.E, §8 scenario 3).
func ExecutableSell(c candidate.Candidate, rc *RuleContext) RuleResult {
	if !c.HasBuyRoute {
		return failed(candidate.RuleExecutableSell, "no buy route available", decimal.NewFromInt(40), false)
	}
	if c.MaxSlippageBps > 0 && c.BuySlippageBps > c.MaxSlippageBps {
		return failed(candidate.RuleExecutableSell, "buy slippage exceeds configured maximum", decimal.NewFromInt(25), false)
	}
	if rc == nil || rc.QuoteClient == nil {
		return skipped(candidate.RuleExecutableSell, "quote client unavailable to confirm sell route")
	}

	sellAmount := uint64(1_000_000)
	sellRes := rc.QuoteClient.SellQuote(rc.Ctx, c.TokenAddress, sellAmount, 1500)
	if !sellRes.Success || !sellRes.HasRoute {
		return failed(candidate.RuleExecutableSell, "no sell route found, possible one-way trap", decimal.NewFromInt(80), false)
	}
	slippageBps, _ := sellRes.PriceImpactPct.Mul(decimal.NewFromInt(100)).Float64()
	r := passed(candidate.RuleExecutableSell)
	r.Details = map[string]any{
		"sell_route_confirmed": true,
		"sell_slippage_bps":    int(slippageBps),
	}
	return r
}

// BuyerPosition fails when target_buyer_positions is non-empty and
// buyer_position is not among the allowed set (spec §4.E).
func BuyerPosition(c candidate.Candidate, rc *RuleContext) RuleResult {
	if len(c.TargetBuyerPositions) == 0 {
		return passed(candidate.RuleBuyerPosition)
	}
	if !c.TargetBuyerPositions[c.BuyerPosition] {
		return failed(candidate.RuleBuyerPosition, "buyer position is outside the configured target set", decimal.NewFromInt(20), false)
	}
	return passed(candidate.RuleBuyerPosition)
}

// BuyerCluster penalizes when recent buyers arrive in an implausibly
// tight time window, suggesting coordinated (bot/insider) entry rather
// than organic discovery.
func BuyerCluster(c candidate.Candidate, rc *RuleContext) RuleResult {
	if len(c.RecentBuyers) < 3 {
		return skipped(candidate.RuleBuyerCluster, "insufficient recent-buyer data")
	}

	earliest, latest := c.RecentBuyers[0].Timestamp, c.RecentBuyers[0].Timestamp
	for _, b := range c.RecentBuyers {
		if b.Timestamp.Before(earliest) {
			earliest = b.Timestamp
		}
		if b.Timestamp.After(latest) {
			latest = b.Timestamp
		}
	}

	const tightWindow = 3 * time.Second
	if latest.Sub(earliest) < tightWindow && len(c.RecentBuyers) >= 5 {
		return failed(candidate.RuleBuyerCluster, "many buyers arrived within an implausibly tight window", decimal.NewFromInt(25), false)
	}
	return passed(candidate.RuleBuyerCluster)
}

// LPOwnershipDistribution fails with a penalty when LP-token holder
// concentration exceeds 60%; above 90% the structural LP_INTEGRITY rule
// also hard-blocks.
func LPOwnershipDistribution(c candidate.Candidate, rc *RuleContext) RuleResult {
	if c.LPMintAddress == "" {
		return skipped(candidate.RuleLPOwnershipDistribution, "no lp_mint_address provided")
	}
	const elevatedThreshold = 60.0
	concentration, _ := c.LPHolderConcentration.Float64()
	if concentration > elevatedThreshold {
		return failed(candidate.RuleLPOwnershipDistribution, "LP holder concentration is elevated", decimal.NewFromInt(20), false)
	}
	return passed(candidate.RuleLPOwnershipDistribution)
}

// PriceSanity fails on implausible price jumps between previous_price
// and current price (spike/crash artifacts, stale oracle data).
func PriceSanity(c candidate.Candidate, rc *RuleContext) RuleResult {
	if c.PreviousPriceUSD.IsZero() || c.PriceUSD.IsZero() {
		return skipped(candidate.RulePriceSanity, "previous_price_usd or price_usd not provided")
	}
	prev, _ := c.PreviousPriceUSD.Float64()
	cur, _ := c.PriceUSD.Float64()
	if prev <= 0 {
		return skipped(candidate.RulePriceSanity, "previous_price_usd is not positive")
	}

	changePct := (cur - prev) / prev * 100
	if changePct < 0 {
		changePct = -changePct
	}
	const maxSanePct = 500.0
	if changePct > maxSanePct {
		return failed(candidate.RulePriceSanity, "price moved implausibly compared to the previous observation", decimal.NewFromInt(30), false)
	}
	return passed(candidate.RulePriceSanity)
}

// DeployerReputation penalizes a deployer wallet with a history of
// shallow funding and rapid token creation, using the funding cache.
func DeployerReputation(c candidate.Candidate, rc *RuleContext) RuleResult {
	if c.DeployerWallet == "" {
		return skipped(candidate.RuleDeployerReputation, "no deployer_wallet provided")
	}
	if rc == nil || rc.FundingCache == nil {
		return skipped(candidate.RuleDeployerReputation, "wallet-funding cache unavailable")
	}
	record, ok := rc.FundingCache.Get(c.DeployerWallet)
	if !ok {
		return skipped(candidate.RuleDeployerReputation, "no funding record cached for deployer wallet")
	}
	if record.WalletAgeHours < 24 && !record.IsCEXFunded {
		return failed(candidate.RuleDeployerReputation, "deployer wallet is new and not exchange-funded", decimal.NewFromInt(20), false)
	}
	return passed(candidate.RuleDeployerReputation)
}

// HiddenSellTax compares a sell quote's effective rate against the
// current spot price to detect an undisclosed transfer tax.
func HiddenSellTax(c candidate.Candidate, rc *RuleContext) RuleResult {
	if rc == nil || rc.QuoteClient == nil {
		return skipped(candidate.RuleHiddenSellTax, "quote client unavailable")
	}
	if c.PriceUSD.IsZero() || c.SOLPriceUSD.IsZero() {
		return skipped(candidate.RuleHiddenSellTax, "price_usd or sol_price_usd not provided")
	}

	sellAmount := uint64(1_000_000)
	res := rc.QuoteClient.SellQuote(rc.Ctx, c.TokenAddress, sellAmount, 1500)
	if !res.Success || !res.HasRoute || res.OutAmount == 0 {
		return skipped(candidate.RuleHiddenSellTax, "no sell route to measure effective rate against")
	}

	priceUSD, _ := c.PriceUSD.Float64()
	solPriceUSD, _ := c.SOLPriceUSD.Float64()
	expectedOutLamports := float64(sellAmount) * priceUSD / solPriceUSD * 1e9
	if expectedOutLamports <= 0 {
		return skipped(candidate.RuleHiddenSellTax, "could not compute expected sell output")
	}

	actualOut := float64(res.OutAmount)
	shortfallPct := (expectedOutLamports - actualOut) / expectedOutLamports * 100
	const taxSuspicionThreshold = 15.0
	if shortfallPct > taxSuspicionThreshold {
		return failed(candidate.RuleHiddenSellTax, "sell output is materially below the expected rate, suggests a hidden transfer tax", decimal.NewFromInt(40), false)
	}
	return passed(candidate.RuleHiddenSellTax)
}

// RugProbability blends five sub-scores into a single risk number and
// hard-blocks at the top band (spec §4.E).
func RugProbability(c candidate.Candidate, rc *RuleContext) RuleResult {
	liqFDVScore := liquidityFDVRiskScore(c)
	entropyScore := holderEntropyRiskScore(c)
	deployerScore := deployerReputationRiskScore(c, rc)
	fundingScore := fundingSourceRiskScore(c, rc)
	symmetryScore := buyerSymmetryRiskScore(c)

	blended := 0.25*liqFDVScore + 0.20*entropyScore + 0.25*deployerScore + 0.15*fundingScore + 0.15*symmetryScore

	details := map[string]any{
		"liquidity_fdv_score": liqFDVScore,
		"holder_entropy_score": entropyScore,
		"deployer_reputation_score": deployerScore,
		"funding_source_score": fundingScore,
		"buyer_symmetry_score": symmetryScore,
		"blended_score": blended,
	}

	switch {
	case blended >= 70:
		r := failed(candidate.RuleRugProbability, "blended rug-probability score crosses the hard-block threshold", decimal.NewFromInt(100), true)
		r.Details = details
		return r
	case blended >= 55:
		r := failed(candidate.RuleRugProbability, "blended rug-probability score is in the REDUCED band", decimal.NewFromFloat(blended*0.5), false)
		r.Details = details
		return r
	case blended >= 40:
		r := failed(candidate.RuleRugProbability, "blended rug-probability score is in the OBSERVE band", decimal.NewFromFloat(blended*0.25), false)
		r.Details = details
		return r
	default:
		r := passed(candidate.RuleRugProbability)
		r.Details = details
		return r
	}
}

func liquidityFDVRiskScore(c candidate.Candidate) float64 {
	fdv, _ := c.FDVUSD.Float64()
	liq, _ := c.LiquidityUSD.Float64()
	if fdv <= 0 {
		return 50
	}
	ratio := liq / fdv
	return piecewiseLinearRisk(ratio, 0.10, 0.03, 0.01)
}

func holderEntropyRiskScore(c candidate.Candidate) float64 {
	if len(c.TopHolders) == 0 {
		return 50
	}
	percentages := make([]float64, len(c.TopHolders))
	for i, h := range c.TopHolders {
		percentages[i], _ = h.Percent.Float64()
	}
	normalized := NormalizedEntropy(percentages)
	return (1 - normalized) * 100
}

func deployerReputationRiskScore(c candidate.Candidate, rc *RuleContext) float64 {
	if c.DeployerWallet == "" || rc == nil || rc.FundingCache == nil {
		return 50
	}
	record, ok := rc.FundingCache.Get(c.DeployerWallet)
	if !ok {
		return 50
	}
	if record.IsFresh && !record.IsCEXFunded {
		return 80
	}
	if record.IsCEXFunded {
		return 15
	}
	return 40
}

func fundingSourceRiskScore(c candidate.Candidate, rc *RuleContext) float64 {
	if c.DeployerWallet == "" || rc == nil || rc.FundingCache == nil {
		return 50
	}
	record, ok := rc.FundingCache.Get(c.DeployerWallet)
	if !ok {
		return 50
	}
	if record.IsCEXFunded {
		return 10
	}
	if record.Depth1Funder == "" {
		return 60
	}
	return 35
}

func buyerSymmetryRiskScore(c candidate.Candidate) float64 {
	if len(c.RecentBuyers) < 2 {
		return 50
	}
	var total float64
	var maxBuy float64
	for _, b := range c.RecentBuyers {
		amt, _ := b.AmountSOL.Float64()
		total += amt
		if amt > maxBuy {
			maxBuy = amt
		}
	}
	if total == 0 {
		return 50
	}
	dominance := maxBuy / total
	return dominance * 100
}

// LiquidityStability consults the LP/Liquidity Monitor (spec §4.D) for
// the token's current stability evaluation.
func LiquidityStability(c candidate.Candidate, rc *RuleContext) RuleResult {
	if rc == nil || rc.Monitor == nil || !rc.Monitor.IsMonitored(c.TokenAddress) {
		return skipped(candidate.RuleLiquidityStability, "no active monitoring session for this token")
	}
	result := rc.Monitor.Evaluate(c.TokenAddress)
	if result.Stable {
		return passed(candidate.RuleLiquidityStability)
	}

	penalty := decimal.NewFromInt(15)
	if result.LiquidityDropPercent > 50 || result.LPWithdrawalDetected {
		penalty = decimal.NewFromInt(40)
	}
	r := failed(candidate.RuleLiquidityStability, "liquidity monitor reports an unstable session", penalty, false)
	r.Details = map[string]any{
		"liquidity_drop_percent": result.LiquidityDropPercent,
		"dominant_buyer_percent": result.DominantBuyerPercent,
	}
	return r
}

// QuoteDepth performs a buy quote at buy_amount_sol and checks
// price_impact against max_slippage. Skipped at high liquidity where
// depth is assumed ample (spec §4.E).
func QuoteDepth(c candidate.Candidate, rc *RuleContext) RuleResult {
	const highLiquidityUSD = 50_000.0
	liqUSD, _ := c.LiquidityUSD.Float64()
	if liqUSD >= highLiquidityUSD {
		return skipped(candidate.RuleQuoteDepth, "high-liquidity")
	}
	if rc == nil || rc.QuoteClient == nil {
		return skipped(candidate.RuleQuoteDepth, "quote client unavailable")
	}
	if c.BuyAmountSOL.IsZero() {
		return skipped(candidate.RuleQuoteDepth, "buy_amount_sol not provided")
	}

	amountLamports := uint64(0)
	if f, ok := c.BuyAmountSOL.Float64(); ok {
		amountLamports = uint64(f * 1e9)
	}
	slippage := c.MaxSlippageBps
	if slippage == 0 {
		slippage = 500
	}

	res := rc.QuoteClient.BuyQuote(rc.Ctx, c.TokenAddress, amountLamports, slippage)
	if !res.Success || !res.HasRoute {
		return failed(candidate.RuleQuoteDepth, "no route available at the configured buy amount", decimal.NewFromInt(30), false)
	}

	impactPct, _ := res.PriceImpactPct.Float64()
	maxSlippagePct := float64(slippage) / 100
	if impactPct > maxSlippagePct {
		return failed(candidate.RuleQuoteDepth, "price impact at buy_amount_sol exceeds max_slippage", decimal.NewFromInt(25), false)
	}
	return passed(candidate.RuleQuoteDepth)
}

// VolumeAuthenticity flags wash-trading-shaped volume: many
// transactions from few wallets with round-number, repeating sizes.
func VolumeAuthenticity(c candidate.Candidate, rc *RuleContext) RuleResult {
	if len(c.RecentBuyers) < 5 {
		return skipped(candidate.RuleVolumeAuthenticity, "insufficient transaction volume data")
	}

	uniqueWallets := make(map[string]bool)
	amountCounts := make(map[string]int)
	for _, b := range c.RecentBuyers {
		uniqueWallets[b.Address] = true
		amountCounts[b.AmountSOL.StringFixed(4)]++
	}

	var maxRepeat int
	for _, n := range amountCounts {
		if n > maxRepeat {
			maxRepeat = n
		}
	}

	walletRatio := float64(len(uniqueWallets)) / float64(len(c.RecentBuyers))
	repeatRatio := float64(maxRepeat) / float64(len(c.RecentBuyers))

	if walletRatio < 0.3 && repeatRatio > 0.4 {
		return failed(candidate.RuleVolumeAuthenticity, "transaction pattern is consistent with wash trading", decimal.NewFromInt(35), false)
	}
	return passed(candidate.RuleVolumeAuthenticity)
}
