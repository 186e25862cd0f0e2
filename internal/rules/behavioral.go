package rules

import (
	"github.com/shopspring/decimal"

	"solana-gate/internal/candidate"
)

const (
	singleHolderBlockPct = 50.0
	top10BlockPct        = 85.0
)

// HolderEntropy computes Shannon entropy over the holder distribution,
// scaled to a 0-100 risk contribution. Concentration checks (single
// holder > 50%, top-10 > 85%) are independent hard triggers only at
// those thresholds; otherwise this rule only ever penalizes (spec
// §4.E, it is a behavioral-penalty rule).
func HolderEntropy(c candidate.Candidate, rc *RuleContext) RuleResult {
	if len(c.TopHolders) == 0 {
		return skipped(candidate.RuleHolderEntropy, "no holder distribution data")
	}

	percentages := make([]float64, len(c.TopHolders))
	var maxPct, top10 float64
	for i, h := range c.TopHolders {
		pct, _ := h.Percent.Float64()
		percentages[i] = pct
		if pct > maxPct {
			maxPct = pct
		}
		if i < 10 {
			top10 += pct
		}
	}

	if maxPct > singleHolderBlockPct {
		return failed(candidate.RuleHolderEntropy, "single holder owns more than 50% of supply", decimal.NewFromInt(60), true)
	}
	if top10 > top10BlockPct {
		return failed(candidate.RuleHolderEntropy, "top 10 holders own more than 85% of supply", decimal.NewFromInt(50), true)
	}

	normalized := NormalizedEntropy(percentages)
	risk := (1 - normalized) * 100
	if risk < 25 {
		return passed(candidate.RuleHolderEntropy)
	}

	penalty := decimal.NewFromFloat(risk / 4) // scale risk into a bounded penalty
	return failed(candidate.RuleHolderEntropy, "holder distribution entropy is low, concentration risk elevated", penalty, false)
}

// WalletCluster checks recent buyers for shared funding ancestry
// (sybil rings). Sets hard_block only when advanced clustering (a
// tier feature) confirms a ring; otherwise penalty only.
func WalletCluster(c candidate.Candidate, rc *RuleContext) RuleResult {
	if len(c.BuyerTimestamps) < 2 {
		return skipped(candidate.RuleWalletCluster, "insufficient buyer data for cluster analysis")
	}
	if rc == nil || rc.FundingCache == nil {
		return skipped(candidate.RuleWalletCluster, "wallet-funding cache unavailable")
	}

	funderCounts := make(map[string]int)
	for _, bt := range c.BuyerTimestamps {
		if bt.Funder == "" {
			continue
		}
		funderCounts[bt.Funder]++
	}

	var maxShared int
	for _, n := range funderCounts {
		if n > maxShared {
			maxShared = n
		}
	}
	if maxShared < 2 {
		return passed(candidate.RuleWalletCluster)
	}

	sharedFraction := float64(maxShared) / float64(len(c.BuyerTimestamps))
	if c.TierFeatures.AdvancedClustering && sharedFraction >= 0.5 {
		return failed(candidate.RuleWalletCluster, "advanced clustering confirms a coordinated buyer ring sharing one funder", decimal.NewFromInt(70), true)
	}

	penalty := decimal.NewFromFloat(sharedFraction * 40)
	return failed(candidate.RuleWalletCluster, "multiple buyers share a common funding wallet", penalty, false)
}

// DoubleQuote issues two buy quotes back-to-back and fails if the
// output deviation between them exceeds a small tolerance, indicating
// extreme volatility or manipulation. Skipped on high liquidity
// (spec §4.E).
func DoubleQuote(c candidate.Candidate, rc *RuleContext) RuleResult {
	const highLiquidityUSD = 50_000.0
	liqUSD, _ := c.LiquidityUSD.Float64()
	if liqUSD >= highLiquidityUSD {
		return skipped(candidate.RuleDoubleQuote, "high-liquidity")
	}
	if rc == nil || rc.QuoteClient == nil {
		return skipped(candidate.RuleDoubleQuote, "quote client unavailable")
	}

	amountLamports := uint64(0.05 * 1e9)
	slippage := c.MaxSlippageBps
	if slippage == 0 {
		slippage = 500
	}

	first := rc.QuoteClient.BuyQuote(rc.Ctx, c.TokenAddress, amountLamports, slippage)
	second := rc.QuoteClient.BuyQuote(rc.Ctx, c.TokenAddress, amountLamports, slippage)

	if !first.Success || !second.Success {
		return skipped(candidate.RuleDoubleQuote, "could not obtain two consecutive quotes")
	}

	deviation := deviationPct(first.OutAmount, second.OutAmount)
	const tolerance = 5.0
	if deviation > tolerance {
		return failed(candidate.RuleDoubleQuote, "back-to-back quotes deviate beyond tolerance, indicates volatility or manipulation", decimal.NewFromInt(30), false)
	}
	return passed(candidate.RuleDoubleQuote)
}

func deviationPct(a, b uint64) float64 {
	if a == 0 && b == 0 {
		return 0
	}
	larger, smaller := float64(a), float64(b)
	if smaller > larger {
		larger, smaller = smaller, larger
	}
	if larger == 0 {
		return 0
	}
	return (larger - smaller) / larger * 100
}

// LiquidityAging fails when liquidity is too young relative to a
// configured minimum age, unless the hard-block severity threshold
// (very fresh, <15s) is crossed, in which case it hard-blocks
// rather than merely penalizing (spec §4.E classification: behavioral
// penalty rule "unless hard-block").
func LiquidityAging(c candidate.Candidate, rc *RuleContext) RuleResult {
	const minAgeSeconds = 60
	const hardBlockAgeSeconds = 15

	if c.LiquidityAgeSeconds <= 0 {
		return skipped(candidate.RuleLiquidityAging, "liquidity_age_seconds not provided")
	}
	if c.LiquidityAgeSeconds < hardBlockAgeSeconds {
		return failed(candidate.RuleLiquidityAging, "liquidity pool is extremely young, too little time to observe stability", decimal.NewFromInt(50), true)
	}
	if c.LiquidityAgeSeconds < minAgeSeconds {
		return failed(candidate.RuleLiquidityAging, "liquidity pool is younger than the configured minimum age", decimal.NewFromInt(20), false)
	}
	return passed(candidate.RuleLiquidityAging)
}
