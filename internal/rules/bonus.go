package rules

import (
	"github.com/shopspring/decimal"

	"solana-gate/internal/candidate"
)

// EarlyTrustBonus awards additive, bounded bonus points for
// combinations of positive signals — not a rule, a post-aggregation
// adjustment (spec §4.E).
func EarlyTrustBonus(c candidate.Candidate, sellRouteConfirmed bool, sellSlippageBps int) decimal.Decimal {
	bonus := decimal.Zero

	liqUSD, _ := c.LiquidityUSD.Float64()
	if liqUSD >= 100_000 {
		bonus = bonus.Add(decimal.NewFromInt(5))
	}

	if len(c.BuyerTimestamps) >= 20 {
		bonus = bonus.Add(decimal.NewFromInt(3))
	}

	uniqueFunders := make(map[string]bool)
	for _, bt := range c.BuyerTimestamps {
		if bt.Funder != "" {
			uniqueFunders[bt.Funder] = true
		}
	}
	if len(uniqueFunders) >= 10 {
		bonus = bonus.Add(decimal.NewFromInt(3))
	}

	lpBurnPct := decimal.NewFromInt(100).Sub(c.LPHolderConcentration)
	if lpBurnPct.GreaterThanOrEqual(decimal.NewFromInt(90)) {
		bonus = bonus.Add(decimal.NewFromInt(4))
	}

	if sellRouteConfirmed {
		bonus = bonus.Add(decimal.NewFromInt(3))
		if sellSlippageBps > 0 && sellSlippageBps <= 300 {
			bonus = bonus.Add(decimal.NewFromInt(2))
		}
	}

	if c.HolderCount >= 100 {
		bonus = bonus.Add(decimal.NewFromInt(3))
	}

	if c.LiquidityAgeSeconds >= 300 {
		bonus = bonus.Add(decimal.NewFromInt(2))
	}

	const maxBonus = 20
	if bonus.GreaterThan(decimal.NewFromInt(maxBonus)) {
		bonus = decimal.NewFromInt(maxBonus)
	}
	return bonus
}

// DynamicCapFlags are the flag set checked by the dynamic risk cap
// (spec §4.F step 9).
type DynamicCapFlags struct {
	HighLPConcentration     bool
	ConfirmedHardBlockCluster bool
	LowHolderEntropy        bool
	VeryYoungLiquidity      bool
	WashTradingDetected     bool
}

// count returns how many flags are set.
func (f DynamicCapFlags) count() int {
	n := 0
	for _, v := range []bool{f.HighLPConcentration, f.ConfirmedHardBlockCluster, f.LowHolderEntropy, f.VeryYoungLiquidity, f.WashTradingDetected} {
		if v {
			n++
		}
	}
	return n
}

// ApplyDynamicCap caps riskScore at capCeiling when two or more flags
// are set, returning the (possibly capped) score and the reasons
// recorded for the cap.
func ApplyDynamicCap(riskScore decimal.Decimal, flags DynamicCapFlags, capCeiling decimal.Decimal) (decimal.Decimal, []string) {
	if flags.count() < 2 {
		return riskScore, nil
	}
	var reasons []string
	if flags.HighLPConcentration {
		reasons = append(reasons, "high LP concentration")
	}
	if flags.ConfirmedHardBlockCluster {
		reasons = append(reasons, "confirmed hard-block cluster")
	}
	if flags.LowHolderEntropy {
		reasons = append(reasons, "low holder entropy")
	}
	if flags.VeryYoungLiquidity {
		reasons = append(reasons, "very young liquidity")
	}
	if flags.WashTradingDetected {
		reasons = append(reasons, "detected wash trading")
	}

	if riskScore.GreaterThan(capCeiling) {
		return capCeiling, reasons
	}
	return riskScore, reasons
}
