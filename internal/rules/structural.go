package rules

import (
	"github.com/shopspring/decimal"

	"solana-gate/internal/candidate"
)

// LPIntegrity checks LP-token burn percentage, creator LP holding, and
// LP mint authority status. Pump.fun tokens (still on the bonding
// curve, no real LP yet) skip this rule (spec §4.E).
func LPIntegrity(c candidate.Candidate, rc *RuleContext) RuleResult {
	if c.IsPumpFun {
		return skipped(candidate.RuleLPIntegrity, "pump.fun bonding-curve token has no LP yet")
	}
	if c.LPMintAddress == "" {
		return skipped(candidate.RuleLPIntegrity, "no lp_mint_address provided")
	}

	if c.LPOwnerIsDeployer {
		return failed(candidate.RuleLPIntegrity, "LP ownership held by deployer wallet", decimal.NewFromInt(40), true)
	}
	if c.LPRecentlyMinted {
		return failed(candidate.RuleLPIntegrity, "LP tokens recently minted, authority not renounced", decimal.NewFromInt(35), true)
	}

	concentrationThreshold := decimal.NewFromInt(90)
	if c.LPHolderConcentration.GreaterThan(concentrationThreshold) {
		return failed(candidate.RuleLPIntegrity, "LP holder concentration exceeds 90%, burn/lock not confirmed", decimal.NewFromInt(30), true)
	}

	return passed(candidate.RuleLPIntegrity)
}

// FreezeAuthority requires the mint's freeze authority to be null. The
// fact is supplied on the Candidate by the caller; the orchestrator
// does not fetch the mint account itself.
func FreezeAuthority(c candidate.Candidate, rc *RuleContext) RuleResult {
	if !c.FreezeAuthorityKnown {
		return skipped(candidate.RuleFreezeAuthority, "mint account not fetched, freeze authority unknown")
	}
	if !c.FreezeAuthorityNull {
		return failed(candidate.RuleFreezeAuthority, "freeze authority is not null", decimal.NewFromInt(50), true)
	}
	return passed(candidate.RuleFreezeAuthority)
}

// DeployerBehavior looks up the deployer wallet's funding record in the
// wallet-funding cluster cache and fails with a penalty when the wallet
// is fresh, funded with less than 0.1 SOL, and not exchange-funded. It
// never sets hard_block, and it does not check rug history.
func DeployerBehavior(c candidate.Candidate, rc *RuleContext) RuleResult {
	if c.DeployerWallet == "" {
		return skipped(candidate.RuleDeployerBehavior, "no deployer_wallet provided")
	}
	if rc == nil || rc.FundingCache == nil {
		return skipped(candidate.RuleDeployerBehavior, "wallet-funding cache unavailable")
	}

	record, ok := rc.FundingCache.Get(c.DeployerWallet)
	if !ok {
		return skipped(candidate.RuleDeployerBehavior, "no funding record cached for deployer wallet")
	}

	if record.IsFresh && !record.IsCEXFunded && record.InitialFundingSOL < 0.1 {
		return failed(candidate.RuleDeployerBehavior, "deployer wallet is fresh, low-funded, and non-exchange sourced", decimal.NewFromInt(25), false)
	}

	return passed(candidate.RuleDeployerBehavior)
}

// CapitalPreservation checks a simulated stress outcome against a
// survivability threshold; sets hard_block only when the swap
// simulation indicates the position cannot be exited (strict on-chain
// mode, spec §4.C).
func CapitalPreservation(c candidate.Candidate, rc *RuleContext) RuleResult {
	if !c.TierFeatures.CapitalPreservation {
		return skipped(candidate.RuleCapitalPreservation, "capital preservation tier feature disabled")
	}
	if rc == nil || rc.RPCClient == nil {
		return skipped(candidate.RuleCapitalPreservation, "RPC client unavailable for stress simulation")
	}
	if c.StressProbeTx == "" {
		return skipped(candidate.RuleCapitalPreservation, "no stress-probe transaction supplied")
	}

	sim := rc.RPCClient.SimulateTransaction(rc.Ctx, c.StressProbeTx)
	switch sim.Outcome {
	case "SIM_OK":
		return passed(candidate.RuleCapitalPreservation)
	case "NOT_READY":
		return skipped(candidate.RuleCapitalPreservation, "pool not yet ready for exit simulation: "+sim.RawErr)
	default:
		return failed(candidate.RuleCapitalPreservation, "exit-stress simulation failed: "+sim.RawErr, decimal.NewFromInt(45), true)
	}
}

// DataCompleteness is the meta-rule: if too many rules were skipped
// for lack of data, hard-block rather than trade blind (spec §4.F
// step 7, §9 DESIGN NOTES). Fails when skippedCount exceeds 40% of
// totalEnabled, which the orchestrator passes as every rule considered
// this run (settled plus skipped).
func DataCompleteness(totalEnabled, skippedCount int) RuleResult {
	if totalEnabled == 0 {
		return passed(candidate.RuleDataCompleteness)
	}
	fraction := float64(skippedCount) / float64(totalEnabled)
	if fraction > 0.40 {
		return failed(candidate.RuleDataCompleteness, "too many rules skipped for lack of data", decimal.NewFromInt(100), true)
	}
	return passed(candidate.RuleDataCompleteness)
}
