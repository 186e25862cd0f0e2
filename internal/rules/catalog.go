package rules

import "solana-gate/internal/candidate"

// Catalog maps each standard-signature RuleID to its Rule function.
// RuleDataCompleteness is intentionally excluded: it is a meta-rule
// invoked once per evaluation with aggregate skip counts (see
// DataCompleteness), special-cased by the Gate Orchestrator rather
// than run through this generic map. RuleFreezeAuthority is included
// since the on-chain fact it needs is folded onto the Candidate ahead
// of rule evaluation (see FreezeAuthority), so it fits the standard
// Rule signature like any other.
var Catalog = map[candidate.RuleID]Rule{
	candidate.RuleSymbolSpoofing:          SymbolSpoofing,
	candidate.RuleTimeBuffer:              TimeBuffer,
	candidate.RuleLiquidityReality:        LiquidityReality,
	candidate.RuleExecutableSell:          ExecutableSell,
	candidate.RuleBuyerPosition:           BuyerPosition,
	candidate.RuleBuyerCluster:            BuyerCluster,
	candidate.RuleLPOwnershipDistribution: LPOwnershipDistribution,
	candidate.RulePriceSanity:             PriceSanity,
	candidate.RuleFreezeAuthority:         FreezeAuthority,
	candidate.RuleLPIntegrity:             LPIntegrity,
	candidate.RuleDeployerReputation:      DeployerReputation,
	candidate.RuleHiddenSellTax:           HiddenSellTax,
	candidate.RuleRugProbability:          RugProbability,
	candidate.RuleLiquidityStability:      LiquidityStability,
	candidate.RuleQuoteDepth:              QuoteDepth,
	candidate.RuleDoubleQuote:             DoubleQuote,
	candidate.RuleWalletCluster:           WalletCluster,
	candidate.RuleLiquidityAging:          LiquidityAging,
	candidate.RuleCapitalPreservation:     CapitalPreservation,
	candidate.RuleDeployerBehavior:        DeployerBehavior,
	candidate.RuleVolumeAuthenticity:      VolumeAuthenticity,
	candidate.RuleHolderEntropy:           HolderEntropy,
}

// SyncFixedOrder is the spec §4.F step 3 "synchronous rules in a fixed
// order" phase.
var SyncFixedOrder = []candidate.RuleID{
	candidate.RuleSymbolSpoofing,
	candidate.RuleTimeBuffer,
	candidate.RuleLiquidityReality,
	candidate.RuleExecutableSell,
	candidate.RuleBuyerPosition,
	candidate.RuleBuyerCluster,
	candidate.RuleLPOwnershipDistribution,
	candidate.RulePriceSanity,
	candidate.RuleFreezeAuthority,
}

// SequentialFirst is LP_INTEGRITY, which must run before the parallel
// async group and reliably set the hard-block flag before cap logic
// (spec §4.F step 4).
var SequentialFirst = candidate.RuleLPIntegrity

// ParallelGroup is the spec §4.F step 4 parallel async-rule set.
var ParallelGroup = []candidate.RuleID{
	candidate.RuleDeployerReputation,
	candidate.RuleHiddenSellTax,
	candidate.RuleRugProbability,
	candidate.RuleLiquidityStability,
	candidate.RuleQuoteDepth,
	candidate.RuleDoubleQuote,
	candidate.RuleWalletCluster,
	candidate.RuleLiquidityAging,
	candidate.RuleCapitalPreservation,
	candidate.RuleDeployerBehavior,
}

// SyncIfPresent is run synchronously but only when its inputs are
// present, else skipped (spec §4.F step 4 tail).
var SyncIfPresent = []candidate.RuleID{
	candidate.RuleVolumeAuthenticity,
	candidate.RuleHolderEntropy,
}
