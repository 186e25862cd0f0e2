package candidate

// RuleID identifies a rule of the catalog (spec §4.E / DESIGN NOTES §9:
// string ids at the boundary, a fixed set of named constants
// internally). It is a plain string type, so the compiler does not
// check that a switch over RuleID covers every rule.
type RuleID string

const (
	RuleLPIntegrity            RuleID = "LP_INTEGRITY"
	RuleFreezeAuthority        RuleID = "FREEZE_AUTHORITY"
	RuleDeployerBehavior       RuleID = "DEPLOYER_BEHAVIOR"
	RuleCapitalPreservation    RuleID = "CAPITAL_PRESERVATION"
	RuleDataCompleteness       RuleID = "DATA_COMPLETENESS"

	RuleHolderEntropy   RuleID = "HOLDER_ENTROPY"
	RuleWalletCluster   RuleID = "WALLET_CLUSTER"
	RuleDoubleQuote     RuleID = "DOUBLE_QUOTE"
	RuleLiquidityAging  RuleID = "LIQUIDITY_AGING"

	RuleTimeBuffer               RuleID = "TIME_BUFFER"
	RuleLiquidityReality         RuleID = "LIQUIDITY_REALITY"
	RuleExecutableSell           RuleID = "EXECUTABLE_SELL"
	RuleBuyerPosition            RuleID = "BUYER_POSITION"
	RuleBuyerCluster             RuleID = "BUYER_CLUSTER"
	RuleLPOwnershipDistribution  RuleID = "LP_OWNERSHIP_DISTRIBUTION"
	RulePriceSanity              RuleID = "PRICE_SANITY"
	RuleSymbolSpoofing           RuleID = "SYMBOL_SPOOFING"
	RuleDeployerReputation       RuleID = "DEPLOYER_REPUTATION"
	RuleHiddenSellTax            RuleID = "HIDDEN_SELL_TAX"
	RuleRugProbability           RuleID = "RUG_PROBABILITY"
	RuleLiquidityStability       RuleID = "LIQUIDITY_STABILITY"
	RuleQuoteDepth               RuleID = "QUOTE_DEPTH"
	RuleVolumeAuthenticity       RuleID = "VOLUME_AUTHENTICITY"
)

// StructuralRules are the structural rules whose failure forces BLOCKED
// regardless of score (spec §4.E layer 1). DEPLOYER_BEHAVIOR and
// CAPITAL_PRESERVATION block only when the individual RuleResult sets
// HardBlock=true; the orchestrator reads each result's HardBlock flag
// and does not consult this map.
var StructuralRules = map[RuleID]bool{
	RuleLPIntegrity:         true,
	RuleFreezeAuthority:     true,
	RuleDeployerBehavior:    true,
	RuleCapitalPreservation: true,
	RuleDataCompleteness:    true,
}

// BehavioralPenaltyRules never force BLOCKED on their own (spec §4.E
// layer 2) unless their RuleResult itself sets HardBlock (e.g.
// WALLET_CLUSTER finding a confirmed sybil ring).
var BehavioralPenaltyRules = map[RuleID]bool{
	RuleHolderEntropy:  true,
	RuleWalletCluster:  true,
	RuleDoubleQuote:    true,
	RuleLiquidityAging: true,
}

// AllRules lists the full catalog, DATA_COMPLETENESS last; the
// orchestrator folds rule results into the decision in this order. The
// execution phases (SyncFixedOrder, ParallelGroup, SyncIfPresent) are
// listed in internal/rules/catalog.go.
var AllRules = []RuleID{
	RuleSymbolSpoofing,
	RuleTimeBuffer,
	RuleLiquidityReality,
	RuleExecutableSell,
	RuleBuyerPosition,
	RuleBuyerCluster,
	RuleLPOwnershipDistribution,
	RulePriceSanity,
	RuleFreezeAuthority,
	RuleLPIntegrity,
	RuleDeployerReputation,
	RuleHiddenSellTax,
	RuleRugProbability,
	RuleLiquidityStability,
	RuleQuoteDepth,
	RuleDoubleQuote,
	RuleWalletCluster,
	RuleLiquidityAging,
	RuleCapitalPreservation,
	RuleDeployerBehavior,
	RuleVolumeAuthenticity,
	RuleHolderEntropy,
	RuleDataCompleteness,
}
