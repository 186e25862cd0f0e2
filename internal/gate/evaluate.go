package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"solana-gate/internal/activity"
	"solana-gate/internal/candidate"
	"solana-gate/internal/liquidity"
	"solana-gate/internal/rules"
	"solana-gate/internal/tradability"
)

// evalState accumulates one evaluation's rule verdicts. It is local to
// a single Evaluate call and never shared across goroutines after the
// parallel phase joins (DESIGN NOTES §9: the Candidate itself is never
// mutated).
type evalState struct {
	results map[candidate.RuleID]rules.RuleResult
}

func newEvalState() *evalState {
	return &evalState{results: make(map[candidate.RuleID]rules.RuleResult)}
}

func (s *evalState) record(r rules.RuleResult) {
	s.results[r.RuleID] = r
}

// Evaluate runs the 12-step gate algorithm (spec §4.F) against one
// Candidate and returns the resulting Decision. It never mutates c.
func (o *Orchestrator) Evaluate(ctx context.Context, c candidate.Candidate) candidate.Decision {
	start := time.Now()
	state := newEvalState()
	rc := &rules.RuleContext{
		Ctx:          ctx,
		QuoteClient:  o.collaborators.QuoteClient,
		RPCClient:    o.collaborators.RPCClient,
		Monitor:      o.collaborators.Monitor,
		FundingCache: o.collaborators.FundingCache,
		Probe:        o.collaborators.Probe,
		Now:          start,
	}

	// step 2: toggle/tier gating happens per-rule below via runRule,
	// which checks ValidationToggles before invoking the Rule func.

	// step 3: synchronous rules in a fixed order.
	for _, id := range rules.SyncFixedOrder {
		state.record(o.runRule(c, rc, id, rules.Catalog[id]))
	}

	// step 4: LP_INTEGRITY runs and settles on its own, after the
	// synchronous rules and before the parallel group.
	state.record(o.runRule(c, rc, rules.SequentialFirst, rules.LPIntegrity))

	o.runParallelGroup(ctx, c, rc, state)

	// sync-if-present tail: only run when the rule's required inputs
	// exist on the Candidate.
	for _, id := range rules.SyncIfPresent {
		if !hasInputsFor(id, c) {
			state.record(rules.RuleResult{RuleID: id, Passed: true, Skipped: true, Reason: "required inputs not present"})
			continue
		}
		state.record(o.runRule(c, rc, id, rules.Catalog[id]))
	}

	return o.aggregate(ctx, c, state, start)
}

// runRule honors validation_toggles and tier gating before invoking a
// rule (spec §4.F step 2); a disabled rule is recorded as skipped, not
// silently omitted, so DATA_COMPLETENESS still sees it.
func (o *Orchestrator) runRule(c candidate.Candidate, rc *rules.RuleContext, id candidate.RuleID, fn rules.Rule) rules.RuleResult {
	if enabled, ok := c.ValidationToggles[id]; ok && !enabled {
		return rules.RuleResult{RuleID: id, Passed: true, Skipped: true, Reason: "disabled by validation_toggles"}
	}
	if fn == nil {
		return rules.RuleResult{RuleID: id, Passed: true, Skipped: true, Reason: "no rule function registered"}
	}
	return fn(c, rc)
}

// runParallelGroup runs the async rule set concurrently, bounded by
// errgroup.SetLimit, joining all results before continuing (spec §4.F
// step 4, §5 Concurrency Model: a slow rule never blocks the others).
func (o *Orchestrator) runParallelGroup(ctx context.Context, c candidate.Candidate, rc *rules.RuleContext, state *evalState) {
	results := make([]rules.RuleResult, len(rules.ParallelGroup))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(len(rules.ParallelGroup))
	for i, id := range rules.ParallelGroup {
		i, id := i, id
		fn := rules.Catalog[id]
		g.Go(func() error {
			results[i] = o.runRule(c, rc, id, fn)
			return nil
		})
	}
	_ = g.Wait() // runRule never returns an error; Wait only joins.

	for _, r := range results {
		state.record(r)
	}
}

// hasInputsFor decides whether a sync-if-present rule has enough data
// to run at all, independent of whether the rule itself would then
// skip for a finer-grained reason.
func hasInputsFor(id candidate.RuleID, c candidate.Candidate) bool {
	switch id {
	case candidate.RuleVolumeAuthenticity:
		return len(c.RecentBuyers) > 0
	case candidate.RuleHolderEntropy:
		return len(c.TopHolders) > 0
	default:
		return true
	}
}

// aggregate folds every recorded RuleResult into a Decision: risk
// score, hard-block short-circuit, DATA_COMPLETENESS meta-rule, early
// trust bonus, dynamic cap, and the ternary state (spec §4.F steps
// 5-11).
func (o *Orchestrator) aggregate(ctx context.Context, c candidate.Candidate, state *evalState, start time.Time) candidate.Decision {
	riskScore := decimal.NewFromInt(100)
	var reasons []string
	var failedRules, passedRules []candidate.RuleID
	var perRule []candidate.RuleDetail
	hardBlocked := false
	var hardBlockReason string

	totalEnabled := 0
	skippedCount := 0

	flags := rules.DynamicCapFlags{}

	for _, id := range candidate.AllRules {
		r, ok := state.results[id]
		if !ok {
			continue // DATA_COMPLETENESS itself is recorded separately below
		}
		if !r.Skipped {
			totalEnabled++
		} else {
			skippedCount++
		}

		if !r.Passed {
			penalty := r.Penalty
			if penalty.IsZero() {
				penalty = rules.DefaultPenalty()
			}
			riskScore = riskScore.Sub(penalty)
			reasons = append(reasons, fmt.Sprintf("%s: %s", id, r.Reason))

			// Behavioral-penalty-set rules never force BLOCKED on their
			// own (spec §4.F step 5): a non-hard-block failure here is
			// passed-with-penalty, not a blocking failure, so it stays
			// out of failedRules.
			if candidate.BehavioralPenaltyRules[id] && !r.HardBlock {
				passedRules = append(passedRules, id)
			} else {
				failedRules = append(failedRules, id)
			}

			if r.HardBlock && !hardBlocked {
				hardBlocked = true
				hardBlockReason = fmt.Sprintf("%s hard-blocked: %s", id, r.Reason)
			}
		} else if !r.Skipped {
			passedRules = append(passedRules, id)
		}

		perRule = append(perRule, candidate.RuleDetail{
			RuleID: id, Passed: r.Passed, Reason: r.Reason, Penalty: r.Penalty, HardBlock: r.HardBlock, Details: r.Details,
		})

		updateDynamicCapFlags(&flags, id, r)
	}

	// step 7: DATA_COMPLETENESS meta-rule. The denominator is every
	// rule considered this run (both skipped and settled). A rule
	// turned off by validation_toggles or tier gating is recorded as
	// skipped, so it adds to the numerator while the denominator stays
	// the same.
	completeness := rules.DataCompleteness(totalEnabled+skippedCount, skippedCount)
	if !completeness.Passed {
		hardBlocked = true
		hardBlockReason = completeness.Reason
		riskScore = riskScore.Sub(completeness.Penalty)
		reasons = append(reasons, fmt.Sprintf("%s: %s", candidate.RuleDataCompleteness, completeness.Reason))
		failedRules = append(failedRules, candidate.RuleDataCompleteness)
	}
	perRule = append(perRule, candidate.RuleDetail{RuleID: candidate.RuleDataCompleteness, Passed: completeness.Passed, Reason: completeness.Reason, Penalty: completeness.Penalty, HardBlock: completeness.HardBlock})

	// step 8: early trust bonus. EXECUTABLE_SELL's result carries
	// whether a sell route was confirmed and at what slippage; feed
	// that back into the bonus instead of assuming it away.
	sellRouteConfirmed, sellSlippageBps := sellRouteSignal(state.results[candidate.RuleExecutableSell])
	bonus := rules.EarlyTrustBonus(c, sellRouteConfirmed, sellSlippageBps)
	riskScore = riskScore.Add(bonus)

	// step 9: dynamic risk cap.
	cappedScore, capReasons := rules.ApplyDynamicCap(riskScore, flags, o.config.DynamicCapCeiling)
	riskScore = cappedScore

	// step 10: clamp to [0, 100].
	if riskScore.LessThan(decimal.Zero) {
		riskScore = decimal.Zero
	}
	if riskScore.GreaterThan(decimal.NewFromInt(100)) {
		riskScore = decimal.NewFromInt(100)
	}

	decision := candidate.Decision{
		RiskScore:       riskScore,
		Reasons:         reasons,
		FailedRules:     failedRules,
		PassedRules:     passedRules,
		Timestamp:       start,
		PerRuleDetails:  perRule,
		CapReasons:      capReasons,
		EarlyTrustBonus: bonus,
		CorrelationID:   uuid.New().String(),
	}

	if hardBlocked {
		decision.Allowed = false
		decision.State = candidate.StateBlocked
		decision.Reasons = append([]string{hardBlockReason}, decision.Reasons...)
		o.emitDecisionLog(c, decision)
		o.invokeCallback(c, decision)
		return decision
	}

	modeMin := c.ExecutionMode.MinScore()
	tentative := tentativeState(riskScore, modeMin)

	// step 11: observation delay. A candidate whose LiquidityUSD is at
	// or above HighLiquidityFastPathUSD takes the fast path and skips
	// the re-sample.
	if tentative == candidate.StateExecutable && c.LiquidityUSD.LessThan(o.config.HighLiquidityFastPathUSD) {
		tentative = o.confirmWithObservationDelay(ctx, c, riskScore, modeMin)
	}

	decision.State = tentative
	decision.Allowed = tentative == candidate.StateExecutable

	if tentative != candidate.StateBlocked && o.collaborators.Monitor != nil {
		o.collaborators.Monitor.StartSession(c.TokenAddress, toFloat64(c.LiquidityUSD), toFloat64(c.PriceUSD), liquidity.StartOpts{DeployerWallet: c.DeployerWallet})
	}

	o.emitDecisionLog(c, decision)
	o.invokeCallback(c, decision)
	return decision
}

// sellRouteSignal extracts the confirmed/slippage pair EXECUTABLE_SELL
// recorded in its RuleResult.Details, if any.
func sellRouteSignal(r rules.RuleResult) (bool, int) {
	if r.Details == nil {
		return false, 0
	}
	confirmed, _ := r.Details["sell_route_confirmed"].(bool)
	bps, _ := r.Details["sell_slippage_bps"].(int)
	return confirmed, bps
}

func toFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func tentativeState(riskScore, modeMin decimal.Decimal) candidate.State {
	if riskScore.GreaterThanOrEqual(modeMin) {
		return candidate.StateExecutable
	}
	if riskScore.GreaterThan(decimal.Zero) {
		return candidate.StateObserved
	}
	return candidate.StateBlocked
}

// confirmWithObservationDelay re-samples liquidity after a short
// delay and demotes EXECUTABLE to OBSERVED if it moved by more than
// the configured drift percentage (spec §4.F step 11, Open Question
// decision: absolute-value drift, either direction demotes).
func (o *Orchestrator) confirmWithObservationDelay(ctx context.Context, c candidate.Candidate, riskScore, modeMin decimal.Decimal) candidate.State {
	if o.config.ObservationDelay <= 0 {
		return candidate.StateExecutable
	}
	time.Sleep(o.config.ObservationDelay)

	if c.LiquidityUSD.IsZero() {
		return candidate.StateExecutable
	}

	after, ok := o.resampleLiquidity(ctx, c)
	if !ok {
		return candidate.StateExecutable
	}

	before := c.LiquidityUSD
	drift := after.Sub(before).Abs().Div(before).Mul(decimal.NewFromInt(100))
	if drift.GreaterThan(o.config.ObservationDriftPct) {
		return candidate.StateObserved
	}
	return candidate.StateExecutable
}

// resampleLiquidity fetches a fresh liquidity reading for the
// observation-delay drift check, preferring the tradability probe
// (bonding-curve/aggregator cascade) and falling back to a fresh buy
// quote's estimated liquidity when no probe is wired.
func (o *Orchestrator) resampleLiquidity(ctx context.Context, c candidate.Candidate) (decimal.Decimal, bool) {
	if o.collaborators.Probe != nil {
		res := o.collaborators.Probe.Probe(ctx, c.TokenAddress)
		if res.Status == tradability.StatusTradable && res.Liquidity > 0 {
			return decimal.NewFromFloat(res.Liquidity), true
		}
	}
	if o.collaborators.QuoteClient != nil {
		buyAmount := uint64(1_000_000)
		if c.BuyAmountSOL.IsPositive() {
			lamports, _ := c.BuyAmountSOL.Mul(decimal.NewFromInt(1_000_000_000)).Float64()
			buyAmount = uint64(lamports)
		}
		res := o.collaborators.QuoteClient.BuyQuote(ctx, c.TokenAddress, buyAmount, c.MaxSlippageBps)
		if res.Success && res.HasRoute && res.EstimatedLiquidity.IsPositive() {
			return res.EstimatedLiquidity, true
		}
	}
	return decimal.Zero, false
}

func updateDynamicCapFlags(flags *rules.DynamicCapFlags, id candidate.RuleID, r rules.RuleResult) {
	switch id {
	case candidate.RuleLPOwnershipDistribution:
		if !r.Passed {
			flags.HighLPConcentration = true
		}
	case candidate.RuleWalletCluster:
		if r.HardBlock {
			flags.ConfirmedHardBlockCluster = true
		}
	case candidate.RuleHolderEntropy:
		if !r.Passed {
			flags.LowHolderEntropy = true
		}
	case candidate.RuleLiquidityAging:
		if !r.Passed {
			flags.VeryYoungLiquidity = true
		}
	case candidate.RuleVolumeAuthenticity:
		if !r.Passed {
			flags.WashTradingDetected = true
		}
	}
}

func (o *Orchestrator) emitDecisionLog(c candidate.Candidate, d candidate.Decision) {
	if o.collaborators.Sink == nil {
		return
	}
	level := activity.LevelSuccess
	if d.State == candidate.StateBlocked {
		level = activity.LevelError
	} else if d.State == candidate.StateObserved {
		level = activity.LevelWarning
	}

	for _, rd := range d.PerRuleDetails {
		if rd.Passed && rd.Reason == "" {
			continue // don't log routine passes, only noteworthy ones
		}
		ruleLevel := activity.LevelInfo
		if !rd.Passed {
			ruleLevel = activity.LevelWarning
			if rd.HardBlock {
				ruleLevel = activity.LevelError
			}
		}
		o.collaborators.Sink.Emit(activity.Entry{
			TokenSymbol:   c.TokenSymbol,
			TokenAddress:  c.TokenAddress,
			Level:         ruleLevel,
			Category:      activity.CategoryEvaluate,
			Message:       fmt.Sprintf("%s: %s", rd.RuleID, rd.Reason),
			Timestamp:     d.Timestamp,
			CorrelationID: d.CorrelationID,
		})
	}

	o.collaborators.Sink.Emit(activity.Entry{
		TokenSymbol:   c.TokenSymbol,
		TokenAddress:  c.TokenAddress,
		Level:         level,
		Category:      activity.CategoryEvaluate,
		Message:       fmt.Sprintf("decision: %s (score %s)", d.State, d.RiskScore.StringFixed(1)),
		Details:       map[string]any{"allowed": d.Allowed, "failed_rules": len(d.FailedRules)},
		Timestamp:     d.Timestamp,
		CorrelationID: d.CorrelationID,
	})
}

func (o *Orchestrator) invokeCallback(c candidate.Candidate, d candidate.Decision) {
	if o.history != nil {
		o.history.record(DecisionRecord{TokenSymbol: c.TokenSymbol, Decision: d})
	}
	if o.onDecision != nil {
		o.onDecision(c, d)
	}
}
