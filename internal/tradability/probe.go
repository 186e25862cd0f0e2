package tradability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"solana-gate/internal/quote"
	"solana-gate/internal/solrpc"
)

// pumpFunCoinResponse is the subset of the Pump.fun coin endpoint
// consumed by the bonding-curve stage (spec §4.C step 1).
type pumpFunCoinResponse struct {
	Mint               string  `json:"mint"`
	Complete           bool    `json:"complete"`
	VirtualSolReserves uint64  `json:"virtual_sol_reserves"`
}

// Probe cascades bonding-curve → aggregator quote, grounded in shape on
// blockchain.RPCClient's primary→fallback cascade. On-chain pool decode
// is not a stage of the cascade; CheckPoolReadiness and
// WaitForReadiness (strict.go) are separate calls.
type Probe struct {
	bondingBaseURL string
	httpClient     *http.Client
	quoteClient    *quote.Client
	rpcClient      *solrpc.Client
	minLiquidity   float64
	maxBlockWaits  int
}

// NewProbe builds a Probe. bondingBaseURL is the Pump.fun-style coin
// API base (e.g. "https://frontend-api.pump.fun/coins").
func NewProbe(bondingBaseURL string, qc *quote.Client, rc *solrpc.Client, minLiquidity float64, maxBlockWaits int) *Probe {
	return &Probe{
		bondingBaseURL: bondingBaseURL,
		httpClient:     &http.Client{Timeout: 5 * time.Second},
		quoteClient:    qc,
		rpcClient:      rc,
		minLiquidity:   minLiquidity,
		maxBlockWaits:  maxBlockWaits,
	}
}

// Probe runs the bonding-curve stage, then the aggregator-quote stage,
// and returns the first that succeeds, or DISCARDED when neither does
// (spec §4.C). It does not decode on-chain pool accounts.
func (p *Probe) Probe(ctx context.Context, mint string) Result {
	if res, ok := p.bondingCurveStage(ctx, mint); ok {
		return res
	}
	if res, ok := p.aggregatorStage(ctx, mint); ok {
		return res
	}
	return Result{Status: StatusDiscarded, Stage: StageDiscarded, Reason: "no route found via bonding curve or aggregator"}
}

func (p *Probe) bondingCurveStage(ctx context.Context, mint string) (Result, bool) {
	url := fmt.Sprintf("%s/%s", p.bondingBaseURL, mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("mint", mint).Msg("bonding curve probe failed, falling through")
		return Result{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, false
	}

	var payload pumpFunCoinResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, false
	}
	if payload.Mint == "" || payload.Complete {
		return Result{}, false
	}

	return Result{
		Status:    StatusTradable,
		Stage:     StageBonding,
		Liquidity: float64(payload.VirtualSolReserves) / 1e9,
	}, true
}

func (p *Probe) aggregatorStage(ctx context.Context, mint string) (Result, bool) {
	const probeLamports = 10_000_000 // 0.01 SOL
	const probeSlippageBps = 1500

	res := p.quoteClient.BuyQuote(ctx, mint, probeLamports, probeSlippageBps)
	if !res.Success || !res.HasRoute {
		return Result{}, false
	}

	dex := inferDEX(res.RouteLabel)
	stage := StageIndexing
	if p.hasAggregatorPair(mint) {
		stage = StageListed
	}

	liquidity := 0.0
	if !res.EstimatedLiquidity.IsZero() {
		liquidity, _ = res.EstimatedLiquidity.Float64()
	}

	return Result{
		Status:     StatusTradable,
		Stage:      stage,
		Liquidity:  liquidity,
		DEX:        dex,
		PoolHandle: res.PoolHandle,
	}, true
}

func inferDEX(routeLabel string) string {
	lower := strings.ToLower(routeLabel)
	switch {
	case strings.Contains(lower, "raydium"):
		return "raydium"
	case strings.Contains(lower, "orca"):
		return "orca"
	default:
		return "generic"
	}
}

// hasAggregatorPair reports whether a price-aggregator pair exists for
// mint (spec §4.C step 2), the signal distinguishing INDEXING from
// LISTED. No pair lookup is made: it always returns false, so every
// aggregator-stage result is tagged INDEXING and never LISTED.
func (p *Probe) hasAggregatorPair(mint string) bool {
	return false
}
