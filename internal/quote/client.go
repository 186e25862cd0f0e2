package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/net/http2"
	"golang.org/x/sync/errgroup"
)

// aggregatorResponse is the subset of fields consumed from a swap
// aggregator's quote response (spec §6: outAmount, priceImpactPct,
// routePlan[0].swapInfo.{label,ammKey}, error).
type aggregatorResponse struct {
	OutAmount      string `json:"outAmount"`
	PriceImpactPct string `json:"priceImpactPct"`
	RoutePlan      []struct {
		SwapInfo struct {
			Label  string `json:"label"`
			AmmKey string `json:"ammKey"`
		} `json:"swapInfo"`
	} `json:"routePlan"`
	Error string `json:"error"`
}

// Client races buy/sell quotes across configured aggregator endpoints
// with a TTL cache and circuit breaker (spec §4.A).
type Client struct {
	endpoints  []Endpoint
	httpClient *http.Client
	cache      *cache
	breaker    *breaker
}

// NewClient builds a Quote Client over the given aggregator endpoints.
// At least two endpoints must be supplied to race meaningfully (spec §6),
// but the client degrades gracefully with fewer.
func NewClient(endpoints []Endpoint) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	http2.ConfigureTransport(transport)

	return &Client{
		endpoints:  endpoints,
		httpClient: &http.Client{Transport: transport, Timeout: fanoutDeadline},
		cache:      newCache(2000),
		breaker:    &breaker{},
	}
}

// BuyQuote fetches a buy route (SOL -> mint) for amountLamports.
func (c *Client) BuyQuote(ctx context.Context, mint string, amountLamports uint64, slippageBps int) Result {
	return c.quote(ctx, DirectionBuy, SOLMint, mint, amountLamports, slippageBps)
}

// SellQuote fetches a sell route (mint -> SOL) for tokenRawAmount.
func (c *Client) SellQuote(ctx context.Context, mint string, tokenRawAmount uint64, slippageBps int) Result {
	return c.quote(ctx, DirectionSell, mint, SOLMint, tokenRawAmount, slippageBps)
}

// SOLMint is the wrapped-SOL mint address, used as one leg of every quote.
const SOLMint = "So11111111111111111111111111111111111111112"

func (c *Client) quote(ctx context.Context, direction Direction, inputMint, outputMint string, amount uint64, slippageBps int) Result {
	key := Key{Direction: direction, Mint: pickMint(direction, inputMint, outputMint), Amount: amount}

	if cached, ok := c.cache.get(key); ok {
		return cached
	}

	if !c.breaker.mayCall() {
		log.Debug().Str("mint", key.Mint).Msg("quote circuit breaker open, skipping fanout")
		return Result{Success: false}
	}

	if len(c.endpoints) == 0 {
		return Result{Success: false, Error: fmt.Errorf("no aggregator endpoints configured")}
	}

	result := c.race(ctx, inputMint, outputMint, amount, slippageBps)
	c.cache.put(key, result)
	return result
}

func pickMint(direction Direction, inputMint, outputMint string) string {
	if direction == DirectionBuy {
		return outputMint
	}
	return inputMint
}

// race issues requests to every endpoint in parallel with a 100ms
// staggered start (spec §4.A step 3) and accepts the first non-error
// response with out_amount > 0 (step 4), cancelling the rest.
func (c *Client) race(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) Result {
	ctx, cancel := context.WithTimeout(ctx, fanoutDeadline)
	defer cancel()

	type outcome struct {
		result      Result
		rateLimited bool
		err         error
	}

	resultsCh := make(chan outcome, len(c.endpoints))
	var wg sync.WaitGroup

	for i, ep := range c.endpoints {
		wg.Add(1)
		go func(i int, ep Endpoint) {
			defer wg.Done()
			select {
			case <-time.After(time.Duration(i) * staggerStep):
			case <-ctx.Done():
				return
			}
			res, rateLimited, err := c.fetchOne(ctx, ep, inputMint, outputMint, amount, slippageBps)
			select {
			case resultsCh <- outcome{result: res, rateLimited: rateLimited, err: err}:
			case <-ctx.Done():
			}
		}(i, ep)
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	var sawRateLimit bool
	var lastErr error
	for out := range resultsCh {
		if out.rateLimited {
			sawRateLimit = true
		}
		if out.err != nil {
			lastErr = out.err
			continue
		}
		if out.result.OutAmount > 0 {
			c.breaker.reset()
			cancel() // first non-error wins; cancel the losers
			return out.result
		}
	}

	if sawRateLimit {
		c.breaker.recordRateLimited()
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no route found across %d endpoints", len(c.endpoints))
	}
	return Result{Success: false, HasRoute: false, RateLimited: sawRateLimit, Error: lastErr}
}

func (c *Client) fetchOne(ctx context.Context, ep Endpoint, inputMint, outputMint string, amount uint64, slippageBps int) (Result, bool, error) {
	url := fmt.Sprintf("%s/quote?inputMint=%s&outputMint=%s&amount=%d&slippageBps=%d",
		ep.BaseURL, inputMint, outputMint, amount, slippageBps)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if ep.APIKey != "" {
		req.Header.Set("x-api-key", ep.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, false, fmt.Errorf("%s: http request: %w", ep.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Result{}, true, fmt.Errorf("%s: rate limited", ep.Name)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Result{}, false, fmt.Errorf("%s: status %d: %s", ep.Name, resp.StatusCode, string(body))
	}

	var payload aggregatorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, false, fmt.Errorf("%s: decode: %w", ep.Name, err)
	}
	if payload.Error != "" {
		return Result{}, false, fmt.Errorf("%s: %s", ep.Name, payload.Error)
	}

	outAmount, _ := strconv.ParseUint(payload.OutAmount, 10, 64)
	impactPct, _ := decimal.NewFromString(payload.PriceImpactPct)

	result := Result{
		Success:        true,
		OutAmount:      outAmount,
		PriceImpactPct: impactPct,
	}
	if len(payload.RoutePlan) > 0 {
		result.RouteLabel = payload.RoutePlan[0].SwapInfo.Label
		result.PoolHandle = payload.RoutePlan[0].SwapInfo.AmmKey
	}

	// Reject a route whose reported impact implies an uninitialized pool
	// (spec §4.A step 5).
	impactFloat, _ := impactPct.Float64()
	if impactFloat > priceImpactRejectPct {
		result.HasRoute = false
		return result, false, nil
	}
	result.HasRoute = outAmount > 0

	// Estimate liquidity: input_sol / (price_impact_pct / 100), floored
	// at 5 (spec §4.A step 7).
	if impactFloat > 0 {
		inputSOL := decimal.NewFromInt(int64(amount)).Div(decimal.NewFromInt(1e9))
		estimated := inputSOL.Div(impactPct.Div(decimal.NewFromInt(100)))
		if estimated.LessThan(decimal.NewFromFloat(minEstimatedLiquidity)) {
			estimated = decimal.NewFromFloat(minEstimatedLiquidity)
		}
		result.EstimatedLiquidity = estimated
	}

	return result, false, nil
}

// BatchBuyQuotes fetches buy quotes for many mints, bounded by
// concurrency (spec §4.A batching). Failures become {success:false}
// rather than aborting the batch.
func (c *Client) BatchBuyQuotes(ctx context.Context, mints []string, amountLamports uint64, slippageBps, concurrency int) map[string]Result {
	return c.batch(ctx, mints, concurrency, func(ctx context.Context, mint string) Result {
		return c.BuyQuote(ctx, mint, amountLamports, slippageBps)
	})
}

// BatchSellQuotes is the sell-direction counterpart of BatchBuyQuotes.
func (c *Client) BatchSellQuotes(ctx context.Context, mints []string, tokenRawAmount uint64, slippageBps, concurrency int) map[string]Result {
	return c.batch(ctx, mints, concurrency, func(ctx context.Context, mint string) Result {
		return c.SellQuote(ctx, mint, tokenRawAmount, slippageBps)
	})
}

func (c *Client) batch(ctx context.Context, mints []string, concurrency int, fn func(context.Context, string) Result) map[string]Result {
	if concurrency <= 0 {
		concurrency = 5
	}

	results := make(map[string]Result, len(mints))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, mint := range mints {
		mint := mint
		g.Go(func() error {
			res := fn(gctx, mint)
			mu.Lock()
			results[mint] = res
			mu.Unlock()
			return nil // allSettled-style: never abort the batch on one failure
		})
	}
	_ = g.Wait()

	return results
}
