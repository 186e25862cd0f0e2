package solrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const perEndpointTimeout = 6 * time.Second

// endpointState tracks a single endpoint's circuit breaker, grounded on
// blockchain.RPCClient's failure counter (generalized from one breaker
// per client to one breaker per endpoint, since we now have N of them).
type endpointState struct {
	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	circuitOpen bool
}

func (s *endpointState) isOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.circuitOpen {
		return false
	}
	if time.Since(s.lastFailure) > 30*time.Second {
		return false
	}
	return true
}

func (s *endpointState) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
	s.lastFailure = time.Now()
	if s.failures >= 5 {
		s.circuitOpen = true
	}
}

func (s *endpointState) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = 0
	s.circuitOpen = false
}

// Client fans requests out across N priority-ordered RPC endpoints.
type Client struct {
	endpoints  []Endpoint
	states     []*endpointState
	httpClient *http.Client
}

// NewClient builds a Client over the given endpoints, listed in
// priority order. At least two endpoints are expected for the
// multi-RPC cross-check (spec §6), but the client works with one.
func NewClient(endpoints []Endpoint) *Client {
	states := make([]*endpointState, len(endpoints))
	for i := range states {
		states[i] = &endpointState{}
	}
	return &Client{
		endpoints: endpoints,
		states:    states,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// call sends req to the first endpoint whose circuit is closed,
// cascading through the priority list on failure — spec §4.B / the
// teacher's primary/fallback pattern generalized to N endpoints.
func (c *Client) call(ctx context.Context, req Request, result interface{}) error {
	if len(c.endpoints) == 0 {
		return fmt.Errorf("no RPC endpoints configured")
	}

	var lastErr error
	for i, ep := range c.endpoints {
		if c.states[i].isOpen() {
			continue
		}
		err := c.callURL(ctx, ep, req, result)
		if err == nil {
			c.states[i].recordSuccess()
			return nil
		}
		c.states[i].recordFailure()
		lastErr = err
		log.Warn().Str("endpoint", ep.Name).Err(err).Msg("rpc endpoint failed, trying next")
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("all RPC endpoints have open circuits")
	}
	return lastErr
}

func (c *Client) callURL(ctx context.Context, ep Endpoint, req Request, result interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, perEndpointTimeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if ep.APIKey != "" {
		httpReq.Header.Set("x-api-key", ep.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: http request: %w", ep.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: http status %d: %s", ep.Name, resp.StatusCode, string(respBody))
	}

	var rpcResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("%s: decode response: %w", ep.Name, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s: %w", ep.Name, rpcResp.Error)
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%s: unmarshal result: %w", ep.Name, err)
		}
	}
	return nil
}

// GetSlot fetches the current slot from the highest-priority healthy
// endpoint.
func (c *Client) GetSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	req := Request{JSONRPC: "2.0", ID: 1, Method: "getSlot"}
	if err := c.call(ctx, req, &slot); err != nil {
		return 0, err
	}
	return slot, nil
}

// GetBlockTime fetches the unix timestamp of a slot, if known.
func (c *Client) GetBlockTime(ctx context.Context, slot uint64) (*int64, error) {
	var ts *int64
	req := Request{JSONRPC: "2.0", ID: 1, Method: "getBlockTime", Params: []interface{}{slot}}
	if err := c.call(ctx, req, &ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// GetAccountInfo fetches base64-encoded account data.
func (c *Client) GetAccountInfo(ctx context.Context, pubkey string) ([]byte, uint64, error) {
	var result struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value *struct {
			Data  []string `json:"data"`
			Owner string   `json:"owner"`
		} `json:"value"`
	}
	req := Request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getAccountInfo",
		Params:  []interface{}{pubkey, map[string]string{"encoding": "base64"}},
	}
	if err := c.call(ctx, req, &result); err != nil {
		return nil, 0, err
	}
	if result.Value == nil || len(result.Value.Data) == 0 {
		return nil, result.Context.Slot, fmt.Errorf("account not found: %s", pubkey)
	}
	data, err := decodeBase64(result.Value.Data[0])
	if err != nil {
		return nil, result.Context.Slot, fmt.Errorf("decode account data: %w", err)
	}
	return data, result.Context.Slot, nil
}

// GetTokenSupplyParallel queries getTokenSupply against every endpoint
// concurrently (spec §4.B "parallel token-supply / slot queries") and
// returns every per-endpoint outcome for cross-checking.
func (c *Client) GetTokenSupplyParallel(ctx context.Context, mint string) []SupplyResult {
	results := make([]SupplyResult, len(c.endpoints))

	g, gctx := errgroup.WithContext(ctx)
	for i, ep := range c.endpoints {
		i, ep := i, ep
		g.Go(func() error {
			var result struct {
				Context struct {
					Slot uint64 `json:"slot"`
				} `json:"context"`
				Value struct {
					Amount   string `json:"amount"`
					Decimals uint8  `json:"decimals"`
				} `json:"value"`
			}
			req := Request{JSONRPC: "2.0", ID: 1, Method: "getTokenSupply", Params: []interface{}{mint}}
			err := c.callURL(gctx, ep, req, &result)
			var supply uint64
			if err == nil {
				supply = parseUint(result.Value.Amount)
			}
			results[i] = SupplyResult{
				Endpoint: ep.Name,
				Supply:   supply,
				Decimals: result.Value.Decimals,
				Slot:     result.Context.Slot,
				Err:      err,
			}
			return nil // allSettled-style: one endpoint's failure doesn't cancel the rest
		})
	}
	_ = g.Wait()
	return results
}

// SimulateTransaction runs simulateTransaction and classifies the
// outcome per spec §4.C strict on-chain mode.
func (c *Client) SimulateTransaction(ctx context.Context, base64Tx string) SimResult {
	var result struct {
		Value struct {
			Err interface{} `json:"err"`
			Logs []string    `json:"logs"`
		} `json:"value"`
	}
	req := Request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "simulateTransaction",
		Params: []interface{}{base64Tx, map[string]interface{}{
			"encoding":       "base64",
			"sigVerify":      false,
			"replaceRecentBlockhash": true,
		}},
	}
	if err := c.call(ctx, req, &result); err != nil {
		return SimResult{Outcome: "FAILED", RawErr: err.Error()}
	}
	if result.Value.Err == nil {
		return SimResult{Outcome: "SIM_OK"}
	}
	errBytes, _ := json.Marshal(result.Value.Err)
	return classifySimError(string(errBytes))
}

// classifySimError maps known program errors to the NOT_READY/SIM_OK/
// FAILED taxonomy from spec §4.C.
func classifySimError(raw string) SimResult {
	switch {
	case contains(raw, "NotOpenTimeYet"), contains(raw, "InvalidPoolState"), contains(raw, "InsufficientFunds") && !contains(raw, "InsufficientFundsForFee"):
		return SimResult{Outcome: "NOT_READY", RawErr: raw}
	case contains(raw, "InsufficientFundsForFee"):
		return SimResult{Outcome: "SIM_OK", RawErr: raw}
	default:
		return SimResult{Outcome: "FAILED", RawErr: raw}
	}
}
