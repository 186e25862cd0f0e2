// Package quote implements the swap-aggregator Quote Client: buy/sell
// route lookups raced across configured endpoints, a 30s TTL cache, and
// a circuit breaker — spec §4.A.
package quote

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction distinguishes a buy (SOL->mint) from a sell (mint->SOL) quote.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Key identifies a cache entry: (direction, mint, amount).
type Key struct {
	Direction Direction
	Mint      string
	Amount    uint64
}

// Result is the Quote Client's canonical return shape (spec §4.A
// QuoteResult), independent of the wire format of any one aggregator.
type Result struct {
	Success            bool
	HasRoute           bool
	OutAmount          uint64
	PriceImpactPct     decimal.Decimal
	RouteLabel         string
	PoolHandle         string
	EstimatedLiquidity decimal.Decimal
	RateLimited        bool
	Error              error
}

// Endpoint is one configured aggregator endpoint.
type Endpoint struct {
	Name    string
	BaseURL string
	APIKey  string
}

const (
	cacheTTL          = 30 * time.Second
	circuitResetAfter = 60 * time.Second
	fanoutDeadline    = 6 * time.Second
	staggerStep       = 100 * time.Millisecond
	// priceImpactRejectPct is the threshold above which a route is
	// treated as an uninitialized pool (spec §4.A step 5).
	priceImpactRejectPct = 50.0
	minEstimatedLiquidity = 5.0
)
