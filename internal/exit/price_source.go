package exit

import (
	"context"
	"fmt"

	"solana-gate/internal/quote"
)

// QuotePriceSource derives a USD price from a small sell quote against
// the Quote Client, grounded on trading.Executor.monitorPositions's
// "quote token -> SOL" lookup.
type QuotePriceSource struct {
	client      *quote.Client
	solPriceUSD func() float64
}

// NewQuotePriceSource builds a PriceSource over the Quote Client.
// solPriceUSD supplies the current SOL/USD rate used to convert the
// quote's lamport output into a USD price.
func NewQuotePriceSource(client *quote.Client, solPriceUSD func() float64) *QuotePriceSource {
	return &QuotePriceSource{client: client, solPriceUSD: solPriceUSD}
}

func (q *QuotePriceSource) PriceUSD(ctx context.Context, tokenAddress string) (float64, error) {
	const probeUnits = 1_000_000
	res := q.client.SellQuote(ctx, tokenAddress, probeUnits, 500)
	if !res.Success || !res.HasRoute || res.OutAmount == 0 {
		return 0, fmt.Errorf("no sell route available to price %s", tokenAddress)
	}

	solPrice := 1.0
	if q.solPriceUSD != nil {
		solPrice = q.solPriceUSD()
	}
	lamportsOut := float64(res.OutAmount)
	return lamportsOut / 1e9 * solPrice / probeUnits, nil
}
