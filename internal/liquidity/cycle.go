package liquidity

import (
	"context"
	"fmt"
	"time"
)

// PriceFeed is the external collaborator used by run_full_cycle and
// quick_check to fetch a current liquidity/price snapshot for a token.
// Concrete implementations wrap the Quote Client or an on-chain pool
// decode.
type PriceFeed interface {
	FetchSnapshot(ctx context.Context, tokenAddress string) (liqUSD, priceUSD float64, err error)
}

const (
	fullCyclePollInterval = 10 * time.Second
	fullCycleDuration     = 2 * time.Minute
)

// RunFullCycle drives fullCycleDuration of fullCyclePollInterval polls
// of feed, feeding each observation into the session and invoking
// onUpdate. It exits early if the session becomes unstable (spec §4.D).
func (m *Monitor) RunFullCycle(ctx context.Context, feed PriceFeed, tokenAddress string, onUpdate func(Result)) error {
	deadline := time.Now().Add(fullCycleDuration)
	ticker := time.NewTicker(fullCyclePollInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			liqUSD, priceUSD, err := feed.FetchSnapshot(ctx, tokenAddress)
			if err != nil {
				continue
			}
			m.AddSnapshot(tokenAddress, liqUSD, priceUSD, nil)
			result := m.Evaluate(tokenAddress)
			if onUpdate != nil {
				onUpdate(result)
			}
			if !result.Stable {
				return nil
			}
		}
	}
	return nil
}

// QuickCheck fetches a single snapshot and compares it against the
// expected liquidity, returning the observed liquidity and whether it
// is within tolerance of expected.
func (m *Monitor) QuickCheck(ctx context.Context, feed PriceFeed, tokenAddress string, expectedLiqUSD, tolerancePct float64) (observedLiqUSD float64, withinTolerance bool, err error) {
	liqUSD, _, err := feed.FetchSnapshot(ctx, tokenAddress)
	if err != nil {
		return 0, false, fmt.Errorf("quick check snapshot: %w", err)
	}
	if expectedLiqUSD <= 0 {
		return liqUSD, true, nil
	}
	deviation := (expectedLiqUSD - liqUSD) / expectedLiqUSD * 100
	if deviation < 0 {
		deviation = -deviation
	}
	return liqUSD, deviation <= tolerancePct, nil
}
