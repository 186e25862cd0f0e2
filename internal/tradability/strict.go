package tradability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"solana-gate/internal/solrpc"
)

// CheckPoolReadiness validates a decoded pool account against the
// readiness thresholds used by strict on-chain mode (spec §4.C):
// status bits indicate initialized (1 or 6), open_time has passed,
// both vaults hold a positive balance, and liquidity clears the
// configured minimum.
func (p *Probe) CheckPoolReadiness(pool *solrpc.PoolAccount, currentBlockTime int64, baseVaultBalance, quoteVaultBalance, liquidityUSD float64) ReadinessCheck {
	if pool.Status != minPoolStatus1 && pool.Status != minPoolStatus6 {
		return ReadinessCheck{Ready: false, Reason: fmt.Sprintf("pool status %d is not initialized", pool.Status)}
	}
	if int64(pool.OpenTime) > currentBlockTime {
		return ReadinessCheck{Ready: false, Reason: "pool open_time is in the future"}
	}
	if baseVaultBalance <= 0 || quoteVaultBalance <= 0 {
		return ReadinessCheck{Ready: false, Reason: "one or both pool vaults are empty"}
	}
	if liquidityUSD < p.minLiquidity {
		return ReadinessCheck{Ready: false, Reason: fmt.Sprintf("liquidity %.2f below configured minimum %.2f", liquidityUSD, p.minLiquidity)}
	}
	return ReadinessCheck{Ready: true}
}

// WaitForReadiness polls readinessFn, waiting pollInterval of wall-clock
// time between attempts, for at most pollCapAttempts tries; after each
// wait it reads the slot via get_slot and stops once the chain has
// advanced p.maxBlockWaits blocks past the starting slot. Grounded on
// health.Checker.Start's ticker-loop shape.
func (p *Probe) WaitForReadiness(ctx context.Context, readinessFn func(ctx context.Context) (ReadinessCheck, error)) (ReadinessCheck, error) {
	startSlot, err := p.rpcClient.GetSlot(ctx)
	if err != nil {
		return ReadinessCheck{}, fmt.Errorf("get starting slot: %w", err)
	}

	var lastCheck ReadinessCheck
	for attempt := 0; attempt < pollCapAttempts; attempt++ {
		check, err := readinessFn(ctx)
		if err != nil {
			return ReadinessCheck{}, fmt.Errorf("readiness check attempt %d: %w", attempt, err)
		}
		lastCheck = check
		if check.Ready {
			return check, nil
		}

		select {
		case <-ctx.Done():
			return lastCheck, ctx.Err()
		case <-time.After(pollInterval):
		}

		slot, err := p.rpcClient.GetSlot(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("wait_for_readiness: get_slot failed mid-poll")
			continue
		}
		if int(slot-startSlot) >= p.maxBlockWaits {
			log.Debug().Uint64("slot", slot).Uint64("startSlot", startSlot).Msg("wait_for_readiness: block budget exhausted")
			break
		}
		_ = pollStep // advancing by wall-clock interval; pollStep documents the intended block cadence
	}

	return lastCheck, nil
}

// ClassifySwapSimulation maps the RPC simulate_tx outcome to the
// NOT_READY/SIM_OK/FAILED taxonomy of strict on-chain mode (spec §4.C).
// solrpc.Client.SimulateTransaction already performs this classification
// against known program errors; this is a thin re-export for callers
// that only import the tradability package.
func ClassifySwapSimulation(result solrpc.SimResult) string {
	return result.Outcome
}
