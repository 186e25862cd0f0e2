package exit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"solana-gate/internal/activity"
	"solana-gate/internal/liquidity"
	"solana-gate/internal/tradability"
)

// PriceSource supplies the current USD price for an open position's
// token, generalized from trading.Executor.monitorPositions's
// Jupiter-quote lookup.
type PriceSource interface {
	PriceUSD(ctx context.Context, tokenAddress string) (float64, error)
}

// Collaborators are the external services the engine consults per
// scan. Any of them may be nil; a nil collaborator degrades its
// corresponding trigger to a no-op rather than panicking, and a nil
// Signer turns a triggered exit into a pending-exit notification.
type Collaborators struct {
	Prices  PriceSource
	Monitor *liquidity.Monitor
	Probe   *tradability.Probe
	Signer  WalletSigner
	Sink    activity.Sink
}

// Engine runs the periodic Auto-Exit scan (spec §4.G). It owns the
// position book and a per-mint in-flight dedup lock, grounded on
// trading.Executor.StartMonitoring's ticker loop.
type Engine struct {
	config        Config
	collaborators Collaborators

	mu        sync.RWMutex
	positions map[string]*Position

	inFlight sync.Map // mint -> *sync.Mutex

	onExit func(*Position)

	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds an Engine holding no positions yet.
func New(config Config, collaborators Collaborators) *Engine {
	return &Engine{
		config:        config,
		collaborators: collaborators,
		positions:     make(map[string]*Position),
	}
}

// OnExit registers a callback invoked after a position is closed.
func (e *Engine) OnExit(fn func(*Position)) {
	e.onExit = fn
}

// Open registers a new open position for monitoring.
func (e *Engine) Open(p *Position) {
	p.Status = StatusOpen
	if p.OpenedAt.IsZero() {
		p.OpenedAt = time.Now()
	}
	e.mu.Lock()
	e.positions[p.TokenAddress] = p
	e.mu.Unlock()
}

// Positions returns thread-safe snapshots of every tracked position.
func (e *Engine) Positions() []*Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Position, 0, len(e.positions))
	for _, p := range e.positions {
		out = append(out, p.Snapshot())
	}
	return out
}

// Start begins the periodic scan loop. It runs until ctx is cancelled
// or Stop is called.
func (e *Engine) Start(ctx context.Context) {
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})

	interval := e.config.ScanInterval
	if interval <= 0 {
		interval = DefaultConfig().ScanInterval
	}

	go func() {
		defer close(e.doneCh)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-e.stopCh:
				return
			case <-ticker.C:
				e.scan(ctx)
			}
		}
	}()
}

// Stop halts the scan loop and waits for it to exit.
func (e *Engine) Stop() {
	if e.stopCh == nil {
		return
	}
	close(e.stopCh)
	<-e.doneCh
}

// scan evaluates every open position's exit conditions and fires
// exits for any that trip (spec §4.G steps 1-5).
func (e *Engine) scan(ctx context.Context) {
	for _, p := range e.openPositions() {
		reason, shouldExit := e.evaluate(ctx, p)
		if !shouldExit {
			continue
		}
		e.requestExit(ctx, p, reason)
	}
}

func (e *Engine) openPositions() []*Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Position, 0, len(e.positions))
	for _, p := range e.positions {
		if p.Status == StatusOpen {
			out = append(out, p)
		}
	}
	return out
}

// evaluate computes the latest price and checks each trigger in the
// spec's priority order: take-profit/stop-loss, then emergency-exit
// (liquidity monitor), then rug-detected (tradability probe).
func (e *Engine) evaluate(ctx context.Context, p *Position) (Reason, bool) {
	if e.collaborators.Prices != nil {
		if price, err := e.collaborators.Prices.PriceUSD(ctx, p.TokenAddress); err == nil {
			p.UpdatePrice(price)
		} else {
			log.Warn().Err(err).Str("token", p.TokenAddress).Msg("exit engine: price lookup failed")
		}
	}

	pnl := p.pnl()
	if pnl >= e.config.TakeProfitPercent {
		return ReasonTakeProfit, true
	}
	if pnl <= e.config.StopLossPercent {
		return ReasonStopLoss, true
	}

	if e.collaborators.Monitor != nil && e.collaborators.Monitor.IsMonitored(p.TokenAddress) {
		result := e.collaborators.Monitor.Evaluate(p.TokenAddress)
		if !result.Stable && (result.LPWithdrawalDetected || result.LiquidityDropPercent > 50) {
			return ReasonEmergency, true
		}
	}

	if e.collaborators.Probe != nil {
		probeResult := e.collaborators.Probe.Probe(ctx, p.TokenAddress)
		if probeResult.Status == tradability.StatusDiscarded {
			return ReasonRugDetected, true
		}
	}

	return "", false
}

// requestExit coalesces concurrent triggers for the same position
// (spec §4.G ordering guarantee) and dispatches the signed-swap
// request, or a pending-exit notification if auto_execute is off.
func (e *Engine) requestExit(ctx context.Context, p *Position, reason Reason) {
	lockI, _ := e.inFlight.LoadOrStore(p.TokenAddress, &sync.Mutex{})
	lock := lockI.(*sync.Mutex)
	if !lock.TryLock() {
		return // another trigger for this mint is already in flight
	}
	defer lock.Unlock()

	if p.Status != StatusOpen {
		return // closed by the in-flight request that just released the lock
	}

	if !e.config.AutoExecute || e.collaborators.Signer == nil {
		e.emit(p, activity.LevelWarning, fmt.Sprintf("pending exit: %s (auto_execute disabled or no signer configured)", reason))
		return
	}

	txSig, err := e.submitWithRetry(ctx, p, reason)
	if err != nil {
		e.emit(p, activity.LevelError, fmt.Sprintf("exit request failed for reason %s: %v", reason, err))
		return
	}

	p.close(reason, time.Now())
	e.emit(p, activity.LevelSuccess, fmt.Sprintf("position closed: %s (tx %s)", reason, txSig))
	if e.onExit != nil {
		e.onExit(p)
	}
}

// submitWithRetry wraps the signer call in an exponential backoff
// policy, grounded on pumpswap.DEX.buildAndSubmitTransaction's
// backoff.Retry usage.
func (e *Engine) submitWithRetry(ctx context.Context, p *Position, reason Reason) (string, error) {
	op := func() (string, error) {
		return e.collaborators.Signer.SignAndSubmitSell(ctx, p.TokenAddress, p.Amount)
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(15*time.Second),
	)
}

func (e *Engine) emit(p *Position, level activity.Level, message string) {
	if e.collaborators.Sink == nil {
		return
	}
	e.collaborators.Sink.Emit(activity.Entry{
		TokenSymbol:   p.TokenSymbol,
		TokenAddress:  p.TokenAddress,
		Level:         level,
		Category:      activity.CategoryExit,
		Message:       message,
		Timestamp:     time.Now(),
		CorrelationID: p.ID,
	})
}
