// Package exit implements the Auto-Exit Engine: a periodic scan of
// open positions that evaluates exit conditions and requests a signed
// swap from an external wallet collaborator (spec §4.G).
package exit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is a position's lifecycle state.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Reason names why a position was closed.
type Reason string

const (
	ReasonTakeProfit   Reason = "take_profit"
	ReasonStopLoss     Reason = "stop_loss"
	ReasonEmergency    Reason = "emergency_exit"
	ReasonRugDetected  Reason = "rug_detected"
	ReasonManualClose  Reason = "manual_close"
)

// Position is the spec §3 Position model: an open or closed stake in
// one token, tracked from entry through exit.
type Position struct {
	ID             string
	TokenAddress   string
	TokenSymbol    string
	Amount         uint64 // raw token units held
	EntrySOL       float64
	EntryPriceUSD  float64
	CurrentPriceUSD float64
	Status         Status
	PnLPercent     float64
	ExitReason     Reason
	ClosedAt       time.Time
	OpenedAt       time.Time

	mu sync.RWMutex
}

// NewPosition opens a new tracked position, assigning it a fresh
// correlation ID used to tie its whole lifecycle together across the
// activity log (spec §3 Position model).
func NewPosition(tokenAddress, tokenSymbol string, amount uint64, entrySOL, entryPriceUSD float64) *Position {
	now := time.Now()
	return &Position{
		ID:              uuid.New().String(),
		TokenAddress:    tokenAddress,
		TokenSymbol:     tokenSymbol,
		Amount:          amount,
		EntrySOL:        entrySOL,
		EntryPriceUSD:   entryPriceUSD,
		CurrentPriceUSD: entryPriceUSD,
		Status:          StatusOpen,
		OpenedAt:        now,
	}
}

// Snapshot returns a thread-safe copy for read-only consumers (TUI/API).
func (p *Position) Snapshot() *Position {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &Position{
		ID:              p.ID,
		TokenAddress:    p.TokenAddress,
		TokenSymbol:     p.TokenSymbol,
		Amount:          p.Amount,
		EntrySOL:        p.EntrySOL,
		EntryPriceUSD:   p.EntryPriceUSD,
		CurrentPriceUSD: p.CurrentPriceUSD,
		Status:          p.Status,
		PnLPercent:      p.PnLPercent,
		ExitReason:      p.ExitReason,
		ClosedAt:        p.ClosedAt,
		OpenedAt:        p.OpenedAt,
	}
}

// UpdatePrice records a fresh price observation and recomputes
// unrealized PnL, grounded on trading.Position.UpdateStats's
// multiple-based PnL (spec §3: pnl = (current/entry - 1) * 100).
func (p *Position) UpdatePrice(currentPriceUSD float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CurrentPriceUSD = currentPriceUSD
	if p.EntryPriceUSD > 0 {
		p.PnLPercent = (currentPriceUSD/p.EntryPriceUSD - 1) * 100
	}
}

func (p *Position) pnl() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.PnLPercent
}

func (p *Position) close(reason Reason, closedAt time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = StatusClosed
	p.ExitReason = reason
	p.ClosedAt = closedAt
}

// Config holds the Auto-Exit Engine's tunable thresholds.
type Config struct {
	ScanInterval      time.Duration
	TakeProfitPercent float64
	StopLossPercent   float64
	AutoExecute       bool
}

// DefaultConfig returns the spec's literal default (30s scan).
func DefaultConfig() Config {
	return Config{
		ScanInterval:      30 * time.Second,
		TakeProfitPercent: 100, // 2x
		StopLossPercent:   -30,
		AutoExecute:       true,
	}
}
