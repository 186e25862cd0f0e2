package liquidity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const cleanupInterval = 5 * time.Minute

// Monitor owns the process-wide token_address -> Session map (spec
// §4.D). Grounded on websocket.PriceFeed's RWMutex-guarded map-of-state
// shape and health.Checker.Start's explicit ticker lifecycle.
type Monitor struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewMonitor builds an empty Monitor. Call Start to begin the
// background cleanup ticker.
func NewMonitor() *Monitor {
	return &Monitor{
		sessions: make(map[string]*Session),
	}
}

// Start begins the 5-minute cleanup ticker (spec §4.D cleanup). It
// runs until ctx is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	go func() {
		defer close(m.doneCh)
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.cleanup()
			}
		}
	}()
}

// Stop halts the background cleanup ticker and waits for it to exit.
func (m *Monitor) Stop() {
	if m.stopCh == nil {
		return
	}
	close(m.stopCh)
	<-m.doneCh
}

func (m *Monitor) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	maxAge := 2 * MonitoringDuration
	for token, sess := range m.sessions {
		if sess.age() > maxAge {
			delete(m.sessions, token)
			log.Debug().Str("token", token).Msg("liquidity monitor: evicted aged session")
		}
	}
}

// StartSession begins monitoring a token. A no-op if already monitored.
func (m *Monitor) StartSession(tokenAddress string, initialLiquidityUSD, initialPriceUSD float64, opts StartOpts) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[tokenAddress]; exists {
		return
	}
	m.sessions[tokenAddress] = newSession(tokenAddress, initialLiquidityUSD, initialPriceUSD, opts)
}

// IsMonitored reports whether a session exists for tokenAddress.
func (m *Monitor) IsMonitored(tokenAddress string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[tokenAddress]
	return ok
}

// StopSession terminates and removes a session.
func (m *Monitor) StopSession(tokenAddress string) {
	m.mu.Lock()
	sess, ok := m.sessions[tokenAddress]
	delete(m.sessions, tokenAddress)
	m.mu.Unlock()
	if ok {
		sess.stop()
	}
}

func (m *Monitor) session(tokenAddress string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[tokenAddress]
	return sess, ok
}

// AddSnapshot forwards to the named session, if monitored.
func (m *Monitor) AddSnapshot(tokenAddress string, liqUSD, priceUSD float64, vol24h *float64) {
	if sess, ok := m.session(tokenAddress); ok {
		sess.AddSnapshot(liqUSD, priceUSD, vol24h)
	}
}

// RecordTransaction forwards to the named session, if monitored.
func (m *Monitor) RecordTransaction(tokenAddress, wallet string, isBuy bool, usd float64) {
	if sess, ok := m.session(tokenAddress); ok {
		sess.RecordTransaction(wallet, isBuy, usd)
	}
}

func (m *Monitor) RecordLPWithdrawal(tokenAddress string) {
	if sess, ok := m.session(tokenAddress); ok {
		sess.RecordLPWithdrawal()
	}
}

func (m *Monitor) RecordLPMint(tokenAddress string) {
	if sess, ok := m.session(tokenAddress); ok {
		sess.RecordLPMint()
	}
}

func (m *Monitor) RecordLPAuthorityChange(tokenAddress string) {
	if sess, ok := m.session(tokenAddress); ok {
		sess.RecordLPAuthorityChange()
	}
}

func (m *Monitor) RecordLPSupplyChange(tokenAddress string) {
	if sess, ok := m.session(tokenAddress); ok {
		sess.RecordLPSupplyChange()
	}
}

func (m *Monitor) RecordDeployerLPTransfer(tokenAddress, wallet string) {
	if sess, ok := m.session(tokenAddress); ok {
		sess.RecordDeployerLPTransfer(wallet)
	}
}

// Evaluate returns a value-copy Result for tokenAddress. The zero
// Result (Stable=false) is returned if the token is not monitored.
func (m *Monitor) Evaluate(tokenAddress string) Result {
	sess, ok := m.session(tokenAddress)
	if !ok {
		return Result{}
	}
	return sess.evaluate()
}
