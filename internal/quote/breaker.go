package quote

import (
	"sync"
	"time"
)

// breaker is the small state object recommended by DESIGN NOTES §9:
// a concrete {open, openedAt} struct, instead of two module-level
// variables. Grounded on blockchain.RPCClient's circuit breaker in the
// teacher, generalized so the Quote Client owns its own instance rather
// than sharing process-global state.
type breaker struct {
	mu       sync.Mutex
	open     bool
	openedAt time.Time
}

// mayCall reports whether a request should be attempted. The breaker
// self-heals once CIRCUIT_RESET has elapsed (spec §4.A step 2).
func (b *breaker) mayCall() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	if time.Since(b.openedAt) >= circuitResetAfter {
		b.open = false
		return true
	}
	return false
}

// recordRateLimited trips the breaker: a request failed entirely and was
// rate-limited (spec §4.A step 6).
func (b *breaker) recordRateLimited() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = true
	b.openedAt = time.Now()
}

// reset clears the breaker after a successful call.
func (b *breaker) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
}

func (b *breaker) isOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}
