// Package cluster implements the wallet-funding cache used by the
// WALLET_CLUSTER and DEPLOYER_BEHAVIOR rules: a bounded, TTL'd record
// of each wallet's funding ancestry (spec §3 Wallet-funding record).
package cluster

import (
	"sync"
	"time"
)

const (
	ttl         = 60 * time.Second
	maxEntries  = 500
)

// FundingRecord is one wallet's funding-ancestry snapshot.
type FundingRecord struct {
	Address         string
	Depth1Funder    string
	Depth2Funder    string
	IsFresh         bool // wallet age < 24h
	IsCEXFunded     bool
	WalletAgeHours  float64
	InitialFundingSOL float64
	FirstTxTimestamp  *time.Time
}

type entry struct {
	record     FundingRecord
	insertedAt time.Time
}

// Cache is a bounded, TTL'd lookup of wallet funding records, grounded
// on quote.cache's insertion-order eviction policy.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	order   []string
}

// NewCache builds an empty wallet-funding cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]entry),
	}
}

// Get returns the cached record for address if present and still fresh.
func (c *Cache) Get(address string) (FundingRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[address]
	if !ok {
		return FundingRecord{}, false
	}
	if time.Since(e.insertedAt) > ttl {
		delete(c.entries, address)
		return FundingRecord{}, false
	}
	return e.record, true
}

// Put stores a funding record, evicting the oldest entry on overflow.
func (c *Cache) Put(record FundingRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[record.Address]; !exists {
		if len(c.entries) >= maxEntries {
			c.evictOldestLocked()
		}
		c.order = append(c.order, record.Address)
	}
	c.entries[record.Address] = entry{record: record, insertedAt: time.Now()}
}

func (c *Cache) evictOldestLocked() {
	for len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if _, ok := c.entries[oldest]; ok {
			delete(c.entries, oldest)
			return
		}
	}
}
