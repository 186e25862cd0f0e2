package liquidity

import (
	"encoding/json"
	"strconv"

	"github.com/rs/zerolog/log"

	"solana-gate/internal/websocket"
)

// wsClient is the subset of *websocket.Client the feed depends on,
// narrowed so it can be faked in tests.
type wsClient interface {
	AccountSubscribe(address string, handler func(json.RawMessage)) (uint64, error)
}

// Feed subscribes a Monitor's tracked tokens to live LP account
// changes over a websocket connection (spec §4.D's "on-chain event
// feed"), grounded on websocket.PriceFeed's pool-account subscription
// pattern generalized from price ticks to LP supply/authority deltas.
type Feed struct {
	client  wsClient
	monitor *Monitor
}

// NewFeed wires a websocket client into a Monitor.
func NewFeed(client wsClient, monitor *Monitor) *Feed {
	return &Feed{client: client, monitor: monitor}
}

// accountNotification is the subset of a Solana accountSubscribe
// notification this feed inspects: the pool account's lamport balance
// (LP withdrawal) and the LP mint's parsed supply and mint authority
// (LP mint / authority changes). Owner is decoded but not inspected.
type accountNotification struct {
	Value struct {
		Lamports uint64 `json:"lamports"`
		Owner    string `json:"owner"`
		Data     struct {
			Parsed struct {
				Info struct {
					Supply        string `json:"supply"`
					MintAuthority string `json:"mintAuthority"`
				} `json:"info"`
			} `json:"parsed"`
		} `json:"data"`
	} `json:"value"`
}

// TrackPool subscribes to the pool account holding tokenAddress's
// liquidity, forwarding lamport-balance drops to
// Monitor.RecordLPWithdrawal.
func (f *Feed) TrackPool(tokenAddress, poolAddress string) error {
	lastLamports := uint64(0)
	_, err := f.client.AccountSubscribe(poolAddress, func(data json.RawMessage) {
		var notif accountNotification
		if err := json.Unmarshal(data, &notif); err != nil {
			log.Warn().Err(err).Str("token", tokenAddress).Msg("liquidity feed: malformed pool notification")
			return
		}
		if lastLamports > 0 && notif.Value.Lamports < lastLamports {
			f.monitor.RecordLPWithdrawal(tokenAddress)
		}
		lastLamports = notif.Value.Lamports
	})
	return err
}

// TrackLPMint subscribes to the LP mint account, forwarding supply
// growth to Monitor.RecordLPMint and authority changes to
// Monitor.RecordLPAuthorityChange.
func (f *Feed) TrackLPMint(tokenAddress, lpMintAddress string) error {
	lastSupply := ""
	lastAuthority := ""
	_, err := f.client.AccountSubscribe(lpMintAddress, func(data json.RawMessage) {
		var notif accountNotification
		if err := json.Unmarshal(data, &notif); err != nil {
			log.Warn().Err(err).Str("token", tokenAddress).Msg("liquidity feed: malformed LP mint notification")
			return
		}
		info := notif.Value.Data.Parsed.Info
		prevSupply, prevErr := strconv.ParseUint(lastSupply, 10, 64)
		curSupply, curErr := strconv.ParseUint(info.Supply, 10, 64)
		if prevErr == nil && curErr == nil && curSupply > prevSupply {
			f.monitor.RecordLPSupplyChange(tokenAddress)
			f.monitor.RecordLPMint(tokenAddress)
		}
		if lastAuthority != "" && info.MintAuthority != lastAuthority {
			f.monitor.RecordLPAuthorityChange(tokenAddress)
		}
		lastSupply = info.Supply
		lastAuthority = info.MintAuthority
	})
	return err
}
