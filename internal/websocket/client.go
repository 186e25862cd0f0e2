package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// rpcRequest is the JSON-RPC 2.0 envelope used for Solana's
// account/signature subscribe calls.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcSubscribeResponse struct {
	ID     uint64 `json:"id"`
	Result uint64 `json:"result"`
}

type rpcNotification struct {
	Method string `json:"method"`
	Params struct {
		Subscription uint64          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}

// Client is a gorilla/websocket connection to a Solana
// account-subscribe endpoint (Shyft-style), grounded on
// solrpc.Client's JSON-RPC envelope generalized to a persistent
// subscription stream instead of request/response polling. It does not
// redial: after a read error the read loop waits a second and reads
// again from the same connection.
type Client struct {
	url  string
	conn *websocket.Conn
	mu   sync.Mutex

	nextID atomic.Uint64

	// pending maps a not-yet-acknowledged subscribe request ID to the
	// handler that should receive its notifications once the
	// subscription ID comes back.
	pending   map[uint64]func(json.RawMessage)
	pendingMu sync.Mutex

	// subs maps an active subscription ID to its notification handler.
	subs   map[uint64]func(json.RawMessage)
	subsMu sync.RWMutex

	closeCh chan struct{}
}

// NewClient builds a Client pointed at url. Call Connect to dial.
func NewClient(url string) *Client {
	return &Client{
		url:     url,
		pending: make(map[uint64]func(json.RawMessage)),
		subs:    make(map[uint64]func(json.RawMessage)),
		closeCh: make(chan struct{}),
	}
}

// Connect dials the websocket endpoint and starts the read loop.
func (c *Client) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("dial websocket: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop()
	return nil
}

// Close terminates the connection.
func (c *Client) Close() error {
	select {
	case <-c.closeCh:
	default:
		close(c.closeCh)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) readLoop() {
	for {
		select {
		case <-c.closeCh:
			return
		default:
		}

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Warn().Err(err).Msg("websocket client: read failed")
			time.Sleep(time.Second)
			continue
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	var ack rpcSubscribeResponse
	if err := json.Unmarshal(data, &ack); err == nil && ack.Result != 0 {
		c.pendingMu.Lock()
		handler, ok := c.pending[ack.ID]
		if ok {
			delete(c.pending, ack.ID)
		}
		c.pendingMu.Unlock()
		if ok {
			c.subsMu.Lock()
			c.subs[ack.Result] = handler
			c.subsMu.Unlock()
		}
		return
	}

	var notif rpcNotification
	if err := json.Unmarshal(data, &notif); err != nil {
		return
	}
	c.subsMu.RLock()
	handler, ok := c.subs[notif.Params.Subscription]
	c.subsMu.RUnlock()
	if ok && handler != nil {
		handler(notif.Params.Result)
	}
}

func (c *Client) send(method string, params []interface{}, handler func(json.RawMessage)) (uint64, error) {
	id := c.nextID.Add(1)

	if handler != nil {
		c.pendingMu.Lock()
		c.pending[id] = handler
		c.pendingMu.Unlock()
	}

	req := rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	payload, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("marshal subscribe request: %w", err)
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return 0, fmt.Errorf("websocket client: not connected")
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return 0, fmt.Errorf("write subscribe request: %w", err)
	}
	return id, nil
}

// AccountSubscribe subscribes to account-data changes for address,
// invoking handler on every notification.
func (c *Client) AccountSubscribe(address string, handler func(json.RawMessage)) (uint64, error) {
	return c.send("accountSubscribe", []interface{}{
		address,
		map[string]string{"encoding": "jsonParsed", "commitment": "confirmed"},
	}, handler)
}

// SignatureSubscribe subscribes to confirmation status for signature.
func (c *Client) SignatureSubscribe(signature string, handler func(json.RawMessage)) (uint64, error) {
	return c.send("signatureSubscribe", []interface{}{
		signature,
		map[string]string{"commitment": "confirmed"},
	}, handler)
}

// Unsubscribe cancels subscription subID using the paired unsubscribe
// method name (e.g. "accountUnsubscribe").
func (c *Client) Unsubscribe(method string, subID uint64) error {
	c.subsMu.Lock()
	delete(c.subs, subID)
	c.subsMu.Unlock()

	_, err := c.send(method, []interface{}{subID}, nil)
	return err
}
