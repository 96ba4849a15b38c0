package gateway

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"options-scanner/internal/models"
)

// Ticker streams market data updates for subscribed contracts.
type Ticker interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Subscribe(contracts []models.Instrument) error
	Unsubscribe(contracts []models.Instrument) error
	OnTick(handler func(models.Tick))
	OnError(handler func(error))
	IsConnected() bool
}

// PortalTicker implements Ticker over the gateway's websocket endpoint.
type PortalTicker struct {
	url  string
	conn *websocket.Conn

	// Handlers
	onTick  func(models.Tick)
	onError func(error)

	// State
	connected  bool
	subscribed map[int64]string // conid -> symbol

	// Reconnection
	reconnecting bool
	maxRetries   int
	baseDelay    time.Duration

	mu      sync.RWMutex
	writeMu sync.Mutex // Protects websocket writes
}

// PortalTickerConfig holds configuration for the ticker.
type PortalTickerConfig struct {
	Host       string
	Port       int
	MaxRetries int
	BaseDelay  time.Duration
}

// NewPortalTicker creates a ticker for the gateway's streaming endpoint.
func NewPortalTicker(cfg PortalTickerConfig) *PortalTicker {
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 5
	}

	baseDelay := cfg.BaseDelay
	if baseDelay == 0 {
		baseDelay = time.Second
	}

	return &PortalTicker{
		url:        fmt.Sprintf("wss://%s:%d/v1/api/ws", cfg.Host, cfg.Port),
		subscribed: make(map[int64]string),
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// Connect dials the websocket and starts the read loop.
func (t *PortalTicker) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.connected {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	dialer := websocket.Dialer{
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: true},
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", t.url, err)
	}

	t.mu.Lock()
	t.conn = conn
	t.connected = true
	wasReconnect := t.reconnecting
	t.reconnecting = false
	t.mu.Unlock()

	go t.readLoop(ctx)

	if wasReconnect {
		t.resubscribe()
	}
	return nil
}

// Disconnect closes the websocket connection.
func (t *PortalTicker) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
		t.connected = false
	}
	return nil
}

// Subscribe starts streaming for the given contracts. Contracts must carry
// resolved contract IDs.
func (t *PortalTicker) Subscribe(contracts []models.Instrument) error {
	t.mu.Lock()
	if !t.connected || t.conn == nil {
		t.mu.Unlock()
		return fmt.Errorf("not connected")
	}
	conn := t.conn
	conids := make([]int64, 0, len(contracts))
	for _, c := range contracts {
		if c.ContractID == 0 {
			continue
		}
		conids = append(conids, c.ContractID)
		t.subscribed[c.ContractID] = c.Symbol
	}
	t.mu.Unlock()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	for _, conid := range conids {
		msg := fmt.Sprintf(`smd+%d+{"fields":["31","84","86","87"]}`, conid)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return fmt.Errorf("failed to subscribe: %w", err)
		}
	}
	return nil
}

// Unsubscribe stops streaming for the given contracts.
func (t *PortalTicker) Unsubscribe(contracts []models.Instrument) error {
	t.mu.Lock()
	if !t.connected || t.conn == nil {
		t.mu.Unlock()
		return fmt.Errorf("not connected")
	}
	conn := t.conn
	conids := make([]int64, 0, len(contracts))
	for _, c := range contracts {
		if _, ok := t.subscribed[c.ContractID]; ok {
			conids = append(conids, c.ContractID)
			delete(t.subscribed, c.ContractID)
		}
	}
	t.mu.Unlock()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	for _, conid := range conids {
		msg := fmt.Sprintf("umd+%d+{}", conid)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return fmt.Errorf("failed to unsubscribe: %w", err)
		}
	}
	return nil
}

// OnTick sets the tick handler.
func (t *PortalTicker) OnTick(handler func(models.Tick)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTick = handler
}

// OnError sets the error handler.
func (t *PortalTicker) OnError(handler func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onError = handler
}

// IsConnected returns whether the ticker is connected.
func (t *PortalTicker) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

func (t *PortalTicker) readLoop(ctx context.Context) {
	t.mu.RLock()
	conn := t.conn
	t.mu.RUnlock()
	if conn == nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			wasConnected := t.connected
			t.connected = false
			t.mu.Unlock()

			if wasConnected {
				t.emitError(fmt.Errorf("read: %w", err))
				go t.reconnect(ctx)
			}
			return
		}

		tick, ok := t.parseMessage(data)
		if !ok {
			continue
		}

		t.mu.RLock()
		handler := t.onTick
		t.mu.RUnlock()
		if handler != nil {
			go handler(tick)
		}
	}
}

// streamMessage is a market data frame pushed by the gateway. Field values
// arrive keyed by field ID, same as snapshot responses.
type streamMessage struct {
	Topic string          `json:"topic"`
	ConID int64           `json:"conid"`
	Last  json.RawMessage `json:"31"`
	Bid   json.RawMessage `json:"84"`
	Ask   json.RawMessage `json:"86"`
	Vol   json.RawMessage `json:"87"`
}

func (t *PortalTicker) parseMessage(data []byte) (models.Tick, bool) {
	var msg streamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return models.Tick{}, false
	}
	if !strings.HasPrefix(msg.Topic, "smd+") || msg.ConID == 0 {
		return models.Tick{}, false
	}

	t.mu.RLock()
	symbol := t.subscribed[msg.ConID]
	t.mu.RUnlock()

	return models.Tick{
		Symbol:     symbol,
		ContractID: msg.ConID,
		Last:       parseRawFloat(msg.Last),
		Bid:        parseRawFloat(msg.Bid),
		Ask:        parseRawFloat(msg.Ask),
		Volume:     int64(parseRawFloat(msg.Vol)),
		Timestamp:  time.Now(),
	}, true
}

func parseRawFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		f, _ = strconv.ParseFloat(strings.TrimPrefix(s, "C"), 64)
		return f
	}
	return 0
}

// reconnect attempts to reconnect with exponential backoff.
func (t *PortalTicker) reconnect(ctx context.Context) {
	t.mu.Lock()
	if t.reconnecting {
		t.mu.Unlock()
		return
	}
	t.reconnecting = true
	t.mu.Unlock()

	for attempt := 0; attempt < t.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		delay := t.baseDelay * time.Duration(math.Pow(2, float64(attempt)))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		time.Sleep(delay)

		t.mu.Lock()
		if t.connected {
			t.reconnecting = false
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()

		if err := t.Connect(ctx); err == nil {
			return
		}
	}

	t.mu.Lock()
	t.reconnecting = false
	t.mu.Unlock()

	t.emitError(fmt.Errorf("max reconnection attempts reached"))
}

// resubscribe restores subscriptions after a reconnect.
func (t *PortalTicker) resubscribe() {
	t.mu.RLock()
	contracts := make([]models.Instrument, 0, len(t.subscribed))
	for conid, symbol := range t.subscribed {
		contracts = append(contracts, models.Instrument{Symbol: symbol, ContractID: conid})
	}
	t.mu.RUnlock()

	if len(contracts) == 0 {
		return
	}
	if err := t.Subscribe(contracts); err != nil {
		t.emitError(err)
	}
}

func (t *PortalTicker) emitError(err error) {
	t.mu.RLock()
	handler := t.onError
	t.mu.RUnlock()
	if handler != nil {
		go handler(err)
	}
}

// Ensure PortalTicker implements Ticker interface
var _ Ticker = (*PortalTicker)(nil)
