// Package stream fans out live market data ticks from the gateway's
// streaming connection to multiple in-process consumers.
package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"options-scanner/internal/gateway"
	"options-scanner/internal/models"
)

// HubConfig holds configuration for the tick hub.
type HubConfig struct {
	// BufferSize is the size of the internal tick channel buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
	// BroadcastTimeout caps the wait when a subscriber's buffer is full;
	// past it the tick is dropped for that subscriber.
	BroadcastTimeout time.Duration
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BufferSize:           1000,
		SubscriberBufferSize: 100,
		BroadcastTimeout:     10 * time.Millisecond,
	}
}

// Subscriber receives ticks for one symbol (or all symbols) on a buffered
// channel. A subscriber that does not drain its channel loses ticks, never
// blocks the hub.
type Subscriber struct {
	ID      string
	Symbol  string // "*" receives every symbol
	Channel chan models.Tick

	dropped atomic.Uint64
}

// Dropped reports how many ticks this subscriber has lost to a full buffer.
func (s *Subscriber) Dropped() uint64 {
	return s.dropped.Load()
}

// Hub distributes ticks from a single streaming source to subscribers.
type Hub struct {
	cfg    HubConfig
	ticker gateway.Ticker
	logger zerolog.Logger

	mu          sync.RWMutex
	subscribers map[string][]*Subscriber
	started     bool

	tickChan chan models.Tick
	done     chan struct{}

	received  atomic.Uint64
	broadcast atomic.Uint64
	dropped   atomic.Uint64
}

// NewHub creates a hub over a streaming ticker. A nil ticker makes the hub a
// pure in-process fan-out fed through Publish.
func NewHub(ticker gateway.Ticker, cfg HubConfig, logger zerolog.Logger) *Hub {
	if cfg.BufferSize <= 0 {
		cfg = DefaultHubConfig()
	}
	return &Hub{
		cfg:         cfg,
		ticker:      ticker,
		logger:      logger,
		subscribers: make(map[string][]*Subscriber),
		tickChan:    make(chan models.Tick, cfg.BufferSize),
		done:        make(chan struct{}),
	}
}

// Start connects the ticker (when present) and begins distribution.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return nil
	}
	h.started = true
	h.mu.Unlock()

	go h.broadcastLoop(ctx)

	if h.ticker != nil {
		h.ticker.OnTick(func(tick models.Tick) {
			h.Publish(tick)
		})
		h.ticker.OnError(func(err error) {
			h.logger.Warn().Err(err).Msg("Ticker error, stream may be reconnecting")
		})
		if err := h.ticker.Connect(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop shuts down distribution and closes every subscriber channel.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return
	}
	h.started = false
	close(h.done)

	for _, subs := range h.subscribers {
		for _, sub := range subs {
			close(sub.Channel)
		}
	}
	h.subscribers = make(map[string][]*Subscriber)
	h.mu.Unlock()

	if h.ticker != nil {
		h.ticker.Disconnect()
	}
}

// Subscribe registers a consumer for one symbol, or "*" for all.
func (h *Hub) Subscribe(id, symbol string) *Subscriber {
	sub := &Subscriber{
		ID:      id,
		Symbol:  symbol,
		Channel: make(chan models.Tick, h.cfg.SubscriberBufferSize),
	}

	h.mu.Lock()
	h.subscribers[symbol] = append(h.subscribers[symbol], sub)
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[sub.Symbol]
	for i, s := range subs {
		if s == sub {
			h.subscribers[sub.Symbol] = append(subs[:i], subs[i+1:]...)
			close(s.Channel)
			return
		}
	}
}

// Publish feeds one tick into the hub. Publishing to a full hub drops the
// tick rather than blocking the source.
func (h *Hub) Publish(tick models.Tick) {
	h.received.Add(1)
	select {
	case h.tickChan <- tick:
	default:
		h.dropped.Add(1)
	}
}

// Stats reports received, broadcast and dropped tick counts.
func (h *Hub) Stats() (received, broadcast, dropped uint64) {
	return h.received.Load(), h.broadcast.Load(), h.dropped.Load()
}

func (h *Hub) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case tick := <-h.tickChan:
			h.deliver(tick)
		}
	}
}

func (h *Hub) deliver(tick models.Tick) {
	h.mu.RLock()
	targets := make([]*Subscriber, 0, 4)
	targets = append(targets, h.subscribers[tick.Symbol]...)
	targets = append(targets, h.subscribers["*"]...)
	h.mu.RUnlock()

	for _, sub := range targets {
		select {
		case sub.Channel <- tick:
			h.broadcast.Add(1)
		case <-time.After(h.cfg.BroadcastTimeout):
			sub.dropped.Add(1)
			h.dropped.Add(1)
		}
	}
}
