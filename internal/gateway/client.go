// Package gateway maintains the single session to the market-data gateway
// and exposes price and option-chain retrieval over it.
package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "options-scanner/internal/errors"
	"options-scanner/internal/logging"
)

// SessionState represents the connector's session lifecycle state.
type SessionState string

const (
	StateDisconnected SessionState = "DISCONNECTED"
	StateConnecting   SessionState = "CONNECTING"
	StateConnected    SessionState = "CONNECTED"
	StateDegraded     SessionState = "DEGRADED"
)

// Config holds connector settings.
type Config struct {
	Host           string
	Port           int
	ClientID       int
	BatchSize      int
	BatchDelay     time.Duration
	MaxExpirations int
}

// Connector owns exactly one session to the gateway. All requests serialize
// through it; the gateway enforces one logical client per connection slot and
// a global per-second request ceiling. The connector never reconnects on its
// own; the owning layer re-evaluates health and reconnects lazily.
type Connector struct {
	transport Transport
	resolver  *Resolver
	clock     Clock
	cfg       Config
	logger    zerolog.Logger

	mu    sync.Mutex
	state SessionState
}

// NewConnector creates a connector over the given transport. The clock is
// injected so tests can simulate the inter-batch delay.
func NewConnector(transport Transport, resolver *Resolver, clock Clock, cfg Config, logger zerolog.Logger) *Connector {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if clock == nil {
		clock = NewClock()
	}
	return &Connector{
		transport: transport,
		resolver:  resolver,
		clock:     clock,
		cfg:       cfg,
		logger:    logging.WithOperation(logger, "gateway"),
		state:     StateDisconnected,
	}
}

// Connect establishes the session. It is idempotent: if a session already
// exists it is reused rather than recreated, preventing duplicate connections
// to the gateway. There is no internal retry; the caller owns retry policy.
func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateConnected {
		c.logger.Debug().Msg("Already connected to gateway")
		return nil
	}

	c.state = StateConnecting
	if err := c.transport.Connect(ctx, c.cfg.Host, c.cfg.Port, c.cfg.ClientID); err != nil {
		c.state = StateDisconnected
		return apperrors.Wrapf(apperrors.ErrGatewayUnavailable, "connect %s:%d client %d: %v",
			c.cfg.Host, c.cfg.Port, c.cfg.ClientID, err)
	}

	c.state = StateConnected
	c.logger.Info().
		Str("host", c.cfg.Host).
		Int("port", c.cfg.Port).
		Int("client_id", c.cfg.ClientID).
		Msg("Connected to gateway")
	return nil
}

// Disconnect closes the session.
func (c *Connector) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDisconnected {
		return nil
	}

	err := c.transport.Disconnect(ctx)
	c.state = StateDisconnected
	if err != nil {
		return apperrors.NewGatewayError("disconnect", "closing session", err)
	}
	c.logger.Info().Msg("Disconnected from gateway")
	return nil
}

// IsConnected reports whether a session has been established. It does not
// verify the session is still serviceable; use IsHealthy for that.
func (c *Connector) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected || c.state == StateDegraded
}

// IsHealthy round-trips a request on the session to verify the gateway still
// answers. A failed probe marks the session Degraded.
func (c *Connector) IsHealthy(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected && c.state != StateDegraded {
		return false
	}

	start := c.clock.Now()
	err := c.transport.Ping(ctx)
	logging.LogGatewayCall(c.logger, "ping", c.clock.Now().Sub(start), err)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Health probe failed, session degraded")
		c.state = StateDegraded
		return false
	}

	c.state = StateConnected
	return true
}

// State returns the current session state.
func (c *Connector) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Resolver returns the contract resolver used by this connector.
func (c *Connector) Resolver() *Resolver {
	return c.resolver
}

// requireSessionLocked is called with c.mu held. Request methods take the
// lock for their whole duration: the gateway allows one logical client per
// slot, so requests serialize through the single session. A caller that
// times out still waits for the in-flight batch to finish before the
// connector becomes available again.
func (c *Connector) requireSessionLocked() error {
	if c.state != StateConnected && c.state != StateDegraded {
		return apperrors.ErrNotConnected
	}
	return nil
}
