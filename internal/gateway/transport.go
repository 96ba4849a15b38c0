package gateway

import (
	"context"
	"time"

	"options-scanner/internal/models"
)

// ChainParams holds the expirations and strikes the gateway reports for an
// underlying, before any contract quotes are requested.
type ChainParams struct {
	Expirations []time.Time
	Strikes     []float64
}

// Transport is the raw request/response surface of the market-data gateway.
// The Connector layers session management and throttling on top of it; tests
// substitute a fake transport instead of mutating global state.
type Transport interface {
	// Connect opens the session for the given client slot.
	Connect(ctx context.Context, host string, port, clientID int) error

	// Disconnect closes the session.
	Disconnect(ctx context.Context) error

	// Ping round-trips a request on the session. It verifies the gateway
	// still answers, not merely that the socket is open.
	Ping(ctx context.Context) error

	// ResolveContract fills in gateway identifiers (contract ID, listing
	// exchange) for an instrument skeleton.
	ResolveContract(ctx context.Context, inst models.Instrument) (models.Instrument, error)

	// ChainParams reports the available expirations and strikes for an
	// underlying.
	ChainParams(ctx context.Context, inst models.Instrument) (ChainParams, error)

	// Snapshot requests a market-data snapshot for one contract.
	Snapshot(ctx context.Context, inst models.Instrument) (models.Quote, error)

	// LastClose returns the previous close price for an instrument.
	LastClose(ctx context.Context, inst models.Instrument) (float64, error)
}
