package gateway

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "options-scanner/internal/errors"
	"options-scanner/internal/models"
)

// fakeTransport is a scriptable Transport for connector tests.
type fakeTransport struct {
	connectCalls    int
	disconnectCalls int
	snapshotCalls   int

	connectErr error
	pingErr    error

	params    ChainParams
	paramsErr error

	quotes      map[string]models.Quote
	snapshotErr map[string]error
	defaultErr  error

	lastClose    float64
	lastCloseErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		quotes:      make(map[string]models.Quote),
		snapshotErr: make(map[string]error),
	}
}

func (f *fakeTransport) Connect(ctx context.Context, host string, port, clientID int) error {
	f.connectCalls++
	return f.connectErr
}

func (f *fakeTransport) Disconnect(ctx context.Context) error {
	f.disconnectCalls++
	return nil
}

func (f *fakeTransport) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeTransport) ResolveContract(ctx context.Context, inst models.Instrument) (models.Instrument, error) {
	inst.ContractID = 1
	return inst, nil
}

func (f *fakeTransport) ChainParams(ctx context.Context, inst models.Instrument) (ChainParams, error) {
	return f.params, f.paramsErr
}

func (f *fakeTransport) Snapshot(ctx context.Context, inst models.Instrument) (models.Quote, error) {
	f.snapshotCalls++
	if err, ok := f.snapshotErr[inst.Key()]; ok {
		return models.Quote{}, err
	}
	if q, ok := f.quotes[inst.Key()]; ok {
		return q, nil
	}
	if f.defaultErr != nil {
		return models.Quote{}, f.defaultErr
	}
	return models.Quote{Bid: 1.0, Ask: 1.2, Last: 1.1, Timestamp: time.Now()}, nil
}

func (f *fakeTransport) LastClose(ctx context.Context, inst models.Instrument) (float64, error) {
	return f.lastClose, f.lastCloseErr
}

// fakeClock advances virtually and records when the connector slept,
// tagged with the snapshot count at that moment.
type fakeClock struct {
	now       time.Time
	transport *fakeTransport

	sleeps      []time.Duration
	sleepMarks  []int
	sleepErr    error
}

func newFakeClock(transport *fakeTransport) *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), transport: transport}
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if f.sleepErr != nil {
		return f.sleepErr
	}
	f.sleeps = append(f.sleeps, d)
	if f.transport != nil {
		f.sleepMarks = append(f.sleepMarks, f.transport.snapshotCalls)
	}
	f.now = f.now.Add(d)
	return nil
}

func newTestConnector(t *testing.T, transport *fakeTransport, clock Clock, cfg Config) *Connector {
	t.Helper()
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
		cfg.Port = 7497
		cfg.ClientID = 1
	}
	resolver := NewResolver("", "", nil)
	return NewConnector(transport, resolver, clock, cfg, zerolog.Nop())
}

func TestConnectIdempotent(t *testing.T) {
	transport := newFakeTransport()
	c := newTestConnector(t, transport, nil, Config{})

	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Connect(context.Background()))

	assert.Equal(t, 1, transport.connectCalls, "second connect must reuse the session")
	assert.Equal(t, StateConnected, c.State())
}

func TestConnectFailure(t *testing.T) {
	transport := newFakeTransport()
	transport.connectErr = fmt.Errorf("connection refused")
	c := newTestConnector(t, transport, nil, Config{})

	err := c.Connect(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrGatewayUnavailable)
	assert.Equal(t, StateDisconnected, c.State())
	assert.False(t, c.IsConnected())
}

func TestRequestsRequireSession(t *testing.T) {
	transport := newFakeTransport()
	c := newTestConnector(t, transport, nil, Config{})

	_, err := c.UnderlyingPrice(context.Background(), models.Instrument{Symbol: "AAPL", SecType: models.SecurityStock})
	assert.ErrorIs(t, err, apperrors.ErrNotConnected)

	_, err = c.FetchChain(context.Background(), "AAPL", "", 0)
	assert.ErrorIs(t, err, apperrors.ErrNotConnected)
}

func TestIsHealthyDegradesSession(t *testing.T) {
	transport := newFakeTransport()
	c := newTestConnector(t, transport, nil, Config{})
	require.NoError(t, c.Connect(context.Background()))

	transport.pingErr = fmt.Errorf("timeout")
	assert.False(t, c.IsHealthy(context.Background()))
	assert.Equal(t, StateDegraded, c.State())

	// A degraded session still counts as established.
	assert.True(t, c.IsConnected())

	transport.pingErr = nil
	assert.True(t, c.IsHealthy(context.Background()))
	assert.Equal(t, StateConnected, c.State())
}

func TestIsHealthyBeforeConnect(t *testing.T) {
	c := newTestConnector(t, newFakeTransport(), nil, Config{})
	assert.False(t, c.IsHealthy(context.Background()))
}

func TestDisconnect(t *testing.T) {
	transport := newFakeTransport()
	c := newTestConnector(t, transport, nil, Config{})
	require.NoError(t, c.Connect(context.Background()))

	require.NoError(t, c.Disconnect(context.Background()))
	assert.Equal(t, 1, transport.disconnectCalls)
	assert.Equal(t, StateDisconnected, c.State())

	// Disconnecting twice is a no-op.
	require.NoError(t, c.Disconnect(context.Background()))
	assert.Equal(t, 1, transport.disconnectCalls)
}

func TestUnderlyingPriceLive(t *testing.T) {
	transport := newFakeTransport()
	stock := models.Instrument{Symbol: "AAPL", SecType: models.SecurityStock, Exchange: models.ExchangeSmart, Currency: "USD"}
	transport.quotes[stock.Key()] = models.Quote{Last: 187.5, Bid: 187.4, Ask: 187.6}

	c := newTestConnector(t, transport, nil, Config{})
	require.NoError(t, c.Connect(context.Background()))

	price, err := c.UnderlyingPrice(context.Background(), stock)
	require.NoError(t, err)
	assert.Equal(t, 187.5, price)
}

func TestUnderlyingPriceMidpointWhenNoLast(t *testing.T) {
	transport := newFakeTransport()
	stock := models.Instrument{Symbol: "AAPL", SecType: models.SecurityStock, Exchange: models.ExchangeSmart, Currency: "USD"}
	transport.quotes[stock.Key()] = models.Quote{Bid: 100.0, Ask: 102.0}

	c := newTestConnector(t, transport, nil, Config{})
	require.NoError(t, c.Connect(context.Background()))

	price, err := c.UnderlyingPrice(context.Background(), stock)
	require.NoError(t, err)
	assert.Equal(t, 101.0, price)
}

func TestUnderlyingPriceFallsBackToClose(t *testing.T) {
	transport := newFakeTransport()
	stock := models.Instrument{Symbol: "AAPL", SecType: models.SecurityStock, Exchange: models.ExchangeSmart, Currency: "USD"}
	transport.snapshotErr[stock.Key()] = fmt.Errorf("no market data subscription")
	transport.lastClose = 184.2

	c := newTestConnector(t, transport, nil, Config{})
	require.NoError(t, c.Connect(context.Background()))

	price, err := c.UnderlyingPrice(context.Background(), stock)
	require.NoError(t, err)
	assert.Equal(t, 184.2, price)
}

func TestUnderlyingPriceUnavailable(t *testing.T) {
	transport := newFakeTransport()
	stock := models.Instrument{Symbol: "AAPL", SecType: models.SecurityStock, Exchange: models.ExchangeSmart, Currency: "USD"}
	transport.snapshotErr[stock.Key()] = fmt.Errorf("no market data")
	transport.lastCloseErr = fmt.Errorf("no historical data")

	c := newTestConnector(t, transport, nil, Config{})
	require.NoError(t, c.Connect(context.Background()))

	_, err := c.UnderlyingPrice(context.Background(), stock)
	assert.ErrorIs(t, err, apperrors.ErrPriceUnavailable)
}

func TestMarketPrice(t *testing.T) {
	assert.Equal(t, 5.0, marketPrice(models.Quote{Last: 5.0, Bid: 4.0, Ask: 6.0}))
	assert.Equal(t, 5.0, marketPrice(models.Quote{Bid: 4.0, Ask: 6.0}))
	assert.Equal(t, 0.0, marketPrice(models.Quote{Bid: 4.0}))
	assert.Equal(t, 0.0, marketPrice(models.Quote{}))
}
