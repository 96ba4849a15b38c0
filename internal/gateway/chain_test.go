package gateway

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "options-scanner/internal/errors"
	"options-scanner/internal/models"
)

var (
	mar = time.Date(2026, 3, 20, 16, 0, 0, 0, time.UTC)
	apr = time.Date(2026, 4, 17, 16, 0, 0, 0, time.UTC)
	may = time.Date(2026, 5, 15, 16, 0, 0, 0, time.UTC)
)

func chainFixture(expirations []time.Time, strikes []float64) *fakeTransport {
	transport := newFakeTransport()
	transport.params = ChainParams{Expirations: expirations, Strikes: strikes}
	transport.lastClose = 100.0
	return transport
}

func connectedConnector(t *testing.T, transport *fakeTransport, clock Clock, cfg Config) *Connector {
	t.Helper()
	c := newTestConnector(t, transport, clock, cfg)
	require.NoError(t, c.Connect(context.Background()))
	return c
}

func TestFetchChainBatching(t *testing.T) {
	// 2 expirations x 30 strikes x 2 rights = 120 contracts. With batch
	// size 50 that is 3 batches and 2 inter-batch delays.
	strikes := make([]float64, 30)
	for i := range strikes {
		strikes[i] = 80 + float64(i)
	}
	transport := chainFixture([]time.Time{mar, apr}, strikes)
	clock := newFakeClock(transport)

	c := connectedConnector(t, transport, clock, Config{BatchSize: 50, BatchDelay: 100 * time.Millisecond})

	chain, err := c.FetchChain(context.Background(), "AAPL", "", -1)
	require.NoError(t, err)
	assert.Len(t, chain.Contracts, 120)

	require.Len(t, clock.sleeps, 2, "3 batches need exactly 2 delays")
	for _, d := range clock.sleeps {
		assert.Equal(t, 100*time.Millisecond, d)
	}

	// Snapshot counts at each sleep show full batches were issued. The
	// stock price snapshot before the batch loop accounts for the +1.
	assert.Equal(t, []int{51, 101}, clock.sleepMarks)
}

func TestFetchChainSingleBatchNoDelay(t *testing.T) {
	transport := chainFixture([]time.Time{mar}, []float64{95, 100, 105})
	clock := newFakeClock(transport)

	c := connectedConnector(t, transport, clock, Config{BatchSize: 50, BatchDelay: 100 * time.Millisecond})

	chain, err := c.FetchChain(context.Background(), "AAPL", "", -1)
	require.NoError(t, err)
	assert.Len(t, chain.Contracts, 6)
	assert.Empty(t, clock.sleeps, "a single batch must not sleep")
}

func TestFetchChainNoExpirations(t *testing.T) {
	transport := chainFixture(nil, nil)
	c := connectedConnector(t, transport, newFakeClock(transport), Config{})

	_, err := c.FetchChain(context.Background(), "ZZZZ", "", 0)
	assert.ErrorIs(t, err, apperrors.ErrChainUnavailable)
}

func TestFetchChainParamsError(t *testing.T) {
	transport := chainFixture(nil, nil)
	transport.paramsErr = fmt.Errorf("gateway returned 500")
	c := connectedConnector(t, transport, newFakeClock(transport), Config{})

	_, err := c.FetchChain(context.Background(), "AAPL", "", 0)
	assert.ErrorIs(t, err, apperrors.ErrChainUnavailable)
}

func TestFetchChainToleratesContractFailures(t *testing.T) {
	transport := chainFixture([]time.Time{mar}, []float64{95, 100, 105})
	// One contract snapshot fails; the rest of the chain survives.
	failing := models.Instrument{
		Symbol: "AAPL", SecType: models.SecurityOption, Exchange: models.ExchangeOPRA,
		Currency: "USD", Strike: 100, Expiration: mar, Right: models.RightCall,
	}
	transport.snapshotErr[failing.Key()] = fmt.Errorf("timeout")

	c := connectedConnector(t, transport, newFakeClock(transport), Config{})

	chain, err := c.FetchChain(context.Background(), "AAPL", "", -1)
	require.NoError(t, err)
	assert.Len(t, chain.Contracts, 5)
	_, found := chain.Find(mar, 100, models.RightCall)
	assert.False(t, found)
	_, found = chain.Find(mar, 100, models.RightPut)
	assert.True(t, found)
}

func TestFetchChainAllContractsFail(t *testing.T) {
	transport := chainFixture([]time.Time{mar}, []float64{100})
	transport.defaultErr = fmt.Errorf("no market data")
	transport.lastClose = 0
	transport.lastCloseErr = fmt.Errorf("no historical data")

	c := connectedConnector(t, transport, newFakeClock(transport), Config{})

	chain, err := c.FetchChain(context.Background(), "AAPL", "", -1)
	require.NoError(t, err, "a chain that loses every contract is still a valid empty chain")
	assert.Empty(t, chain.Contracts)
	assert.Empty(t, chain.Expirations)
	assert.Zero(t, chain.UnderlyingPrice)
}

func TestFetchChainCapsExpirations(t *testing.T) {
	transport := chainFixture([]time.Time{may, mar, apr}, []float64{100})
	c := connectedConnector(t, transport, newFakeClock(transport), Config{})

	chain, err := c.FetchChain(context.Background(), "AAPL", "", 2)
	require.NoError(t, err)
	require.Len(t, chain.Expirations, 2)
	assert.True(t, chain.Expirations[0].Equal(mar), "nearest expirations come first")
	assert.True(t, chain.Expirations[1].Equal(apr))
}

func TestFetchChainDefaultExpirationCap(t *testing.T) {
	transport := chainFixture([]time.Time{may, mar, apr}, []float64{100})
	c := connectedConnector(t, transport, newFakeClock(transport), Config{MaxExpirations: 1})

	chain, err := c.FetchChain(context.Background(), "AAPL", "", 0)
	require.NoError(t, err)
	require.Len(t, chain.Expirations, 1)
	assert.True(t, chain.Expirations[0].Equal(mar))
}

func TestFetchChainInterruptedBetweenBatches(t *testing.T) {
	strikes := make([]float64, 30)
	for i := range strikes {
		strikes[i] = 80 + float64(i)
	}
	transport := chainFixture([]time.Time{mar, apr}, strikes)
	clock := newFakeClock(transport)
	clock.sleepErr = context.Canceled

	c := connectedConnector(t, transport, clock, Config{BatchSize: 50, BatchDelay: 100 * time.Millisecond})

	_, err := c.FetchChain(context.Background(), "AAPL", "", -1)
	require.Error(t, err)
	var gatewayErr *apperrors.GatewayError
	assert.ErrorAs(t, err, &gatewayErr)
}

func TestFetchChainZeroSpotOnPriceFailure(t *testing.T) {
	transport := chainFixture([]time.Time{mar}, []float64{100})
	stock := models.Instrument{Symbol: "AAPL", SecType: models.SecurityStock, Exchange: models.ExchangeNasdaq, Currency: "USD"}
	transport.snapshotErr[stock.Key()] = fmt.Errorf("no market data")
	transport.lastCloseErr = fmt.Errorf("no historical data")

	c := connectedConnector(t, transport, newFakeClock(transport), Config{})

	chain, err := c.FetchChain(context.Background(), "AAPL", "", -1)
	require.NoError(t, err, "missing spot must not fail the whole fetch")
	assert.Zero(t, chain.UnderlyingPrice)
	assert.Len(t, chain.Contracts, 2)
}

func TestNearestExpirations(t *testing.T) {
	got := nearestExpirations([]time.Time{may, mar, apr}, 0)
	require.Len(t, got, 3)
	assert.True(t, got[0].Equal(mar))
	assert.True(t, got[2].Equal(may))

	got = nearestExpirations([]time.Time{may, mar, apr}, 5)
	assert.Len(t, got, 3)
}
