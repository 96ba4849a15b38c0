package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-scanner/internal/models"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// startStreamServer runs a TLS websocket endpoint that hands each accepted
// connection to handle.
func startStreamServer(t *testing.T, handle func(conn *websocket.Conn)) *PortalTicker {
	t.Helper()

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return NewPortalTicker(PortalTickerConfig{Host: u.Hostname(), Port: port})
}

func streamInstrument(conid int64) models.Instrument {
	return models.Instrument{Symbol: "AAPL", SecType: models.SecurityStock, ContractID: conid}
}

func TestTickerStreamsTicks(t *testing.T) {
	ticker := startStreamServer(t, func(conn *websocket.Conn) {
		// Wait for the subscribe request, then push one update.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		frame := `{"topic":"smd+12345","conid":12345,"31":"150.25","84":150.20,"86":150.30,"87":"1200"}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return
		}
		conn.ReadMessage()
	})

	ticks := make(chan models.Tick, 1)
	ticker.OnTick(func(tick models.Tick) { ticks <- tick })

	require.NoError(t, ticker.Connect(context.Background()))
	defer ticker.Disconnect()
	require.True(t, ticker.IsConnected())

	require.NoError(t, ticker.Subscribe([]models.Instrument{streamInstrument(12345)}))

	select {
	case tick := <-ticks:
		assert.Equal(t, "AAPL", tick.Symbol)
		assert.Equal(t, int64(12345), tick.ContractID)
		assert.InDelta(t, 150.25, tick.Last, 1e-9)
		assert.InDelta(t, 150.20, tick.Bid, 1e-9)
		assert.InDelta(t, 150.30, tick.Ask, 1e-9)
		assert.Equal(t, int64(1200), tick.Volume)
	case <-time.After(5 * time.Second):
		t.Fatal("no tick received")
	}
}

func TestTickerSubscribeRequiresConnection(t *testing.T) {
	ticker := NewPortalTicker(PortalTickerConfig{Host: "127.0.0.1", Port: 5000})

	err := ticker.Subscribe([]models.Instrument{streamInstrument(1)})
	assert.Error(t, err)
	err = ticker.Unsubscribe([]models.Instrument{streamInstrument(1)})
	assert.Error(t, err)
}

func TestTickerSubscribeAfterDisconnect(t *testing.T) {
	ticker := startStreamServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})

	require.NoError(t, ticker.Connect(context.Background()))
	require.NoError(t, ticker.Disconnect())

	err := ticker.Subscribe([]models.Instrument{streamInstrument(1)})
	assert.Error(t, err)
	assert.False(t, ticker.IsConnected())
}

func TestTickerSubscribeDuringDisconnect(t *testing.T) {
	ticker := startStreamServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	require.NoError(t, ticker.Connect(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(conid int64) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				// Either outcome is fine; the write must never hit a
				// torn-down connection.
				ticker.Subscribe([]models.Instrument{streamInstrument(conid)})
				ticker.Unsubscribe([]models.Instrument{streamInstrument(conid)})
			}
		}(int64(i + 1))
	}

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, ticker.Disconnect())
	wg.Wait()

	assert.False(t, ticker.IsConnected())
}
