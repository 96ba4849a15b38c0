package gateway

import (
	"strings"
	"sync"
	"time"

	"options-scanner/internal/models"
)

// knownExchanges maps well-known symbols to their primary listing exchange,
// used before falling back to pattern detection.
var knownExchanges = map[string]models.Exchange{
	"AAPL":  models.ExchangeNasdaq,
	"MSFT":  models.ExchangeNasdaq,
	"GOOGL": models.ExchangeNasdaq,
	"AMZN":  models.ExchangeNasdaq,
	"TSLA":  models.ExchangeNasdaq,
	"META":  models.ExchangeNasdaq,
	"NVDA":  models.ExchangeNasdaq,
	"NFLX":  models.ExchangeNasdaq,
	"JPM":   models.ExchangeNYSE,
	"BAC":   models.ExchangeNYSE,
	"WMT":   models.ExchangeNYSE,
	"V":     models.ExchangeNYSE,
	"JNJ":   models.ExchangeNYSE,
	"PG":    models.ExchangeNYSE,
	"MA":    models.ExchangeNYSE,
	"HD":    models.ExchangeNYSE,
}

// usListings are the markets whose option contracts clear on OPRA rather than
// on the equity venue. The override is a fixed domain rule, not configurable
// per call.
var usListings = map[models.Exchange]bool{
	models.ExchangeSmart:        true,
	models.ExchangeNYSE:         true,
	models.ExchangeNasdaq:       true,
	models.ExchangeNYSEAmerican: true,
}

// Resolver turns symbols and exchange hints into canonical instrument
// identifiers recognized by the gateway.
type Resolver struct {
	defaultStock  models.Exchange
	defaultOption models.Exchange
	overrides     map[string]models.Exchange

	mu    sync.RWMutex
	cache map[string]models.Exchange
}

// NewResolver creates a resolver with the given default exchanges and
// per-symbol overrides.
func NewResolver(defaultStock, defaultOption string, overrides map[string]string) *Resolver {
	r := &Resolver{
		defaultStock:  models.Exchange(defaultStock),
		defaultOption: models.Exchange(defaultOption),
		overrides:     make(map[string]models.Exchange, len(overrides)),
		cache:         make(map[string]models.Exchange),
	}
	if r.defaultStock == "" {
		r.defaultStock = models.ExchangeSmart
	}
	if r.defaultOption == "" {
		r.defaultOption = models.ExchangeOPRA
	}
	for sym, ex := range overrides {
		r.overrides[strings.ToUpper(sym)] = models.Exchange(strings.ToUpper(ex))
	}
	return r
}

// StockContract builds a stock instrument for a symbol. An empty hint means
// the exchange is detected from overrides, the known-symbol table, then by
// symbol pattern.
func (r *Resolver) StockContract(symbol string, hint models.Exchange) models.Instrument {
	symbol = strings.ToUpper(symbol)
	exchange := hint
	if exchange == "" {
		exchange = r.detectExchange(symbol)
	}
	return models.Instrument{
		Symbol:   symbol,
		SecType:  models.SecurityStock,
		Exchange: exchange,
		Currency: "USD",
	}
}

// OptionContract builds an option instrument skeleton for an underlying. The
// listing exchange is derived from the underlying's market: OPRA for US
// listings, SMART routing otherwise.
func (r *Resolver) OptionContract(underlying models.Instrument, expiration time.Time, strike float64, right models.Right) models.Instrument {
	return models.Instrument{
		Symbol:     underlying.Symbol,
		SecType:    models.SecurityOption,
		Exchange:   r.OptionExchange(underlying.Exchange),
		Currency:   "USD",
		Strike:     strike,
		Expiration: expiration,
		Right:      right,
	}
}

// OptionExchange applies the fixed venue rule for option contracts.
func (r *Resolver) OptionExchange(underlyingExchange models.Exchange) models.Exchange {
	if usListings[underlyingExchange] {
		return r.defaultOption
	}
	return models.ExchangeSmart
}

func (r *Resolver) detectExchange(symbol string) models.Exchange {
	r.mu.RLock()
	cached, ok := r.cache[symbol]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	exchange := r.lookupExchange(symbol)

	r.mu.Lock()
	r.cache[symbol] = exchange
	r.mu.Unlock()
	return exchange
}

func (r *Resolver) lookupExchange(symbol string) models.Exchange {
	if ex, ok := r.overrides[symbol]; ok {
		return ex
	}
	if ex, ok := knownExchanges[symbol]; ok {
		return ex
	}
	return detectByPattern(symbol, r.defaultStock)
}

// detectByPattern guesses the listing exchange from the symbol shape:
// 4-5 letter symbols are typically NASDAQ, 1-3 letter symbols NYSE.
func detectByPattern(symbol string, fallback models.Exchange) models.Exchange {
	if len(symbol) >= 4 && len(symbol) <= 5 && isAlpha(symbol) {
		return models.ExchangeNasdaq
	}
	if len(symbol) <= 3 && isAlpha(symbol) {
		return models.ExchangeNYSE
	}
	return fallback
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
