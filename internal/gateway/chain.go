package gateway

import (
	"context"
	"sort"
	"time"

	"options-scanner/internal/chain"
	apperrors "options-scanner/internal/errors"
	"options-scanner/internal/logging"
	"options-scanner/internal/models"
)

// FetchChain retrieves the option chain for a symbol. Expirations are
// discovered first; if the gateway reports none the fetch fails with
// ErrChainUnavailable. maxExpirations caps the fetch to the nearest N
// expirations (0 = configured default, negative = all).
//
// Contract quotes are requested in fixed-size batches with a fixed delay
// between batches. The delay keeps the request rate under the gateway's
// per-second ceiling; shortening it risks gateway-side throttling or
// disconnection. Per-contract failures are absorbed: failed contracts are
// dropped from the chain, and a fetch that loses every contract still
// returns a valid empty chain.
func (c *Connector) FetchChain(ctx context.Context, symbol string, hint models.Exchange, maxExpirations int) (*models.OptionChain, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSessionLocked(); err != nil {
		return nil, err
	}

	logger := logging.WithSymbol(c.logger, symbol)
	start := c.clock.Now()

	stock := c.resolver.StockContract(symbol, hint)
	stock, err := c.transport.ResolveContract(ctx, stock)
	if err != nil {
		return nil, apperrors.NewChainError(symbol, "resolving underlying", err)
	}

	underlyingPrice, err := c.underlyingPriceLocked(ctx, stock)
	if err != nil {
		logger.Warn().Err(err).Msg("Underlying price unavailable, chain will carry zero spot")
		underlyingPrice = 0
	}

	params, err := c.transport.ChainParams(ctx, stock)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrChainUnavailable, "%s: %v", symbol, err)
	}
	if len(params.Expirations) == 0 || len(params.Strikes) == 0 {
		return nil, apperrors.Wrapf(apperrors.ErrChainUnavailable, "%s: gateway reported no expirations", symbol)
	}

	expirations := nearestExpirations(params.Expirations, c.maxExpirations(maxExpirations))

	contracts := make([]models.Instrument, 0, len(expirations)*len(params.Strikes)*2)
	for _, exp := range expirations {
		for _, strike := range params.Strikes {
			for _, right := range []models.Right{models.RightCall, models.RightPut} {
				contracts = append(contracts, c.resolver.OptionContract(stock, exp, strike, right))
			}
		}
	}

	results, err := c.fetchBatches(ctx, contracts)
	if err != nil {
		return nil, err
	}

	assembled := chain.Assemble(symbol, underlyingPrice, c.clock.Now(), results)
	logging.LogChainFetch(logger, symbol, len(contracts), len(assembled.Contracts), c.clock.Now().Sub(start))
	return assembled, nil
}

// fetchBatches issues snapshot requests in batches of cfg.BatchSize, awaiting
// each batch before sleeping the configured delay and issuing the next. The
// sequential loop is the throttle, not a performance bug.
func (c *Connector) fetchBatches(ctx context.Context, contracts []models.Instrument) ([]chain.Result, error) {
	results := make([]chain.Result, 0, len(contracts))
	batchSize := c.cfg.BatchSize

	for i := 0; i < len(contracts); i += batchSize {
		end := i + batchSize
		if end > len(contracts) {
			end = len(contracts)
		}

		for _, inst := range contracts[i:end] {
			quote, err := c.transport.Snapshot(ctx, inst)
			if err != nil {
				c.logger.Debug().Err(err).Str("contract", inst.Key()).Msg("Contract snapshot failed")
				results = append(results, chain.Result{Instrument: inst, Err: err})
				continue
			}
			results = append(results, chain.Result{Instrument: inst, Quote: quote})
		}

		if end < len(contracts) {
			if err := c.clock.Sleep(ctx, c.cfg.BatchDelay); err != nil {
				return nil, apperrors.NewGatewayError("fetch", "interrupted between batches", err)
			}
		}
	}

	return results, nil
}

func (c *Connector) maxExpirations(requested int) int {
	if requested == 0 {
		return c.cfg.MaxExpirations
	}
	if requested < 0 {
		return 0
	}
	return requested
}

// nearestExpirations returns the n earliest expirations in ascending order;
// n <= 0 keeps all of them.
func nearestExpirations(expirations []time.Time, n int) []time.Time {
	sorted := make([]time.Time, len(expirations))
	copy(sorted, expirations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	if n > 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
