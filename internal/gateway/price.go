package gateway

import (
	"context"

	apperrors "options-scanner/internal/errors"
	"options-scanner/internal/models"
)

// UnderlyingPrice returns the current price for an instrument. It tries a
// live market snapshot first and falls back to the last close before failing
// with ErrPriceUnavailable. No default price is ever invented.
func (c *Connector) UnderlyingPrice(ctx context.Context, inst models.Instrument) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSessionLocked(); err != nil {
		return 0, err
	}
	return c.underlyingPriceLocked(ctx, inst)
}

func (c *Connector) underlyingPriceLocked(ctx context.Context, inst models.Instrument) (float64, error) {
	quote, err := c.transport.Snapshot(ctx, inst)
	if err == nil {
		if price := marketPrice(quote); price > 0 {
			return price, nil
		}
	} else {
		c.logger.Debug().Err(err).Str("symbol", inst.Symbol).Msg("Live snapshot failed, trying last close")
	}

	close, err := c.transport.LastClose(ctx, inst)
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrPriceUnavailable, "%s: %v", inst.Symbol, err)
	}
	if close <= 0 {
		return 0, apperrors.Wrapf(apperrors.ErrPriceUnavailable, "%s: no close price", inst.Symbol)
	}
	return close, nil
}

// marketPrice extracts a usable live price from a snapshot: last trade when
// present, otherwise the bid/ask midpoint.
func marketPrice(q models.Quote) float64 {
	if q.Last > 0 {
		return q.Last
	}
	if q.Bid > 0 && q.Ask > 0 {
		return (q.Bid + q.Ask) / 2
	}
	return 0
}
