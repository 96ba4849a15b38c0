package strategy

import (
	"math"

	apperrors "options-scanner/internal/errors"
	"options-scanner/internal/models"
)

// CoveredCall is long stock plus a short call against it: one stock leg with
// positive quantity, one call leg with negative quantity covering the shares.
type CoveredCall struct{}

// Type returns the strategy shape identifier.
func (s *CoveredCall) Type() models.StrategyType {
	return models.StrategyCoveredCall
}

// Validate enforces the covered call shape: leg 0 long stock, leg 1 short
// call, share count matching the short contracts.
func (s *CoveredCall) Validate(inst models.StrategyInstance) error {
	if len(inst.Legs) != 2 {
		return apperrors.Wrapf(apperrors.ErrInvalidStrategyShape, "covered call needs 2 legs, got %d", len(inst.Legs))
	}

	stock, call := inst.Legs[0], inst.Legs[1]
	if stock.Instrument.IsOption() || stock.Quantity <= 0 {
		return apperrors.Wrap(apperrors.ErrInvalidStrategyShape, "leg 0 must be long stock")
	}
	if !call.Instrument.IsOption() || call.Instrument.Right != models.RightCall || call.Quantity >= 0 {
		return apperrors.Wrap(apperrors.ErrInvalidStrategyShape, "leg 1 must be a short call")
	}
	if call.Instrument.Strike <= 0 {
		return apperrors.Wrap(apperrors.ErrInvalidStrategyShape, "short call has no strike")
	}
	if stock.Quantity != -call.Quantity*call.Multiplier {
		return apperrors.Wrapf(apperrors.ErrInvalidStrategyShape,
			"stock quantity %d does not cover %d short contracts", stock.Quantity, -call.Quantity)
	}
	return nil
}

// Evaluate computes the covered call payoff. Max profit and max loss are
// closed-form: profit caps at the strike, loss is the full stock cost less
// the premium (stock to zero).
func (s *CoveredCall) Evaluate(inst models.StrategyInstance, priceRange PriceRange) (*models.PayoffProfile, error) {
	if err := s.Validate(inst); err != nil {
		return nil, err
	}
	if err := requireEntryPrices(inst.Legs); err != nil {
		return nil, err
	}

	stock, call := inst.Legs[0], inst.Legs[1]
	shares := float64(stock.Quantity)
	stockPrice := stock.EntryPrice()
	premium := float64(-call.Quantity) * float64(call.Multiplier) * call.EntryPrice()

	cost := entryCost(inst.Legs)
	maxProfit := (call.Instrument.Strike-stockPrice)*shares + premium
	maxLoss := stockPrice*shares - premium

	samples := samplePayoff(inst.Legs, cost, priceRange)

	// Probability the stock finishes below the short strike, from the
	// call's delta. A heuristic, not a distributional estimate.
	pop := 0.0
	if call.Entry.Greeks != nil {
		pop = clamp01(1 - math.Abs(call.Entry.Greeks.Delta))
	}

	return &models.PayoffProfile{
		Type:                s.Type(),
		Symbol:              inst.Symbol,
		EntryCost:           cost,
		MaxProfit:           maxProfit,
		MaxLoss:             maxLoss,
		Samples:             samples,
		Breakevens:          breakevens(samples),
		Greeks:              aggregateGreeks(inst.Legs),
		ProbabilityOfProfit: pop,
		RiskReward:          riskReward(maxProfit, maxLoss),
	}, nil
}

var _ Strategy = (*CoveredCall)(nil)
