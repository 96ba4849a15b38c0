package strategy

import (
	"math"

	apperrors "options-scanner/internal/errors"
	"options-scanner/internal/models"
)

// IronCondor is a four-leg credit strategy: long put, short put, short call,
// long call with strictly ascending strikes. Legs are ordered
// put-buy < put-sell < call-sell < call-buy.
type IronCondor struct{}

// Type returns the strategy shape identifier.
func (s *IronCondor) Type() models.StrategyType {
	return models.StrategyIronCondor
}

// Validate enforces the condor shape: rights P/P/C/C, signs +/-/-/+,
// strictly ascending strikes, one expiration, equal sizes.
func (s *IronCondor) Validate(inst models.StrategyInstance) error {
	if len(inst.Legs) != 4 {
		return apperrors.Wrapf(apperrors.ErrInvalidStrategyShape, "iron condor needs 4 legs, got %d", len(inst.Legs))
	}

	putBuy, putSell, callSell, callBuy := inst.Legs[0], inst.Legs[1], inst.Legs[2], inst.Legs[3]

	for i, leg := range inst.Legs {
		if !leg.Instrument.IsOption() {
			return apperrors.Wrapf(apperrors.ErrInvalidStrategyShape, "leg %d is not an option", i)
		}
	}
	if putBuy.Instrument.Right != models.RightPut || putSell.Instrument.Right != models.RightPut {
		return apperrors.Wrap(apperrors.ErrInvalidStrategyShape, "legs 0 and 1 must be puts")
	}
	if callSell.Instrument.Right != models.RightCall || callBuy.Instrument.Right != models.RightCall {
		return apperrors.Wrap(apperrors.ErrInvalidStrategyShape, "legs 2 and 3 must be calls")
	}
	if putBuy.Quantity <= 0 || callBuy.Quantity <= 0 || putSell.Quantity >= 0 || callSell.Quantity >= 0 {
		return apperrors.Wrap(apperrors.ErrInvalidStrategyShape, "wings must be long, body must be short")
	}
	if putBuy.Quantity != -putSell.Quantity || putBuy.Quantity != -callSell.Quantity || putBuy.Quantity != callBuy.Quantity {
		return apperrors.Wrap(apperrors.ErrInvalidStrategyShape, "leg quantities must match")
	}

	strikes := []float64{
		putBuy.Instrument.Strike,
		putSell.Instrument.Strike,
		callSell.Instrument.Strike,
		callBuy.Instrument.Strike,
	}
	for i := 1; i < len(strikes); i++ {
		if strikes[i] <= strikes[i-1] {
			return apperrors.Wrapf(apperrors.ErrInvalidStrategyShape,
				"strikes must be strictly ascending put-buy < put-sell < call-sell < call-buy, got %v", strikes)
		}
	}

	exp := putBuy.Instrument.Expiration
	for i, leg := range inst.Legs[1:] {
		if !leg.Instrument.Expiration.Equal(exp) {
			return apperrors.Wrapf(apperrors.ErrInvalidStrategyShape, "leg %d expiration differs", i+1)
		}
	}
	return nil
}

// Evaluate computes the condor payoff. Max profit is the net credit; max
// loss is the wider wing spread less the credit, both closed-form.
func (s *IronCondor) Evaluate(inst models.StrategyInstance, priceRange PriceRange) (*models.PayoffProfile, error) {
	if err := s.Validate(inst); err != nil {
		return nil, err
	}
	if err := requireEntryPrices(inst.Legs); err != nil {
		return nil, err
	}

	putBuy, putSell, callSell, callBuy := inst.Legs[0], inst.Legs[1], inst.Legs[2], inst.Legs[3]

	cost := entryCost(inst.Legs)
	netCredit := -cost

	size := float64(putBuy.Quantity) * float64(putBuy.Multiplier)
	putWidth := (putSell.Instrument.Strike - putBuy.Instrument.Strike) * size
	callWidth := (callBuy.Instrument.Strike - callSell.Instrument.Strike) * size

	maxProfit := netCredit
	maxLoss := math.Max(putWidth, callWidth) - netCredit

	samples := samplePayoff(inst.Legs, cost, priceRange)

	// Probability the price stays inside the short strikes, from the two
	// short deltas. A heuristic, not a distributional estimate.
	pop := 0.0
	if putSell.Entry.Greeks != nil && callSell.Entry.Greeks != nil {
		pop = clamp01(1 - math.Abs(putSell.Entry.Greeks.Delta) - math.Abs(callSell.Entry.Greeks.Delta))
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

var _ Strategy = (*IronCondor)(nil)
