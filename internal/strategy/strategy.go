// Package strategy evaluates multi-leg option strategies into payoff
// profiles. Each named strategy validates its own leg shape and supplies
// closed-form max profit/loss where the risk is bounded.
package strategy

import (
	apperrors "options-scanner/internal/errors"
	"options-scanner/internal/models"
)

// PriceRange is the sampling window for payoff curves: Ratio of the center
// price on each side, at Steps sample points. Wide enough to show every
// breakeven for the supported shapes.
type PriceRange struct {
	Center float64
	Ratio  float64
	Steps  int
}

// DefaultPriceRange samples ±50% around the center at 200 points.
func DefaultPriceRange(center float64) PriceRange {
	return PriceRange{Center: center, Ratio: 0.5, Steps: 200}
}

// Strategy is the evaluation contract every named strategy implements.
type Strategy interface {
	// Type returns the strategy shape this evaluator handles.
	Type() models.StrategyType

	// Validate checks the instance's legs against the strategy's defining
	// shape. It fails with ErrInvalidStrategyShape before any computation.
	Validate(inst models.StrategyInstance) error

	// Evaluate computes the payoff profile for a validated instance.
	Evaluate(inst models.StrategyInstance, priceRange PriceRange) (*models.PayoffProfile, error)
}

// ForType returns the evaluator for a strategy type.
func ForType(typ models.StrategyType) (Strategy, error) {
	switch typ {
	case models.StrategyCoveredCall:
		return &CoveredCall{}, nil
	case models.StrategyIronCondor:
		return &IronCondor{}, nil
	default:
		return nil, apperrors.Wrapf(apperrors.ErrInvalidStrategyShape, "unknown strategy type %q", typ)
	}
}
