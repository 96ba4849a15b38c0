package strategy

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	apperrors "options-scanner/internal/errors"
	"options-scanner/internal/models"
)

// requireEntryPrices fails when any leg lacks a usable entry price.
func requireEntryPrices(legs []models.StrategyLeg) error {
	for i, leg := range legs {
		if !leg.Entry.HasPrice() {
			return apperrors.Wrapf(apperrors.ErrIncompleteQuote, "leg %d (%s)", i, leg.Instrument.Key())
		}
	}
	return nil
}

// entryCost is the signed cash flow on entry: paying is positive, receiving
// credit is negative.
func entryCost(legs []models.StrategyLeg) float64 {
	var cost float64
	for _, leg := range legs {
		cost += float64(leg.Quantity) * float64(leg.Multiplier) * leg.EntryPrice()
	}
	return cost
}

// legValueAt is the leg's liquidation value at expiration with the
// underlying at price.
func legValueAt(leg models.StrategyLeg, price float64) float64 {
	size := float64(leg.Quantity) * float64(leg.Multiplier)
	if !leg.Instrument.IsOption() {
		return size * price
	}

	var intrinsic float64
	switch leg.Instrument.Right {
	case models.RightCall:
		intrinsic = math.Max(price-leg.Instrument.Strike, 0)
	case models.RightPut:
		intrinsic = math.Max(leg.Instrument.Strike-price, 0)
	}
	return size * intrinsic
}

func payoffAt(legs []models.StrategyLeg, cost, price float64) float64 {
	var value float64
	for _, leg := range legs {
		value += legValueAt(leg, price)
	}
	return value - cost
}

// samplePayoff evaluates the curve across the price range. ROI per sample is
// relative to the absolute entry cash flow.
func samplePayoff(legs []models.StrategyLeg, cost float64, pr PriceRange) []models.PayoffPoint {
	steps := pr.Steps
	if steps < 2 {
		steps = 2
	}
	low := pr.Center * (1 - pr.Ratio)
	high := pr.Center * (1 + pr.Ratio)
	if low < 0 {
		low = 0
	}
	step := (high - low) / float64(steps-1)

	capital := math.Abs(cost)
	points := make([]models.PayoffPoint, 0, steps)
	for i := 0; i < steps; i++ {
		price := low + float64(i)*step
		pl := payoffAt(legs, cost, price)
		roi := 0.0
		if capital > 0 {
			roi = pl / capital * 100
		}
		points = append(points, models.PayoffPoint{UnderlyingPrice: price, ProfitLoss: pl, ROI: roi})
	}
	return points
}

// breakevens finds the zero crossings of the sampled curve by linear
// interpolation between adjacent samples that bracket a sign change,
// sorted ascending.
func breakevens(samples []models.PayoffPoint) []models.Breakeven {
	var out []models.Breakeven
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		if prev.ProfitLoss == 0 {
			out = append(out, models.Breakeven{Price: prev.UnderlyingPrice, Direction: crossDirection(prev, cur)})
			continue
		}
		if prev.ProfitLoss*cur.ProfitLoss < 0 {
			frac := -prev.ProfitLoss / (cur.ProfitLoss - prev.ProfitLoss)
			price := prev.UnderlyingPrice + frac*(cur.UnderlyingPrice-prev.UnderlyingPrice)
			out = append(out, models.Breakeven{Price: price, Direction: crossDirection(prev, cur)})
		}
	}
	if len(samples) > 0 && samples[len(samples)-1].ProfitLoss == 0 {
		last := samples[len(samples)-1]
		out = append(out, models.Breakeven{Price: last.UnderlyingPrice, Direction: "above"})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

func crossDirection(prev, cur models.PayoffPoint) string {
	if cur.ProfitLoss > prev.ProfitLoss {
		return "above"
	}
	return "below"
}

// sampledExtremes is the fallback when a leg combination has no closed-form
// max profit/loss: the extremes of the sampled curve.
func sampledExtremes(samples []models.PayoffPoint) (maxProfit, maxLoss float64) {
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.ProfitLoss
	}
	max, err := stats.Max(values)
	if err != nil {
		return 0, 0
	}
	min, _ := stats.Min(values)
	return max, -min
}

// aggregateGreeks is the signed sum of quantity-weighted per-leg greeks.
// Stock legs contribute delta 1 per unit. Legs without greeks contribute
// nothing.
func aggregateGreeks(legs []models.StrategyLeg) *models.Greeks {
	agg := &models.Greeks{}
	for _, leg := range legs {
		qty := float64(leg.Quantity)
		if !leg.Instrument.IsOption() {
			agg.Delta += qty
			continue
		}
		if leg.Entry.Greeks == nil {
			continue
		}
		agg.Delta += qty * leg.Entry.Greeks.Delta
		agg.Gamma += qty * leg.Entry.Greeks.Gamma
		agg.Theta += qty * leg.Entry.Greeks.Theta
		agg.Vega += qty * leg.Entry.Greeks.Vega
	}
	return agg
}

// riskReward is max profit per unit of max loss, zero when the loss side is
// not positive.
func riskReward(maxProfit, maxLoss float64) float64 {
	if maxLoss <= 0 {
		return 0
	}
	return maxProfit / maxLoss
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
