package strategy

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-scanner/internal/models"
)

func TestCoveredCallProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	cc := &CoveredCall{}

	properties.Property("breakeven equals stock price minus premium", prop.ForAll(
		func(stockPrice, strikeOffset, premium float64) bool {
			strike := stockPrice + strikeOffset
			inst := coveredCallInstance(stockPrice, strike, premium, nil)

			profile, err := cc.Evaluate(inst, DefaultPriceRange(stockPrice))
			if err != nil {
				return false
			}
			if len(profile.Breakevens) != 1 {
				return false
			}
			return math.Abs(profile.Breakevens[0].Price-(stockPrice-premium)) < 1e-6
		},
		gen.Float64Range(50, 200),
		gen.Float64Range(1, 20),
		gen.Float64Range(2, 10),
	))

	properties.Property("sampled curve never exceeds closed-form max profit", prop.ForAll(
		func(stockPrice, strikeOffset, premium float64) bool {
			strike := stockPrice + strikeOffset
			inst := coveredCallInstance(stockPrice, strike, premium, nil)

			profile, err := cc.Evaluate(inst, DefaultPriceRange(stockPrice))
			if err != nil {
				return false
			}
			for _, s := range profile.Samples {
				if s.ProfitLoss > profile.MaxProfit+1e-6 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(50, 200),
		gen.Float64Range(1, 20),
		gen.Float64Range(2, 10),
	))

	properties.Property("max profit plus max loss equals strike value", prop.ForAll(
		func(stockPrice, strikeOffset, premium float64) bool {
			strike := stockPrice + strikeOffset
			inst := coveredCallInstance(stockPrice, strike, premium, nil)

			profile, err := cc.Evaluate(inst, DefaultPriceRange(stockPrice))
			if err != nil {
				return false
			}
			return math.Abs(profile.MaxProfit+profile.MaxLoss-strike*100) < 1e-6
		},
		gen.Float64Range(50, 200),
		gen.Float64Range(1, 20),
		gen.Float64Range(2, 10),
	))

	properties.TestingRun(t)
}

func TestIronCondorProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	ic := &IronCondor{}

	buildCondor := func(center, bodyWidth, wingWidth, shortPx, longPx float64) models.StrategyInstance {
		legs := []models.StrategyLeg{
			optionLeg("AAPL", models.RightPut, center-bodyWidth-wingWidth, 1, longPx, longPx, nil),
			optionLeg("AAPL", models.RightPut, center-bodyWidth, -1, shortPx, shortPx, nil),
			optionLeg("AAPL", models.RightCall, center+bodyWidth, -1, shortPx, shortPx, nil),
			optionLeg("AAPL", models.RightCall, center+bodyWidth+wingWidth, 1, longPx, longPx, nil),
		}
		return condorInstance(legs)
	}

	properties.Property("breakevens sit at short strikes offset by the credit", prop.ForAll(
		func(center, bodyWidth, wingWidth, shortPx, longPx float64) bool {
			if longPx >= shortPx {
				longPx = shortPx / 2
			}
			inst := buildCondor(center, bodyWidth, wingWidth, shortPx, longPx)

			profile, err := ic.Evaluate(inst, DefaultPriceRange(center))
			if err != nil {
				return false
			}
			if len(profile.Breakevens) != 2 {
				return false
			}
			credit := profile.NetCredit() / 100
			lower := center - bodyWidth - credit
			upper := center + bodyWidth + credit
			return math.Abs(profile.Breakevens[0].Price-lower) < 1e-6 &&
				math.Abs(profile.Breakevens[1].Price-upper) < 1e-6
		},
		gen.Float64Range(100, 200),
		gen.Float64Range(5, 15),
		gen.Float64Range(5, 10),
		gen.Float64Range(1.5, 2),
		gen.Float64Range(0.2, 0.6),
	))

	properties.Property("sampled extremes agree with closed-form bounds", prop.ForAll(
		func(center, bodyWidth, wingWidth, shortPx, longPx float64) bool {
			if longPx >= shortPx {
				longPx = shortPx / 2
			}
			inst := buildCondor(center, bodyWidth, wingWidth, shortPx, longPx)

			profile, err := ic.Evaluate(inst, DefaultPriceRange(center))
			if err != nil {
				return false
			}
			maxProfit, maxLoss := sampledExtremes(profile.Samples)
			return math.Abs(maxProfit-profile.MaxProfit) < 1e-6 &&
				math.Abs(maxLoss-profile.MaxLoss) < 1e-6
		},
		gen.Float64Range(100, 200),
		gen.Float64Range(5, 15),
		gen.Float64Range(5, 10),
		gen.Float64Range(1.5, 2),
		gen.Float64Range(0.2, 0.6),
	))

	properties.Property("max profit plus max loss equals the wider wing", prop.ForAll(
		func(center, bodyWidth, wingWidth, shortPx, longPx float64) bool {
			if longPx >= shortPx {
				longPx = shortPx / 2
			}
			inst := buildCondor(center, bodyWidth, wingWidth, shortPx, longPx)

			profile, err := ic.Evaluate(inst, DefaultPriceRange(center))
			if err != nil {
				return false
			}
			return math.Abs(profile.MaxProfit+profile.MaxLoss-wingWidth*100) < 1e-6
		},
		gen.Float64Range(100, 200),
		gen.Float64Range(5, 15),
		gen.Float64Range(5, 10),
		gen.Float64Range(1.5, 2),
		gen.Float64Range(0.2, 0.6),
	))

	properties.TestingRun(t)
}
