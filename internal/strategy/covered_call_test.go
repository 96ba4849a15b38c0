package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "options-scanner/internal/errors"
	"options-scanner/internal/models"
)

var testExpiration = time.Date(2026, 3, 20, 16, 0, 0, 0, time.UTC)

func stockLeg(symbol string, qty int, price float64) models.StrategyLeg {
	return models.StrategyLeg{
		Instrument: models.Instrument{Symbol: symbol, SecType: models.SecurityStock, Exchange: models.ExchangeSmart, Currency: "USD"},
		Quantity:   qty,
		Multiplier: 1,
		Entry:      models.Quote{Bid: price, Ask: price},
	}
}

func optionLeg(symbol string, right models.Right, strike float64, qty int, bid, ask float64, greeks *models.Greeks) models.StrategyLeg {
	return models.StrategyLeg{
		Instrument: models.Instrument{
			Symbol: symbol, SecType: models.SecurityOption, Exchange: models.ExchangeOPRA,
			Currency: "USD", Strike: strike, Expiration: testExpiration, Right: right,
		},
		Quantity:   qty,
		Multiplier: 100,
		Entry:      models.Quote{Bid: bid, Ask: ask, Greeks: greeks},
	}
}

func coveredCallInstance(stockPrice, strike, premium float64, greeks *models.Greeks) models.StrategyInstance {
	return models.StrategyInstance{
		Type:   models.StrategyCoveredCall,
		Symbol: "AAPL",
		Legs: []models.StrategyLeg{
			stockLeg("AAPL", 100, stockPrice),
			optionLeg("AAPL", models.RightCall, strike, -1, premium, premium+0.05, greeks),
		},
	}
}

func TestCoveredCallEvaluate(t *testing.T) {
	cc := &CoveredCall{}
	inst := coveredCallInstance(150.00, 155, 2.00, &models.Greeks{Delta: 0.30})

	profile, err := cc.Evaluate(inst, DefaultPriceRange(150.00))
	require.NoError(t, err)

	assert.InDelta(t, 14800.00, profile.EntryCost, 1e-9)
	assert.InDelta(t, 700.00, profile.MaxProfit, 1e-9)
	assert.InDelta(t, 14800.00, profile.MaxLoss, 1e-9)

	require.Len(t, profile.Breakevens, 1)
	assert.InDelta(t, 148.00, profile.Breakevens[0].Price, 1e-6)
	assert.Equal(t, "above", profile.Breakevens[0].Direction)

	assert.InDelta(t, 0.70, profile.ProbabilityOfProfit, 1e-9)
	assert.InDelta(t, 700.0/14800.0, profile.RiskReward, 1e-9)
	assert.Len(t, profile.Samples, 200)
}

func TestCoveredCallPayoffCapsAtStrike(t *testing.T) {
	cc := &CoveredCall{}
	inst := coveredCallInstance(150.00, 155, 2.00, nil)

	profile, err := cc.Evaluate(inst, DefaultPriceRange(150.00))
	require.NoError(t, err)

	// Above the strike every sample sits at max profit.
	for _, s := range profile.Samples {
		if s.UnderlyingPrice >= 155 {
			assert.InDelta(t, profile.MaxProfit, s.ProfitLoss, 1e-6)
		}
		assert.LessOrEqual(t, s.ProfitLoss, profile.MaxProfit+1e-6)
	}
}

func TestCoveredCallGreeksAggregate(t *testing.T) {
	cc := &CoveredCall{}
	inst := coveredCallInstance(150.00, 155, 2.00, &models.Greeks{Delta: 0.30, Gamma: 0.02, Theta: -0.05, Vega: 0.12})

	profile, err := cc.Evaluate(inst, DefaultPriceRange(150.00))
	require.NoError(t, err)

	require.NotNil(t, profile.Greeks)
	// 100 shares of stock delta minus one 0.30-delta call.
	assert.InDelta(t, 100-0.30, profile.Greeks.Delta, 1e-9)
	assert.InDelta(t, -0.02, profile.Greeks.Gamma, 1e-9)
	assert.InDelta(t, 0.05, profile.Greeks.Theta, 1e-9)
	assert.InDelta(t, -0.12, profile.Greeks.Vega, 1e-9)
}

func TestCoveredCallShapeValidation(t *testing.T) {
	cc := &CoveredCall{}

	tests := []struct {
		name string
		inst models.StrategyInstance
	}{
		{
			name: "one leg",
			inst: models.StrategyInstance{Legs: []models.StrategyLeg{stockLeg("AAPL", 100, 150)}},
		},
		{
			name: "short stock",
			inst: models.StrategyInstance{Legs: []models.StrategyLeg{
				stockLeg("AAPL", -100, 150),
				optionLeg("AAPL", models.RightCall, 155, -1, 2.00, 2.05, nil),
			}},
		},
		{
			name: "long call instead of short",
			inst: models.StrategyInstance{Legs: []models.StrategyLeg{
				stockLeg("AAPL", 100, 150),
				optionLeg("AAPL", models.RightCall, 155, 1, 2.00, 2.05, nil),
			}},
		},
		{
			name: "put instead of call",
			inst: models.StrategyInstance{Legs: []models.StrategyLeg{
				stockLeg("AAPL", 100, 150),
				optionLeg("AAPL", models.RightPut, 145, -1, 2.00, 2.05, nil),
			}},
		},
		{
			name: "uncovered contracts",
			inst: models.StrategyInstance{Legs: []models.StrategyLeg{
				stockLeg("AAPL", 100, 150),
				optionLeg("AAPL", models.RightCall, 155, -2, 2.00, 2.05, nil),
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cc.Evaluate(tt.inst, DefaultPriceRange(150.00))
			assert.ErrorIs(t, err, apperrors.ErrInvalidStrategyShape)
		})
	}
}

func TestCoveredCallIncompleteQuote(t *testing.T) {
	cc := &CoveredCall{}
	inst := coveredCallInstance(150.00, 155, 2.00, nil)
	inst.Legs[1].Entry = models.Quote{}

	_, err := cc.Evaluate(inst, DefaultPriceRange(150.00))
	assert.ErrorIs(t, err, apperrors.ErrIncompleteQuote)
}

func TestCoveredCallNoGreeksZeroProbability(t *testing.T) {
	cc := &CoveredCall{}
	inst := coveredCallInstance(150.00, 155, 2.00, nil)

	profile, err := cc.Evaluate(inst, DefaultPriceRange(150.00))
	require.NoError(t, err)
	assert.Zero(t, profile.ProbabilityOfProfit)
}

func TestForType(t *testing.T) {
	cc, err := ForType(models.StrategyCoveredCall)
	require.NoError(t, err)
	assert.Equal(t, models.StrategyCoveredCall, cc.Type())

	ic, err := ForType(models.StrategyIronCondor)
	require.NoError(t, err)
	assert.Equal(t, models.StrategyIronCondor, ic.Type())

	_, err = ForType("butterfly")
	assert.ErrorIs(t, err, apperrors.ErrInvalidStrategyShape)
}
