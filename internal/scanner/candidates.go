// Package scanner turns one option chain into a ranked list of strategy
// opportunities: it generates candidate instances, evaluates them
// concurrently, then filters and ranks the survivors.
package scanner

import (
	"time"

	apperrors "options-scanner/internal/errors"
	"options-scanner/internal/models"
)

// coveredCallCandidates builds one candidate per call contract in the first
// maxExpirations expirations: 100 shares at the chain's spot against one
// short call at that strike.
func coveredCallCandidates(chain *models.OptionChain, maxExpirations int) ([]models.StrategyInstance, error) {
	if chain.UnderlyingPrice <= 0 {
		return nil, apperrors.Wrapf(apperrors.ErrPriceUnavailable, "%s: cannot size covered calls without spot", chain.Symbol)
	}

	stockLeg := models.StrategyLeg{
		Instrument: models.Instrument{
			Symbol: chain.Symbol, SecType: models.SecurityStock, Exchange: models.ExchangeSmart, Currency: "USD",
		},
		Quantity:   100,
		Multiplier: 1,
		Entry:      models.Quote{Bid: chain.UnderlyingPrice, Ask: chain.UnderlyingPrice},
	}

	var out []models.StrategyInstance
	for _, exp := range capExpirations(chain.Expirations, maxExpirations) {
		for _, contract := range chain.ContractsFor(exp, models.RightCall) {
			if contract.Quote.Bid <= 0 {
				continue
			}
			out = append(out, models.StrategyInstance{
				Type:   models.StrategyCoveredCall,
				Symbol: chain.Symbol,
				Legs: []models.StrategyLeg{
					stockLeg,
					{Instrument: contract.Instrument, Quantity: -1, Multiplier: 100, Entry: contract.Quote},
				},
			})
		}
	}
	return out, nil
}

// ironCondorCandidates enumerates strike combinations per expiration with
// the legs ordered put-buy < put-sell < call-sell < call-buy. Combinations
// that do not collect a net credit are discarded up front, and the total is
// capped at maxCandidates because the combination space grows with the
// fourth power of the strike count.
func ironCondorCandidates(chain *models.OptionChain, maxExpirations, maxCandidates int) []models.StrategyInstance {
	var out []models.StrategyInstance

	for _, exp := range capExpirations(chain.Expirations, maxExpirations) {
		puts := quotedContracts(chain.ContractsFor(exp, models.RightPut))
		calls := quotedContracts(chain.ContractsFor(exp, models.RightCall))

		for ps := 1; ps < len(puts); ps++ {
			for pb := 0; pb < ps; pb++ {
				for cs := range calls {
					if calls[cs].Instrument.Strike <= puts[ps].Instrument.Strike {
						continue
					}
					for cb := cs + 1; cb < len(calls); cb++ {
						inst := condorInstance(chain.Symbol, puts[pb], puts[ps], calls[cs], calls[cb])
						if condorCredit(inst) <= 0 {
							continue
						}
						out = append(out, inst)
						if maxCandidates > 0 && len(out) >= maxCandidates {
							return out
						}
					}
				}
			}
		}
	}
	return out
}

func condorInstance(symbol string, putBuy, putSell, callSell, callBuy models.ChainContract) models.StrategyInstance {
	return models.StrategyInstance{
		Type:   models.StrategyIronCondor,
		Symbol: symbol,
		Legs: []models.StrategyLeg{
			{Instrument: putBuy.Instrument, Quantity: 1, Multiplier: 100, Entry: putBuy.Quote},
			{Instrument: putSell.Instrument, Quantity: -1, Multiplier: 100, Entry: putSell.Quote},
			{Instrument: callSell.Instrument, Quantity: -1, Multiplier: 100, Entry: callSell.Quote},
			{Instrument: callBuy.Instrument, Quantity: 1, Multiplier: 100, Entry: callBuy.Quote},
		},
	}
}

func condorCredit(inst models.StrategyInstance) float64 {
	var cost float64
	for _, leg := range inst.Legs {
		cost += float64(leg.Quantity) * float64(leg.Multiplier) * leg.EntryPrice()
	}
	return -cost
}

// quotedContracts keeps only contracts with a two-sided market, the minimum
// for pricing a leg that may be bought or sold.
func quotedContracts(contracts []models.ChainContract) []models.ChainContract {
	out := make([]models.ChainContract, 0, len(contracts))
	for _, c := range contracts {
		if c.Quote.Bid > 0 && c.Quote.Ask > 0 {
			out = append(out, c)
		}
	}
	return out
}

func capExpirations(expirations []time.Time, n int) []time.Time {
	if n > 0 && n < len(expirations) {
		return expirations[:n]
	}
	return expirations
}
