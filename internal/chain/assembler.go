// Package chain assembles raw per-contract fetch results into a normalized
// option chain. It is a pure transformation with no I/O.
package chain

import (
	"sort"
	"time"

	"options-scanner/internal/models"
)

// Result is one per-contract outcome from a batched fetch. A nil-quote
// result (Err set or no usable price) is dropped during assembly rather than
// aborting the chain.
type Result struct {
	Instrument models.Instrument
	Quote      models.Quote
	Err        error
}

// Assemble builds one OptionChain from raw fetch results. Contracts that
// failed to return a usable quote are dropped; the chain's expiration and
// strike metadata reflect only successfully retrieved contracts. Output
// ordering is deterministic regardless of input order: contracts are sorted
// by (expiration, strike, right).
func Assemble(symbol string, underlyingPrice float64, fetchedAt time.Time, results []Result) *models.OptionChain {
	contracts := make([]models.ChainContract, 0, len(results))
	for _, r := range results {
		if r.Err != nil || !r.Quote.HasPrice() {
			continue
		}
		contracts = append(contracts, models.ChainContract{
			Instrument: r.Instrument,
			Quote:      r.Quote,
		})
	}

	sort.SliceStable(contracts, func(i, j int) bool {
		a, b := contracts[i].Instrument, contracts[j].Instrument
		if !a.Expiration.Equal(b.Expiration) {
			return a.Expiration.Before(b.Expiration)
		}
		if a.Strike != b.Strike {
			return a.Strike < b.Strike
		}
		return a.Right < b.Right
	})

	return &models.OptionChain{
		Symbol:          symbol,
		UnderlyingPrice: underlyingPrice,
		FetchedAt:       fetchedAt,
		Expirations:     expirationsOf(contracts),
		Strikes:         strikesOf(contracts),
		Contracts:       contracts,
	}
}

func expirationsOf(contracts []models.ChainContract) []time.Time {
	seen := make(map[string]bool)
	var out []time.Time
	for _, c := range contracts {
		key := c.Instrument.Expiration.Format("20060102")
		if !seen[key] {
			seen[key] = true
			out = append(out, c.Instrument.Expiration)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func strikesOf(contracts []models.ChainContract) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, c := range contracts {
		if !seen[c.Instrument.Strike] {
			seen[c.Instrument.Strike] = true
			out = append(out, c.Instrument.Strike)
		}
	}
	sort.Float64s(out)
	return out
}
