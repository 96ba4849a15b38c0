package models

import "time"

// ChainContract pairs an option instrument with its entry quote.
type ChainContract struct {
	Instrument Instrument
	Quote      Quote
}

// OptionChain holds all retrieved option contracts for one underlying at one
// fetch time. Every contract shares the underlying symbol; FetchedAt is the
// chain fetch time, not per-contract.
type OptionChain struct {
	Symbol          string
	UnderlyingPrice float64
	FetchedAt       time.Time
	Expirations     []time.Time
	Strikes         []float64
	Contracts       []ChainContract
}

// ContractsFor returns the contracts matching an expiration and right, in
// chain order (ascending strike).
func (c *OptionChain) ContractsFor(expiration time.Time, right Right) []ChainContract {
	var out []ChainContract
	for _, ct := range c.Contracts {
		if ct.Instrument.Right == right && sameDay(ct.Instrument.Expiration, expiration) {
			out = append(out, ct)
		}
	}
	return out
}

// Find returns the contract with the given expiration, strike and right.
func (c *OptionChain) Find(expiration time.Time, strike float64, right Right) (ChainContract, bool) {
	for _, ct := range c.Contracts {
		if ct.Instrument.Right == right && ct.Instrument.Strike == strike && sameDay(ct.Instrument.Expiration, expiration) {
			return ct, true
		}
	}
	return ChainContract{}, false
}

func sameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
