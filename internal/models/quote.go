package models

import "time"

// Greeks represents option sensitivity measures.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
}

// Quote is a point-in-time market data snapshot for one instrument.
// Quotes are never mutated; a newer snapshot supersedes an older one.
type Quote struct {
	Bid          float64
	Ask          float64
	Last         float64
	Volume       int64
	OpenInterest int64
	ImpliedVol   float64
	Greeks       *Greeks
	Timestamp    time.Time
}

// Mid returns the bid/ask midpoint, falling back to the last price when one
// side of the book is empty.
func (q Quote) Mid() float64 {
	if q.Bid > 0 && q.Ask > 0 {
		return (q.Bid + q.Ask) / 2
	}
	return q.Last
}

// HasPrice reports whether the quote carries any usable price.
func (q Quote) HasPrice() bool {
	return q.Bid > 0 || q.Ask > 0 || q.Last > 0
}
