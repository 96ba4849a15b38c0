package models

import "time"

// Tick is a streaming market data update for one contract.
type Tick struct {
	Symbol     string
	ContractID int64
	Last       float64
	Bid        float64
	Ask        float64
	Volume     int64
	Timestamp  time.Time
}
