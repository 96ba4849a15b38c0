// Package models provides domain models for the options scanner.
package models

import (
	"fmt"
	"time"
)

// SecurityType represents the type of a tradable instrument.
type SecurityType string

const (
	SecurityStock  SecurityType = "STK"
	SecurityOption SecurityType = "OPT"
)

// Right represents an option right.
type Right string

const (
	RightCall Right = "C"
	RightPut  Right = "P"
)

// Exchange represents a listing or routing exchange.
type Exchange string

const (
	ExchangeSmart        Exchange = "SMART"
	ExchangeNYSE         Exchange = "NYSE"
	ExchangeNasdaq       Exchange = "NASDAQ"
	ExchangeNYSEAmerican Exchange = "NYSEAMERICAN"
	ExchangeOPRA         Exchange = "OPRA"
)

// Instrument identifies one tradable contract. For options the strike,
// expiration and right are set; for stocks they are zero values.
// Instruments are immutable once resolved.
type Instrument struct {
	Symbol     string
	SecType    SecurityType
	Exchange   Exchange
	Currency   string
	Strike     float64
	Expiration time.Time
	Right      Right
	ContractID int64
}

// Key returns the identity tuple of the instrument. Two instruments with the
// same key refer to the same contract.
func (i Instrument) Key() string {
	if i.SecType == SecurityStock {
		return fmt.Sprintf("%s:%s:%s", i.Exchange, i.SecType, i.Symbol)
	}
	return fmt.Sprintf("%s:%s:%s:%s:%.2f:%s",
		i.Exchange, i.SecType, i.Symbol, i.Expiration.Format("20060102"), i.Strike, i.Right)
}

// IsOption reports whether the instrument is an option contract.
func (i Instrument) IsOption() bool {
	return i.SecType == SecurityOption
}
