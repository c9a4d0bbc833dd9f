// Package models provides domain models for the options dashboard engine.
package models

import (
	"time"
)

// OptionType identifies the contract type of an option leg.
// The wire values follow NSE convention: CE for calls, PE for puts.
type OptionType string

const (
	OptionCall OptionType = "CE"
	OptionPut  OptionType = "PE"
)

// Valid reports whether the option type is one of the known kinds.
func (t OptionType) Valid() bool {
	return t == OptionCall || t == OptionPut
}

// Side represents the direction of a position.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether the side is one of the known kinds.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Quote represents a spot quote from the quote source.
type Quote struct {
	Symbol string
	Price  float64
	AsOf   time.Time
}

// PriceSnapshot is an immutable view of the market at one feed tick.
// The feed replaces it wholesale on every successful poll; consumers must
// treat it as read-only for the duration of one computation pass.
type PriceSnapshot struct {
	Spot float64
	LTP  map[string]float64
	AsOf time.Time
}

// LTPOf returns the last traded price for an instrument symbol, if present.
func (p *PriceSnapshot) LTPOf(symbol string) (float64, bool) {
	if p == nil || p.LTP == nil {
		return 0, false
	}
	ltp, ok := p.LTP[symbol]
	return ltp, ok
}
