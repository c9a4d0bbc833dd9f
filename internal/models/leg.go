package models

import "fmt"

// LegKey is the deterministic identity of an option leg: strike, contract
// type and side. The leg store holds at most one leg per key.
type LegKey struct {
	Strike float64
	Type   OptionType
	Side   Side
}

// Valid reports whether the key identifies a well-formed leg.
func (k LegKey) Valid() bool {
	return k.Strike > 0 && k.Type.Valid() && k.Side.Valid()
}

// String returns the canonical form, e.g. "25000CE-BUY".
func (k LegKey) String() string {
	return fmt.Sprintf("%g%s-%s", k.Strike, k.Type, k.Side)
}

// Leg is one option position line. Quantity counts lots and is at least 1
// for any leg held by the store; a quantity of 0 means the leg does not
// exist. EntryPremium is fixed at the moment of first increment and cleared
// when the leg is removed.
type Leg struct {
	Key          LegKey
	Quantity     int
	EntryPremium float64
	LotSize      int
}

// Notional returns the premium basis of the leg: entry premium scaled by
// quantity and lot size. lotSizeDefault applies when the leg carries no
// per-instrument lot size.
func (l Leg) Notional(lotSizeDefault int) float64 {
	lot := l.LotSize
	if lot <= 0 {
		lot = lotSizeDefault
	}
	return l.EntryPremium * float64(l.Quantity) * float64(lot)
}
