package models

import "time"

// ChainRow is one strike row of an option chain as served by the quote
// source: the call and put contracts at that strike with their last traded
// prices and open interest.
type ChainRow struct {
	Strike   float64
	CESymbol string
	PESymbol string
	CELTP    float64
	PELTP    float64
	CEOI     int64
	PEOI     int64
}

// OptionChain is the option chain for one symbol and expiry.
type OptionChain struct {
	Symbol    string
	Expiry    time.Time
	SpotPrice float64
	LotSize   int
	Rows      []ChainRow
}

// RowAt returns the chain row for a strike, if present.
func (c *OptionChain) RowAt(strike float64) (ChainRow, bool) {
	if c == nil {
		return ChainRow{}, false
	}
	for _, row := range c.Rows {
		if row.Strike == strike {
			return row, true
		}
	}
	return ChainRow{}, false
}

// LTPFor returns the last traded price of the call or put contract at a
// strike, if the chain carries that row.
func (c *OptionChain) LTPFor(strike float64, t OptionType) (float64, bool) {
	row, ok := c.RowAt(strike)
	if !ok {
		return 0, false
	}
	switch t {
	case OptionCall:
		return row.CELTP, true
	case OptionPut:
		return row.PELTP, true
	}
	return 0, false
}
