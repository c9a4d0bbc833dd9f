package models

import "testing"

func TestLegKeyValid(t *testing.T) {
	tests := []struct {
		name string
		key  LegKey
		want bool
	}{
		{"well-formed", LegKey{25000, OptionCall, SideBuy}, true},
		{"fractional strike", LegKey{25050.5, OptionPut, SideSell}, true},
		{"zero strike", LegKey{0, OptionCall, SideBuy}, false},
		{"negative strike", LegKey{-50, OptionCall, SideBuy}, false},
		{"bad type", LegKey{25000, "CALL", SideBuy}, false},
		{"bad side", LegKey{25000, OptionCall, "LONG"}, false},
	}
	for _, tc := range tests {
		if got := tc.key.Valid(); got != tc.want {
			t.Errorf("%s: Valid() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestLegKeyString(t *testing.T) {
	key := LegKey{Strike: 25000, Type: OptionCall, Side: SideBuy}
	if got := key.String(); got != "25000CE-BUY" {
		t.Errorf("String() = %q, want 25000CE-BUY", got)
	}
	key = LegKey{Strike: 25050.5, Type: OptionPut, Side: SideSell}
	if got := key.String(); got != "25050.5PE-SELL" {
		t.Errorf("String() = %q, want 25050.5PE-SELL", got)
	}
}

func TestNotional(t *testing.T) {
	leg := Leg{Key: LegKey{25000, OptionCall, SideBuy}, Quantity: 2, EntryPremium: 120, LotSize: 75}
	if got := leg.Notional(50); got != 18000 {
		t.Errorf("Notional = %v, want 18000", got)
	}

	leg.LotSize = 0
	if got := leg.Notional(50); got != 12000 {
		t.Errorf("Notional with fallback lot = %v, want 12000", got)
	}
}

func TestLTPOf(t *testing.T) {
	var nilSnap *PriceSnapshot
	if _, ok := nilSnap.LTPOf("X"); ok {
		t.Error("nil snapshot returned a price")
	}

	snap := &PriceSnapshot{Spot: 25450, LTP: map[string]float64{"NIFTY25SEP25000CE": 470}}
	if ltp, ok := snap.LTPOf("NIFTY25SEP25000CE"); !ok || ltp != 470 {
		t.Errorf("LTPOf = %v, %v; want 470, true", ltp, ok)
	}
	if _, ok := snap.LTPOf("MISSING"); ok {
		t.Error("missing symbol returned a price")
	}
}
