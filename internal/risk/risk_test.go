package risk

import (
	"testing"
	"time"

	"options-desk/internal/models"
)

func TestClassifyPnL(t *testing.T) {
	tests := []struct {
		name  string
		pnl   float64
		basis float64
		want  models.PnLTag
	}{
		{"zero is neutral", 0, 10000, models.PnLNeutral},
		{"small profit", 500, 10000, models.PnLProfit},
		{"profit above 20% of basis", 2500, 10000, models.PnLProfitHigh},
		{"exactly 20% stays plain", 2000, 10000, models.PnLProfit},
		{"small loss", -500, 10000, models.PnLLoss},
		{"loss above 20% of basis", -2500, 10000, models.PnLLossHigh},
		{"no basis, below absolute threshold", 4999, 0, models.PnLProfit},
		{"no basis, above absolute threshold", 5001, 0, models.PnLProfitHigh},
		{"no basis, large loss", -6000, 0, models.PnLLossHigh},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyPnL(tc.pnl, tc.basis); got != tc.want {
				t.Errorf("ClassifyPnL(%v, %v) = %v, want %v", tc.pnl, tc.basis, got, tc.want)
			}
		})
	}
}

func TestClassifyExpiry(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name   string
		expiry time.Time
		want   models.ExpiryTag
	}{
		{"zero expiry is safe", time.Time{}, models.ExpirySafe},
		{"already expired is urgent", now.Add(-3 * day), models.ExpiryUrgent},
		{"today is urgent", now, models.ExpiryUrgent},
		{"seven days out is urgent", now.Add(7 * day), models.ExpiryUrgent},
		{"eight days out is moderate", now.Add(8 * day), models.ExpiryModerate},
		{"thirty days out is moderate", now.Add(30 * day), models.ExpiryModerate},
		{"thirty-one days out is safe", now.Add(31 * day), models.ExpirySafe},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyExpiry(tc.expiry, now); got != tc.want {
				t.Errorf("ClassifyExpiry = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClassifySize(t *testing.T) {
	tests := []struct {
		lots int
		want models.SizeTag
	}{
		{0, models.SizeSmall},
		{4, models.SizeSmall},
		{5, models.SizeMedium},
		{9, models.SizeMedium},
		{10, models.SizeLarge},
		{25, models.SizeLarge},
		{-12, models.SizeLarge},
	}
	for _, tc := range tests {
		if got := ClassifySize(tc.lots); got != tc.want {
			t.Errorf("ClassifySize(%d) = %v, want %v", tc.lots, got, tc.want)
		}
	}
}

func TestClassifyMoneyness(t *testing.T) {
	const spot = 25000.0
	tests := []struct {
		name   string
		t      models.OptionType
		strike float64
		want   models.MoneynessTag
	}{
		{"at spot", models.OptionCall, 25000, models.MoneynessATM},
		{"inside 1% band", models.OptionCall, 25200, models.MoneynessATM},
		{"call below spot is itm", models.OptionCall, 24500, models.MoneynessITM},
		{"call far below spot is deep itm", models.OptionCall, 23000, models.MoneynessDeepITM},
		{"call above spot is otm", models.OptionCall, 25500, models.MoneynessOTM},
		{"call far above spot is deep otm", models.OptionCall, 27000, models.MoneynessDeepOTM},
		{"put above spot is itm", models.OptionPut, 25500, models.MoneynessITM},
		{"put far above spot is deep itm", models.OptionPut, 27000, models.MoneynessDeepITM},
		{"put below spot is otm", models.OptionPut, 24500, models.MoneynessOTM},
		{"put far below spot is deep otm", models.OptionPut, 23000, models.MoneynessDeepOTM},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyMoneyness(tc.t, tc.strike, spot); got != tc.want {
				t.Errorf("ClassifyMoneyness(%s, %v) = %v, want %v", tc.t, tc.strike, got, tc.want)
			}
		})
	}

	if got := ClassifyMoneyness(models.OptionCall, 25000, 0); got != models.MoneynessUnknown {
		t.Errorf("zero spot = %v, want unknown", got)
	}
	if got := ClassifyMoneyness("XX", 25000, spot); got != models.MoneynessUnknown {
		t.Errorf("invalid type = %v, want unknown", got)
	}
}

func TestClassifyLeg(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	expiry := now.Add(3 * 24 * time.Hour)
	snap := &models.PriceSnapshot{Spot: 25450, AsOf: now}

	leg := models.Leg{
		Key:          models.LegKey{Strike: 25000, Type: models.OptionCall, Side: models.SideBuy},
		Quantity:     1,
		EntryPremium: 120,
		LotSize:      75,
	}

	tags := Classify(leg, snap, expiry, now)

	// Intrinsic 450 against 120 entry: +24750 on a 9000 basis, well past
	// the 20% band.
	if tags.PnL != models.PnLProfitHigh {
		t.Errorf("PnL tag = %v, want profit-high", tags.PnL)
	}
	if tags.Expiry != models.ExpiryUrgent {
		t.Errorf("Expiry tag = %v, want urgent", tags.Expiry)
	}
	if tags.Size != models.SizeSmall {
		t.Errorf("Size tag = %v, want small", tags.Size)
	}
	// 450 points on a 25450 spot is under the 5% deep band.
	if tags.Moneyness != models.MoneynessITM {
		t.Errorf("Moneyness tag = %v, want itm", tags.Moneyness)
	}
}

func TestClassifyLegNilSnapshot(t *testing.T) {
	leg := models.Leg{
		Key:          models.LegKey{Strike: 25000, Type: models.OptionCall, Side: models.SideBuy},
		Quantity:     1,
		EntryPremium: 120,
		LotSize:      75,
	}
	tags := Classify(leg, nil, time.Time{}, time.Now())

	if tags.Moneyness != models.MoneynessUnknown {
		t.Errorf("Moneyness = %v without a snapshot, want unknown", tags.Moneyness)
	}
	if tags.Expiry != models.ExpirySafe {
		t.Errorf("Expiry = %v with zero expiry, want safe", tags.Expiry)
	}
}

func TestClassifyAggregate(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	expiry := now.Add(60 * 24 * time.Hour)
	snap := &models.PriceSnapshot{Spot: 25450, AsOf: now}

	legs := []models.Leg{
		{
			Key:          models.LegKey{Strike: 25000, Type: models.OptionCall, Side: models.SideBuy},
			Quantity:     6,
			EntryPremium: 120,
			LotSize:      75,
		},
		{
			Key:          models.LegKey{Strike: 25400, Type: models.OptionPut, Side: models.SideSell},
			Quantity:     4,
			EntryPremium: 90,
			LotSize:      75,
		},
	}

	tags := ClassifyAggregate(legs, snap, expiry, now)

	if tags.Size != models.SizeLarge {
		t.Errorf("Size = %v for 10 gross lots, want large", tags.Size)
	}
	if tags.Expiry != models.ExpirySafe {
		t.Errorf("Expiry = %v for 60 days, want safe", tags.Expiry)
	}
	// The 25400 strike is nearest to the 25450 spot and within the 1% band.
	if tags.Moneyness != models.MoneynessATM {
		t.Errorf("Moneyness = %v, want atm for nearest strike", tags.Moneyness)
	}
	if tags.PnL != models.PnLProfitHigh {
		t.Errorf("PnL = %v, want profit-high", tags.PnL)
	}
}
