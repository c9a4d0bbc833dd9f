// Package risk derives qualitative risk tags for option legs: P&L band,
// expiry urgency, position size and moneyness. Every classifier is a pure
// function of its inputs, safe to recompute on every tick.
package risk

import (
	"math"
	"time"

	"options-desk/internal/models"
	"options-desk/internal/payoff"
)

const (
	// highPnLPercent promotes profit/loss to the -high band when |pnl|
	// exceeds this percentage of the premium basis.
	highPnLPercent = 20.0
	// highPnLAbsolute is the fallback threshold when no premium basis is
	// available.
	highPnLAbsolute = 5000.0
	// pnlEpsilon is the band around zero treated as neutral.
	pnlEpsilon = 1e-9

	urgentExpiryDays   = 7
	moderateExpiryDays = 30

	largeLots  = 10
	mediumLots = 5

	// atmBandFraction is the strike distance, as a fraction of spot, still
	// counted as at-the-money.
	atmBandFraction = 0.01
	// deepBandFraction separates itm/otm from their deep variants.
	deepBandFraction = 0.05
)

// Classify derives all four risk tags for one leg against a price snapshot.
// The P&L axis marks the leg to intrinsic value at the current spot. expiry
// is the contract expiry date; a zero expiry classifies as safe.
func Classify(leg models.Leg, snap *models.PriceSnapshot, expiry time.Time, now time.Time) models.RiskTags {
	spot := 0.0
	if snap != nil {
		spot = snap.Spot
	}
	pnl := payoff.LegPnLAt(leg, spot, leg.LotSize)
	return models.RiskTags{
		PnL:       ClassifyPnL(pnl, leg.Notional(leg.LotSize)),
		Expiry:    ClassifyExpiry(expiry, now),
		Size:      ClassifySize(leg.Quantity),
		Moneyness: ClassifyMoneyness(leg.Key.Type, leg.Key.Strike, spot),
	}
}

// ClassifyAggregate derives tags for the whole position: total intrinsic
// P&L against total premium basis, gross lots, and the moneyness of the
// strike nearest to spot.
func ClassifyAggregate(legs []models.Leg, snap *models.PriceSnapshot, expiry time.Time, now time.Time) models.RiskTags {
	spot := 0.0
	if snap != nil {
		spot = snap.Spot
	}

	totalPnL := 0.0
	basis := 0.0
	lots := 0
	nearest := models.LegKey{}
	nearestDist := math.Inf(1)
	for _, leg := range legs {
		totalPnL += payoff.LegPnLAt(leg, spot, leg.LotSize)
		basis += math.Abs(leg.Notional(leg.LotSize))
		lots += leg.Quantity
		if d := math.Abs(leg.Key.Strike - spot); d < nearestDist {
			nearestDist = d
			nearest = leg.Key
		}
	}

	return models.RiskTags{
		PnL:       ClassifyPnL(totalPnL, basis),
		Expiry:    ClassifyExpiry(expiry, now),
		Size:      ClassifySize(lots),
		Moneyness: ClassifyMoneyness(nearest.Type, nearest.Strike, spot),
	}
}

// ClassifyPnL maps a P&L value to its band. premiumBasis is the absolute
// premium committed (entry premium × quantity × lot size); when it is zero
// the absolute fallback threshold applies.
func ClassifyPnL(pnl, premiumBasis float64) models.PnLTag {
	if math.Abs(pnl) < pnlEpsilon {
		return models.PnLNeutral
	}

	high := false
	if basis := math.Abs(premiumBasis); basis > 0 {
		high = math.Abs(pnl/basis)*100 > highPnLPercent
	} else {
		high = math.Abs(pnl) > highPnLAbsolute
	}

	switch {
	case pnl > 0 && high:
		return models.PnLProfitHigh
	case pnl > 0:
		return models.PnLProfit
	case high:
		return models.PnLLossHigh
	default:
		return models.PnLLoss
	}
}

// ClassifyExpiry maps days to expiry onto urgency. Contracts expiring within
// seven days, including already-expired ones, are urgent; within thirty,
// moderate; otherwise safe. A zero expiry is safe.
func ClassifyExpiry(expiry, now time.Time) models.ExpiryTag {
	if expiry.IsZero() {
		return models.ExpirySafe
	}

	days := int(math.Ceil(expiry.Sub(now).Hours() / 24))
	switch {
	case days <= urgentExpiryDays:
		return models.ExpiryUrgent
	case days <= moderateExpiryDays:
		return models.ExpiryModerate
	default:
		return models.ExpirySafe
	}
}

// ClassifySize maps a lot count to a size band.
func ClassifySize(lots int) models.SizeTag {
	n := lots
	if n < 0 {
		n = -n
	}
	switch {
	case n >= largeLots:
		return models.SizeLarge
	case n >= mediumLots:
		return models.SizeMedium
	default:
		return models.SizeSmall
	}
}

// ClassifyMoneyness compares strike and spot. Strikes within 1% of spot are
// at-the-money; beyond that the 5% deep band combined with the option's
// directionality yields itm, deep-itm, otm or deep-otm.
func ClassifyMoneyness(t models.OptionType, strike, spot float64) models.MoneynessTag {
	if strike <= 0 || spot <= 0 || !t.Valid() {
		return models.MoneynessUnknown
	}

	diff := math.Abs(strike - spot)
	if diff <= spot*atmBandFraction {
		return models.MoneynessATM
	}

	deep := diff > spot*deepBandFraction
	inTheMoney := false
	if t == models.OptionCall {
		inTheMoney = spot > strike
	} else {
		inTheMoney = spot < strike
	}

	switch {
	case inTheMoney && deep:
		return models.MoneynessDeepITM
	case inTheMoney:
		return models.MoneynessITM
	case deep:
		return models.MoneynessDeepOTM
	default:
		return models.MoneynessOTM
	}
}
