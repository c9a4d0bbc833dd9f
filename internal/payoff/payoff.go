// Package payoff computes piecewise expiry P&L curves for option leg sets.
package payoff

import (
	"math"

	"options-desk/internal/models"
)

const (
	// stepCount is the number of samples across the price domain.
	stepCount = 100
	// minStep guards against zero-width steps when strikes coincide.
	minStep = 10.0
	// fallbackSpan widens the domain when every leg shares one strike.
	fallbackSpan = 500.0
	// domainExtension extends the domain beyond the outer strikes, as a
	// fraction of the strike range.
	domainExtension = 0.3
)

// Compute evaluates the payoff curve, breakeven crossings and sampled
// extrema for the given legs. An empty leg set yields an explicit empty
// result, never an error. lotSizeDefault applies to legs that carry no
// per-instrument lot size.
func Compute(legs []models.Leg, lotSizeDefault int) models.PayoffResult {
	if len(legs) == 0 {
		return models.PayoffResult{Empty: true}
	}

	minK, maxK := strikeBounds(legs)
	span := maxK - minK
	if span == 0 {
		span = fallbackSpan
	}
	start := math.Max(0, minK-span*domainExtension)
	end := maxK + span*domainExtension
	step := math.Max(minStep, (end-start)/stepCount)

	curve := make([]models.PayoffPoint, 0, stepCount+1)
	for price := start; price <= end; price += step {
		curve = append(curve, models.PayoffPoint{
			Price: price,
			PnL:   PnLAt(legs, price, lotSizeDefault),
		})
	}

	res := models.PayoffResult{
		Curve:      curve,
		Breakevens: breakevens(curve),
	}
	res.MaxProfit, res.MaxLoss = extrema(curve)
	res.MaxProfitUnbounded, res.MaxLossUnbounded = unboundedAbove(legs, lotSizeDefault)
	return res
}

// PnLAt returns the net expiry P&L of all legs at one underlying price.
func PnLAt(legs []models.Leg, price float64, lotSizeDefault int) float64 {
	total := 0.0
	for _, leg := range legs {
		total += LegPnLAt(leg, price, lotSizeDefault)
	}
	return total
}

// LegPnLAt returns the expiry P&L of a single leg at one underlying price:
// intrinsic value against entry premium, scaled by quantity and lot size,
// signed by side.
func LegPnLAt(leg models.Leg, price float64, lotSizeDefault int) float64 {
	lot := leg.LotSize
	if lot <= 0 {
		lot = lotSizeDefault
	}
	intrinsic := Intrinsic(leg.Key.Type, leg.Key.Strike, price)
	scale := float64(leg.Quantity) * float64(lot)
	if leg.Key.Side == models.SideBuy {
		return (intrinsic - leg.EntryPremium) * scale
	}
	return (leg.EntryPremium - intrinsic) * scale
}

// Intrinsic returns the exercise value of an option at the given underlying
// price.
func Intrinsic(t models.OptionType, strike, price float64) float64 {
	switch t {
	case models.OptionCall:
		return math.Max(price-strike, 0)
	case models.OptionPut:
		return math.Max(strike-price, 0)
	}
	return 0
}

func strikeBounds(legs []models.Leg) (minK, maxK float64) {
	minK, maxK = legs[0].Key.Strike, legs[0].Key.Strike
	for _, leg := range legs[1:] {
		minK = math.Min(minK, leg.Key.Strike)
		maxK = math.Max(maxK, leg.Key.Strike)
	}
	return minK, maxK
}

// breakevens interpolates the zero crossings between consecutive samples.
// The result is ascending by construction; crossings that fall within
// numeric tolerance of each other are reported individually, not collapsed.
func breakevens(curve []models.PayoffPoint) []float64 {
	var out []float64
	for i := 1; i < len(curve); i++ {
		y1, y2 := curve[i-1].PnL, curve[i].PnL
		crossed := (y1 < 0 && y2 >= 0) || (y1 > 0 && y2 <= 0)
		if !crossed {
			continue
		}
		p1, p2 := curve[i-1].Price, curve[i].Price
		out = append(out, p1-y1*(p2-p1)/(y2-y1))
	}
	return out
}

func extrema(curve []models.PayoffPoint) (maxProfit, maxLoss float64) {
	maxProfit, maxLoss = curve[0].PnL, curve[0].PnL
	for _, pt := range curve[1:] {
		maxProfit = math.Max(maxProfit, pt.PnL)
		maxLoss = math.Min(maxLoss, pt.PnL)
	}
	return maxProfit, maxLoss
}

// unboundedAbove detects open call exposure beyond the top strike. Above the
// outermost strike every call is in the money, so the curve's slope there is
// the net call lot count: positive means profit grows without bound, negative
// means loss does. Put exposure is bounded by the zero price floor and is
// left to the sampled extrema, matching how the dashboard reported
// large-but-finite values for naked shorts.
func unboundedAbove(legs []models.Leg, lotSizeDefault int) (profit, loss bool) {
	slope := 0.0
	for _, leg := range legs {
		if leg.Key.Type != models.OptionCall {
			continue
		}
		lot := leg.LotSize
		if lot <= 0 {
			lot = lotSizeDefault
		}
		scale := float64(leg.Quantity) * float64(lot)
		if leg.Key.Side == models.SideBuy {
			slope += scale
		} else {
			slope -= scale
		}
	}
	return slope > 0, slope < 0
}
