package payoff

import (
	"math"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-desk/internal/models"
)

func genLeg() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(1, 40).Map(func(f float64) float64 {
			return 24000 + 50*float64(int(f))
		}),
		gen.OneConstOf(models.OptionCall, models.OptionPut),
		gen.OneConstOf(models.SideBuy, models.SideSell),
		gen.IntRange(1, 5),
		gen.Float64Range(0, 500),
	).Map(func(values []interface{}) models.Leg {
		return models.Leg{
			Key: models.LegKey{
				Strike: values[0].(float64),
				Type:   values[1].(models.OptionType),
				Side:   values[2].(models.Side),
			},
			Quantity:     values[3].(int),
			EntryPremium: values[4].(float64),
			LotSize:      75,
		}
	})
}

func TestPayoffProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// Net P&L is the sum of leg P&Ls, so splitting a leg set in two and
	// adding the halves must match the whole at every price.
	properties.Property("P&L is additive over leg sets", prop.ForAll(
		func(a, b []models.Leg, price float64) bool {
			combined := append(append([]models.Leg{}, a...), b...)
			got := PnLAt(combined, price, 75)
			want := PnLAt(a, price, 75) + PnLAt(b, price, 75)
			if math.Abs(got-want) > 1e-6 {
				t.Logf("PnLAt additivity broken: %f vs %f", got, want)
				return false
			}
			return true
		},
		gen.SliceOf(genLeg()),
		gen.SliceOf(genLeg()),
		gen.Float64Range(0, 30000),
	))

	// Mirroring a leg (same contract, opposite side) cancels it exactly.
	properties.Property("opposite sides cancel", prop.ForAll(
		func(l models.Leg, price float64) bool {
			mirror := l
			if l.Key.Side == models.SideBuy {
				mirror.Key.Side = models.SideSell
			} else {
				mirror.Key.Side = models.SideBuy
			}
			total := PnLAt([]models.Leg{l, mirror}, price, 75)
			return math.Abs(total) < 1e-6
		},
		genLeg(),
		gen.Float64Range(0, 30000),
	))

	properties.Property("breakevens are ascending and inside the domain", prop.ForAll(
		func(legs []models.Leg) bool {
			if len(legs) == 0 {
				return true
			}
			res := Compute(legs, 75)
			if !sort.Float64sAreSorted(res.Breakevens) {
				t.Logf("breakevens not sorted: %v", res.Breakevens)
				return false
			}
			lo := res.Curve[0].Price
			hi := res.Curve[len(res.Curve)-1].Price
			for _, be := range res.Breakevens {
				if be < lo || be > hi {
					t.Logf("breakeven %f outside domain [%f, %f]", be, lo, hi)
					return false
				}
			}
			return true
		},
		gen.SliceOf(genLeg()),
	))

	properties.Property("sampled extrema bound every curve point", prop.ForAll(
		func(legs []models.Leg) bool {
			if len(legs) == 0 {
				return true
			}
			res := Compute(legs, 75)
			for _, pt := range res.Curve {
				if pt.PnL > res.MaxProfit+1e-9 || pt.PnL < res.MaxLoss-1e-9 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genLeg()),
	))

	properties.Property("curve prices are non-negative and ascending", prop.ForAll(
		func(legs []models.Leg) bool {
			if len(legs) == 0 {
				return true
			}
			res := Compute(legs, 75)
			prev := -1.0
			for _, pt := range res.Curve {
				if pt.Price < 0 || pt.Price <= prev {
					return false
				}
				prev = pt.Price
			}
			return true
		},
		gen.SliceOf(genLeg()),
	))

	properties.TestingRun(t)
}
