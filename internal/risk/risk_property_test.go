package risk

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-desk/internal/models"
)

func genRiskLeg() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(1, 40).Map(func(f float64) float64 {
			return 24000 + 50*float64(int(f))
		}),
		gen.OneConstOf(models.OptionCall, models.OptionPut),
		gen.OneConstOf(models.SideBuy, models.SideSell),
		gen.IntRange(1, 12),
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

var expiryFixture = time.Date(2026, 9, 24, 0, 0, 0, 0, time.UTC)

func TestClassificationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	// Classification is a pure function: repeated calls with the same
	// inputs yield the same tags.
	properties.Property("leg classification is idempotent", prop.ForAll(
		func(leg models.Leg, spot float64, days int) bool {
			snap := &models.PriceSnapshot{Spot: spot}
			expiry := now.AddDate(0, 0, days)
			first := Classify(leg, snap, expiry, now)
			for i := 0; i < 3; i++ {
				if Classify(leg, snap, expiry, now) != first {
					t.Logf("tags diverged for %s at spot %f", leg.Key, spot)
					return false
				}
			}
			return true
		},
		genRiskLeg(),
		gen.Float64Range(20000, 30000),
		gen.IntRange(0, 90),
	))

	// Tags depend only on snapshot values, not on which snapshot carries
	// them.
	properties.Property("equal snapshots classify equally", prop.ForAll(
		func(leg models.Leg, spot float64) bool {
			a := &models.PriceSnapshot{Spot: spot}
			b := &models.PriceSnapshot{Spot: spot}
			return Classify(leg, a, expiryFixture, now) == Classify(leg, b, expiryFixture, now)
		},
		genRiskLeg(),
		gen.Float64Range(20000, 30000),
	))

	properties.Property("aggregate classification is idempotent", prop.ForAll(
		func(legs []models.Leg, spot float64) bool {
			snap := &models.PriceSnapshot{Spot: spot}
			first := ClassifyAggregate(legs, snap, expiryFixture, now)
			return ClassifyAggregate(legs, snap, expiryFixture, now) == first
		},
		gen.SliceOf(genRiskLeg()),
		gen.Float64Range(20000, 30000),
	))

	properties.TestingRun(t)
}
