package legstore

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-desk/internal/models"
)

// storeOp is one random mutation replayed against both the store and a
// plain map model.
type storeOp struct {
	Decrement bool
	Strike    float64
	Type      models.OptionType
	Side      models.Side
}

func genStoreOp() gopter.Gen {
	return gopter.CombineGens(
		gen.Bool(),
		gen.Float64Range(1, 10).Map(func(f float64) float64 {
			// Small strike grid so increments and decrements collide often.
			return 24800 + 50*float64(int(f))
		}),
		gen.OneConstOf(models.OptionCall, models.OptionPut),
		gen.OneConstOf(models.SideBuy, models.SideSell),
	).Map(func(values []interface{}) storeOp {
		return storeOp{
			Decrement: values[0].(bool),
			Strike:    values[1].(float64),
			Type:      values[2].(models.OptionType),
			Side:      values[3].(models.Side),
		}
	})
}

// For any operation sequence: held quantities stay positive, a leg is
// present exactly when its model count is nonzero, and the snapshot agrees
// with the model.
func TestStoreMatchesCountingModel(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("store agrees with counting model", prop.ForAll(
		func(ops []storeOp) bool {
			s := New()
			model := make(map[models.LegKey]int)

			for _, op := range ops {
				key := models.LegKey{Strike: op.Strike, Type: op.Type, Side: op.Side}
				if op.Decrement {
					s.Decrement(key)
					if model[key] > 0 {
						model[key]--
						if model[key] == 0 {
							delete(model, key)
						}
					}
				} else {
					if _, err := s.Increment(key, 100, 75); err != nil {
						t.Logf("unexpected Increment error: %v", err)
						return false
					}
					model[key]++
				}
			}

			if s.Len() != len(model) {
				t.Logf("Len = %d, model has %d keys", s.Len(), len(model))
				return false
			}
			for _, leg := range s.Snapshot() {
				if leg.Quantity < 1 {
					t.Logf("held leg with quantity %d", leg.Quantity)
					return false
				}
				if model[leg.Key] != leg.Quantity {
					t.Logf("leg %s quantity %d, model %d", leg.Key, leg.Quantity, model[leg.Key])
					return false
				}
			}
			return true
		},
		gen.SliceOf(genStoreOp()),
	))

	properties.Property("export/import round-trips any reachable state", prop.ForAll(
		func(ops []storeOp) bool {
			s := New()
			for _, op := range ops {
				key := models.LegKey{Strike: op.Strike, Type: op.Type, Side: op.Side}
				if op.Decrement {
					s.Decrement(key)
				} else {
					s.Increment(key, 100, 75)
				}
			}

			data, err := s.ExportJSON()
			if err != nil {
				return false
			}
			restored := New()
			if err := restored.ImportJSON(data); err != nil {
				t.Logf("round-trip import failed: %v", err)
				return false
			}

			orig, got := s.Snapshot(), restored.Snapshot()
			if len(orig) != len(got) {
				return false
			}
			for i := range orig {
				if orig[i] != got[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genStoreOp()),
	))

	properties.TestingRun(t)
}
