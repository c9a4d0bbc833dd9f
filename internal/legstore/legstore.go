// Package legstore maintains the authoritative set of open option legs.
//
// The store is the single source of truth for "what is currently held": one
// leg per (strike, type, side) key, mutated only through Increment, Decrement,
// Clear and ImportJSON. Downstream consumers (payoff engine, risk classifier,
// surfaces) read snapshots and never mutate.
package legstore

import (
	"encoding/json"
	"sync"

	apperrors "options-desk/internal/errors"
	"options-desk/internal/models"
)

// ChangeKind describes what mutated in a change notification.
type ChangeKind int

const (
	ChangeIncrement ChangeKind = iota
	ChangeDecrement
	ChangeClear
	ChangeImport
)

// String returns a short name for logging.
func (k ChangeKind) String() string {
	switch k {
	case ChangeIncrement:
		return "increment"
	case ChangeDecrement:
		return "decrement"
	case ChangeClear:
		return "clear"
	case ChangeImport:
		return "import"
	}
	return "unknown"
}

// Store holds the open option legs. A leg exists iff its quantity is at
// least 1; decrementing to zero removes the leg and clears its entry
// premium. Insertion order is preserved for list display.
type Store struct {
	mu       sync.RWMutex
	legs     map[models.LegKey]*models.Leg
	order    []models.LegKey
	onChange func(ChangeKind)
}

// New creates an empty leg store.
func New() *Store {
	return &Store{
		legs: make(map[models.LegKey]*models.Leg),
	}
}

// OnChange registers a hook invoked after every successful mutation, outside
// the store lock. Clear and ImportJSON fire the hook once, not per leg.
func (s *Store) OnChange(fn func(ChangeKind)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Increment adds one lot to the leg identified by key, creating the leg at
// quantity 1 when absent. The entry premium is fixed on creation and left
// untouched on further increments. Returns the updated leg.
func (s *Store) Increment(key models.LegKey, premium float64, lotSize int) (models.Leg, error) {
	if !key.Valid() {
		return models.Leg{}, apperrors.NewKeyError(key.String(), "strike must be positive and type/side well-formed")
	}

	s.mu.Lock()
	leg, ok := s.legs[key]
	if !ok {
		leg = &models.Leg{
			Key:          key,
			Quantity:     1,
			EntryPremium: premium,
			LotSize:      lotSize,
		}
		s.legs[key] = leg
		s.order = append(s.order, key)
	} else {
		leg.Quantity++
	}
	out := *leg
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(ChangeIncrement)
	}
	return out, nil
}

// Decrement removes one lot from the leg identified by key. When the
// quantity reaches zero the leg is removed entirely. Decrementing an absent
// key is a no-op, not an error; removed reports whether the leg is gone
// after the call.
func (s *Store) Decrement(key models.LegKey) (leg models.Leg, removed bool) {
	s.mu.Lock()
	held, ok := s.legs[key]
	if !ok {
		s.mu.Unlock()
		return models.Leg{}, false
	}

	held.Quantity--
	if held.Quantity <= 0 {
		delete(s.legs, key)
		s.removeFromOrder(key)
		removed = true
		leg = models.Leg{Key: key}
	} else {
		leg = *held
	}
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(ChangeDecrement)
	}
	return leg, removed
}

// Clear removes all legs. It fires a single aggregate change notification,
// and none at all when the store is already empty.
func (s *Store) Clear() {
	s.mu.Lock()
	if len(s.legs) == 0 {
		s.mu.Unlock()
		return
	}
	s.legs = make(map[models.LegKey]*models.Leg)
	s.order = nil
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(ChangeClear)
	}
}

// Snapshot returns a defensive copy of all legs in insertion order. Mutating
// the returned slice has no effect on the store.
func (s *Store) Snapshot() []models.Leg {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Leg, 0, len(s.order))
	for _, key := range s.order {
		if leg, ok := s.legs[key]; ok {
			out = append(out, *leg)
		}
	}
	return out
}

// Get returns the leg for a key, if held.
func (s *Store) Get(key models.LegKey) (models.Leg, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	leg, ok := s.legs[key]
	if !ok {
		return models.Leg{}, false
	}
	return *leg, true
}

// Len returns the number of open legs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.legs)
}

// NetQuantity returns the net lots (buys minus sells) across both sides of
// one contract. This is the number shown on option-chain badges.
func (s *Store) NetQuantity(strike float64, t models.OptionType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	net := 0
	for key, leg := range s.legs {
		if key.Strike != strike || key.Type != t {
			continue
		}
		if key.Side == models.SideBuy {
			net += leg.Quantity
		} else {
			net -= leg.Quantity
		}
	}
	return net
}

// TotalLots returns the gross lot count across all legs.
func (s *Store) TotalLots() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, leg := range s.legs {
		total += leg.Quantity
	}
	return total
}

func (s *Store) removeFromOrder(key models.LegKey) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// legRecord is the at-rest JSON form of a leg. This array-of-records layout
// is the only wire format the store produces and accepts.
type legRecord struct {
	Strike       float64 `json:"strike"`
	OptionType   string  `json:"optionType"`
	Side         string  `json:"side"`
	Quantity     int     `json:"quantity"`
	EntryPremium float64 `json:"entryPremium"`
	LotSize      int     `json:"lotSize"`
}

// ExportJSON serializes all legs, in insertion order, to the JSON leg-array
// format.
func (s *Store) ExportJSON() ([]byte, error) {
	legs := s.Snapshot()
	records := make([]legRecord, len(legs))
	for i, leg := range legs {
		records[i] = legRecord{
			Strike:       leg.Key.Strike,
			OptionType:   string(leg.Key.Type),
			Side:         string(leg.Key.Side),
			Quantity:     leg.Quantity,
			EntryPremium: leg.EntryPremium,
			LotSize:      leg.LotSize,
		}
	}
	return json.Marshal(records)
}

// ImportJSON replaces the store contents with the legs in the given JSON
// payload. The import is atomic: any parse or validation failure returns
// ErrMalformedImport and leaves the existing legs untouched.
func (s *Store) ImportJSON(data []byte) error {
	var records []legRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return apperrors.NewImportError(-1, "payload is not a leg array", err)
	}

	legs := make(map[models.LegKey]*models.Leg, len(records))
	order := make([]models.LegKey, 0, len(records))
	for i, rec := range records {
		key := models.LegKey{
			Strike: rec.Strike,
			Type:   models.OptionType(rec.OptionType),
			Side:   models.Side(rec.Side),
		}
		if !key.Valid() {
			return apperrors.NewImportError(i, "invalid strike, option type or side", nil)
		}
		if rec.Quantity < 1 {
			return apperrors.NewImportError(i, "quantity must be at least 1", nil)
		}
		if _, dup := legs[key]; dup {
			return apperrors.NewImportError(i, "duplicate leg key "+key.String(), nil)
		}
		legs[key] = &models.Leg{
			Key:          key,
			Quantity:     rec.Quantity,
			EntryPremium: rec.EntryPremium,
			LotSize:      rec.LotSize,
		}
		order = append(order, key)
	}

	s.mu.Lock()
	s.legs = legs
	s.order = order
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(ChangeImport)
	}
	return nil
}
