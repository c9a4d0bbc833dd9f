// Package syncbus provides the typed in-process event bus linking the leg
// store, price feed and rendering surfaces.
//
// Delivery is synchronous and in registration order on the publisher's
// goroutine: one logical change fans out to every interested handler exactly
// once before Publish returns. The bus carries no domain state of its own
// and offers no delivery guarantees across process restarts.
package syncbus

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"options-desk/internal/models"
)

// EventKind enumerates the logical change notifications carried by the bus.
type EventKind int

const (
	SymbolChanged EventKind = iota
	ExpiryChanged
	SpotPriceChanged
	PositionChanged
	OptionChainRefreshed
)

// String returns the event kind name for logging.
func (k EventKind) String() string {
	switch k {
	case SymbolChanged:
		return "symbol_changed"
	case ExpiryChanged:
		return "expiry_changed"
	case SpotPriceChanged:
		return "spot_price_changed"
	case PositionChanged:
		return "position_changed"
	case OptionChainRefreshed:
		return "option_chain_refreshed"
	}
	return "unknown"
}

// Event is one bus notification. Payload fields are populated per kind;
// Snapshot is shared read-only and must not be mutated by handlers.
type Event struct {
	Kind     EventKind
	Symbol   string
	Expiry   time.Time
	Spot     float64
	Snapshot *models.PriceSnapshot
	Chain    *models.OptionChain
}

// Handler receives published events.
type Handler func(Event)

// SubscriptionID identifies a registered handler.
type SubscriptionID int

// DefaultSpotEpsilon is the price tolerance under which consecutive spot
// publishes are considered unchanged and suppressed.
const DefaultSpotEpsilon = 0.01

type subscription struct {
	id SubscriptionID
	fn Handler
}

// Bus delivers typed events synchronously to subscribed handlers.
type Bus struct {
	mu       sync.RWMutex
	nextID   SubscriptionID
	handlers map[EventKind][]subscription
	epsilon  float64
	lastSpot float64
	hasSpot  bool
	logger   zerolog.Logger

	// Metrics
	published  uint64
	delivered  uint64
	suppressed uint64
	panics     uint64
	metricsMu  sync.Mutex
}

// New creates a bus with the default spot coalescing epsilon.
func New(logger zerolog.Logger) *Bus {
	return NewWithEpsilon(logger, DefaultSpotEpsilon)
}

// NewWithEpsilon creates a bus with a custom spot coalescing epsilon.
func NewWithEpsilon(logger zerolog.Logger, epsilon float64) *Bus {
	return &Bus{
		handlers: make(map[EventKind][]subscription),
		epsilon:  epsilon,
		logger:   logger,
	}
}

// Subscribe registers a handler for one event kind and returns its
// subscription ID. Handlers for the same kind run in registration order.
func (b *Bus) Subscribe(kind EventKind, fn Handler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[kind] = append(b.handlers[kind], subscription{id: id, fn: fn})
	return id
}

// Unsubscribe removes a handler by subscription ID. Unknown IDs are ignored.
func (b *Bus) Unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for kind, subs := range b.handlers {
		for i, sub := range subs {
			if sub.id == id {
				b.handlers[kind] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers an event to every handler subscribed to its kind,
// synchronously, in registration order. A panicking handler is isolated and
// logged; delivery continues with the next handler.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.handlers[ev.Kind]))
	copy(subs, b.handlers[ev.Kind])
	b.mu.RUnlock()

	b.metricsMu.Lock()
	b.published++
	b.metricsMu.Unlock()

	for _, sub := range subs {
		b.deliver(sub, ev)
	}
}

// PublishSpot publishes a SpotPriceChanged event for the given snapshot,
// unless its spot price is within epsilon of the previously published value.
// Returns whether the event was delivered.
func (b *Bus) PublishSpot(snap *models.PriceSnapshot) bool {
	b.mu.Lock()
	if b.hasSpot && math.Abs(snap.Spot-b.lastSpot) < b.epsilon {
		b.mu.Unlock()
		b.metricsMu.Lock()
		b.suppressed++
		b.metricsMu.Unlock()
		return false
	}
	b.lastSpot = snap.Spot
	b.hasSpot = true
	b.mu.Unlock()

	b.Publish(Event{Kind: SpotPriceChanged, Spot: snap.Spot, Snapshot: snap})
	return true
}

func (b *Bus) deliver(sub subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.metricsMu.Lock()
			b.panics++
			b.metricsMu.Unlock()
			b.logger.Error().
				Int("subscription", int(sub.id)).
				Str("event", ev.Kind.String()).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()

	sub.fn(ev)

	b.metricsMu.Lock()
	b.delivered++
	b.metricsMu.Unlock()
}

// Metrics contains bus delivery counters.
type Metrics struct {
	Published  uint64
	Delivered  uint64
	Suppressed uint64
	Panics     uint64
}

// GetMetrics returns a copy of the delivery counters.
func (b *Bus) GetMetrics() Metrics {
	b.metricsMu.Lock()
	defer b.metricsMu.Unlock()

	return Metrics{
		Published:  b.published,
		Delivered:  b.delivered,
		Suppressed: b.suppressed,
		Panics:     b.panics,
	}
}
