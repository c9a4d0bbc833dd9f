// Package engine wires the leg store, payoff engine, risk classifier and
// rendering surfaces into one synchronized update cycle.
//
// Every logical change (a user buy or sell, a coalesced price tick, a
// symbol or expiry switch) triggers exactly one recompute followed by one
// render pass. The cycle runs as a single synchronous call chain under the
// engine mutex, so no mutation interleaves with a recompute in flight.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"options-desk/internal/legstore"
	"options-desk/internal/models"
	"options-desk/internal/payoff"
	"options-desk/internal/risk"
	"options-desk/internal/store"
	"options-desk/internal/surface"
	"options-desk/internal/syncbus"
)

// SnapshotSource is the view of the price feed the engine needs: the latest
// immutable snapshot and option chain.
type SnapshotSource interface {
	Snapshot() *models.PriceSnapshot
	Chain() *models.OptionChain
}

// Config holds engine configuration.
type Config struct {
	Symbol  string
	Expiry  time.Time
	LotSize int
	// Autosave persists the leg array to the key-value store after every
	// position change.
	Autosave bool
}

// Engine owns the leg store and drives the recompute/render cycle.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	legs   *legstore.Store
	bus    *syncbus.Bus
	prices SnapshotSource
	chart  *surface.ChartAdapter
	sinks  []surface.SummarySink
	kv     store.KVStore
	logger zerolog.Logger
	subs   []syncbus.SubscriptionID
	now    func() time.Time
}

// New creates an engine and subscribes it to the bus. prices may be nil
// until a feed is attached; kv may be nil to disable persistence.
func New(cfg Config, bus *syncbus.Bus, prices SnapshotSource, kv store.KVStore, logger zerolog.Logger) *Engine {
	e := &Engine{
		cfg:    cfg,
		legs:   legstore.New(),
		bus:    bus,
		prices: prices,
		kv:     kv,
		logger: logger.With().Str("component", "engine").Logger(),
		now:    time.Now,
	}

	e.legs.OnChange(func(kind legstore.ChangeKind) {
		e.bus.Publish(syncbus.Event{Kind: syncbus.PositionChanged})
		if cfg.Autosave {
			e.save()
		}
	})

	e.subs = append(e.subs,
		bus.Subscribe(syncbus.PositionChanged, func(syncbus.Event) { e.Recompute() }),
		bus.Subscribe(syncbus.SpotPriceChanged, func(syncbus.Event) { e.Recompute() }),
		bus.Subscribe(syncbus.OptionChainRefreshed, func(ev syncbus.Event) { e.onChain(ev) }),
		bus.Subscribe(syncbus.SymbolChanged, func(syncbus.Event) { e.Recompute() }),
		bus.Subscribe(syncbus.ExpiryChanged, func(syncbus.Event) { e.Recompute() }),
	)
	return e
}

// AttachFeed sets the price source used for premiums and recomputes.
func (e *Engine) AttachFeed(s SnapshotSource) {
	e.mu.Lock()
	e.prices = s
	e.mu.Unlock()
}

// AttachChart sets the rendering surface for the payoff chart.
func (e *Engine) AttachChart(s surface.RenderSurface) {
	e.mu.Lock()
	e.chart = surface.NewChartAdapter(s)
	e.mu.Unlock()
}

// AttachSummarySink registers a consumer of aggregate summaries.
func (e *Engine) AttachSummarySink(s surface.SummarySink) {
	e.mu.Lock()
	e.sinks = append(e.sinks, s)
	e.mu.Unlock()
}

// Close unsubscribes the engine from the bus.
func (e *Engine) Close() {
	for _, id := range e.subs {
		e.bus.Unsubscribe(id)
	}
}

// Legs exposes the leg store for read-side consumers.
func (e *Engine) Legs() *legstore.Store {
	return e.legs
}

// Buy adds one lot on the buy side of the given contract, fixing the entry
// premium from the live chain on first increment.
func (e *Engine) Buy(strike float64, t models.OptionType) (models.Leg, error) {
	return e.add(models.LegKey{Strike: strike, Type: t, Side: models.SideBuy})
}

// Sell adds one lot on the sell side of the given contract.
func (e *Engine) Sell(strike float64, t models.OptionType) (models.Leg, error) {
	return e.add(models.LegKey{Strike: strike, Type: t, Side: models.SideSell})
}

// Reduce removes one lot from the leg identified by key. Reducing an absent
// leg is a no-op.
func (e *Engine) Reduce(key models.LegKey) (models.Leg, bool) {
	return e.legs.Decrement(key)
}

// ClearAll removes every leg. One aggregate change event fans out to the
// surfaces, which render their empty states.
func (e *Engine) ClearAll() {
	e.legs.Clear()
}

func (e *Engine) add(key models.LegKey) (models.Leg, error) {
	premium, lotSize := e.premiumFor(key.Strike, key.Type)
	leg, err := e.legs.Increment(key, premium, lotSize)
	if err != nil {
		return models.Leg{}, err
	}
	return leg, nil
}

// premiumFor resolves the current option premium and lot size from the live
// chain. A missing quote yields a zero premium; the leg is still accepted,
// matching how the dashboard handled gaps in the feed.
func (e *Engine) premiumFor(strike float64, t models.OptionType) (premium float64, lotSize int) {
	e.mu.Lock()
	prices := e.prices
	lotSize = e.cfg.LotSize
	e.mu.Unlock()
	if prices == nil {
		return 0, lotSize
	}
	chain := prices.Chain()
	if chain == nil {
		return 0, lotSize
	}
	if chain.LotSize > 0 {
		lotSize = chain.LotSize
	}
	if ltp, ok := chain.LTPFor(strike, t); ok {
		return ltp, lotSize
	}
	return 0, lotSize
}

// SetSymbol switches the active underlying and fans the change out.
func (e *Engine) SetSymbol(symbol string) {
	e.mu.Lock()
	e.cfg.Symbol = symbol
	e.mu.Unlock()
	e.bus.Publish(syncbus.Event{Kind: syncbus.SymbolChanged, Symbol: symbol})
}

// SetExpiry switches the active expiry and fans the change out.
func (e *Engine) SetExpiry(expiry time.Time) {
	e.mu.Lock()
	e.cfg.Expiry = expiry
	e.mu.Unlock()
	e.bus.Publish(syncbus.Event{Kind: syncbus.ExpiryChanged, Expiry: expiry})
}

// Export serializes the current legs to the JSON leg-array format.
func (e *Engine) Export() ([]byte, error) {
	return e.legs.ExportJSON()
}

// Import atomically replaces the current legs from a JSON leg array. A
// malformed payload aborts the import and leaves the store untouched.
func (e *Engine) Import(data []byte) error {
	return e.legs.ImportJSON(data)
}

// Restore loads the persisted leg array from the key-value store, if any.
func (e *Engine) Restore(ctx context.Context) error {
	if e.kv == nil {
		return nil
	}
	value, ok, err := e.kv.Get(ctx, store.KeyPositions)
	if err != nil || !ok {
		return err
	}
	return e.legs.ImportJSON([]byte(value))
}

func (e *Engine) save() {
	if e.kv == nil {
		return
	}
	data, err := e.legs.ExportJSON()
	if err != nil {
		e.logger.Error().Err(err).Msg("Failed to serialize legs for autosave")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.kv.Put(ctx, store.KeyPositions, string(data)); err != nil {
		e.logger.Error().Err(err).Msg("Failed to persist legs")
	}
}

func (e *Engine) onChain(ev syncbus.Event) {
	if ev.Chain != nil && ev.Chain.LotSize > 0 {
		e.mu.Lock()
		e.cfg.LotSize = ev.Chain.LotSize
		e.mu.Unlock()
	}
	e.Recompute()
}

// Recompute runs one full cycle: snapshot the legs, compute the payoff
// curve and risk tags, and push the results to every attached surface.
func (e *Engine) Recompute() {
	e.mu.Lock()
	defer e.mu.Unlock()

	legs := e.legs.Snapshot()
	var snap *models.PriceSnapshot
	if e.prices != nil {
		snap = e.prices.Snapshot()
	}
	spot := 0.0
	if snap != nil {
		spot = snap.Spot
	}

	res := payoff.Compute(legs, e.cfg.LotSize)
	if e.chart != nil {
		e.chart.Render(res, spot)
	}

	sum := e.buildSummary(legs, snap, res, spot)
	for _, sink := range e.sinks {
		sink.SetSummary(sum)
	}
}

func (e *Engine) buildSummary(legs []models.Leg, snap *models.PriceSnapshot, res models.PayoffResult, spot float64) surface.Summary {
	now := e.now()
	sum := surface.Summary{
		Positions:  len(legs),
		Spot:       spot,
		SpotPnL:    payoff.PnLAt(legs, spot, e.cfg.LotSize),
		MaxProfit:  res.MaxProfit,
		MaxLoss:    res.MaxLoss,
		Breakevens: res.Breakevens,

		MaxProfitUnbounded: res.MaxProfitUnbounded,
		MaxLossUnbounded:   res.MaxLossUnbounded,

		Legs: make([]surface.LegSummary, 0, len(legs)),
	}
	if len(legs) > 0 {
		sum.Tags = risk.ClassifyAggregate(legs, snap, e.cfg.Expiry, now)
	}
	for _, leg := range legs {
		sum.TotalLots += leg.Quantity
		sum.Legs = append(sum.Legs, surface.LegSummary{
			Key:      leg.Key.String(),
			Strike:   leg.Key.Strike,
			Type:     leg.Key.Type,
			Side:     leg.Key.Side,
			Quantity: leg.Quantity,
			Entry:    leg.EntryPremium,
			PnL:      payoff.LegPnLAt(leg, spot, e.cfg.LotSize),
			NetBadge: e.legs.NetQuantity(leg.Key.Strike, leg.Key.Type),
			Tags:     risk.Classify(leg, snap, e.cfg.Expiry, now),
		})
	}
	return sum
}
