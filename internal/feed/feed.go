// Package feed polls the quote source on a fixed cadence and publishes
// coalesced price updates on the sync bus.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"options-desk/internal/broker"
	"options-desk/internal/models"
	"options-desk/internal/syncbus"
)

// Config holds price feed configuration.
type Config struct {
	Symbol      string
	Expiry      time.Time
	StrikeCount int
	Interval    time.Duration
}

// DefaultConfig returns the default feed configuration for a symbol.
func DefaultConfig(symbol string, expiry time.Time) Config {
	return Config{
		Symbol:      symbol,
		Expiry:      expiry,
		StrikeCount: 10,
		Interval:    2 * time.Second,
	}
}

// PriceFeed polls the quote source and replaces its PriceSnapshot wholesale
// on every successful tick. Failed or empty fetches are absorbed: the last
// known snapshot is retained and no event is published.
type PriceFeed struct {
	cfg    Config
	source broker.QuoteSource
	bus    *syncbus.Bus
	logger zerolog.Logger

	mu      sync.RWMutex
	snap    *models.PriceSnapshot
	chain   *models.OptionChain
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	subs    []syncbus.SubscriptionID
}

// New creates a price feed and subscribes it to symbol and expiry switches on
// the bus, so the poller follows the active contract. Call Start to begin
// polling.
func New(cfg Config, source broker.QuoteSource, bus *syncbus.Bus, logger zerolog.Logger) *PriceFeed {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	f := &PriceFeed{
		cfg:    cfg,
		source: source,
		bus:    bus,
		logger: logger.With().Str("component", "feed").Logger(),
	}
	f.subs = append(f.subs,
		bus.Subscribe(syncbus.SymbolChanged, func(ev syncbus.Event) { f.SetSymbol(ev.Symbol) }),
		bus.Subscribe(syncbus.ExpiryChanged, func(ev syncbus.Event) { f.SetExpiry(ev.Expiry) }),
	)
	return f
}

// Start launches the polling loop. It fires one immediate tick, then one
// per interval until the context is canceled or Stop is called. Starting a
// running feed is a no-op.
func (f *PriceFeed) Start(ctx context.Context) {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return
	}
	f.started = true
	ctx, f.cancel = context.WithCancel(ctx)
	f.done = make(chan struct{})
	done := f.done
	f.mu.Unlock()

	go f.pollLoop(ctx, done)
}

// Stop cancels the polling loop and waits for it to drain. Pending
// callbacks are dropped; the last published state stands as final.
func (f *PriceFeed) Stop() {
	f.mu.Lock()
	if !f.started {
		f.mu.Unlock()
		return
	}
	f.started = false
	cancel := f.cancel
	done := f.done
	f.mu.Unlock()

	cancel()
	<-done
}

// Snapshot returns the most recent price snapshot, or nil before the first
// successful tick.
func (f *PriceFeed) Snapshot() *models.PriceSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snap
}

// Chain returns the most recent option chain, or nil before the first
// successful chain fetch.
func (f *PriceFeed) Chain() *models.OptionChain {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.chain
}

// SetSymbol switches the polled underlying. The cached snapshot and chain
// belong to the old symbol and are dropped; prices for the new one arrive on
// the next tick.
func (f *PriceFeed) SetSymbol(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if symbol == "" || symbol == f.cfg.Symbol {
		return
	}
	f.cfg.Symbol = symbol
	f.snap = nil
	f.chain = nil
}

// SetExpiry switches the expiry polled for the option chain. The cached
// chain belongs to the old expiry and is dropped; the spot snapshot stays.
func (f *PriceFeed) SetExpiry(expiry time.Time) {
	f.mu.Lock()
	f.cfg.Expiry = expiry
	f.chain = nil
	f.mu.Unlock()
}

// Close unsubscribes the feed from the bus. Call after Stop.
func (f *PriceFeed) Close() {
	for _, id := range f.subs {
		f.bus.Unsubscribe(id)
	}
}

func (f *PriceFeed) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	f.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.tick(ctx)
		}
	}
}

// tick performs one poll. Each successful poll builds a fresh snapshot; the
// previous one is never patched in place. The symbol is re-checked before the
// snapshot is stored, so a switch during a slow poll discards the result
// instead of serving prices for the wrong contract.
func (f *PriceFeed) tick(ctx context.Context) {
	f.mu.RLock()
	symbol := f.cfg.Symbol
	expiry := f.cfg.Expiry
	prevLTP := map[string]float64(nil)
	if f.snap != nil {
		prevLTP = f.snap.LTP
	}
	f.mu.RUnlock()

	quote, err := f.source.GetSpotPrice(ctx, symbol)
	if err != nil || quote.Price <= 0 {
		f.logger.Warn().Err(err).Str("symbol", symbol).Msg("Price fetch failed, keeping last snapshot")
		return
	}

	chain, chainErr := f.source.GetOptionChain(ctx, symbol, expiry, f.cfg.StrikeCount)
	ltp := prevLTP
	if chainErr == nil && chain != nil {
		ltp = make(map[string]float64, len(chain.Rows)*2)
		for _, row := range chain.Rows {
			if row.CESymbol != "" {
				ltp[row.CESymbol] = row.CELTP
			}
			if row.PESymbol != "" {
				ltp[row.PESymbol] = row.PELTP
			}
		}
	} else if chainErr != nil {
		f.logger.Debug().Err(chainErr).Msg("Chain fetch failed, reusing last prices")
	}

	asOf := quote.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	snap := &models.PriceSnapshot{Spot: quote.Price, LTP: ltp, AsOf: asOf}

	f.mu.Lock()
	if f.cfg.Symbol != symbol {
		f.mu.Unlock()
		return
	}
	keepChain := chainErr == nil && chain != nil && f.cfg.Expiry.Equal(expiry)
	f.snap = snap
	if keepChain {
		f.chain = chain
	}
	f.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	f.bus.PublishSpot(snap)
	if keepChain {
		f.bus.Publish(syncbus.Event{
			Kind:     syncbus.OptionChainRefreshed,
			Symbol:   symbol,
			Spot:     snap.Spot,
			Snapshot: snap,
			Chain:    chain,
		})
	}
}
