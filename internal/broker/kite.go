package broker

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	apperrors "options-desk/internal/errors"
	"options-desk/internal/logging"
	"options-desk/internal/models"
)

// KiteSource implements QuoteSource using Zerodha Kite Connect. It expects a
// ready access token; the OAuth flow that produces one is outside the core.
type KiteSource struct {
	client *kiteconnect.Client
	logger zerolog.Logger

	mu            sync.RWMutex
	instruments   []kiteconnect.Instrument
	instrumentsAt time.Time
}

// KiteConfig holds configuration for the Kite quote source.
type KiteConfig struct {
	APIKey      string
	AccessToken string
}

// instrumentsTTL bounds how long the NFO instrument dump is reused. Zerodha
// refreshes the dump daily.
const instrumentsTTL = 12 * time.Hour

// NewKiteSource creates a new Kite Connect quote source.
func NewKiteSource(cfg KiteConfig, logger zerolog.Logger) *KiteSource {
	client := kiteconnect.New(cfg.APIKey)
	if cfg.AccessToken != "" {
		client.SetAccessToken(cfg.AccessToken)
	}
	return &KiteSource{client: client, logger: logger.With().Str("component", "kite").Logger()}
}

// GetSpotPrice fetches the underlying quote from the NSE cash segment.
func (k *KiteSource) GetSpotPrice(ctx context.Context, symbol string) (models.Quote, error) {
	quoteSymbol := fmt.Sprintf("NSE:%s", symbol)
	start := time.Now()
	quotes, err := k.client.GetQuote(quoteSymbol)
	logging.LogAPICall(k.logger, "GET", "quote", time.Since(start), err)
	if err != nil {
		return models.Quote{}, apperrors.NewFeedError("spot", symbol, err)
	}

	q, ok := quotes[quoteSymbol]
	if !ok {
		return models.Quote{}, apperrors.NewFeedError("spot", symbol, apperrors.ErrSymbolNotFound)
	}

	asOf := q.LastTradeTime.Time
	if asOf.IsZero() {
		asOf = time.Now()
	}
	return models.Quote{Symbol: symbol, Price: q.LastPrice, AsOf: asOf}, nil
}

// GetOptionChain builds the chain for strikeCount strikes around the money,
// quoting each CE/PE contract on the NFO segment.
func (k *KiteSource) GetOptionChain(ctx context.Context, symbol string, expiry time.Time, strikeCount int) (*models.OptionChain, error) {
	spot, err := k.GetSpotPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}

	instruments, err := k.nfoInstruments()
	if err != nil {
		return nil, apperrors.NewFeedError("chain", symbol, err)
	}

	type contracts struct {
		ce, pe *kiteconnect.Instrument
	}
	byStrike := make(map[float64]*contracts)
	lotSize := 0
	for i := range instruments {
		inst := &instruments[i]
		if inst.Name != symbol || !sameDay(inst.Expiry.Time, expiry) {
			continue
		}
		c, ok := byStrike[inst.StrikePrice]
		if !ok {
			c = &contracts{}
			byStrike[inst.StrikePrice] = c
		}
		switch inst.InstrumentType {
		case "CE":
			c.ce = inst
		case "PE":
			c.pe = inst
		}
		if lotSize == 0 {
			lotSize = int(inst.LotSize)
		}
	}
	if len(byStrike) == 0 {
		return nil, apperrors.NewFeedError("chain", symbol, apperrors.ErrSymbolNotFound)
	}

	allStrikes := make([]float64, 0, len(byStrike))
	for strike := range byStrike {
		allStrikes = append(allStrikes, strike)
	}
	strikes := nearestStrikes(allStrikes, spot.Price, strikeCount)

	quoteSymbols := make([]string, 0, len(strikes)*2)
	for _, strike := range strikes {
		c := byStrike[strike]
		if c.ce != nil {
			quoteSymbols = append(quoteSymbols, "NFO:"+c.ce.Tradingsymbol)
		}
		if c.pe != nil {
			quoteSymbols = append(quoteSymbols, "NFO:"+c.pe.Tradingsymbol)
		}
	}
	start := time.Now()
	quotes, err := k.client.GetQuote(quoteSymbols...)
	logging.LogAPICall(k.logger, "GET", "quote", time.Since(start), err)
	if err != nil {
		return nil, apperrors.NewFeedError("chain", symbol, err)
	}

	chain := &models.OptionChain{
		Symbol:    symbol,
		Expiry:    expiry,
		SpotPrice: spot.Price,
		LotSize:   lotSize,
		Rows:      make([]models.ChainRow, 0, len(strikes)),
	}
	for _, strike := range strikes {
		c := byStrike[strike]
		row := models.ChainRow{Strike: strike}
		if c.ce != nil {
			row.CESymbol = c.ce.Tradingsymbol
			if q, ok := quotes["NFO:"+c.ce.Tradingsymbol]; ok {
				row.CELTP = q.LastPrice
				row.CEOI = int64(q.OI)
			}
		}
		if c.pe != nil {
			row.PESymbol = c.pe.Tradingsymbol
			if q, ok := quotes["NFO:"+c.pe.Tradingsymbol]; ok {
				row.PELTP = q.LastPrice
				row.PEOI = int64(q.OI)
			}
		}
		chain.Rows = append(chain.Rows, row)
	}
	return chain, nil
}

// nfoInstruments returns the cached NFO instrument dump, refreshing it when
// stale.
func (k *KiteSource) nfoInstruments() ([]kiteconnect.Instrument, error) {
	k.mu.RLock()
	if k.instruments != nil && time.Since(k.instrumentsAt) < instrumentsTTL {
		cached := k.instruments
		k.mu.RUnlock()
		return cached, nil
	}
	k.mu.RUnlock()

	all, err := k.client.GetInstruments()
	if err != nil {
		return nil, err
	}
	var nfo []kiteconnect.Instrument
	for _, inst := range all {
		if inst.Exchange == "NFO" {
			nfo = append(nfo, inst)
		}
	}

	k.mu.Lock()
	k.instruments = nfo
	k.instrumentsAt = time.Now()
	k.mu.Unlock()
	return nfo, nil
}

// nearestStrikes keeps the count strikes closest to spot, ascending.
func nearestStrikes(strikes []float64, spot float64, count int) []float64 {
	sort.Slice(strikes, func(i, j int) bool {
		return math.Abs(strikes[i]-spot) < math.Abs(strikes[j]-spot)
	})
	if count > 0 && len(strikes) > count {
		strikes = strikes[:count]
	}
	sort.Float64s(strikes)
	return strikes
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
