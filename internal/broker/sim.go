package broker

import (
	"context"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"options-desk/internal/models"
)

// SimSource implements QuoteSource with a seeded random walk. It serves the
// dashboard in offline mode and the tests, the way the paper broker stands
// in for the live one.
type SimSource struct {
	mu       sync.Mutex
	rng      *rand.Rand
	spot     float64
	step     float64
	interval float64
	lotSize  int
}

// SimConfig holds configuration for the simulated quote source.
type SimConfig struct {
	// BasePrice seeds the walk; defaults to 25450.
	BasePrice float64
	// StepPercent is the per-tick walk amplitude; defaults to 0.05%.
	StepPercent float64
	// StrikeInterval is the strike grid spacing; defaults to 50.
	StrikeInterval float64
	// LotSize reported by the chain; defaults to 75.
	LotSize int
	// Seed makes the walk reproducible; 0 seeds from the clock.
	Seed int64
}

// DefaultSimConfig returns the default simulator configuration.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		BasePrice:      25450,
		StepPercent:    0.05,
		StrikeInterval: 50,
		LotSize:        75,
	}
}

// NewSimSource creates a simulated quote source.
func NewSimSource(cfg SimConfig) *SimSource {
	if cfg.BasePrice <= 0 {
		cfg.BasePrice = 25450
	}
	if cfg.StepPercent <= 0 {
		cfg.StepPercent = 0.05
	}
	if cfg.StrikeInterval <= 0 {
		cfg.StrikeInterval = 50
	}
	if cfg.LotSize <= 0 {
		cfg.LotSize = 75
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimSource{
		rng:      rand.New(rand.NewSource(seed)),
		spot:     cfg.BasePrice,
		step:     cfg.StepPercent / 100,
		interval: cfg.StrikeInterval,
		lotSize:  cfg.LotSize,
	}
}

// GetSpotPrice advances the walk one step and returns the new spot.
func (s *SimSource) GetSpotPrice(ctx context.Context, symbol string) (models.Quote, error) {
	s.mu.Lock()
	s.spot += s.spot * s.step * (s.rng.Float64()*2 - 1)
	price := s.spot
	s.mu.Unlock()

	return models.Quote{Symbol: symbol, Price: price, AsOf: time.Now()}, nil
}

// GetOptionChain synthesizes a chain of strikeCount strikes around the
// current spot. Contract prices are intrinsic value plus a distance-decayed
// time value, enough to exercise the engine end to end.
func (s *SimSource) GetOptionChain(ctx context.Context, symbol string, expiry time.Time, strikeCount int) (*models.OptionChain, error) {
	s.mu.Lock()
	spot := s.spot
	s.mu.Unlock()

	if strikeCount <= 0 {
		strikeCount = 10
	}
	atm := math.Round(spot/s.interval) * s.interval
	start := atm - s.interval*float64(strikeCount/2)

	chain := &models.OptionChain{
		Symbol:    symbol,
		Expiry:    expiry,
		SpotPrice: spot,
		LotSize:   s.lotSize,
		Rows:      make([]models.ChainRow, 0, strikeCount),
	}
	for i := 0; i < strikeCount; i++ {
		strike := start + s.interval*float64(i)
		if strike <= 0 {
			continue
		}
		timeValue := 120 * math.Exp(-math.Abs(strike-spot)/(4*s.interval))
		chain.Rows = append(chain.Rows, models.ChainRow{
			Strike:   strike,
			CESymbol: simSymbol(symbol, expiry, strike, models.OptionCall),
			PESymbol: simSymbol(symbol, expiry, strike, models.OptionPut),
			CELTP:    math.Max(spot-strike, 0) + timeValue,
			PELTP:    math.Max(strike-spot, 0) + timeValue,
		})
	}
	return chain, nil
}

func simSymbol(symbol string, expiry time.Time, strike float64, t models.OptionType) string {
	return symbol + strings.ToUpper(expiry.Format("06Jan")) + strconv.FormatFloat(strike, 'f', -1, 64) + string(t)
}
