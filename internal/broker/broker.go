// Package broker provides quote source integrations for the dashboard
// engine.
package broker

import (
	"context"
	"time"

	"options-desk/internal/models"
)

// QuoteSource supplies spot prices and option chains to the core. The core
// treats the source as slow and unreliable: errors and missing prices are
// absorbed by the price feed as a skipped tick, never surfaced as hard
// failures.
type QuoteSource interface {
	// GetSpotPrice returns the current underlying price for a symbol.
	GetSpotPrice(ctx context.Context, symbol string) (models.Quote, error)

	// GetOptionChain returns strikeCount strikes around the money for one
	// symbol and expiry, with per-contract last traded prices.
	GetOptionChain(ctx context.Context, symbol string, expiry time.Time, strikeCount int) (*models.OptionChain, error)
}
