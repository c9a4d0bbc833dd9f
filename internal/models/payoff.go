package models

// PayoffPoint is one sampled point on the payoff curve.
type PayoffPoint struct {
	Price float64 `json:"price"`
	PnL   float64 `json:"pnl"`
}

// PayoffResult holds the computed payoff curve and its derived risk numbers.
// MaxProfit and MaxLoss are sampled extrema over the curve domain, not
// closed-form bounds; the Unbounded flags report analytically detected open
// exposure above the top strike.
type PayoffResult struct {
	Curve      []PayoffPoint
	Breakevens []float64
	MaxProfit  float64
	MaxLoss    float64

	MaxProfitUnbounded bool
	MaxLossUnbounded   bool

	// Empty marks the degenerate no-positions result. It is an explicit
	// state, not an error.
	Empty bool
}
