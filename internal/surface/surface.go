// Package surface adapts engine output to abstract rendering surfaces. The
// chart widget, summary cards and badges live outside the core; this
// package owns only the translation from computed results to the calls
// those surfaces consume.
package surface

import (
	"options-desk/internal/models"
)

// RenderSurface is the contract the core needs from a payoff chart widget.
// Implementations decide how curves and annotations are drawn.
type RenderSurface interface {
	SetCurve(points []models.PayoffPoint)
	SetAnnotations(breakevens []float64, spot float64)
	Clear()
}

// SummarySink consumes aggregate position summaries for cards and badges.
type SummarySink interface {
	SetSummary(s Summary)
}

// LegSummary is one row of the current-positions card.
type LegSummary struct {
	Key      string            `json:"key"`
	Strike   float64           `json:"strike"`
	Type     models.OptionType `json:"optionType"`
	Side     models.Side       `json:"side"`
	Quantity int               `json:"quantity"`
	Entry    float64           `json:"entryPremium"`
	PnL      float64           `json:"pnl"`
	NetBadge int               `json:"netBadge"`
	Tags     models.RiskTags   `json:"tags"`
}

// Summary describes the aggregate position state shown on summary cards.
// An empty position set is reported with Positions == 0 and zeroed numbers;
// sinks render it as an explicit "no positions" state.
type Summary struct {
	Positions  int             `json:"positions"`
	TotalLots  int             `json:"totalLots"`
	Spot       float64         `json:"spot"`
	SpotPnL    float64         `json:"spotPnl"`
	MaxProfit  float64         `json:"maxProfit"`
	MaxLoss    float64         `json:"maxLoss"`
	Breakevens []float64       `json:"breakevens"`

	MaxProfitUnbounded bool `json:"maxProfitUnbounded"`
	MaxLossUnbounded   bool `json:"maxLossUnbounded"`

	Tags models.RiskTags `json:"tags"`
	Legs []LegSummary    `json:"legs"`
}

// ChartAdapter pushes payoff results to a rendering surface.
type ChartAdapter struct {
	surface RenderSurface
}

// NewChartAdapter creates a chart adapter over a rendering surface.
func NewChartAdapter(s RenderSurface) *ChartAdapter {
	return &ChartAdapter{surface: s}
}

// Render translates one payoff result into surface calls. Empty results
// clear the surface, which renders its "no positions" state.
func (a *ChartAdapter) Render(res models.PayoffResult, spot float64) {
	if a.surface == nil {
		return
	}
	if res.Empty {
		a.surface.Clear()
		return
	}
	a.surface.SetCurve(res.Curve)
	a.surface.SetAnnotations(res.Breakevens, spot)
}
