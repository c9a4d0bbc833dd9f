package models

// PnLTag classifies a position's P&L band.
type PnLTag string

const (
	PnLNeutral    PnLTag = "neutral"
	PnLProfit     PnLTag = "profit"
	PnLProfitHigh PnLTag = "profit-high"
	PnLLoss       PnLTag = "loss"
	PnLLossHigh   PnLTag = "loss-high"
)

// ExpiryTag classifies time-to-expiry urgency.
type ExpiryTag string

const (
	ExpiryUrgent   ExpiryTag = "urgent"
	ExpiryModerate ExpiryTag = "moderate"
	ExpirySafe     ExpiryTag = "safe"
)

// SizeTag classifies position size in lots.
type SizeTag string

const (
	SizeSmall  SizeTag = "small"
	SizeMedium SizeTag = "medium"
	SizeLarge  SizeTag = "large"
)

// MoneynessTag classifies the strike relative to the spot price.
type MoneynessTag string

const (
	MoneynessATM     MoneynessTag = "atm"
	MoneynessITM     MoneynessTag = "itm"
	MoneynessDeepITM MoneynessTag = "deep-itm"
	MoneynessOTM     MoneynessTag = "otm"
	MoneynessDeepOTM MoneynessTag = "deep-otm"
	MoneynessUnknown MoneynessTag = "unknown"
)

// RiskTags groups the four classification axes attached to a leg or to the
// aggregate position. Tags are recomputed on every pass and never persisted.
type RiskTags struct {
	PnL       PnLTag       `json:"pnl"`
	Expiry    ExpiryTag    `json:"expiry"`
	Size      SizeTag      `json:"size"`
	Moneyness MoneynessTag `json:"moneyness"`
}
