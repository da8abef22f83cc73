package models

import "time"

// Direction is the side of a prediction-market position.
type Direction string

const (
	DirectionYes Direction = "yes"
	DirectionNo  Direction = "no"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	switch d {
	case DirectionYes, DirectionNo:
		return true
	default:
		return false
	}
}

// Regime is a coarse classification of recent price-series behaviour.
type Regime string

const (
	RegimeCalm     Regime = "calm"
	RegimeVolatile Regime = "volatile"
	RegimeTrending Regime = "trending"
	RegimeChoppy   Regime = "choppy"
)

// Multiplier returns the position-size multiplier attached to the regime.
func (r Regime) Multiplier() float64 {
	switch r {
	case RegimeCalm:
		return 1.0
	case RegimeVolatile:
		return 0.5
	case RegimeTrending:
		return 1.2
	case RegimeChoppy:
		return 0.3
	default:
		return 1.0
	}
}

// EntryQuality classifies how far the market has already moved away from
// the supporting traders' average entry.
type EntryQuality string

const (
	EntryGood     EntryQuality = "good"
	EntryFair     EntryQuality = "fair"
	EntryLate     EntryQuality = "late"
	EntryVeryLate EntryQuality = "very_late"
)

// SupportingPosition is one top trader's holding behind a consensus signal.
type SupportingPosition struct {
	Wallet   string
	Size     float64 // current dollar value, >= 0
	Shares   float64
	AvgPrice float64
	PnL      float64
	WinRate  float64
}

// RawSignal is the aggregator's consensus for one market+direction pair.
// It is consumed exactly once by the stabilizer and never mutated.
type RawSignal struct {
	MarketID     string
	MarketTitle  string
	Direction    Direction
	Positions    []SupportingPosition
	PriceHistory []float64 // chronological, values in (0,1)
	CurrentPrice float64   // in (0,1)
	Exposure     float64   // current portfolio exposure, [0,1]
}

// ProcessedSignal is the stabilizer's risk-adjusted output, one per
// RawSignal. Immutable once produced.
type ProcessedSignal struct {
	MarketID        string       `json:"market_id"`
	MarketTitle     string       `json:"market_title"`
	Direction       Direction    `json:"direction"`
	RawConviction   float64      `json:"raw_conviction"`
	ARSConviction   float64      `json:"ars_conviction"`
	ARSScore        float64      `json:"ars_score"`
	TotalSize       float64      `json:"total_size"`
	AvgEntryPrice   float64      `json:"avg_entry_price"`
	CurrentPrice    float64      `json:"current_price"`
	ExpectedEdge    float64      `json:"expected_edge"`
	NumTraders      int          `json:"num_traders"`
	OutliersRemoved int          `json:"outliers_removed"`
	AvgConsistency  float64      `json:"avg_consistency"`
	RecommendedSize float64      `json:"recommended_size"`
	EntryQuality    EntryQuality `json:"entry_quality"`
	Regime          Regime       `json:"regime"`
	RegimeMult      float64      `json:"regime_multiplier"`
	Traders         []string     `json:"traders"`
	GeneratedAt     time.Time    `json:"generated_at"`
	ExpiresAt       time.Time    `json:"expires_at"`
}

// DrawdownSnapshot is a point-in-time read of the guard state.
type DrawdownSnapshot struct {
	DailyPnLPct float64   `json:"daily_pnl_pct"`
	TotalPnLPct float64   `json:"total_pnl_pct"`
	Factor      float64   `json:"factor"`
	DayBoundary time.Time `json:"day_boundary"`
}

// PriceTick is one observed market price, fed into rolling histories.
type PriceTick struct {
	MarketID  string
	Price     float64
	Timestamp int64 // unix seconds
}
