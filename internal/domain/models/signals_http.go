package models

// Requests for the signals HTTP endpoints. Defined in domain for consistency and reuse.

type ListSignalsRequest struct {
	Limit     int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
	Direction string `query:"direction" json:"direction" validate:"omitempty,oneof=yes no"`
}

type ProcessSignalRequest struct {
	MarketID     string                   `json:"market_id" validate:"required"`
	MarketTitle  string                   `json:"market_title"`
	Direction    string                   `json:"direction" validate:"required,oneof=yes no"`
	Positions    []ProcessPositionRequest `json:"positions" validate:"required,min=1,dive"`
	PriceHistory []float64                `json:"price_history"`
	CurrentPrice float64                  `json:"current_price" validate:"gt=0,lt=1"`
	Exposure     float64                  `json:"exposure" default:"0" validate:"gte=0,lte=1"`
}

type ProcessPositionRequest struct {
	Wallet   string  `json:"wallet" validate:"required"`
	Size     float64 `json:"size" validate:"gte=0"`
	Shares   float64 `json:"shares" validate:"gte=0"`
	AvgPrice float64 `json:"avg_price" validate:"gte=0"`
	PnL      float64 `json:"pnl"`
	WinRate  float64 `json:"win_rate" validate:"gte=0,lte=1"`
}

type RecordOutcomeRequest struct {
	PnLDelta float64 `json:"pnl_delta" validate:"gte=-1,lte=1"`
}

// RawSignal converts the request into the domain input consumed by the
// stabilizer.
func (r *ProcessSignalRequest) RawSignal() *RawSignal {
	positions := make([]SupportingPosition, 0, len(r.Positions))
	for _, p := range r.Positions {
		positions = append(positions, SupportingPosition{
			Wallet:   p.Wallet,
			Size:     p.Size,
			Shares:   p.Shares,
			AvgPrice: p.AvgPrice,
			PnL:      p.PnL,
			WinRate:  p.WinRate,
		})
	}
	return &RawSignal{
		MarketID:     r.MarketID,
		MarketTitle:  r.MarketTitle,
		Direction:    Direction(r.Direction),
		Positions:    positions,
		PriceHistory: r.PriceHistory,
		CurrentPrice: r.CurrentPrice,
		Exposure:     r.Exposure,
	}
}
