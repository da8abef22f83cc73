package models

// MarketPosition is a raw position fetched from the market data provider,
// before consensus grouping.
type MarketPosition struct {
	Wallet       string
	MarketID     string
	MarketTitle  string
	Outcome      Direction
	Shares       float64
	AvgPrice     float64
	CurrentPrice float64
	CurrentValue float64
	PnL          float64
}
