package models

// TraderRecord is an immutable snapshot of a trader's history, as resolved
// by the data layer for one scoring call.
type TraderRecord struct {
	Wallet         string
	Username       string
	Rank           int
	PnL            float64
	Volume         float64
	Efficiency     float64 // PnL / Volume
	WinRate        float64
	WinRateHistory []float64 // rolling win rates, most-recent-last
	ReturnHistory  []float64 // per-trade returns, most-recent-last
}

// TotalTrades returns the number of historical trades in the snapshot.
func (r TraderRecord) TotalTrades() int { return len(r.ReturnHistory) }

// TraderScore ranks a leaderboard trader by consistency rather than raw PnL.
type TraderScore struct {
	Wallet     string  `json:"wallet"`
	Username   string  `json:"username"`
	PnL        float64 `json:"pnl"`
	Volume     float64 `json:"volume"`
	Efficiency float64 `json:"efficiency"`
	FinalScore float64 `json:"final_score"`
}
