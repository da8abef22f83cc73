package ars

import (
	"math"

	"ARSPull/internal/domain/models"
)

// RegimeDetector classifies a price-history window into one of four market
// regimes. Fewer than two points defaults to CALM: insufficient data is not
// grounds for risk-off, but also not grounds for boosting.
type RegimeDetector struct {
	lookback     int
	volThreshold float64
}

// NewRegimeDetector builds a detector from the stabilizer config.
func NewRegimeDetector(cfg Config) *RegimeDetector {
	return &RegimeDetector{lookback: cfg.VolatilityLookbackPeriods, volThreshold: cfg.HighVolatilityThreshold}
}

// Detect evaluates the trailing lookback window. Priority: trend, then
// volatility, then choppiness — a trending move that is also individually
// volatile classifies TRENDING, the more actionable signal.
func (d *RegimeDetector) Detect(prices []float64) models.Regime {
	if len(prices) < 2 {
		return models.RegimeCalm
	}
	window := prices
	if len(window) > d.lookback {
		window = window[len(window)-d.lookback:]
	}

	returns := diffs(window)
	var sumAbs float64
	for _, r := range returns {
		sumAbs += math.Abs(r)
	}

	// 1.0 for a monotone move, near 0 for a round-tripping random walk.
	trendStrength := 0.0
	if sumAbs > 0 {
		trendStrength = math.Abs(window[len(window)-1]-window[0]) / sumAbs
	}

	volatility := stdDev(returns)

	signChanges := 0
	for i := 1; i < len(returns); i++ {
		if returns[i-1]*returns[i] < 0 {
			signChanges++
		}
	}
	signChangeRate := 0.0
	if len(returns) > 1 {
		signChangeRate = float64(signChanges) / float64(len(returns)-1)
	}

	switch {
	case trendStrength >= 0.6:
		return models.RegimeTrending
	case volatility >= d.volThreshold:
		return models.RegimeVolatile
	case signChangeRate >= 0.5:
		return models.RegimeChoppy
	default:
		return models.RegimeCalm
	}
}
