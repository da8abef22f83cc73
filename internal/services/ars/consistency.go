package ars

import (
	"math"

	"ARSPull/internal/domain/models"
)

// Factor weights; must sum to 1.
const (
	winStabilityWeight    = 0.40
	returnStabilityWeight = 0.35
	recencyWeight         = 0.25
)

// recencySigmoidScale maps the decay-weighted mean per-trade return onto
// [0,1]; at this scale a +/-10% average return lands near 0.73/0.27.
const recencySigmoidScale = 10.0

// ConsistencyScorer converts a trader's historical record into a stability
// score in [0,1]. Stateless per trader given the history snapshot; the
// score only weights the trader's contribution to aggregate conviction and
// never alters their raw position size.
type ConsistencyScorer struct {
	minTrades int
	decayRate float64
}

// NewConsistencyScorer builds a scorer from the stabilizer config.
func NewConsistencyScorer(cfg Config) *ConsistencyScorer {
	return &ConsistencyScorer{minTrades: cfg.MinTradesForConsistency, decayRate: cfg.ConsistencyDecayRate}
}

// Score returns the weighted stability score. Traders with fewer than the
// configured minimum of historical trades get a neutral 0.5: insufficient
// evidence is neither penalized nor rewarded.
func (s *ConsistencyScorer) Score(record models.TraderRecord) float64 {
	if record.TotalTrades() < s.minTrades {
		return 0.5
	}
	score := winStabilityWeight*winRateStability(record.WinRateHistory) +
		returnStabilityWeight*returnStability(record.ReturnHistory) +
		recencyWeight*s.recencyScore(record.ReturnHistory)
	return clamp01(score)
}

// winRateStability scores low variance in the rolling win rate near 1.
// The 0.5 divisor is the worst possible win-rate deviation, so the factor
// lands in [0,1].
func winRateStability(winRates []float64) float64 {
	if len(winRates) < 2 {
		return 0.5
	}
	return clamp01(1 - stdDev(winRates)/0.5)
}

// returnStability scores low dispersion relative to mean return near 1.
// A trader whose mean return is not positive gets 0: a consistently losing
// trader is not stable in any useful sense.
func returnStability(returns []float64) float64 {
	m := mean(returns)
	if m <= 0 {
		return 0
	}
	cv := stdDev(returns) / m
	return clamp01(1 / (1 + cv))
}

// recencyScore is an exponentially decayed average of per-trade returns
// (most-recent-last, weight = decay^age) squashed through a sigmoid
// centered at zero.
func (s *ConsistencyScorer) recencyScore(returns []float64) float64 {
	n := len(returns)
	if n == 0 {
		return 0.5
	}
	var weighted, weightSum float64
	for i, r := range returns {
		w := math.Pow(s.decayRate, float64(n-1-i))
		weighted += w * r
		weightSum += w
	}
	if weightSum == 0 {
		return 0.5
	}
	avg := weighted / weightSum
	return 1 / (1 + math.Exp(-avg*recencySigmoidScale))
}
