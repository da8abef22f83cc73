package service

import (
	"ARSPull/internal/domain/models"
)

// ConsistencyScorer converts a trader's history snapshot into a stability
// score in [0,1].
type ConsistencyScorer interface {
	Score(record models.TraderRecord) float64
}

// RegimeDetector classifies a price history window into a market regime.
type RegimeDetector interface {
	Detect(prices []float64) models.Regime
}

// EntryClassifier buckets entry timing quality from the average entry price
// versus the current price.
type EntryClassifier interface {
	Classify(avgEntry, currentPrice float64) (models.EntryQuality, error)
}

// PositionSizer produces a bounded recommended allocation.
type PositionSizer interface {
	Size(arsConviction, regimeMultiplier, drawdownFactor, currentExposure float64) float64
}

// Stabilizer runs the full adaptive-risk pipeline on one raw signal.
type Stabilizer interface {
	ProcessSignal(raw *models.RawSignal) (*models.ProcessedSignal, error)
}
