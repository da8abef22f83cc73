package ars

import (
	"fmt"
	"math"

	"ARSPull/internal/domain/models"
)

// Bucket boundaries for entry timing; inclusive on the lower edge, so a
// move of exactly 0.15 is FAIR and exactly 0.50 is LATE.
const (
	entryGoodBound = 0.15
	entryFairBound = 0.50
	entryLateBound = 1.00
)

// EntryClassifier buckets how much the market has already moved since the
// supporting traders' average entry.
type EntryClassifier struct{}

// NewEntryClassifier builds a classifier.
func NewEntryClassifier() *EntryClassifier { return &EntryClassifier{} }

// Classify returns the timing bucket for avgEntry versus currentPrice.
func (c *EntryClassifier) Classify(avgEntry, currentPrice float64) (models.EntryQuality, error) {
	if avgEntry <= 0 {
		return "", fmt.Errorf("avg entry price %.4f: %w", avgEntry, ErrInvalidSignal)
	}
	move := math.Abs(currentPrice-avgEntry) / avgEntry
	switch {
	case move < entryGoodBound:
		return models.EntryGood, nil
	case move < entryFairBound:
		return models.EntryFair, nil
	case move < entryLateBound:
		return models.EntryLate, nil
	default:
		return models.EntryVeryLate, nil
	}
}
