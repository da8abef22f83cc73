package ars

import (
	"fmt"
	"math"
	"sort"

	"ARSPull/internal/domain/models"
)

// OutlierFilter removes statistically anomalous position sizes from a set
// of supporting positions before any aggregate is computed from them.
type OutlierFilter struct {
	stdThreshold  float64
	minSampleSize int
}

// NewOutlierFilter builds a filter from the stabilizer config.
func NewOutlierFilter(cfg Config) *OutlierFilter {
	return &OutlierFilter{stdThreshold: cfg.OutlierStdThreshold, minSampleSize: cfg.MinSampleSize}
}

// Filter returns the positions to keep plus the count removed. Pure; input
// order is preserved. Below the minimum sample size no position is judged
// an outlier. The threshold is inclusive: a z-score exactly at the limit is
// flagged. A set of two or more positions is never reduced below two
// survivors: when full removal would do so, only the largest-|z| offenders
// are dropped.
func (f *OutlierFilter) Filter(positions []models.SupportingPosition) ([]models.SupportingPosition, int, error) {
	n := len(positions)
	if n == 0 {
		return nil, 0, fmt.Errorf("empty position set: %w", ErrInvalidSignal)
	}
	if n < f.minSampleSize {
		return positions, 0, nil
	}

	sizes := make([]float64, n)
	for i, p := range positions {
		sizes[i] = p.Size
	}
	mu := mean(sizes)
	sigma := stdDev(sizes)
	if sigma == 0 {
		return positions, 0, nil
	}

	type offender struct {
		idx  int
		absZ float64
	}
	var offenders []offender
	for i, s := range sizes {
		z := math.Abs((s - mu) / sigma)
		if z >= f.stdThreshold {
			offenders = append(offenders, offender{idx: i, absZ: z})
		}
	}
	if len(offenders) == 0 {
		return positions, 0, nil
	}

	maxRemovals := n - 2
	if maxRemovals < 0 {
		maxRemovals = 0
	}
	if len(offenders) > maxRemovals {
		sort.Slice(offenders, func(a, b int) bool { return offenders[a].absZ > offenders[b].absZ })
		offenders = offenders[:maxRemovals]
	}

	drop := make(map[int]bool, len(offenders))
	for _, o := range offenders {
		drop[o.idx] = true
	}
	kept := make([]models.SupportingPosition, 0, n-len(offenders))
	for i, p := range positions {
		if !drop[i] {
			kept = append(kept, p)
		}
	}
	return kept, len(offenders), nil
}
