package ars

import (
	"testing"

	"ARSPull/internal/domain/models"
)

func TestRegimeDetect(t *testing.T) {
	d := NewRegimeDetector(DefaultConfig())

	tests := []struct {
		name   string
		prices []float64
		want   models.Regime
	}{
		{
			name:   "too few points defaults calm",
			prices: []float64{0.5},
			want:   models.RegimeCalm,
		},
		{
			name:   "empty history defaults calm",
			prices: nil,
			want:   models.RegimeCalm,
		},
		{
			name:   "monotone climb trends",
			prices: []float64{0.30, 0.35, 0.40, 0.45, 0.50},
			want:   models.RegimeTrending,
		},
		{
			name:   "monotone fall trends",
			prices: []float64{0.70, 0.62, 0.55, 0.48, 0.40},
			want:   models.RegimeTrending,
		},
		{
			name:   "large swings are volatile",
			prices: []float64{0.50, 0.90, 0.10, 0.90, 0.10},
			want:   models.RegimeVolatile,
		},
		{
			name:   "small alternating moves are choppy",
			prices: []float64{0.50, 0.52, 0.50, 0.52, 0.50, 0.52},
			want:   models.RegimeChoppy,
		},
		{
			name:   "flat segments are calm",
			prices: []float64{0.50, 0.50, 0.51, 0.51, 0.50, 0.50},
			want:   models.RegimeCalm,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Detect(tt.prices); got != tt.want {
				t.Fatalf("Detect(%v) = %s, want %s", tt.prices, got, tt.want)
			}
		})
	}
}

func TestRegimeDetectUsesTrailingWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VolatilityLookbackPeriods = 3
	d := NewRegimeDetector(cfg)

	// Violent early history must not leak past the lookback window.
	prices := []float64{0.10, 0.90, 0.10, 0.50, 0.50, 0.50}
	if got := d.Detect(prices); got != models.RegimeCalm {
		t.Fatalf("Detect = %s, want calm from the flat trailing window", got)
	}
}

func TestRegimeMultipliers(t *testing.T) {
	tests := []struct {
		regime models.Regime
		want   float64
	}{
		{models.RegimeCalm, 1.0},
		{models.RegimeVolatile, 0.5},
		{models.RegimeTrending, 1.2},
		{models.RegimeChoppy, 0.3},
	}
	for _, tt := range tests {
		if got := tt.regime.Multiplier(); got != tt.want {
			t.Fatalf("%s multiplier = %v, want %v", tt.regime, got, tt.want)
		}
	}
}
