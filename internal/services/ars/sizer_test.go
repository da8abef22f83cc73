package ars

import (
	"math"
	"testing"
)

func TestSizerNeutralConviction(t *testing.T) {
	s := NewPositionSizer(DefaultConfig()) // base 0.05

	got := s.Size(0.5, 1.0, 1.0, 0)
	if got != 0.05 {
		t.Fatalf("Size at neutral conviction = %v, want base 0.05", got)
	}
}

func TestSizerConvictionScaling(t *testing.T) {
	s := NewPositionSizer(DefaultConfig()) // scaling 2.0

	// Full conviction doubles the base; zero conviction zeroes the factor
	// and the floor takes over.
	if got := s.Size(1.0, 1.0, 1.0, 0); math.Abs(got-0.10) > 1e-12 {
		t.Fatalf("Size at full conviction = %v, want 0.10", got)
	}
	if got := s.Size(0.0, 1.0, 1.0, 0); got != 0.01 {
		t.Fatalf("Size at zero conviction = %v, want the floor 0.01", got)
	}
}

func TestSizerRegimeAndDrawdownMultiply(t *testing.T) {
	s := NewPositionSizer(DefaultConfig())

	if got := s.Size(0.5, 0.5, 1.0, 0); math.Abs(got-0.025) > 1e-12 {
		t.Fatalf("Size in volatile regime = %v, want 0.025", got)
	}
	if got := s.Size(0.5, 1.0, 0.5, 0); math.Abs(got-0.025) > 1e-12 {
		t.Fatalf("Size under drawdown reduction = %v, want 0.025", got)
	}
	if got := s.Size(0.5, 0.5, 0.5, 0); math.Abs(got-0.0125) > 1e-12 {
		t.Fatalf("Size with both cuts = %v, want 0.0125", got)
	}
}

func TestSizerClampsToMax(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPositionSize = 0.08
	s := NewPositionSizer(cfg)

	if got := s.Size(1.0, 1.2, 1.0, 0); got != 0.08 {
		t.Fatalf("Size = %v, want the 0.08 cap", got)
	}
}

func TestSizerCapacityCapAppliesLast(t *testing.T) {
	s := NewPositionSizer(DefaultConfig())

	// Remaining capacity trumps even the configured floor.
	if got := s.Size(0.5, 1.0, 1.0, 0.995); math.Abs(got-0.005) > 1e-12 {
		t.Fatalf("Size at 99.5%% exposure = %v, want 0.005", got)
	}
	if got := s.Size(0.5, 1.0, 1.0, 1.0); got != 0 {
		t.Fatalf("Size at full exposure = %v, want 0", got)
	}
	// Over-exposure never yields a negative size.
	if got := s.Size(0.5, 1.0, 1.0, 1.3); got != 0 {
		t.Fatalf("Size when over-exposed = %v, want 0", got)
	}
}
