package ars

import (
	"errors"
	"testing"

	"ARSPull/internal/domain/models"
)

func TestEntryClassify(t *testing.T) {
	c := NewEntryClassifier()

	tests := []struct {
		name     string
		avgEntry float64
		current  float64
		want     models.EntryQuality
	}{
		{"no move", 0.50, 0.50, models.EntryGood},
		{"small move up", 0.50, 0.55, models.EntryGood},      // 10%
		{"moderate move up", 0.25, 0.30, models.EntryFair},   // 20%
		{"moderate move down", 0.50, 0.35, models.EntryFair}, // 30%
		{"late boundary", 0.25, 0.375, models.EntryLate},     // exactly 50%
		{"late move", 0.30, 0.54, models.EntryLate},          // 80%
		{"doubled", 0.25, 0.50, models.EntryVeryLate},        // exactly 100%
		{"tripled", 0.20, 0.60, models.EntryVeryLate},        // 200%
		{"collapse below entry", 0.50, 0.05, models.EntryLate}, // 90%
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(tt.avgEntry, tt.current)
			if err != nil {
				t.Fatalf("Classify(%v, %v): %v", tt.avgEntry, tt.current, err)
			}
			if got != tt.want {
				t.Fatalf("Classify(%v, %v) = %s, want %s", tt.avgEntry, tt.current, got, tt.want)
			}
		})
	}
}

func TestEntryClassifyInvalidAvgEntry(t *testing.T) {
	c := NewEntryClassifier()

	for _, avgEntry := range []float64{0, -0.1} {
		if _, err := c.Classify(avgEntry, 0.5); !errors.Is(err, ErrInvalidSignal) {
			t.Fatalf("Classify(%v, 0.5) err = %v, want ErrInvalidSignal", avgEntry, err)
		}
	}
}
