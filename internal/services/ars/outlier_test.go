package ars

import (
	"errors"
	"testing"

	"ARSPull/internal/domain/models"
)

func positionsWithSizes(sizes ...float64) []models.SupportingPosition {
	out := make([]models.SupportingPosition, len(sizes))
	for i, s := range sizes {
		out[i] = models.SupportingPosition{Wallet: string(rune('a' + i)), Size: s}
	}
	return out
}

func TestOutlierFilterRemovesWhale(t *testing.T) {
	f := NewOutlierFilter(DefaultConfig())

	kept, removed, err := f.Filter(positionsWithSizes(100, 100, 100, 100, 10000))
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if len(kept) != 4 {
		t.Fatalf("kept = %d positions, want 4", len(kept))
	}
	for _, p := range kept {
		if p.Size != 100 {
			t.Fatalf("whale survived: kept position size %v", p.Size)
		}
	}
}

func TestOutlierFilterBelowMinSampleKeepsAll(t *testing.T) {
	f := NewOutlierFilter(DefaultConfig()) // min_sample_size 5

	kept, removed, err := f.Filter(positionsWithSizes(100, 100, 100, 10000))
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if removed != 0 || len(kept) != 4 {
		t.Fatalf("kept=%d removed=%d, want all 4 kept below min sample size", len(kept), removed)
	}
}

func TestOutlierFilterZeroStdDevKeepsAll(t *testing.T) {
	f := NewOutlierFilter(DefaultConfig())

	kept, removed, err := f.Filter(positionsWithSizes(500, 500, 500, 500, 500))
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if removed != 0 || len(kept) != 5 {
		t.Fatalf("kept=%d removed=%d, want all 5 kept with zero variance", len(kept), removed)
	}
}

func TestOutlierFilterNeverBelowTwoSurvivors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutlierStdThreshold = 0.5
	cfg.MinSampleSize = 2
	f := NewOutlierFilter(cfg)

	// At threshold 0.5 every position flags as an outlier; only the
	// largest-|z| one may actually go.
	kept, removed, err := f.Filter(positionsWithSizes(1, 2, 100))
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(kept) != 2 {
		t.Fatalf("kept = %d positions, want 2", len(kept))
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if kept[0].Size != 1 || kept[1].Size != 2 {
		t.Fatalf("kept sizes = [%v, %v], want the two small positions in input order", kept[0].Size, kept[1].Size)
	}
}

func TestOutlierFilterEmptyInput(t *testing.T) {
	f := NewOutlierFilter(DefaultConfig())

	if _, _, err := f.Filter(nil); !errors.Is(err, ErrInvalidSignal) {
		t.Fatalf("Filter(nil) err = %v, want ErrInvalidSignal", err)
	}
}

func TestOutlierFilterPreservesOrder(t *testing.T) {
	f := NewOutlierFilter(DefaultConfig())

	kept, _, err := f.Filter(positionsWithSizes(100, 10000, 100, 100, 100))
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	want := []string{"a", "c", "d", "e"}
	if len(kept) != len(want) {
		t.Fatalf("kept = %d positions, want %d", len(kept), len(want))
	}
	for i, p := range kept {
		if p.Wallet != want[i] {
			t.Fatalf("kept[%d].Wallet = %s, want %s", i, p.Wallet, want[i])
		}
	}
}
