package ars

import (
	"math"
	"testing"
	"time"
)

func TestDrawdownGuardFactorIsBinary(t *testing.T) {
	g := NewDrawdownGuard(DefaultConfig()) // max daily 0.10, reduction 0.5

	if got := g.Factor(); got != 1.0 {
		t.Fatalf("fresh guard Factor = %v, want exactly 1.0", got)
	}

	g.RecordOutcome(-0.05)
	if got := g.Factor(); got != 1.0 {
		t.Fatalf("Factor after -5%% daily = %v, want exactly 1.0", got)
	}

	g.RecordOutcome(-0.05)
	if got := g.Factor(); got != 0.5 {
		t.Fatalf("Factor at the daily limit = %v, want exactly the reduction rate 0.5", got)
	}
}

func TestDrawdownGuardTotalLimit(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewDrawdownGuard(DefaultConfig(), WithGuardClock(func() time.Time { return now }))

	// -9% on each of three days: daily never breaches, cumulative does.
	for day := 0; day < 3; day++ {
		g.RecordOutcome(-0.09)
		now = now.AddDate(0, 0, 1)
	}
	if got := g.Factor(); got != 0.5 {
		t.Fatalf("Factor after -27%% cumulative = %v, want 0.5", got)
	}

	snap := g.Snapshot()
	if snap.DailyPnLPct != 0 {
		t.Fatalf("Snapshot.DailyPnLPct = %v, want 0 after rollover", snap.DailyPnLPct)
	}
	if snap.TotalPnLPct > -0.25 {
		t.Fatalf("Snapshot.TotalPnLPct = %v, want <= -0.25", snap.TotalPnLPct)
	}
}

func TestDrawdownGuardDailyResetAtRollover(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewDrawdownGuard(DefaultConfig(), WithGuardClock(func() time.Time { return now }))

	g.RecordOutcome(-0.12)
	if got := g.Factor(); got != 0.5 {
		t.Fatalf("Factor after daily breach = %v, want 0.5", got)
	}

	// Crossing the UTC day boundary clears the daily figure without any
	// write in between.
	now = now.AddDate(0, 0, 1)
	if got := g.Factor(); got != 1.0 {
		t.Fatalf("Factor after rollover = %v, want 1.0", got)
	}

	// The next write folds into a fresh daily window.
	g.RecordOutcome(-0.02)
	snap := g.Snapshot()
	if snap.DailyPnLPct != -0.02 {
		t.Fatalf("DailyPnLPct = %v, want -0.02", snap.DailyPnLPct)
	}
	if math.Abs(snap.TotalPnLPct-(-0.14)) > 1e-12 {
		t.Fatalf("TotalPnLPct = %v, want -0.14", snap.TotalPnLPct)
	}
}

func TestDrawdownGuardGainsOffsetLosses(t *testing.T) {
	g := NewDrawdownGuard(DefaultConfig())

	g.RecordOutcome(-0.08)
	g.RecordOutcome(0.05)
	if got := g.Factor(); got != 1.0 {
		t.Fatalf("Factor at net -3%% = %v, want 1.0", got)
	}
}

func TestDrawdownGuardResetTotal(t *testing.T) {
	g := NewDrawdownGuard(DefaultConfig())

	g.RecordOutcome(-0.30)
	if got := g.Factor(); got != 0.5 {
		t.Fatalf("Factor = %v, want 0.5", got)
	}

	g.ResetTotal()
	snap := g.Snapshot()
	if snap.TotalPnLPct != 0 {
		t.Fatalf("TotalPnLPct after reset = %v, want 0", snap.TotalPnLPct)
	}
	// The daily figure is untouched and still breaching on its own.
	if got := g.Factor(); got != 0.5 {
		t.Fatalf("Factor after total reset = %v, want 0.5 from the daily breach", got)
	}
}
