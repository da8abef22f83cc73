package ars

import (
	"sync"
	"time"

	"ARSPull/internal/domain/models"
)

// DrawdownGuard tracks realized daily and total loss as portfolio
// fractions and exposes the size-reduction factor the sizer consumes.
// It is an explicitly injected, lock-guarded state object, never a
// package singleton: signal processing reads it, the outcome feed writes
// it, and the two must never interleave mid-read.
type DrawdownGuard struct {
	mu          sync.RWMutex
	maxDaily    float64
	maxTotal    float64
	reduction   float64
	dailyPnLPct float64
	totalPnLPct float64
	dayBoundary time.Time // start of the next UTC day
	now         func() time.Time
}

// GuardOption configures DrawdownGuard.
type GuardOption func(*DrawdownGuard)

// WithGuardClock injects a clock, used in tests for deterministic rollover.
func WithGuardClock(now func() time.Time) GuardOption {
	return func(g *DrawdownGuard) { g.now = now }
}

// NewDrawdownGuard creates a guard with zeroed state.
func NewDrawdownGuard(cfg Config, opts ...GuardOption) *DrawdownGuard {
	g := &DrawdownGuard{
		maxDaily:  cfg.MaxDailyDrawdown,
		maxTotal:  cfg.MaxTotalDrawdown,
		reduction: cfg.DrawdownReductionRate,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.dayBoundary = nextUTCDay(g.now())
	return g
}

// Factor returns exactly 1.0 while both drawdown limits are intact and
// exactly the configured reduction rate once either is breached — never an
// intermediate value. A pure read: the daily figure is viewed as zero once
// the UTC day has rolled over, with the actual reset applied on the next
// write.
func (g *DrawdownGuard) Factor() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	daily := g.dailyPnLPct
	if !g.now().Before(g.dayBoundary) {
		daily = 0
	}
	if daily <= -g.maxDaily || g.totalPnLPct <= -g.maxTotal {
		return g.reduction
	}
	return 1.0
}

// RecordOutcome folds one realized P&L delta (a portfolio fraction, signed)
// into the state. The execution layer calls this after trades settle.
func (g *DrawdownGuard) RecordOutcome(pnlDelta float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if now := g.now(); !now.Before(g.dayBoundary) {
		g.dailyPnLPct = 0
		g.dayBoundary = nextUTCDay(now)
	}
	g.dailyPnLPct += pnlDelta
	g.totalPnLPct += pnlDelta
}

// ResetTotal clears the cumulative figure. Daily state resets itself at
// the UTC day rollover; total persists until the caller decides otherwise.
func (g *DrawdownGuard) ResetTotal() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.totalPnLPct = 0
}

// Snapshot returns a consistent point-in-time view of the state.
func (g *DrawdownGuard) Snapshot() models.DrawdownSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	daily := g.dailyPnLPct
	if !g.now().Before(g.dayBoundary) {
		daily = 0
	}
	factor := 1.0
	if daily <= -g.maxDaily || g.totalPnLPct <= -g.maxTotal {
		factor = g.reduction
	}
	return models.DrawdownSnapshot{
		DailyPnLPct: daily,
		TotalPnLPct: g.totalPnLPct,
		Factor:      factor,
		DayBoundary: g.dayBoundary,
	}
}

func nextUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
