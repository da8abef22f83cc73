package ars

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"ARSPull/internal/domain/models"
)

type stubResolver map[string]models.TraderRecord

func (r stubResolver) Resolve(wallet string) (models.TraderRecord, bool) {
	rec, ok := r[wallet]
	return rec, ok
}

func newTestStabilizer(t *testing.T, resolver TraderResolver, opts ...StabilizerOption) *Stabilizer {
	t.Helper()
	guard := NewDrawdownGuard(DefaultConfig())
	s, err := NewStabilizer(DefaultConfig(), 10, guard, resolver, opts...)
	if err != nil {
		t.Fatalf("NewStabilizer: %v", err)
	}
	return s
}

func flatPrices(p float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = p
	}
	return out
}

func TestProcessSignalTwoTraderConsensus(t *testing.T) {
	s := newTestStabilizer(t, stubResolver{})

	raw := &models.RawSignal{
		MarketID:    "mkt-1",
		MarketTitle: "Will it settle yes",
		Direction:   models.DirectionYes,
		Positions: []models.SupportingPosition{
			{Wallet: "w1", Size: 1000, Shares: 5000, AvgPrice: 0.50, WinRate: 0.62},
			{Wallet: "w2", Size: 800, Shares: 3000, AvgPrice: 0.50, WinRate: 0.58},
		},
		PriceHistory: flatPrices(0.50, 6),
		CurrentPrice: 0.27,
		Exposure:     0.2,
	}

	out, err := s.ProcessSignal(raw)
	if err != nil {
		t.Fatalf("ProcessSignal: %v", err)
	}
	if out.NumTraders != 2 || out.OutliersRemoved != 0 {
		t.Fatalf("traders=%d removed=%d, want 2/0", out.NumTraders, out.OutliersRemoved)
	}
	if out.TotalSize != 1800 {
		t.Fatalf("TotalSize = %v, want 1800", out.TotalSize)
	}
	if out.AvgEntryPrice != 0.50 {
		t.Fatalf("AvgEntryPrice = %v, want 0.50", out.AvgEntryPrice)
	}
	if out.RawConviction != 0.2 {
		t.Fatalf("RawConviction = %v, want 2/10", out.RawConviction)
	}
	if out.AvgConsistency != 0.5 {
		t.Fatalf("AvgConsistency = %v, want neutral 0.5 for unresolved traders", out.AvgConsistency)
	}
	if math.Abs(out.ARSConviction-0.1) > 1e-12 {
		t.Fatalf("ARSConviction = %v, want 0.1", out.ARSConviction)
	}
	if out.ARSScore != out.ARSConviction {
		t.Fatalf("ARSScore = %v, want it equal to ARSConviction %v", out.ARSScore, out.ARSConviction)
	}
	// A 46% move from entry is fair, not late.
	if out.EntryQuality != models.EntryFair {
		t.Fatalf("EntryQuality = %s, want fair", out.EntryQuality)
	}
	if out.Regime != models.RegimeCalm || out.RegimeMult != 1.0 {
		t.Fatalf("Regime = %s (mult %v), want calm/1.0", out.Regime, out.RegimeMult)
	}
	if math.Abs(out.ExpectedEdge-(-0.46)) > 1e-9 {
		t.Fatalf("ExpectedEdge = %v, want -0.46", out.ExpectedEdge)
	}
	cfg := s.Config()
	if out.RecommendedSize < cfg.MinPositionSize || out.RecommendedSize > cfg.MaxPositionSize {
		t.Fatalf("RecommendedSize %v outside [%v, %v]", out.RecommendedSize, cfg.MinPositionSize, cfg.MaxPositionSize)
	}
	if math.Abs(out.RecommendedSize-0.01) > 1e-9 {
		t.Fatalf("RecommendedSize = %v, want 0.01 at low conviction", out.RecommendedSize)
	}
}

func TestProcessSignalFiltersWhaleBeforeAggregates(t *testing.T) {
	s := newTestStabilizer(t, stubResolver{})

	positions := []models.SupportingPosition{
		{Wallet: "w1", Size: 100, Shares: 250, AvgPrice: 0.40},
		{Wallet: "w2", Size: 100, Shares: 250, AvgPrice: 0.40},
		{Wallet: "w3", Size: 100, Shares: 250, AvgPrice: 0.40},
		{Wallet: "w4", Size: 100, Shares: 250, AvgPrice: 0.40},
		{Wallet: "whale", Size: 10000, Shares: 25000, AvgPrice: 0.40},
	}
	raw := &models.RawSignal{
		MarketID:     "mkt-2",
		Direction:    models.DirectionNo,
		Positions:    positions,
		PriceHistory: flatPrices(0.40, 4),
		CurrentPrice: 0.42,
		Exposure:     0,
	}

	out, err := s.ProcessSignal(raw)
	if err != nil {
		t.Fatalf("ProcessSignal: %v", err)
	}
	if out.OutliersRemoved != 1 || out.NumTraders != 4 {
		t.Fatalf("removed=%d traders=%d, want 1/4", out.OutliersRemoved, out.NumTraders)
	}
	if out.TotalSize != 400 {
		t.Fatalf("TotalSize = %v, want 400 after dropping the whale", out.TotalSize)
	}
	if out.RawConviction != 0.4 {
		t.Fatalf("RawConviction = %v, want 4/10 from survivors only", out.RawConviction)
	}
	for _, w := range out.Traders {
		if w == "whale" {
			t.Fatalf("whale wallet survived into Traders: %v", out.Traders)
		}
	}
	if out.EntryQuality != models.EntryGood {
		t.Fatalf("EntryQuality = %s, want good at a 5%% move", out.EntryQuality)
	}
}

func TestProcessSignalConvictionCappedAtOne(t *testing.T) {
	guard := NewDrawdownGuard(DefaultConfig())
	s, err := NewStabilizer(DefaultConfig(), 2, guard, stubResolver{})
	if err != nil {
		t.Fatalf("NewStabilizer: %v", err)
	}

	raw := &models.RawSignal{
		MarketID:  "mkt-3",
		Direction: models.DirectionYes,
		Positions: []models.SupportingPosition{
			{Wallet: "w1", Size: 100, Shares: 200, AvgPrice: 0.50},
			{Wallet: "w2", Size: 100, Shares: 200, AvgPrice: 0.50},
			{Wallet: "w3", Size: 100, Shares: 200, AvgPrice: 0.50},
		},
		PriceHistory: flatPrices(0.50, 3),
		CurrentPrice: 0.52,
	}
	out, err := s.ProcessSignal(raw)
	if err != nil {
		t.Fatalf("ProcessSignal: %v", err)
	}
	if out.RawConviction != 1.0 {
		t.Fatalf("RawConviction = %v, want capped at 1.0", out.RawConviction)
	}
}

func TestProcessSignalConsistencyWeightsConviction(t *testing.T) {
	stable := models.TraderRecord{
		Wallet:         "w1",
		WinRateHistory: flatPrices(0.6, 30),
		ReturnHistory:  flatPrices(0.1, 30),
	}
	resolver := stubResolver{"w1": stable, "w2": stable}
	weighted := newTestStabilizer(t, resolver)
	neutral := newTestStabilizer(t, stubResolver{})

	raw := &models.RawSignal{
		MarketID:  "mkt-4",
		Direction: models.DirectionYes,
		Positions: []models.SupportingPosition{
			{Wallet: "w1", Size: 500, Shares: 1000, AvgPrice: 0.50},
			{Wallet: "w2", Size: 500, Shares: 1000, AvgPrice: 0.50},
		},
		PriceHistory: flatPrices(0.50, 5),
		CurrentPrice: 0.55,
	}
	a, err := weighted.ProcessSignal(raw)
	if err != nil {
		t.Fatalf("ProcessSignal: %v", err)
	}
	b, err := neutral.ProcessSignal(raw)
	if err != nil {
		t.Fatalf("ProcessSignal: %v", err)
	}
	if a.ARSConviction <= b.ARSConviction {
		t.Fatalf("consistent traders conviction %v should exceed neutral %v", a.ARSConviction, b.ARSConviction)
	}
	if a.RecommendedSize < b.RecommendedSize {
		t.Fatalf("consistent traders size %v should not be below neutral %v", a.RecommendedSize, b.RecommendedSize)
	}
}

func TestProcessSignalDeterministic(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	s := newTestStabilizer(t, stubResolver{}, WithClock(func() time.Time { return at }))

	raw := &models.RawSignal{
		MarketID:  "mkt-5",
		Direction: models.DirectionYes,
		Positions: []models.SupportingPosition{
			{Wallet: "w1", Size: 300, Shares: 600, AvgPrice: 0.50},
			{Wallet: "w2", Size: 200, Shares: 400, AvgPrice: 0.50},
		},
		PriceHistory: []float64{0.48, 0.49, 0.50, 0.51, 0.52},
		CurrentPrice: 0.52,
	}
	first, err := s.ProcessSignal(raw)
	if err != nil {
		t.Fatalf("ProcessSignal: %v", err)
	}
	second, err := s.ProcessSignal(raw)
	if err != nil {
		t.Fatalf("ProcessSignal: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input produced different outputs:\n%+v\n%+v", first, second)
	}
	if !first.GeneratedAt.Equal(at) {
		t.Fatalf("GeneratedAt = %v, want %v", first.GeneratedAt, at)
	}
	if !first.ExpiresAt.Equal(at.Add(24 * time.Hour)) {
		t.Fatalf("ExpiresAt = %v, want 24h after generation", first.ExpiresAt)
	}
}

func TestProcessSignalDrawdownReducesSize(t *testing.T) {
	guard := NewDrawdownGuard(DefaultConfig())
	s, err := NewStabilizer(DefaultConfig(), 10, guard, stubResolver{})
	if err != nil {
		t.Fatalf("NewStabilizer: %v", err)
	}

	raw := &models.RawSignal{
		MarketID:  "mkt-6",
		Direction: models.DirectionYes,
		Positions: []models.SupportingPosition{
			{Wallet: "w1", Size: 500, Shares: 1000, AvgPrice: 0.50},
			{Wallet: "w2", Size: 500, Shares: 1000, AvgPrice: 0.50},
			{Wallet: "w3", Size: 500, Shares: 1000, AvgPrice: 0.50},
			{Wallet: "w4", Size: 500, Shares: 1000, AvgPrice: 0.50},
			{Wallet: "w5", Size: 500, Shares: 1000, AvgPrice: 0.50},
		},
		PriceHistory: flatPrices(0.50, 5),
		CurrentPrice: 0.52,
	}
	before, err := s.ProcessSignal(raw)
	if err != nil {
		t.Fatalf("ProcessSignal: %v", err)
	}

	guard.RecordOutcome(-0.12)
	after, err := s.ProcessSignal(raw)
	if err != nil {
		t.Fatalf("ProcessSignal: %v", err)
	}
	if after.RecommendedSize >= before.RecommendedSize {
		t.Fatalf("size under drawdown %v should be below %v", after.RecommendedSize, before.RecommendedSize)
	}
}

func TestProcessSignalRejectsInvalidInput(t *testing.T) {
	s := newTestStabilizer(t, stubResolver{})

	valid := func() *models.RawSignal {
		return &models.RawSignal{
			MarketID:  "mkt-7",
			Direction: models.DirectionYes,
			Positions: []models.SupportingPosition{
				{Wallet: "w1", Size: 100, Shares: 200, AvgPrice: 0.50},
				{Wallet: "w2", Size: 100, Shares: 200, AvgPrice: 0.50},
			},
			PriceHistory: flatPrices(0.50, 3),
			CurrentPrice: 0.50,
		}
	}

	tests := []struct {
		name   string
		mutate func(*models.RawSignal) *models.RawSignal
	}{
		{"nil signal", func(*models.RawSignal) *models.RawSignal { return nil }},
		{"empty market id", func(r *models.RawSignal) *models.RawSignal { r.MarketID = ""; return r }},
		{"bad direction", func(r *models.RawSignal) *models.RawSignal { r.Direction = "maybe"; return r }},
		{"no positions", func(r *models.RawSignal) *models.RawSignal { r.Positions = nil; return r }},
		{"price at zero", func(r *models.RawSignal) *models.RawSignal { r.CurrentPrice = 0; return r }},
		{"price at one", func(r *models.RawSignal) *models.RawSignal { r.CurrentPrice = 1; return r }},
		{"history out of range", func(r *models.RawSignal) *models.RawSignal { r.PriceHistory[1] = 1.5; return r }},
		{"negative position size", func(r *models.RawSignal) *models.RawSignal { r.Positions[0].Size = -5; return r }},
		{"zero shares everywhere", func(r *models.RawSignal) *models.RawSignal {
			for i := range r.Positions {
				r.Positions[i].Shares = 0
			}
			return r
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ProcessSignal(tt.mutate(valid()))
			if !errors.Is(err, ErrInvalidSignal) {
				t.Fatalf("err = %v, want ErrInvalidSignal", err)
			}
		})
	}
}

func TestNewStabilizerRejectsBadWiring(t *testing.T) {
	guard := NewDrawdownGuard(DefaultConfig())

	bad := DefaultConfig()
	bad.MinPositionSize = 0
	if _, err := NewStabilizer(bad, 10, guard, stubResolver{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("invalid config err = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewStabilizer(DefaultConfig(), 0, guard, stubResolver{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("zero pool size err = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewStabilizer(DefaultConfig(), 10, nil, stubResolver{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("nil guard err = %v, want ErrInvalidConfig", err)
	}
}
