package repository

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"ARSPull/internal/domain/models"
)

type stubMarketData struct {
	positions map[string][]models.MarketPosition
	err       error
	calls     int
}

func (s *stubMarketData) Leaderboard(_ context.Context, _ int) ([]models.TraderRecord, error) {
	return nil, nil
}

func (s *stubMarketData) Positions(_ context.Context, wallet string) ([]models.MarketPosition, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.positions[wallet], nil
}

func TestDirectoryDerivesHistoryFromPositions(t *testing.T) {
	data := &stubMarketData{positions: map[string][]models.MarketPosition{
		"0xaaa": {
			{MarketID: "m1", Shares: 100, AvgPrice: 0.5, PnL: 25},  // +50% return, win
			{MarketID: "m2", Shares: 100, AvgPrice: 0.5, PnL: -10}, // -20% return, loss
		},
	}}
	d := NewCachedTraderDirectory(data, nil, time.Minute)

	rec, ok := d.Record(context.Background(), "0xaaa")
	if !ok {
		t.Fatal("expected a resolved record")
	}
	if len(rec.ReturnHistory) != 2 {
		t.Fatalf("return history %v, want 2 entries", rec.ReturnHistory)
	}
	if math.Abs(rec.ReturnHistory[0]-0.5) > 1e-12 || math.Abs(rec.ReturnHistory[1]-(-0.2)) > 1e-12 {
		t.Fatalf("returns %v, want [0.5 -0.2]", rec.ReturnHistory)
	}
	if math.Abs(rec.WinRate-0.5) > 1e-12 {
		t.Fatalf("win rate %.4f, want 0.5", rec.WinRate)
	}
}

func TestDirectorySkipsZeroCostPositions(t *testing.T) {
	data := &stubMarketData{positions: map[string][]models.MarketPosition{
		"0xaaa": {
			{MarketID: "m1", Shares: 0, AvgPrice: 0.5, PnL: 25},
			{MarketID: "m2", Shares: 100, AvgPrice: 0.5, PnL: 10},
		},
	}}
	d := NewCachedTraderDirectory(data, nil, time.Minute)

	rec, _ := d.Record(context.Background(), "0xaaa")
	if len(rec.ReturnHistory) != 1 {
		t.Fatalf("return history %v, want the zero-cost position skipped", rec.ReturnHistory)
	}
	if rec.WinRate != 1.0 {
		t.Fatalf("win rate %.4f, want 1.0 over the single priced trade", rec.WinRate)
	}
}

func TestDirectoryCachesWithinTTL(t *testing.T) {
	data := &stubMarketData{positions: map[string][]models.MarketPosition{
		"0xaaa": {{MarketID: "m1", Shares: 100, AvgPrice: 0.5, PnL: 10}},
	}}
	d := NewCachedTraderDirectory(data, nil, time.Hour)

	d.Record(context.Background(), "0xaaa")
	d.Record(context.Background(), "0xaaa")
	if data.calls != 1 {
		t.Fatalf("positions fetched %d times, want 1 (cached)", data.calls)
	}
}

func TestDirectoryDegradesOnFetchFailure(t *testing.T) {
	data := &stubMarketData{err: errors.New("api down")}
	d := NewCachedTraderDirectory(data, nil, time.Minute)

	d.SetLeaderboard([]models.TraderRecord{{Wallet: "0xaaa", Rank: 1, PnL: 1000}})

	rec, ok := d.Record(context.Background(), "0xaaa")
	if !ok {
		t.Fatal("leaderboard-seeded record should still resolve")
	}
	if rec.Rank != 1 || rec.PnL != 1000 {
		t.Fatalf("base record lost on degraded fetch: %+v", rec)
	}
	if len(rec.ReturnHistory) != 0 {
		t.Fatalf("unexpected history on failed fetch: %v", rec.ReturnHistory)
	}

	// An unknown wallet with a failed fetch resolves to nothing.
	if _, ok := d.Record(context.Background(), "0xmissing"); ok {
		t.Fatal("unknown wallet resolved despite fetch failure")
	}
}

func TestDirectoryLeaderboardPreservesFreshHistory(t *testing.T) {
	data := &stubMarketData{positions: map[string][]models.MarketPosition{
		"0xaaa": {{MarketID: "m1", Shares: 100, AvgPrice: 0.5, PnL: 10}},
	}}
	d := NewCachedTraderDirectory(data, nil, time.Hour)

	d.Record(context.Background(), "0xaaa")
	d.SetLeaderboard([]models.TraderRecord{{Wallet: "0xaaa", Rank: 3, PnL: 2000}})

	rec, _ := d.Record(context.Background(), "0xaaa")
	if rec.Rank != 3 || rec.PnL != 2000 {
		t.Fatalf("leaderboard refresh lost: %+v", rec)
	}
	if len(rec.ReturnHistory) != 1 {
		t.Fatalf("history dropped by leaderboard refresh: %v", rec.ReturnHistory)
	}
	if data.calls != 1 {
		t.Fatalf("positions fetched %d times, want 1", data.calls)
	}
}
