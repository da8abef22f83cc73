package usecase

import (
	"math"
	"testing"

	"ARSPull/internal/domain/models"
)

type stubBook struct {
	hist map[string][]float64
	last map[string]float64
}

func (b *stubBook) Append(*models.PriceTick) {}

func (b *stubBook) History(id string) []float64 { return b.hist[id] }

func (b *stubBook) LastPrice(id string) (float64, bool) {
	p, ok := b.last[id]
	return p, ok
}

func position(marketID string, dir models.Direction, value, current float64) models.MarketPosition {
	return models.MarketPosition{
		MarketID:     marketID,
		MarketTitle:  "title " + marketID,
		Outcome:      dir,
		Shares:       value / 0.5,
		AvgPrice:     0.5,
		CurrentPrice: current,
		CurrentValue: value,
	}
}

func TestBuildRequiresConsensus(t *testing.T) {
	b := NewConsensusBuilder(&stubBook{}, 2, 0, 0)

	signals := b.Build(map[string][]models.MarketPosition{
		"0xaaa": {position("m1", models.DirectionYes, 1000, 0.40)},
	}, 0)
	if len(signals) != 0 {
		t.Fatalf("single wallet produced %d signals, want 0", len(signals))
	}

	signals = b.Build(map[string][]models.MarketPosition{
		"0xaaa": {position("m1", models.DirectionYes, 1000, 0.40)},
		"0xbbb": {position("m1", models.DirectionYes, 2000, 0.40)},
	}, 0)
	if len(signals) != 1 {
		t.Fatalf("two wallets produced %d signals, want 1", len(signals))
	}
	sig := signals[0]
	if sig.MarketID != "m1" || sig.Direction != models.DirectionYes {
		t.Fatalf("unexpected signal %s/%s", sig.MarketID, sig.Direction)
	}
	if len(sig.Positions) != 2 {
		t.Fatalf("got %d supporting positions, want 2", len(sig.Positions))
	}
	if sig.CurrentPrice != 0.40 {
		t.Fatalf("current price %.2f, want 0.40", sig.CurrentPrice)
	}
}

func TestBuildRequiresConviction(t *testing.T) {
	// Two of ten wallets agree: 20% conviction, below the 30% floor.
	b := NewConsensusBuilder(&stubBook{}, 2, 0.3, 0)
	byWallet := map[string][]models.MarketPosition{
		"0xaaa": {position("m1", models.DirectionYes, 1000, 0.40)},
		"0xbbb": {position("m1", models.DirectionYes, 2000, 0.40)},
	}
	for _, w := range []string{"0xc", "0xd", "0xe", "0xf", "0xg", "0xh", "0xi", "0xj"} {
		byWallet[w] = nil
	}
	if signals := b.Build(byWallet, 0); len(signals) != 0 {
		t.Fatalf("20%% conviction produced %d signals, want 0", len(signals))
	}

	// Same agreement over a cohort of four clears the floor.
	b2 := NewConsensusBuilder(&stubBook{}, 2, 0.3, 0)
	if signals := b2.Build(map[string][]models.MarketPosition{
		"0xaaa": {position("m1", models.DirectionYes, 1000, 0.40)},
		"0xbbb": {position("m1", models.DirectionYes, 2000, 0.40)},
		"0xccc": nil,
		"0xddd": nil,
	}, 0); len(signals) != 1 {
		t.Fatalf("50%% conviction produced %d signals, want 1", len(signals))
	}
}

func TestBuildSplitsDirections(t *testing.T) {
	// Two wallets on yes, two on no: same market, two separate candidates.
	b := NewConsensusBuilder(&stubBook{}, 2, 0, 0)
	signals := b.Build(map[string][]models.MarketPosition{
		"0xaaa": {position("m1", models.DirectionYes, 1000, 0.40)},
		"0xbbb": {position("m1", models.DirectionYes, 1000, 0.40)},
		"0xccc": {position("m1", models.DirectionNo, 1000, 0.60)},
		"0xddd": {position("m1", models.DirectionNo, 1000, 0.60)},
	}, 0)
	if len(signals) != 2 {
		t.Fatalf("got %d signals, want 2", len(signals))
	}
}

func TestBuildSkipsResolvedMarkets(t *testing.T) {
	b := NewConsensusBuilder(&stubBook{}, 2, 0, 0)
	signals := b.Build(map[string][]models.MarketPosition{
		"0xaaa": {position("m1", models.DirectionYes, 1000, 0.985)},
		"0xbbb": {position("m1", models.DirectionYes, 2000, 0.985)},
	}, 0)
	if len(signals) != 0 {
		t.Fatalf("near-resolved market produced %d signals, want 0", len(signals))
	}
}

func TestBuildDropsDustPositions(t *testing.T) {
	b := NewConsensusBuilder(&stubBook{}, 2, 0, 0)
	signals := b.Build(map[string][]models.MarketPosition{
		"0xaaa": {position("m1", models.DirectionYes, 50, 0.40)}, // dust
		"0xbbb": {position("m1", models.DirectionYes, 2000, 0.40)},
	}, 0)
	if len(signals) != 0 {
		t.Fatalf("dust position counted toward consensus: %d signals", len(signals))
	}
}

func TestBuildOnePositionPerWalletPerSide(t *testing.T) {
	b := NewConsensusBuilder(&stubBook{}, 2, 0, 0)
	signals := b.Build(map[string][]models.MarketPosition{
		"0xaaa": {
			position("m1", models.DirectionYes, 1000, 0.40),
			position("m1", models.DirectionYes, 3000, 0.40),
		},
		"0xbbb": {position("m1", models.DirectionYes, 2000, 0.40)},
	}, 0)
	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(signals))
	}
	if len(signals[0].Positions) != 2 {
		t.Fatalf("got %d supporting positions, want 2 (one per wallet)", len(signals[0].Positions))
	}
}

func TestBuildPrefersBookPrice(t *testing.T) {
	book := &stubBook{
		hist: map[string][]float64{"m1": {0.40, 0.42, 0.45}},
		last: map[string]float64{"m1": 0.45},
	}
	b := NewConsensusBuilder(book, 2, 0, 0)
	signals := b.Build(map[string][]models.MarketPosition{
		"0xaaa": {position("m1", models.DirectionYes, 1000, 0.40)},
		"0xbbb": {position("m1", models.DirectionYes, 2000, 0.40)},
	}, 0.1)
	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(signals))
	}
	sig := signals[0]
	if sig.CurrentPrice != 0.45 {
		t.Fatalf("current price %.2f, want live book price 0.45", sig.CurrentPrice)
	}
	if len(sig.PriceHistory) != 3 {
		t.Fatalf("history length %d, want 3", len(sig.PriceHistory))
	}
	if sig.Exposure != 0.1 {
		t.Fatalf("exposure %.2f, want 0.1", sig.Exposure)
	}
}

func TestBuildSortsAndCaps(t *testing.T) {
	// All three markets have full conviction, so supporting capital decides
	// the order; the cap keeps the two largest.
	b := NewConsensusBuilder(&stubBook{}, 2, 0, 2)
	byWallet := map[string][]models.MarketPosition{
		"0xaaa": {
			position("small", models.DirectionYes, 200, 0.40),
			position("big", models.DirectionYes, 5000, 0.40),
			position("mid", models.DirectionYes, 1000, 0.40),
		},
		"0xbbb": {
			position("small", models.DirectionYes, 200, 0.40),
			position("big", models.DirectionYes, 5000, 0.40),
			position("mid", models.DirectionYes, 1000, 0.40),
		},
	}
	signals := b.Build(byWallet, 0)
	if len(signals) != 2 {
		t.Fatalf("got %d signals, want cap of 2", len(signals))
	}
	if signals[0].MarketID != "big" || signals[1].MarketID != "mid" {
		t.Fatalf("got order [%s %s], want [big mid]", signals[0].MarketID, signals[1].MarketID)
	}
}

func TestScoreTradersCapsAndWeights(t *testing.T) {
	b := NewConsensusBuilder(&stubBook{}, 2, 0, 0)
	scores := b.ScoreTraders([]models.TraderRecord{
		{Wallet: "0xcapped", PnL: 250_000, Volume: 1_000_000, Efficiency: 0.25},
		{Wallet: "0xmid", PnL: 50_000, Volume: 1_000_000, Efficiency: 0.05},
	})
	if len(scores) != 2 {
		t.Fatalf("got %d scores, want 2", len(scores))
	}
	// Both components saturate at their caps: 0.4*1 + 0.6*1.
	if math.Abs(scores[0].FinalScore-1.0) > 1e-12 {
		t.Fatalf("capped score %.6f, want 1.0", scores[0].FinalScore)
	}
	// 0.4*(50k/100k) + 0.6*(0.05/0.10) = 0.5
	if scores[1].Wallet != "0xmid" || math.Abs(scores[1].FinalScore-0.5) > 1e-12 {
		t.Fatalf("mid score %+v, want 0.5", scores[1])
	}
}

func TestScoreTradersDropsBelowPnLFloor(t *testing.T) {
	b := NewConsensusBuilder(&stubBook{}, 2, 0, 0)
	scores := b.ScoreTraders([]models.TraderRecord{
		{Wallet: "0xsmall", PnL: 9_999, Volume: 100_000, Efficiency: 0.09},
		{Wallet: "0xbig", PnL: 80_000, Volume: 1_000_000, Efficiency: 0.08},
	})
	if len(scores) != 1 || scores[0].Wallet != "0xbig" {
		t.Fatalf("scores %+v, want only 0xbig", scores)
	}
}

func TestScoreTradersEfficiencyOutweighsPnL(t *testing.T) {
	// Equal capped PnL; the more efficient trader must rank first.
	b := NewConsensusBuilder(&stubBook{}, 2, 0, 0)
	scores := b.ScoreTraders([]models.TraderRecord{
		{Wallet: "0xchurner", PnL: 100_000, Volume: 10_000_000, Efficiency: 0.01},
		{Wallet: "0xefficient", PnL: 100_000, Volume: 1_250_000, Efficiency: 0.08},
	})
	if scores[0].Wallet != "0xefficient" {
		t.Fatalf("got order [%s %s], want 0xefficient first", scores[0].Wallet, scores[1].Wallet)
	}
}
