package ars

import (
	"math"
	"testing"

	"ARSPull/internal/domain/models"
)

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestConsistencyScoreInsufficientHistory(t *testing.T) {
	s := NewConsistencyScorer(DefaultConfig()) // min 20 trades

	rec := models.TraderRecord{
		Wallet:         "w1",
		WinRateHistory: repeat(0.6, 5),
		ReturnHistory:  repeat(0.1, 5),
	}
	if got := s.Score(rec); got != 0.5 {
		t.Fatalf("Score with 5 trades = %v, want neutral 0.5", got)
	}
}

func TestConsistencyScoreStableWinner(t *testing.T) {
	s := NewConsistencyScorer(DefaultConfig())

	rec := models.TraderRecord{
		Wallet:         "w1",
		WinRateHistory: repeat(0.6, 20),
		ReturnHistory:  repeat(0.1, 20),
	}
	// Both stability factors hit 1.0; recency is sigmoid(0.1*10) ~ 0.7311.
	want := 0.40 + 0.35 + 0.25*(1/(1+math.Exp(-1)))
	got := s.Score(rec)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("Score = %v, want %v", got, want)
	}
}

func TestConsistencyScoreLosingTraderReturnStabilityZero(t *testing.T) {
	s := NewConsistencyScorer(DefaultConfig())

	rec := models.TraderRecord{
		Wallet:         "w1",
		WinRateHistory: repeat(0.5, 20),
		ReturnHistory:  repeat(-0.1, 20),
	}
	// Win-rate stability 1.0, return stability 0, recency sigmoid(-1).
	want := 0.40 + 0.25*(1/(1+math.Exp(1)))
	got := s.Score(rec)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("Score = %v, want %v", got, want)
	}
}

func TestConsistencyScoreStableBeatsErratic(t *testing.T) {
	s := NewConsistencyScorer(DefaultConfig())

	stable := models.TraderRecord{
		WinRateHistory: repeat(0.6, 20),
		ReturnHistory:  repeat(0.05, 20),
	}
	erratic := models.TraderRecord{
		WinRateHistory: []float64{0.9, 0.1, 0.9, 0.1, 0.9, 0.1, 0.9, 0.1, 0.9, 0.1, 0.9, 0.1, 0.9, 0.1, 0.9, 0.1, 0.9, 0.1, 0.9, 0.1},
		ReturnHistory:  []float64{0.5, -0.4, 0.5, -0.4, 0.5, -0.4, 0.5, -0.4, 0.5, -0.4, 0.5, -0.4, 0.5, -0.4, 0.5, -0.4, 0.5, -0.4, 0.5, -0.4},
	}
	if s.Score(stable) <= s.Score(erratic) {
		t.Fatalf("stable trader %v should outscore erratic trader %v", s.Score(stable), s.Score(erratic))
	}
}

func TestConsistencyScoreRecencyWeighting(t *testing.T) {
	s := NewConsistencyScorer(DefaultConfig())

	// Same return multiset; the improving trader has wins most recent.
	improving := models.TraderRecord{
		WinRateHistory: repeat(0.5, 20),
		ReturnHistory:  append(repeat(-0.1, 10), repeat(0.1, 10)...),
	}
	declining := models.TraderRecord{
		WinRateHistory: repeat(0.5, 20),
		ReturnHistory:  append(repeat(0.1, 10), repeat(-0.1, 10)...),
	}
	if s.Score(improving) <= s.Score(declining) {
		t.Fatalf("improving trader %v should outscore declining trader %v", s.Score(improving), s.Score(declining))
	}
}

func TestConsistencyScoreBounds(t *testing.T) {
	s := NewConsistencyScorer(DefaultConfig())

	records := []models.TraderRecord{
		{WinRateHistory: repeat(1.0, 50), ReturnHistory: repeat(2.0, 50)},
		{WinRateHistory: repeat(0.0, 50), ReturnHistory: repeat(-2.0, 50)},
		{WinRateHistory: []float64{0, 1, 0, 1}, ReturnHistory: repeat(0.0, 25)},
	}
	for i, rec := range records {
		got := s.Score(rec)
		if got < 0 || got > 1 {
			t.Fatalf("record %d: Score = %v outside [0,1]", i, got)
		}
	}
}
