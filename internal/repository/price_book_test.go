package repository

import (
	"testing"

	"ARSPull/internal/domain/models"
)

func tick(marketID string, price float64) *models.PriceTick {
	return &models.PriceTick{MarketID: marketID, Price: price, Timestamp: 1756500000}
}

func TestPriceBookAppendAndHistory(t *testing.T) {
	b := NewMemoryPriceBook(10)
	b.Append(tick("m1", 0.40))
	b.Append(tick("m1", 0.42))
	b.Append(tick("m2", 0.70))

	hist := b.History("m1")
	if len(hist) != 2 || hist[0] != 0.40 || hist[1] != 0.42 {
		t.Fatalf("m1 history %v, want [0.40 0.42]", hist)
	}
	if p, ok := b.LastPrice("m1"); !ok || p != 0.42 {
		t.Fatalf("m1 last price %v %v, want 0.42 true", p, ok)
	}
	if p, ok := b.LastPrice("m2"); !ok || p != 0.70 {
		t.Fatalf("m2 last price %v %v, want 0.70 true", p, ok)
	}
	if _, ok := b.LastPrice("missing"); ok {
		t.Fatal("unknown market reported a last price")
	}
}

func TestPriceBookTrimsToWindow(t *testing.T) {
	b := NewMemoryPriceBook(3)
	for _, p := range []float64{0.10, 0.20, 0.30, 0.40, 0.50} {
		b.Append(tick("m1", p))
	}
	hist := b.History("m1")
	if len(hist) != 3 {
		t.Fatalf("history length %d, want 3", len(hist))
	}
	if hist[0] != 0.30 || hist[2] != 0.50 {
		t.Fatalf("history %v, want oldest entries dropped", hist)
	}
}

func TestPriceBookIgnoresInvalidTicks(t *testing.T) {
	b := NewMemoryPriceBook(10)
	b.Append(nil)
	b.Append(tick("", 0.40))
	b.Append(tick("m1", 0))
	b.Append(tick("m1", 1))
	b.Append(tick("m1", 1.5))

	if hist := b.History("m1"); len(hist) != 0 {
		t.Fatalf("invalid ticks were recorded: %v", hist)
	}
}

func TestPriceBookHistoryIsCopy(t *testing.T) {
	b := NewMemoryPriceBook(10)
	b.Append(tick("m1", 0.40))

	hist := b.History("m1")
	hist[0] = 0.99
	if got := b.History("m1"); got[0] != 0.40 {
		t.Fatalf("caller mutation leaked into the book: %v", got)
	}
}
