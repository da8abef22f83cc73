package repository

import (
	"sync"

	"ARSPull/internal/domain/models"
	domrepo "ARSPull/internal/domain/repository"
)

// MemoryPriceBook keeps a bounded chronological price history per market.
// Writes come from the tick pipeline, reads from signal building; both are
// frequent, so the window is copied out under the lock.
type MemoryPriceBook struct {
	mu      sync.RWMutex
	maxSize int
	books   map[string][]float64
	last    map[string]float64
}

// NewMemoryPriceBook creates a book holding up to maxSize points per market.
func NewMemoryPriceBook(maxSize int) domrepo.PriceBook {
	if maxSize < 2 {
		maxSize = 2
	}
	return &MemoryPriceBook{
		maxSize: maxSize,
		books:   make(map[string][]float64),
		last:    make(map[string]float64),
	}
}

func (b *MemoryPriceBook) Append(tick *models.PriceTick) {
	if tick == nil || tick.MarketID == "" || tick.Price <= 0 || tick.Price >= 1 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	hist := append(b.books[tick.MarketID], tick.Price)
	if len(hist) > b.maxSize {
		hist = hist[len(hist)-b.maxSize:]
	}
	b.books[tick.MarketID] = hist
	b.last[tick.MarketID] = tick.Price
}

func (b *MemoryPriceBook) History(marketID string) []float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hist := b.books[marketID]
	out := make([]float64, len(hist))
	copy(out, hist)
	return out
}

func (b *MemoryPriceBook) LastPrice(marketID string) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.last[marketID]
	return p, ok
}
