package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"ARSPull/internal/domain/models"
	domrepo "ARSPull/internal/domain/repository"
	applogger "ARSPull/pkg/logger"
)

// CachedTraderDirectory resolves trader history snapshots for consistency
// scoring. Leaderboard records are pushed in by the collector; per-wallet
// histories are derived lazily from the trader's positions and cached.
type CachedTraderDirectory struct {
	data domrepo.MarketData
	l    *applogger.Logger
	ttl  time.Duration

	mu      sync.RWMutex
	records map[string]cachedRecord
}

type cachedRecord struct {
	rec models.TraderRecord
	exp time.Time
}

// NewCachedTraderDirectory creates a directory with the given history TTL.
func NewCachedTraderDirectory(data domrepo.MarketData, l *applogger.Logger, ttl time.Duration) *CachedTraderDirectory {
	return &CachedTraderDirectory{
		data:    data,
		l:       l,
		ttl:     ttl,
		records: make(map[string]cachedRecord),
	}
}

// SetLeaderboard seeds base records (rank, PnL, volume) from a leaderboard
// refresh. History fields of an existing fresh entry are preserved.
func (d *CachedTraderDirectory) SetLeaderboard(records []models.TraderRecord) {
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, rec := range records {
		if prev, ok := d.records[rec.Wallet]; ok && now.Before(prev.exp) {
			rec.WinRateHistory = prev.rec.WinRateHistory
			rec.ReturnHistory = prev.rec.ReturnHistory
			rec.WinRate = prev.rec.WinRate
		}
		d.records[rec.Wallet] = cachedRecord{rec: rec, exp: now.Add(d.ttl)}
	}
}

// Record returns the trader's snapshot, deriving history from positions on
// a cache miss. A failed fetch degrades to the base record; the scorer
// treats missing history as neutral.
func (d *CachedTraderDirectory) Record(ctx context.Context, wallet string) (models.TraderRecord, bool) {
	d.mu.RLock()
	cached, ok := d.records[wallet]
	d.mu.RUnlock()

	now := time.Now()
	if ok && now.Before(cached.exp) && len(cached.rec.ReturnHistory) > 0 {
		return cached.rec, true
	}

	rec := cached.rec
	if !ok {
		rec = models.TraderRecord{Wallet: wallet}
	}

	positions, err := d.data.Positions(ctx, wallet)
	if err != nil {
		if d.l != nil {
			d.l.Warn("trader history fetch failed", applogger.String("wallet", wallet), applogger.Error(err))
		}
		return rec, ok
	}
	buildHistory(&rec, positions)

	d.mu.Lock()
	d.records[wallet] = cachedRecord{rec: rec, exp: now.Add(d.ttl)}
	d.mu.Unlock()
	return rec, true
}

// Resolve satisfies the stabilizer's resolver contract. Resolution hits the
// cache in the common case; a cold miss fetches with a short deadline so one
// slow wallet cannot stall a full processing cycle.
func (d *CachedTraderDirectory) Resolve(wallet string) (models.TraderRecord, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.Record(ctx, wallet)
}

// buildHistory derives per-trade returns and a rolling win rate from the
// trader's positions, oldest-first by market id for a stable order.
func buildHistory(rec *models.TraderRecord, positions []models.MarketPosition) {
	sorted := make([]models.MarketPosition, len(positions))
	copy(sorted, positions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MarketID < sorted[j].MarketID })

	returns := make([]float64, 0, len(sorted))
	winRates := make([]float64, 0, len(sorted))
	wins, seen := 0, 0
	for _, p := range sorted {
		cost := p.AvgPrice * p.Shares
		if cost <= 0 {
			continue
		}
		seen++
		returns = append(returns, p.PnL/cost)
		if p.PnL > 0 {
			wins++
		}
		winRates = append(winRates, float64(wins)/float64(seen))
	}
	rec.ReturnHistory = returns
	rec.WinRateHistory = winRates
	if n := len(winRates); n > 0 {
		rec.WinRate = winRates[n-1]
	}
}
