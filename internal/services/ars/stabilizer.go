package ars

import (
	"fmt"
	"time"

	"ARSPull/internal/domain/models"
)

// signalTTL bounds how long a processed signal stays actionable.
const signalTTL = 24 * time.Hour

// TraderResolver supplies history snapshots for supporting traders. A
// missing record scores neutral, same as a trader with too few trades.
type TraderResolver interface {
	Resolve(wallet string) (models.TraderRecord, bool)
}

// Stabilizer composes the adaptive-risk pipeline: outlier filtering,
// consistency weighting, regime detection, entry classification, and
// drawdown-aware sizing. ProcessSignal is a pure transformation of its
// inputs aside from one read of the shared drawdown state, so independent
// signals can be processed concurrently.
type Stabilizer struct {
	cfg      Config
	poolSize int

	outliers *OutlierFilter
	scorer   *ConsistencyScorer
	regimes  *RegimeDetector
	entries  *EntryClassifier
	sizer    *PositionSizer
	guard    *DrawdownGuard
	traders  TraderResolver

	now func() time.Time
}

// StabilizerOption configures a Stabilizer.
type StabilizerOption func(*Stabilizer)

// WithClock injects a clock for deterministic output timestamps.
func WithClock(now func() time.Time) StabilizerOption {
	return func(s *Stabilizer) { s.now = now }
}

// NewStabilizer validates the configuration once and fails fast on any
// violation. poolSize is the size of the analyzed top-trader pool that raw
// conviction is measured against.
func NewStabilizer(cfg Config, poolSize int, guard *DrawdownGuard, traders TraderResolver, opts ...StabilizerOption) (*Stabilizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if poolSize < 1 {
		return nil, fmt.Errorf("trader pool size %d must be >= 1: %w", poolSize, ErrInvalidConfig)
	}
	if guard == nil {
		return nil, fmt.Errorf("drawdown guard is required: %w", ErrInvalidConfig)
	}
	s := &Stabilizer{
		cfg:      cfg,
		poolSize: poolSize,
		outliers: NewOutlierFilter(cfg),
		scorer:   NewConsistencyScorer(cfg),
		regimes:  NewRegimeDetector(cfg),
		entries:  NewEntryClassifier(),
		sizer:    NewPositionSizer(cfg),
		guard:    guard,
		traders:  traders,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the active configuration.
func (s *Stabilizer) Config() Config { return s.cfg }

// Guard returns the shared drawdown guard.
func (s *Stabilizer) Guard() *DrawdownGuard { return s.guard }

// ProcessSignal runs one raw consensus signal through the full pipeline
// and returns the risk-adjusted decision record. All-or-nothing: any
// sub-step failure surfaces as ErrInvalidSignal and no partial output is
// ever returned.
func (s *Stabilizer) ProcessSignal(raw *models.RawSignal) (*models.ProcessedSignal, error) {
	if err := validateRaw(raw); err != nil {
		return nil, err
	}

	kept, removed, err := s.outliers.Filter(raw.Positions)
	if err != nil {
		return nil, err
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("market %s: no surviving positions: %w", raw.MarketID, ErrInvalidSignal)
	}

	totalSize, avgEntry := aggregatePositions(kept)
	if avgEntry <= 0 {
		return nil, fmt.Errorf("market %s: avg entry price %.4f: %w", raw.MarketID, avgEntry, ErrInvalidSignal)
	}

	rawConviction := float64(len(kept)) / float64(s.poolSize)
	if rawConviction > 1 {
		rawConviction = 1
	}

	avgConsistency := s.sizeWeightedConsistency(kept)
	arsConviction := clamp01(rawConviction * avgConsistency)

	regime := s.regimes.Detect(raw.PriceHistory)

	quality, err := s.entries.Classify(avgEntry, raw.CurrentPrice)
	if err != nil {
		return nil, fmt.Errorf("market %s: %w", raw.MarketID, err)
	}

	drawdownFactor := s.guard.Factor()
	recommended := s.sizer.Size(arsConviction, regime.Multiplier(), drawdownFactor, raw.Exposure)

	wallets := make([]string, 0, len(kept))
	for _, p := range kept {
		wallets = append(wallets, p.Wallet)
	}

	now := s.now()
	return &models.ProcessedSignal{
		MarketID:        raw.MarketID,
		MarketTitle:     raw.MarketTitle,
		Direction:       raw.Direction,
		RawConviction:   rawConviction,
		ARSConviction:   arsConviction,
		ARSScore:        arsConviction,
		TotalSize:       totalSize,
		AvgEntryPrice:   avgEntry,
		CurrentPrice:    raw.CurrentPrice,
		ExpectedEdge:    (raw.CurrentPrice - avgEntry) / avgEntry,
		NumTraders:      len(kept),
		OutliersRemoved: removed,
		AvgConsistency:  avgConsistency,
		RecommendedSize: recommended,
		EntryQuality:    quality,
		Regime:          regime,
		RegimeMult:      regime.Multiplier(),
		Traders:         wallets,
		GeneratedAt:     now,
		ExpiresAt:       now.Add(signalTTL),
	}, nil
}

// sizeWeightedConsistency folds per-trader consistency scores into one
// aggregate weight, weighting each survivor by position size. Zero total
// size degrades to a simple average.
func (s *Stabilizer) sizeWeightedConsistency(positions []models.SupportingPosition) float64 {
	var weighted, weightSum float64
	for _, p := range positions {
		score := 0.5
		if s.traders != nil {
			if rec, ok := s.traders.Resolve(p.Wallet); ok {
				score = s.scorer.Score(rec)
			}
		}
		w := p.Size
		if w <= 0 {
			w = 0
		}
		weighted += w * score
		weightSum += w
	}
	if weightSum == 0 {
		sum := 0.0
		for _, p := range positions {
			score := 0.5
			if s.traders != nil {
				if rec, ok := s.traders.Resolve(p.Wallet); ok {
					score = s.scorer.Score(rec)
				}
			}
			sum += score
		}
		return sum / float64(len(positions))
	}
	return weighted / weightSum
}

func aggregatePositions(positions []models.SupportingPosition) (totalSize, avgEntry float64) {
	var totalShares, weightedEntry float64
	for _, p := range positions {
		totalSize += p.Size
		totalShares += p.Shares
		weightedEntry += p.AvgPrice * p.Shares
	}
	if totalShares > 0 {
		avgEntry = weightedEntry / totalShares
	}
	return totalSize, avgEntry
}

func validateRaw(raw *models.RawSignal) error {
	if raw == nil {
		return fmt.Errorf("nil signal: %w", ErrInvalidSignal)
	}
	if raw.MarketID == "" {
		return fmt.Errorf("empty market id: %w", ErrInvalidSignal)
	}
	if !raw.Direction.Valid() {
		return fmt.Errorf("market %s: direction %q: %w", raw.MarketID, raw.Direction, ErrInvalidSignal)
	}
	if len(raw.Positions) == 0 {
		return fmt.Errorf("market %s: empty position set: %w", raw.MarketID, ErrInvalidSignal)
	}
	if raw.CurrentPrice <= 0 || raw.CurrentPrice >= 1 {
		return fmt.Errorf("market %s: current price %.4f outside (0,1): %w", raw.MarketID, raw.CurrentPrice, ErrInvalidSignal)
	}
	for i, p := range raw.PriceHistory {
		if p <= 0 || p >= 1 {
			return fmt.Errorf("market %s: price history[%d]=%.4f outside (0,1): %w", raw.MarketID, i, p, ErrInvalidSignal)
		}
	}
	for _, pos := range raw.Positions {
		if pos.Size < 0 {
			return fmt.Errorf("market %s: negative position size for %s: %w", raw.MarketID, pos.Wallet, ErrInvalidSignal)
		}
	}
	return nil
}
