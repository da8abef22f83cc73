package repository

import (
	"context"
	"time"

	"ARSPull/internal/domain/models"
)

// MarketData fetches leaderboard traders and their open positions from the
// upstream prediction-market API.
type MarketData interface {
	Leaderboard(ctx context.Context, limit int) ([]models.TraderRecord, error)
	Positions(ctx context.Context, wallet string) ([]models.MarketPosition, error)
}

// PriceStream delivers live market price ticks over a persistent connection.
type PriceStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// PriceBook keeps a bounded chronological price history per market.
type PriceBook interface {
	Append(tick *models.PriceTick)
	History(marketID string) []float64
	LastPrice(marketID string) (float64, bool)
}

// TraderDirectory resolves trader history snapshots for consistency scoring.
type TraderDirectory interface {
	Record(ctx context.Context, wallet string) (models.TraderRecord, bool)
}

// SignalStore persists processed signals.
type SignalStore interface {
	Store(ctx context.Context, s *models.ProcessedSignal) error
	StoreBatch(ctx context.Context, signals []*models.ProcessedSignal) error
	Latest(ctx context.Context, limit int, direction models.Direction) ([]*models.ProcessedSignal, error)
	Health(ctx context.Context) error
	Close() error
}

// SignalPublisher publishes processed signals for downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, s *models.ProcessedSignal) error
	PublishBatch(ctx context.Context, signals []*models.ProcessedSignal) error
	Close() error
}

// HandoffQueue hands actionable signals to the external execution layer.
type HandoffQueue interface {
	Enqueue(ctx context.Context, s *models.ProcessedSignal) error
}

// OutcomeSink receives realized trade results after settlement.
type OutcomeSink interface {
	RecordOutcome(pnlDelta float64)
}

// Metrics records operational measurements.
type Metrics interface {
	RecordSignalProcessed(direction, regime string)
	RecordSignalRejected(reason string)
	RecordOutliersRemoved(n int)
	RecordRecommendedSize(marketID string, size float64)
	RecordError(kind string)
	RecordLastPrice(marketID string, price float64)
	RecordLatency(op string, seconds float64)
}

// Clock abstracts time for deterministic tests.
type Clock func() time.Time
