package usecase

import (
	"context"
	"time"

	"ARSPull/internal/domain/models"
	domrepo "ARSPull/internal/domain/repository"
	mid "ARSPull/internal/middleware"
	applogger "ARSPull/pkg/logger"
)

// LeaderboardSink receives refreshed leaderboard records.
type LeaderboardSink interface {
	SetLeaderboard(records []models.TraderRecord)
}

// assetSetter is the optional stream capability of retargeting the
// subscription at the currently interesting markets.
type assetSetter interface {
	SetAssets(assetIDs []string)
}

// SignalCollector drives the collection cycle: refresh the leaderboard,
// pull every top trader's positions, build consensus signals, and hand
// them to the processor. It also owns the live price stream feeding the
// price book.
type SignalCollector struct {
	data    domrepo.MarketData
	stream  domrepo.PriceStream
	book    domrepo.PriceBook
	sink    LeaderboardSink
	builder *ConsensusBuilder
	proc    *SignalProcessor
	metrics domrepo.Metrics
	logger  *applogger.Logger

	interval         time.Duration
	leaderboardLimit int
	exposure         func() float64
}

// CollectorOption configures SignalCollector.
type CollectorOption func(*SignalCollector)

// WithExposure sets the portfolio exposure source consulted each cycle.
func WithExposure(fn func() float64) CollectorOption {
	return func(c *SignalCollector) { c.exposure = fn }
}

// NewSignalCollector creates a new SignalCollector instance.
func NewSignalCollector(
	data domrepo.MarketData,
	stream domrepo.PriceStream,
	book domrepo.PriceBook,
	sink LeaderboardSink,
	builder *ConsensusBuilder,
	proc *SignalProcessor,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
	interval time.Duration,
	leaderboardLimit int,
	opts ...CollectorOption,
) *SignalCollector {
	c := &SignalCollector{
		data:             data,
		stream:           stream,
		book:             book,
		sink:             sink,
		builder:          builder,
		proc:             proc,
		metrics:          metrics,
		logger:           logger,
		interval:         interval,
		leaderboardLimit: leaderboardLimit,
		exposure:         func() float64 { return 0 },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsConnected returns true if the price stream is connected.
func (c *SignalCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects the price stream and launches the tick and collection
// loops. Returns after the first connection attempt; the loops run until
// ctx is cancelled.
func (c *SignalCollector) Start(ctx context.Context, pipe *mid.PricePipeline) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if pipe != nil {
		pipe.Start(ctx)
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consumeTicks(ctx, pipe, tickCh, errCh)
	go c.collectLoop(ctx)
	return nil
}

func (c *SignalCollector) consumeTicks(ctx context.Context, pipe *mid.PricePipeline, tickCh <-chan *models.PriceTick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case t := <-tickCh:
			if t == nil {
				continue
			}
			if pipe != nil {
				_ = pipe.Process(ctx, t)
			} else {
				c.book.Append(t)
			}
			c.metrics.RecordLastPrice(t.MarketID, t.Price)
		}
	}
}

func (c *SignalCollector) collectLoop(ctx context.Context) {
	// First cycle immediately, then on the interval.
	c.runCycle(ctx)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runCycle(ctx)
		}
	}
}

// runCycle executes one full collection: leaderboard, positions, consensus,
// stabilization. Per-trader fetch failures shrink the cycle instead of
// aborting it.
func (c *SignalCollector) runCycle(ctx context.Context) {
	start := time.Now()

	records, err := c.data.Leaderboard(ctx, c.leaderboardLimit)
	if err != nil {
		c.logger.Error("leaderboard fetch failed", applogger.Error(err))
		c.metrics.RecordError("leaderboard")
		return
	}
	if c.sink != nil {
		c.sink.SetLeaderboard(records)
	}

	// Only qualified traders count toward consensus; fetch best first.
	scores := c.builder.ScoreTraders(records)
	positionsByWallet := make(map[string][]models.MarketPosition, len(scores))
	for _, sc := range scores {
		if ctx.Err() != nil {
			return
		}
		positions, err := c.data.Positions(ctx, sc.Wallet)
		if err != nil {
			c.logger.Warn("positions fetch failed",
				applogger.String("wallet", sc.Wallet),
				applogger.Error(err),
			)
			c.metrics.RecordError("positions")
			continue
		}
		positionsByWallet[sc.Wallet] = positions
	}

	raws := c.builder.Build(positionsByWallet, c.exposure())
	c.retarget(ctx, raws)

	signals, err := c.proc.ProcessBatch(ctx, raws)
	if err != nil {
		c.logger.Error("signal batch failed", applogger.Error(err))
		return
	}
	c.logger.Info("collection cycle done",
		applogger.Int("traders", len(records)),
		applogger.Int("candidates", len(raws)),
		applogger.Int("signals", len(signals)),
		applogger.Duration("duration", time.Since(start)),
	)
	c.metrics.RecordLatency("collect_cycle", time.Since(start).Seconds())
}

// retarget points the stream subscription at the consensus markets so the
// price book tracks exactly what the next cycle will ask about.
func (c *SignalCollector) retarget(ctx context.Context, raws []*models.RawSignal) {
	setter, ok := c.stream.(assetSetter)
	if !ok || len(raws) == 0 {
		return
	}
	markets := make([]string, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	for _, r := range raws {
		if !seen[r.MarketID] {
			seen[r.MarketID] = true
			markets = append(markets, r.MarketID)
		}
	}
	setter.SetAssets(markets)
	if c.stream.IsConnected() {
		if err := c.stream.Subscribe(ctx); err != nil {
			c.metrics.RecordError("resubscribe")
		}
	}
}

// Processor returns the underlying SignalProcessor for lifecycle management.
func (c *SignalCollector) Processor() *SignalProcessor { return c.proc }

// Stop closes the price stream.
func (c *SignalCollector) Stop() error { return c.stream.Close() }

// Shutdown stops the pipeline and closes the stream.
func (c *SignalCollector) Shutdown(ctx context.Context, pipe *mid.PricePipeline) error {
	if pipe != nil {
		pipe.Stop()
	}
	return c.stream.Close()
}
