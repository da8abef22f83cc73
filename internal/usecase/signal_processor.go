package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ARSPull/internal/domain/models"
	domrepo "ARSPull/internal/domain/repository"
	domsvc "ARSPull/internal/domain/service"
	"ARSPull/internal/services/ars"
)

// batchWorkers bounds concurrent stabilization within one cycle.
const batchWorkers = 4

// SignalProcessor runs raw signals through the stabilizer and routes the
// results to the configured backend, plus the optional execution handoff.
type SignalProcessor struct {
	stab    domsvc.Stabilizer
	pub     domrepo.SignalPublisher
	store   domrepo.SignalStore
	handoff domrepo.HandoffQueue
	metrics domrepo.Metrics
	backend string
}

// NewSignalProcessor creates a new SignalProcessor instance.
func NewSignalProcessor(
	stab domsvc.Stabilizer,
	pub domrepo.SignalPublisher,
	store domrepo.SignalStore,
	handoff domrepo.HandoffQueue,
	metrics domrepo.Metrics,
	backend string,
) *SignalProcessor {
	return &SignalProcessor{
		stab:    stab,
		pub:     pub,
		store:   store,
		handoff: handoff,
		metrics: metrics,
		backend: backend,
	}
}

// Process stabilizes one raw signal and routes it. Invalid signals are
// counted and dropped; the caller moves on to the next market.
func (p *SignalProcessor) Process(ctx context.Context, raw *models.RawSignal) (*models.ProcessedSignal, error) {
	start := time.Now()

	sig, err := p.stab.ProcessSignal(raw)
	if err != nil {
		if errors.Is(err, ars.ErrInvalidSignal) {
			p.metrics.RecordSignalRejected("invalid")
			return nil, err
		}
		p.metrics.RecordError("stabilize")
		return nil, fmt.Errorf("stabilize signal: %w", err)
	}

	if err := p.route(ctx, sig); err != nil {
		p.metrics.RecordError("route")
		return nil, fmt.Errorf("route signal: %w", err)
	}

	if p.handoff != nil {
		if err := p.handoff.Enqueue(ctx, sig); err != nil {
			// Handoff failure loses one trade opportunity, not the signal
			// record; log-worthy but not fatal to the cycle.
			p.metrics.RecordError("handoff")
		}
	}

	p.metrics.RecordSignalProcessed(string(sig.Direction), string(sig.Regime))
	p.metrics.RecordOutliersRemoved(sig.OutliersRemoved)
	p.metrics.RecordRecommendedSize(sig.MarketID, sig.RecommendedSize)
	p.metrics.RecordLatency("process_signal", time.Since(start).Seconds())
	return sig, nil
}

// ProcessBatch stabilizes a full collection cycle. Invalid markets are
// skipped; backend errors abort the batch.
func (p *SignalProcessor) ProcessBatch(ctx context.Context, raws []*models.RawSignal) ([]*models.ProcessedSignal, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	start := time.Now()

	// Stabilization is pure apart from one drawdown-state read, so markets
	// are processed concurrently. Output order does not matter downstream.
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		stabErr error
		out     = make([]*models.ProcessedSignal, 0, len(raws))
		sem     = make(chan struct{}, batchWorkers)
	)
	for _, raw := range raws {
		wg.Add(1)
		sem <- struct{}{}
		go func(raw *models.RawSignal) {
			defer wg.Done()
			defer func() { <-sem }()
			sig, err := p.stab.ProcessSignal(raw)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, ars.ErrInvalidSignal) {
					p.metrics.RecordSignalRejected("invalid")
					return
				}
				p.metrics.RecordError("stabilize")
				if stabErr == nil {
					stabErr = fmt.Errorf("stabilize signal: %w", err)
				}
				return
			}
			out = append(out, sig)
		}(raw)
	}
	wg.Wait()
	if stabErr != nil {
		return nil, stabErr
	}
	if len(out) == 0 {
		return nil, nil
	}

	if err := p.routeBatch(ctx, out); err != nil {
		p.metrics.RecordError("route_batch")
		return nil, fmt.Errorf("route batch: %w", err)
	}

	for _, sig := range out {
		if p.handoff != nil {
			if err := p.handoff.Enqueue(ctx, sig); err != nil {
				p.metrics.RecordError("handoff")
			}
		}
		p.metrics.RecordSignalProcessed(string(sig.Direction), string(sig.Regime))
		p.metrics.RecordOutliersRemoved(sig.OutliersRemoved)
		p.metrics.RecordRecommendedSize(sig.MarketID, sig.RecommendedSize)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return out, nil
}

func (p *SignalProcessor) route(ctx context.Context, sig *models.ProcessedSignal) error {
	switch p.backend {
	case "kafka":
		return p.pub.Publish(ctx, sig)
	case "clickhouse":
		return p.store.Store(ctx, sig)
	default:
		return fmt.Errorf("unknown backend: %s", p.backend)
	}
}

func (p *SignalProcessor) routeBatch(ctx context.Context, signals []*models.ProcessedSignal) error {
	switch p.backend {
	case "kafka":
		return p.pub.PublishBatch(ctx, signals)
	case "clickhouse":
		return p.store.StoreBatch(ctx, signals)
	default:
		return fmt.Errorf("unknown backend: %s", p.backend)
	}
}

// Close closes underlying resources if available.
func (p *SignalProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
