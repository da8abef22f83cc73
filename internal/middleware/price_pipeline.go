package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ARSPull/internal/domain/models"
	domrepo "ARSPull/internal/domain/repository"
)

// TickProc is the minimal downstream interface the pipeline needs.
type TickProc interface {
	Process(ctx context.Context, t *models.PriceTick) error
}

// PricePipeline sits between the WebSocket stream and the price book.
// It validates, throttles per market, and buffers when downstream errors.
type PricePipeline struct {
	proc     TickProc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.PriceTick
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-market last accepted time
}

type PipelineOption func(*PricePipeline)

// WithMaxRPS sets the max ticks per second per market.
func WithMaxRPS(n int) PipelineOption {
	return func(p *PricePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *PricePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewPricePipeline creates a new pipeline.
func NewPricePipeline(proc TickProc, metrics domrepo.Metrics, opts ...PipelineOption) *PricePipeline {
	p := &PricePipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,   // default throttle per market
		bufSize:  1000, // default buffer
		bufCh:    make(chan *models.PriceTick, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.PriceTick, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered ticks.
func (p *PricePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case t := <-p.bufCh:
				if t == nil {
					continue
				}
				if err := p.proc.Process(ctx, t); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- t:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *PricePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a tick downstream, buffering
// on errors.
func (p *PricePipeline) Process(ctx context.Context, t *models.PriceTick) error {
	start := time.Now()
	if err := validateTick(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(t.MarketID, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, t); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- t:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateTick(t *models.PriceTick) error {
	if t == nil {
		return fmt.Errorf("tick nil")
	}
	if t.MarketID == "" {
		return fmt.Errorf("market id empty")
	}
	if t.Timestamp <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	if t.Price <= 0 || t.Price >= 1 {
		return fmt.Errorf("price outside (0,1)")
	}
	return nil
}

func (p *PricePipeline) allow(marketID string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[marketID]
	if last.IsZero() || now.Sub(last) >= time.Second/time.Duration(p.maxRPS) {
		p.lastSeen[marketID] = now
		return true
	}
	return false
}
