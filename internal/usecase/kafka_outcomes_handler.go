package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domrepo "ARSPull/internal/domain/repository"
	pkgkafka "ARSPull/pkg/kafka"
)

// KafkaOutcomesHandler consumes settled-trade outcomes and folds them into
// the drawdown state. The execution layer publishes one message per
// settlement with the realized P&L as a portfolio fraction.
type KafkaOutcomesHandler struct {
	topic   string
	sink    domrepo.OutcomeSink
	metrics domrepo.Metrics
}

func NewKafkaOutcomesHandler(topic string, sink domrepo.OutcomeSink, metrics domrepo.Metrics) *KafkaOutcomesHandler {
	return &KafkaOutcomesHandler{topic: topic, sink: sink, metrics: metrics}
}

func (h *KafkaOutcomesHandler) Topic() string { return h.topic }

// incoming message schema: {market_id, pnl_pct, t}
func (h *KafkaOutcomesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		MarketID string  `json:"market_id"`
		PnLPct   float64 `json:"pnl_pct"`
		T        int64   `json:"t"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.PnLPct < -1 || m.PnLPct > 1 {
		h.metrics.RecordError("outcome_out_of_range")
		return fmt.Errorf("outcome pnl_pct %.4f outside [-1,1]", m.PnLPct)
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	if m.T > 0 {
		// E2E latency from settlement time to now (approx)
		h.metrics.RecordLatency("outcome_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())
	}

	h.sink.RecordOutcome(m.PnLPct)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaOutcomesHandler)(nil)
