package usecase

import (
	"context"
	"testing"
)

type recordingSink struct {
	deltas []float64
}

func (s *recordingSink) RecordOutcome(pnlDelta float64) {
	s.deltas = append(s.deltas, pnlDelta)
}

type noopMetrics struct{}

func (noopMetrics) RecordSignalProcessed(direction, regime string)      {}
func (noopMetrics) RecordSignalRejected(reason string)                  {}
func (noopMetrics) RecordOutliersRemoved(n int)                         {}
func (noopMetrics) RecordRecommendedSize(marketID string, size float64) {}
func (noopMetrics) RecordError(kind string)                             {}
func (noopMetrics) RecordLastPrice(marketID string, price float64)      {}
func (noopMetrics) RecordLatency(op string, seconds float64)            {}

func TestOutcomesHandlerRecordsDelta(t *testing.T) {
	sink := &recordingSink{}
	h := NewKafkaOutcomesHandler("ars.outcomes", sink, noopMetrics{})

	if h.Topic() != "ars.outcomes" {
		t.Fatalf("topic %q, want ars.outcomes", h.Topic())
	}

	msg := []byte(`{"market_id":"m1","pnl_pct":-0.03,"t":1756500000}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sink.deltas) != 1 || sink.deltas[0] != -0.03 {
		t.Fatalf("sink got %v, want [-0.03]", sink.deltas)
	}
}

func TestOutcomesHandlerRejectsOutOfRange(t *testing.T) {
	sink := &recordingSink{}
	h := NewKafkaOutcomesHandler("ars.outcomes", sink, noopMetrics{})

	msg := []byte(`{"market_id":"m1","pnl_pct":1.5,"t":1756500000}`)
	if err := h.Handle(context.Background(), msg); err == nil {
		t.Fatal("expected error for pnl_pct outside [-1,1]")
	}
	if len(sink.deltas) != 0 {
		t.Fatalf("out-of-range outcome reached the sink: %v", sink.deltas)
	}
}

func TestOutcomesHandlerRejectsBadJSON(t *testing.T) {
	sink := &recordingSink{}
	h := NewKafkaOutcomesHandler("ars.outcomes", sink, noopMetrics{})

	if err := h.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatal("expected unmarshal error")
	}
	if len(sink.deltas) != 0 {
		t.Fatalf("malformed outcome reached the sink: %v", sink.deltas)
	}
}

func TestOutcomesHandlerAcceptsMillisecondTimestamps(t *testing.T) {
	sink := &recordingSink{}
	h := NewKafkaOutcomesHandler("ars.outcomes", sink, noopMetrics{})

	msg := []byte(`{"market_id":"m1","pnl_pct":0.02,"t":1756500000000}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sink.deltas) != 1 || sink.deltas[0] != 0.02 {
		t.Fatalf("sink got %v, want [0.02]", sink.deltas)
	}
}
