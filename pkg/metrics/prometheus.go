package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsProcessed *prometheus.CounterVec
	signalsRejected  *prometheus.CounterVec
	outliersRemoved  prometheus.Counter
	recommendedSize  *prometheus.GaugeVec
	errorsTotal      *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arspull_signals_processed_total",
				Help: "Total number of signals that passed the stabilizer",
			},
			[]string{"direction", "regime"},
		),
		signalsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arspull_signals_rejected_total",
				Help: "Total number of raw signals rejected as invalid",
			},
			[]string{"reason"},
		),
		outliersRemoved: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "arspull_outliers_removed_total",
				Help: "Total number of outlier positions removed",
			},
		),
		recommendedSize: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arspull_recommended_size",
				Help: "Last recommended position size per market",
			},
			[]string{"market"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arspull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arspull_last_price",
				Help: "Last observed price per market",
			},
			[]string{"market"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arspull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignalProcessed records one stabilized signal.
func (r *Recorder) RecordSignalProcessed(direction, regime string) {
	r.signalsProcessed.WithLabelValues(direction, regime).Inc()
}

// RecordSignalRejected records one rejected raw signal.
func (r *Recorder) RecordSignalRejected(reason string) {
	r.signalsRejected.WithLabelValues(reason).Inc()
}

// RecordOutliersRemoved adds removed outlier positions.
func (r *Recorder) RecordOutliersRemoved(n int) {
	if n > 0 {
		r.outliersRemoved.Add(float64(n))
	}
}

// RecordRecommendedSize records the latest sizing decision for a market.
func (r *Recorder) RecordRecommendedSize(marketID string, size float64) {
	r.recommendedSize.WithLabelValues(marketID).Set(size)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a market.
func (r *Recorder) RecordLastPrice(marketID string, price float64) {
	r.lastPrice.WithLabelValues(marketID).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
