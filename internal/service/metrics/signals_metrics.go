package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    SignalsLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "arspull",
            Subsystem: "api",
            Name:      "latency_seconds",
            Help:      "Latency of signals endpoints",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"endpoint"},
    )

    SignalsErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "arspull",
            Subsystem: "api",
            Name:      "errors_total",
            Help:      "Errors by signals endpoint",
        },
        []string{"endpoint"},
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(SignalsLatency, SignalsErrors)
    })
}
