package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aleph-Alpha/docstore/v1/observability"
)

// MetricsCollector is implemented by *Metrics.
type MetricsCollector interface {
	// ObserveOperation records one document store operation.
	ObserveOperation(op observability.OperationContext)

	// OperationObserver adapts the collector to observability.Observer.
	OperationObserver() observability.Observer

	CreateCounter(name, help string, labels []string) *prometheus.CounterVec
	CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec
	CreateGauge(name, help string, labels []string) *prometheus.GaugeVec
}

var _ MetricsCollector = (*Metrics)(nil)
