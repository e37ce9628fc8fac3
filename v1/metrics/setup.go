package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the Prometheus registry, the /metrics server and the
// document-store operation series.
type Metrics struct {
	// Server serves Registry on /metrics.
	Server *http.Server

	// Registry holds every collector registered by this instance.
	Registry *prometheus.Registry

	registerer prometheus.Registerer
	namespace  string

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	requestCharge     *prometheus.CounterVec
	bulkItems         *prometheus.CounterVec
}

// NewMetrics builds a registry wrapped with the constant "service" label,
// registers the operation series and, if enabled, the runtime collectors.
func NewMetrics(cfg Config) *Metrics {
	if cfg.Address == "" {
		cfg.Address = DefaultMetricsAddress
	}

	registry := prometheus.NewRegistry()
	wrapped := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry:   registry,
		registerer: wrapped,
		namespace:  cfg.Namespace,
	}

	m.operationsTotal = createCounterVec(cfg.Namespace, "docstore_operations_total",
		"Document store operations by outcome", []string{"component", "operation", "status"})
	m.operationDuration = createHistogramVec(cfg.Namespace, "docstore_operation_duration_seconds",
		"Latency of document store operations in seconds", []string{"component", "operation"}, prometheus.DefBuckets)
	m.requestCharge = createCounterVec(cfg.Namespace, "docstore_request_charge_total",
		"Request units consumed by document store operations", []string{"component", "operation"})
	m.bulkItems = createCounterVec(cfg.Namespace, "docstore_bulk_items_total",
		"Per-item results of bulk operations", []string{"operation", "status"})

	wrapped.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.requestCharge,
		m.bulkItems,
	)

	if cfg.EnableDefaultCollectors {
		wrapped.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: mux,
	}
	return m
}
