// Package metrics exposes Prometheus metrics for docstore clients.
//
// NewMetrics creates an isolated registry (every series carries a constant
// "service" label) and an HTTP server that serves it on /metrics. Register
// attaches the document-store operation metrics and returns an
// observability.Observer that a cosmos client reports into:
//
//	m := metrics.NewMetrics(metrics.DefaultConfig().WithServiceName("orders-api"))
//	obs := m.OperationObserver()
//
//	client, err := cosmos.Open(ctx, cfg, cosmos.WithObserver(obs))
//
// The following series are recorded per component, operation and outcome:
//
//	docstore_operations_total{component,operation,status}
//	docstore_operation_duration_seconds{component,operation}
//	docstore_request_charge_total{component,operation}
//	docstore_bulk_items_total{operation,status}
//
// Under fx, FXModule provides *Metrics, the MetricsCollector interface and
// the observer, and runs the HTTP server for the lifetime of the application.
package metrics
