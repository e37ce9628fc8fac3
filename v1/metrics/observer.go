package metrics

import (
	"github.com/Aleph-Alpha/docstore/v1/observability"
)

// Metadata keys read by the operation observer.
const (
	MetadataRequestCharge = "request_charge"
	MetadataSucceeded     = "succeeded"
	MetadataFailed        = "failed"
)

// OperationObserver returns an observability.Observer that records every
// reported operation into the docstore_* series.
func (m *Metrics) OperationObserver() observability.Observer {
	return observability.ObserverFunc(m.ObserveOperation)
}

// ObserveOperation records one operation.
//
// A "request_charge" float64 in Metadata is added to the request charge
// counter. Bulk operations additionally report "succeeded" and "failed"
// item counts.
func (m *Metrics) ObserveOperation(op observability.OperationContext) {
	status := "success"
	if op.Error != nil {
		status = "error"
	}

	m.operationsTotal.WithLabelValues(op.Component, op.Operation, status).Inc()
	m.operationDuration.WithLabelValues(op.Component, op.Operation).Observe(op.Duration.Seconds())

	if charge, ok := op.Metadata[MetadataRequestCharge].(float64); ok && charge > 0 {
		m.requestCharge.WithLabelValues(op.Component, op.Operation).Add(charge)
	}
	if n, ok := op.Metadata[MetadataSucceeded].(int); ok && n > 0 {
		m.bulkItems.WithLabelValues(op.Operation, "success").Add(float64(n))
	}
	if n, ok := op.Metadata[MetadataFailed].(int); ok && n > 0 {
		m.bulkItems.WithLabelValues(op.Operation, "error").Add(float64(n))
	}
}
