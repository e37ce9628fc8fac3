// Package observability defines the hook through which docstore clients report
// the operations they perform.
//
// Clients never depend on a concrete metrics or tracing backend. Instead they
// accept an Observer and call ObserveOperation once per completed operation.
// The metrics package ships a Prometheus-backed implementation.
package observability

import "time"

// Observer receives one notification per completed client operation.
// Implementations must be safe for concurrent use and must not block.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes a single completed operation.
type OperationContext struct {
	// Component is the client that performed the operation, e.g. "cosmos".
	Component string

	// Operation is the logical operation name, e.g. "upsert" or "query_page".
	Operation string

	// Resource is the primary resource, e.g. a database name.
	Resource string

	// SubResource narrows the resource, e.g. a container name.
	SubResource string

	// Duration is the wall-clock time the operation took, retries included.
	Duration time.Duration

	// Error is the error returned to the caller, nil on success.
	Error error

	// Size is an operation-specific size, e.g. bytes written or items returned.
	Size int64

	// Metadata carries component-specific values such as request charges.
	Metadata map[string]interface{}
}

// ObserverFunc adapts an ordinary function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}
