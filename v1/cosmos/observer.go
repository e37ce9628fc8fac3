package cosmos

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/docstore/v1/observability"
)

const componentName = "cosmos"

// observeOperation reports one finished operation to the observer, if any.
func (c *Client) observeOperation(op, resource, subResource string, start time.Time, err error, size int64, metadata map[string]interface{}) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveOperation(observability.OperationContext{
		Component:   componentName,
		Operation:   op,
		Resource:    resource,
		SubResource: subResource,
		Duration:    time.Since(start),
		Error:       err,
		Size:        size,
		Metadata:    metadata,
	})
}

func chargeMetadata(charge float64) map[string]interface{} {
	return map[string]interface{}{"request_charge": charge}
}

// startSpan opens a span when a tracer is attached. The returned function
// ends it, recording err when non-nil.
func (c *Client) startSpan(ctx context.Context, op string, attrs map[string]interface{}) (context.Context, func(err error)) {
	if c.tracer == nil {
		return ctx, func(error) {}
	}
	ctx, span := c.tracer.StartSpan(ctx, componentName+"."+op)
	c.tracer.SetAttributes(span, attrs)
	return ctx, func(err error) {
		endSpan(c.tracer, span, err)
	}
}

func endSpan(t Tracer, span trace.Span, err error) {
	if err != nil {
		t.RecordErrorOnSpan(span, err)
	}
	span.End()
}
