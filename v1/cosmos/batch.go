package cosmos

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// maxBatchOperations is the service limit for one transactional batch.
const maxBatchOperations = 100

// statusFailedDependency marks batch steps that were rolled back because
// another step failed.
const statusFailedDependency = 424

// ExecuteBatch runs ops atomically within the logical partition pk. Either
// every step is applied or none is.
//
// When the service rejects the batch, the returned BatchResult carries the
// per-step statuses and the error reflects the step that caused the
// rollback, e.g. ErrConflict for a create of an existing id.
func (c *Client) ExecuteBatch(ctx context.Context, scope ContainerScope, pk string, ops []BatchOperation) (BatchResult, error) {
	if err := c.checkOpen(opBatch); err != nil {
		return BatchResult{}, err
	}
	if scope.IsZero() {
		return BatchResult{}, validationError(opBatch, "container scope is not selected")
	}
	steps, err := encodeBatch(scope, pk, ops)
	if err != nil {
		return BatchResult{}, err
	}

	ctx, endSpan := c.startSpan(ctx, opBatch, map[string]interface{}{
		"db.container":     scope.String(),
		"batch.operations": len(ops),
	})
	start := time.Now()

	var resp BatchResponse
	err = c.call(ctx, opBatch, false, func(ctx context.Context) error {
		var err error
		resp, err = c.transport.ExecuteBatch(ctx, scope.ref(), pk, steps)
		return err
	})
	if err == nil && !resp.Success {
		err = batchFailure(resp)
	}
	endSpan(err)
	c.observeOperation(opBatch, scope.String(), pk, start, err, int64(len(ops)), chargeMetadata(resp.RequestCharge))

	result := BatchResult{
		Committed:     err == nil,
		RequestCharge: resp.RequestCharge,
		Operations:    make([]BatchOperationResult, 0, len(resp.Results)),
	}
	for _, r := range resp.Results {
		or := BatchOperationResult{
			StatusCode:    r.StatusCode,
			RequestCharge: r.RequestCharge,
			ETag:          r.ETag,
		}
		if len(r.Body) > 0 {
			if doc, perr := ParseDocument(r.Body); perr == nil {
				or.Document = doc
			}
		}
		result.Operations = append(result.Operations, or)
	}
	return result, err
}

func encodeBatch(scope ContainerScope, pk string, ops []BatchOperation) ([]BatchStep, error) {
	if len(ops) == 0 {
		return nil, validationError(opBatch, "batch has no operations")
	}
	if len(ops) > maxBatchOperations {
		return nil, validationError(opBatch, "batch has %d operations, the limit is %d", len(ops), maxBatchOperations)
	}
	if pk == "" {
		return nil, validationError(opBatch, "partition key value is empty")
	}

	steps := make([]BatchStep, len(ops))
	for i, op := range ops {
		step := BatchStep{Type: op.Type, ID: op.ID, IfMatch: op.IfMatchETag}
		switch op.Type {
		case BatchCreate, BatchUpsert, BatchReplace:
			body, err := checkItem(opBatch, scope, op.Document, pk)
			if err != nil {
				return nil, fmt.Errorf("operation %d: %w", i, err)
			}
			step.Body = body
			if step.ID == "" {
				step.ID = op.Document.ID()
			}
			if op.Type == BatchReplace && step.ID != op.Document.ID() {
				return nil, validationError(opBatch, "operation %d: replace id %q does not match document id %q", i, step.ID, op.Document.ID())
			}
		case BatchRead, BatchDelete:
			if op.ID == "" {
				return nil, validationError(opBatch, "operation %d: id is empty", i)
			}
		default:
			return nil, validationError(opBatch, "operation %d: unknown type %d", i, op.Type)
		}
		steps[i] = step
	}
	return steps, nil
}

// batchFailure builds the error for a rolled back batch from the first step
// that did not fail merely as a dependency.
func batchFailure(resp BatchResponse) error {
	for i, r := range resp.Results {
		if r.StatusCode >= http.StatusBadRequest && r.StatusCode != statusFailedDependency {
			rerr := &ResponseError{StatusCode: r.StatusCode, Message: fmt.Sprintf("batch operation %d failed", i)}
			return translateError(opBatch, rerr)
		}
	}
	return newError(KindConflict, opBatch, http.StatusConflict, fmt.Errorf("batch was not committed"))
}
