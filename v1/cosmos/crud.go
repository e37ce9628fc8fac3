package cosmos

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// PointRead fetches one item by id and partition key. An absent item yields
// ErrNotFound.
func (c *Client) PointRead(ctx context.Context, scope ContainerScope, id, pk string) (*Document, error) {
	if err := c.checkItemKey(opPointRead, scope, id, pk); err != nil {
		return nil, err
	}
	start := time.Now()

	var resp ItemResponse
	err := c.call(ctx, opPointRead, true, func(ctx context.Context) error {
		var err error
		resp, err = c.transport.ReadItem(ctx, scope.ref(), pk, id)
		return err
	})
	c.observeOperation(opPointRead, scope.String(), id, start, err, int64(len(resp.Body)), chargeMetadata(resp.RequestCharge))
	if err != nil {
		return nil, err
	}

	doc, err := ParseDocument(resp.Body)
	if err != nil {
		return nil, newError(KindService, opPointRead, resp.StatusCode, err)
	}
	return doc, nil
}

// Create inserts doc under partition key pk. An item with the same id in
// the same partition yields ErrConflict. The document must carry a string
// id and, when the scope knows its partition key path, a matching partition
// key attribute.
func (c *Client) Create(ctx context.Context, scope ContainerScope, doc *Document, pk string) (*Document, error) {
	return c.write(ctx, opCreate, scope, doc, pk, nil)
}

// Upsert creates or replaces doc under partition key pk and returns the
// stored item. With opts.IfMatchETag set, the write only succeeds if the
// stored item still has that etag; otherwise ErrConflict is returned.
//
// The document must carry a string id and, when the scope knows its
// partition key path, a partition key attribute equal to pk. Both are
// checked before anything is sent.
func (c *Client) Upsert(ctx context.Context, scope ContainerScope, doc *Document, pk string, opts *ItemOptions) (*Document, error) {
	return c.write(ctx, opUpsert, scope, doc, pk, opts)
}

func (c *Client) write(ctx context.Context, op string, scope ContainerScope, doc *Document, pk string, opts *ItemOptions) (*Document, error) {
	if err := c.checkOpen(op); err != nil {
		return nil, err
	}
	if scope.IsZero() {
		return nil, validationError(op, "container scope is not selected")
	}
	body, err := checkItem(op, scope, doc, pk)
	if err != nil {
		return nil, err
	}
	ifMatch := ""
	if opts != nil {
		ifMatch = opts.IfMatchETag
	}
	start := time.Now()

	var resp ItemResponse
	err = c.call(ctx, op, op == opUpsert, func(ctx context.Context) error {
		var err error
		if op == opCreate {
			resp, err = c.transport.CreateItem(ctx, scope.ref(), pk, body)
		} else {
			resp, err = c.transport.UpsertItem(ctx, scope.ref(), pk, body, ifMatch)
		}
		return err
	})
	c.observeOperation(op, scope.String(), doc.ID(), start, err, int64(len(body)), chargeMetadata(resp.RequestCharge))
	if err != nil {
		return nil, err
	}

	if len(resp.Body) == 0 {
		return doc.Clone(), nil
	}
	stored, err := ParseDocument(resp.Body)
	if err != nil {
		return nil, newError(KindService, op, resp.StatusCode, err)
	}
	return stored, nil
}

// Delete removes one item. An absent item is reported as NotFound rather
// than as an error.
func (c *Client) Delete(ctx context.Context, scope ContainerScope, id, pk string) (DeleteOutcome, error) {
	if err := c.checkItemKey(opDelete, scope, id, pk); err != nil {
		return 0, err
	}
	start := time.Now()

	var resp ItemResponse
	err := c.call(ctx, opDelete, true, func(ctx context.Context) error {
		var err error
		resp, err = c.transport.DeleteItem(ctx, scope.ref(), pk, id)
		return err
	})
	c.observeOperation(opDelete, scope.String(), id, start, err, 0, chargeMetadata(resp.RequestCharge))

	switch {
	case err == nil:
		return Deleted, nil
	case errors.Is(err, ErrNotFound):
		return NotFound, nil
	default:
		return 0, err
	}
}

// CountDocuments returns the number of items in the container, or in one
// partition with WithPartitionKey. The service may answer a cross-partition
// count with one partial count per page; the partials are summed.
func (c *Client) CountDocuments(ctx context.Context, scope ContainerScope, opts ...QueryOption) (int64, error) {
	if err := c.checkOpen(opCount); err != nil {
		return 0, err
	}
	if scope.IsZero() {
		return 0, validationError(opCount, "container scope is not selected")
	}
	qo := c.queryOptions(opts)
	start := time.Now()

	req := QueryRequest{
		SQL:          "SELECT VALUE COUNT(1) FROM c",
		PartitionKey: qo.partitionKey,
		PageSize:     qo.pageSize,
	}

	var (
		total  int64
		charge float64
		err    error
	)
	for {
		var page QueryPage
		err = c.call(ctx, opCount, true, func(ctx context.Context) error {
			var err error
			page, err = c.transport.QueryPage(ctx, scope.ref(), req)
			return err
		})
		if err != nil {
			break
		}
		charge += page.RequestCharge
		for _, item := range page.Items {
			n, perr := strconv.ParseInt(strings.TrimSpace(string(item)), 10, 64)
			if perr != nil {
				err = newError(KindService, opCount, 0, perr)
				break
			}
			total += n
		}
		if err != nil || page.Continuation == "" {
			break
		}
		req.Continuation = page.Continuation
	}
	c.observeOperation(opCount, scope.String(), "", start, err, 0, chargeMetadata(charge))
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (c *Client) checkItemKey(op string, scope ContainerScope, id, pk string) error {
	if err := c.checkOpen(op); err != nil {
		return err
	}
	if scope.IsZero() {
		return validationError(op, "container scope is not selected")
	}
	if id == "" {
		return validationError(op, "id is empty")
	}
	if pk == "" {
		return validationError(op, "partition key value is empty")
	}
	return nil
}
