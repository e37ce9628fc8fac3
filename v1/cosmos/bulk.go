package cosmos

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type bulkOptions struct {
	concurrency int
	rateLimit   float64
}

// BulkOption customises a bulk call.
type BulkOption func(*bulkOptions)

// WithConcurrency caps the number of in-flight requests.
func WithConcurrency(n int) BulkOption {
	return func(o *bulkOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithRateLimit caps requests started per second. Zero disables the cap.
func WithRateLimit(perSecond float64) BulkOption {
	return func(o *bulkOptions) {
		if perSecond >= 0 {
			o.rateLimit = perSecond
		}
	}
}

func (c *Client) bulkOptions(opts []BulkOption) bulkOptions {
	o := bulkOptions{
		concurrency: c.cfg.BulkConcurrency,
		rateLimit:   c.cfg.BulkRateLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// bulkItem is one prepared unit of work. prepErr is set when the input was
// rejected before launch.
type bulkItem struct {
	id      string
	pk      string
	prepErr error
	run     func(ctx context.Context) BulkOperationResult
}

// BulkUpsert upserts docs concurrently and returns one result per input, in
// input order. Documents without an id get a generated one (the caller's
// documents are not modified). The partition key of each document is read
// from pkAttr, or from the scope's partition key path when pkAttr is empty;
// a document without it fails on its own while the others proceed.
//
// At most WithConcurrency requests are in flight. Once ctx is canceled no
// further requests start and the unstarted inputs are reported with
// ErrCanceled; requests already sent run to completion. The call returns
// only after every started request has finished.
func (c *Client) BulkUpsert(ctx context.Context, scope ContainerScope, docs []*Document, pkAttr string, opts ...BulkOption) BulkSummary {
	if pkAttr == "" {
		pkAttr = scope.PartitionKeyAttr()
	}
	checkScope := scope
	if pkAttr != "" {
		checkScope.partitionKeyPath = "/" + pkAttr
	}

	items := make([]bulkItem, len(docs))
	for i, d := range docs {
		if d == nil {
			items[i] = bulkItem{prepErr: validationError(opBulkUpsert, "document is nil")}
			continue
		}
		doc := EnsureID(d)
		pk := ExtractPartitionKey(doc, pkAttr, "")
		body, err := checkItem(opBulkUpsert, checkScope, doc, pk)
		items[i] = bulkItem{id: doc.ID(), pk: pk, prepErr: err}
		if err != nil {
			continue
		}
		items[i].run = func(ctx context.Context) BulkOperationResult {
			var resp ItemResponse
			err := c.callDetached(ctx, opBulkUpsert, true, func(ctx context.Context) error {
				var err error
				resp, err = c.transport.UpsertItem(ctx, scope.ref(), pk, body, "")
				return err
			})
			res := BulkOperationResult{RequestCharge: resp.RequestCharge, StatusCode: resp.StatusCode}
			if err != nil {
				res.Err = err
				res.StatusCode = StatusOf(err)
				return res
			}
			res.Succeeded = true
			res.Document = doc
			return res
		}
	}
	return c.runBulk(ctx, opBulkUpsert, scope, items, c.bulkOptions(opts))
}

// BulkRead reads keys concurrently. Result i carries the document for
// keys[i]; absent items fail with ErrNotFound.
func (c *Client) BulkRead(ctx context.Context, scope ContainerScope, keys []ItemKey, opts ...BulkOption) BulkSummary {
	items := make([]bulkItem, len(keys))
	for i, k := range keys {
		k := k
		items[i] = bulkItem{id: k.ID, pk: k.PartitionKey, prepErr: checkKey(opBulkRead, k)}
		if items[i].prepErr != nil {
			continue
		}
		items[i].run = func(ctx context.Context) BulkOperationResult {
			var resp ItemResponse
			err := c.callDetached(ctx, opBulkRead, true, func(ctx context.Context) error {
				var err error
				resp, err = c.transport.ReadItem(ctx, scope.ref(), k.PartitionKey, k.ID)
				return err
			})
			res := BulkOperationResult{RequestCharge: resp.RequestCharge, StatusCode: resp.StatusCode}
			if err != nil {
				res.Err = err
				res.StatusCode = StatusOf(err)
				return res
			}
			doc, err := ParseDocument(resp.Body)
			if err != nil {
				res.Err = newError(KindService, opBulkRead, resp.StatusCode, err)
				return res
			}
			res.Succeeded = true
			res.Document = doc
			return res
		}
	}
	return c.runBulk(ctx, opBulkRead, scope, items, c.bulkOptions(opts))
}

// BulkDelete deletes keys concurrently. An item that is already gone counts
// as a success with status 404.
func (c *Client) BulkDelete(ctx context.Context, scope ContainerScope, keys []ItemKey, opts ...BulkOption) BulkSummary {
	items := make([]bulkItem, len(keys))
	for i, k := range keys {
		k := k
		items[i] = bulkItem{id: k.ID, pk: k.PartitionKey, prepErr: checkKey(opBulkDelete, k)}
		if items[i].prepErr != nil {
			continue
		}
		items[i].run = func(ctx context.Context) BulkOperationResult {
			var resp ItemResponse
			err := c.callDetached(ctx, opBulkDelete, true, func(ctx context.Context) error {
				var err error
				resp, err = c.transport.DeleteItem(ctx, scope.ref(), k.PartitionKey, k.ID)
				return err
			})
			res := BulkOperationResult{RequestCharge: resp.RequestCharge, StatusCode: resp.StatusCode}
			switch {
			case err == nil:
				res.Succeeded = true
			case errors.Is(err, ErrNotFound):
				res.Succeeded = true
				res.StatusCode = http.StatusNotFound
			default:
				res.Err = err
				res.StatusCode = StatusOf(err)
			}
			return res
		}
	}
	return c.runBulk(ctx, opBulkDelete, scope, items, c.bulkOptions(opts))
}

func checkKey(op string, k ItemKey) error {
	if k.ID == "" {
		return validationError(op, "id is empty")
	}
	if k.PartitionKey == "" {
		return validationError(op, "partition key value is empty")
	}
	return nil
}

// runBulk fans items out on an errgroup limited to o.concurrency goroutines.
//
// Item goroutines never return an error so that one failure does not cancel
// its siblings. Started requests run on a context detached from ctx's
// cancellation; ctx is consulted before each item and before each retry.
func (c *Client) runBulk(ctx context.Context, op string, scope ContainerScope, items []bulkItem, o bulkOptions) BulkSummary {
	start := time.Now()
	results := make([]BulkOperationResult, len(items))
	for i, it := range items {
		results[i] = BulkOperationResult{Index: i, ID: it.id, PartitionKey: it.pk}
	}

	openErr := c.checkOpen(op)
	if openErr == nil && scope.IsZero() {
		openErr = validationError(op, "container scope is not selected")
	}

	ctx, endSpan := c.startSpan(ctx, op, map[string]interface{}{
		"db.container": scope.String(),
		"bulk.items":   len(items),
	})

	var limiter *rate.Limiter
	if o.rateLimit > 0 {
		burst := int(o.rateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(o.rateLimit), burst)
	}

	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)

	for i := range items {
		it := items[i]
		switch {
		case openErr != nil:
			results[i].Err = openErr
			continue
		case it.prepErr != nil:
			results[i].Err = it.prepErr
			continue
		case ctx.Err() != nil:
			results[i].Err = newError(KindCanceled, op, 0, ctx.Err())
			continue
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				results[i].Err = newError(KindCanceled, op, 0, err)
				continue
			}
		}

		g.Go(func() error {
			// A slot may free up only after cancellation.
			if err := ctx.Err(); err != nil {
				results[i].Err = newError(KindCanceled, op, 0, err)
				return nil
			}
			res := it.run(ctx)
			res.Index, res.ID, res.PartitionKey = i, it.id, it.pk
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	summary := BulkSummary{Results: results, Elapsed: time.Since(start)}
	var firstErr error
	for _, r := range results {
		summary.RequestCharge += r.RequestCharge
		switch {
		case r.Succeeded:
			summary.Succeeded++
		case errors.Is(r.Err, ErrCanceled):
			summary.Canceled++
		default:
			summary.Failed++
			if firstErr == nil {
				firstErr = r.Err
			}
		}
	}

	fields := map[string]interface{}{
		"operation":      op,
		"container":      scope.String(),
		"items":          len(items),
		"succeeded":      summary.Succeeded,
		"failed":         summary.Failed,
		"canceled":       summary.Canceled,
		"outcome":        summary.Outcome().String(),
		"request_charge": summary.RequestCharge,
		"elapsed_ms":     summary.Elapsed.Milliseconds(),
	}
	if summary.Failed > 0 || summary.Canceled > 0 {
		c.logWarn(ctx, "[Cosmos] bulk operation finished with failures", firstErr, fields)
	} else {
		c.logInfo(ctx, "[Cosmos] bulk operation finished", nil, fields)
	}

	var spanErr error
	if summary.Outcome() != Succeeded && len(items) > 0 {
		spanErr = firstErr
		if spanErr == nil {
			spanErr = newError(KindCanceled, op, 0, nil)
		}
	}
	endSpan(spanErr)

	c.observeOperation(op, scope.String(), "", start, firstErr, int64(len(items)), map[string]interface{}{
		"request_charge": summary.RequestCharge,
		"succeeded":      summary.Succeeded,
		"failed":         summary.Failed + summary.Canceled,
	})
	return summary
}
