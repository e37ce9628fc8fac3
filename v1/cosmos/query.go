package cosmos

import (
	"context"
	"iter"
	"strings"
	"time"
)

// projectionField names the field scalar query results are wrapped in.
const projectionField = "$1"

type queryOptions struct {
	partitionKey *string
	pageSize     int
	parameters   []QueryParameter
	continuation string
}

// QueryOption customises Query and CountDocuments.
type QueryOption func(*queryOptions)

// WithPartitionKey restricts the query to one logical partition. Without it
// the query fans out across partitions.
func WithPartitionKey(pk string) QueryOption {
	return func(o *queryOptions) { o.partitionKey = &pk }
}

// WithPageSize sets the page size hint.
func WithPageSize(n int) QueryOption {
	return func(o *queryOptions) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithParameters binds named parameters such as "@status".
func WithParameters(params ...QueryParameter) QueryOption {
	return func(o *queryOptions) { o.parameters = append(o.parameters, params...) }
}

// WithContinuation resumes a query from a token returned by
// QueryIterator.ContinuationToken.
func WithContinuation(token string) QueryOption {
	return func(o *queryOptions) { o.continuation = token }
}

func (c *Client) queryOptions(opts []QueryOption) queryOptions {
	qo := queryOptions{pageSize: c.cfg.QueryPageSize}
	for _, opt := range opts {
		opt(&qo)
	}
	return qo
}

// QueryIterator pulls the pages of one query. It fetches nothing until the
// first page is requested and keeps the context passed to Query for its
// whole life, the way database/sql.Rows does.
//
// An iterator is not safe for concurrent use, but any number of iterators
// may run concurrently against the same Client.
type QueryIterator struct {
	c     *Client
	ctx   context.Context
	scope ContainerScope
	sql   string
	opts  queryOptions

	continuation string
	done         bool
	err          error
	charge       float64

	buf []*Document
	cur *Document
}

// Query prepares sql against the container. Problems with the arguments and
// syntax errors reported by the service (ErrQuerySyntax) surface on the first
// page fetch.
//
//	it := client.Query(ctx, orders, "SELECT * FROM c WHERE c.status = @s",
//		cosmos.WithParameters(cosmos.QueryParameter{Name: "@s", Value: "open"}),
//		cosmos.WithPageSize(50))
//	for doc, err := range it.All() {
//		if err != nil {
//			return err
//		}
//		...
//	}
func (c *Client) Query(ctx context.Context, scope ContainerScope, sql string, opts ...QueryOption) *QueryIterator {
	it := &QueryIterator{
		c:     c,
		ctx:   ctx,
		scope: scope,
		sql:   sql,
	}
	if err := c.checkOpen(opQuery); err != nil {
		it.err = err
		return it
	}
	it.opts = c.queryOptions(opts)
	it.continuation = it.opts.continuation

	switch {
	case scope.IsZero():
		it.err = validationError(opQuery, "container scope is not selected")
	case strings.TrimSpace(sql) == "":
		it.err = validationError(opQuery, "query text is empty")
	}
	return it
}

// More reports whether another page may be fetched.
func (it *QueryIterator) More() bool {
	return it.err == nil && !it.done
}

// NextPage fetches the next page. After the last page it returns an empty
// slice and nil; call More to distinguish.
func (it *QueryIterator) NextPage() ([]*Document, error) {
	if it.err != nil {
		return nil, it.err
	}
	if it.done {
		return nil, nil
	}

	start := time.Now()
	req := QueryRequest{
		SQL:          it.sql,
		PartitionKey: it.opts.partitionKey,
		Parameters:   it.opts.parameters,
		PageSize:     it.opts.pageSize,
		Continuation: it.continuation,
	}

	var page QueryPage
	err := it.c.call(it.ctx, opQuery, true, func(ctx context.Context) error {
		var err error
		page, err = it.c.transport.QueryPage(ctx, it.scope.ref(), req)
		return err
	})
	it.c.observeOperation(opQuery, it.scope.String(), "", start, err, int64(len(page.Items)), chargeMetadata(page.RequestCharge))
	if err != nil {
		it.err = err
		it.c.logDebug(it.ctx, "[Cosmos] query page failed", err, map[string]interface{}{
			"container": it.scope.String(),
		})
		return nil, err
	}

	it.charge += page.RequestCharge
	it.continuation = page.Continuation
	if page.Continuation == "" {
		it.done = true
	}

	docs := make([]*Document, 0, len(page.Items))
	for _, raw := range page.Items {
		doc, err := decodeQueryItem(raw)
		if err != nil {
			it.err = newError(KindService, opQuery, 0, err)
			return nil, it.err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Next advances to the next document, fetching pages as needed.
func (it *QueryIterator) Next() bool {
	for len(it.buf) == 0 {
		if !it.More() {
			it.cur = nil
			return false
		}
		page, err := it.NextPage()
		if err != nil {
			it.cur = nil
			return false
		}
		it.buf = page
	}
	it.cur, it.buf = it.buf[0], it.buf[1:]
	return true
}

// Document returns the document Next advanced to.
func (it *QueryIterator) Document() *Document {
	return it.cur
}

// Err returns the error that stopped iteration, if any.
func (it *QueryIterator) Err() error {
	return it.err
}

// All yields every remaining document. Iteration stops after yielding an
// error.
func (it *QueryIterator) All() iter.Seq2[*Document, error] {
	return func(yield func(*Document, error) bool) {
		for it.Next() {
			if !yield(it.cur, nil) {
				return
			}
		}
		if it.err != nil {
			yield(nil, it.err)
		}
	}
}

// Collect drains the iterator.
func (it *QueryIterator) Collect() ([]*Document, error) {
	var out []*Document
	for it.Next() {
		out = append(out, it.cur)
	}
	if it.err != nil {
		return nil, it.err
	}
	return out, nil
}

// ContinuationToken returns the token that resumes the query after the
// last fetched page, or "" when the query is exhausted or not started.
func (it *QueryIterator) ContinuationToken() string {
	if it.done {
		return ""
	}
	return it.continuation
}

// RequestCharge returns the request units consumed by fetched pages.
func (it *QueryIterator) RequestCharge() float64 {
	return it.charge
}

func decodeQueryItem(raw []byte) (*Document, error) {
	var v Value
	if err := v.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	if doc, ok := v.AsObject(); ok {
		return doc, nil
	}
	return NewDocument().Set(projectionField, v), nil
}
