// Package cosmostest provides an in-memory cosmos.Transport for tests.
//
// The fake keeps databases, containers and items in maps guarded by one
// mutex and answers with the status codes the service uses: 404 for absent
// resources, 409 for duplicates, 412 for etag mismatches and 400 for queries
// it does not understand. It supports a small SQL subset:
//
//	SELECT * FROM c
//	SELECT * FROM c WHERE c.status = 'open' AND c.total = 12 AND c.city = @city
//	SELECT VALUE COUNT(1) FROM c [WHERE ...]
//
// Results are ordered by partition key, then id, so pagination is
// deterministic. Failures can be injected per method with FailNext, and
// SetHook runs a function before every call, which is how tests block or
// slow down requests.
package cosmostest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Aleph-Alpha/docstore/v1/cosmos"
)

// Request charges reported by the fake.
const (
	ReadCharge  = 1.0
	WriteCharge = 5.0
	QueryCharge = 2.5
)

// Method names accepted by FailNext, Calls and hooks.
const (
	MethodListDatabases    = "ListDatabases"
	MethodCreateDatabase   = "CreateDatabase"
	MethodReadDatabase     = "ReadDatabase"
	MethodDeleteDatabase   = "DeleteDatabase"
	MethodListContainers   = "ListContainers"
	MethodCreateContainer  = "CreateContainer"
	MethodReadContainer    = "ReadContainer"
	MethodReadThroughput   = "ReadContainerThroughput"
	MethodReplaceContainer = "ReplaceContainer"
	MethodDeleteContainer  = "DeleteContainer"
	MethodReadItem         = "ReadItem"
	MethodCreateItem       = "CreateItem"
	MethodUpsertItem       = "UpsertItem"
	MethodDeleteItem       = "DeleteItem"
	MethodQueryPage        = "QueryPage"
	MethodExecuteBatch     = "ExecuteBatch"
)

// ErrTransportClosed is returned by every call after Close.
var ErrTransportClosed = errors.New("cosmostest: transport closed")

// Hook runs before a call is served. A non-nil error is returned to the
// caller instead of serving the call.
type Hook func(ctx context.Context, method string) error

type itemKey struct {
	pk string
	id string
}

type storedItem struct {
	pk   string
	doc  *cosmos.Document
	etag string
}

type container struct {
	props cosmos.ContainerProperties
	items map[itemKey]*storedItem
}

type database struct {
	throughput *cosmos.Throughput
	containers map[string]*container
}

// Transport is an in-memory cosmos.Transport. The zero value is not usable;
// call NewTransport.
type Transport struct {
	mu       sync.Mutex
	dbs      map[string]*database
	faults   map[string][]error
	calls    map[string]int
	hook     Hook
	etagSeq  uint64
	closed   bool
	closeCnt int
}

var _ cosmos.Transport = (*Transport)(nil)

// NewTransport returns an empty account.
func NewTransport() *Transport {
	return &Transport{
		dbs:    make(map[string]*database),
		faults: make(map[string][]error),
		calls:  make(map[string]int),
	}
}

// FailNext makes the next len(errs) calls of method fail with errs, in order.
func (t *Transport) FailNext(method string, errs ...error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.faults[method] = append(t.faults[method], errs...)
}

// SetHook installs h, replacing any previous hook. nil removes it.
func (t *Transport) SetHook(h Hook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hook = h
}

// Calls returns how many times method was invoked, including failed calls.
func (t *Transport) Calls(method string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[method]
}

// CloseCalls returns how many times Close was invoked.
func (t *Transport) CloseCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeCnt
}

// Items returns copies of the items stored in a container, ordered by
// partition key and id.
func (t *Transport) Items(database, containerName string) []*cosmos.Document {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.containerLocked(cosmos.ContainerRef{Database: database, Container: containerName})
	if err != nil {
		return nil
	}
	keys := sortedKeys(c.items)
	out := make([]*cosmos.Document, len(keys))
	for i, k := range keys {
		out[i] = c.items[k].doc.Clone()
	}
	return out
}

// Status builds the error the service returns for status code.
func Status(code int) error {
	return &cosmos.ResponseError{StatusCode: code, Code: http.StatusText(code)}
}

// enter counts the call, runs the hook and pops an injected fault. The
// hook runs without the lock held so it may block.
func (t *Transport) enter(ctx context.Context, method string) error {
	t.mu.Lock()
	t.calls[method]++
	hook := t.hook
	closed := t.closed
	var fault error
	if q := t.faults[method]; len(q) > 0 {
		fault, t.faults[method] = q[0], q[1:]
	}
	t.mu.Unlock()

	if closed {
		return ErrTransportClosed
	}
	if hook != nil {
		if err := hook(ctx, method); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fault
}

func (t *Transport) nextETag() string {
	t.etagSeq++
	return fmt.Sprintf("\"%016x\"", t.etagSeq)
}

func (t *Transport) containerLocked(ref cosmos.ContainerRef) (*container, error) {
	db, ok := t.dbs[ref.Database]
	if !ok {
		return nil, Status(http.StatusNotFound)
	}
	c, ok := db.containers[ref.Container]
	if !ok {
		return nil, Status(http.StatusNotFound)
	}
	return c, nil
}

// ── Databases ─────────────────────────────────────────────────────────────────

func (t *Transport) ListDatabases(ctx context.Context) ([]string, error) {
	if err := t.enter(ctx, MethodListDatabases); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.dbs))
	for name := range t.dbs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (t *Transport) CreateDatabase(ctx context.Context, id string, throughput *cosmos.Throughput) error {
	if err := t.enter(ctx, MethodCreateDatabase); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.dbs[id]; ok {
		return Status(http.StatusConflict)
	}
	db := &database{containers: make(map[string]*container)}
	if throughput != nil {
		tp := *throughput
		db.throughput = &tp
	}
	t.dbs[id] = db
	return nil
}

func (t *Transport) ReadDatabase(ctx context.Context, id string) error {
	if err := t.enter(ctx, MethodReadDatabase); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.dbs[id]; !ok {
		return Status(http.StatusNotFound)
	}
	return nil
}

func (t *Transport) DeleteDatabase(ctx context.Context, id string) error {
	if err := t.enter(ctx, MethodDeleteDatabase); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.dbs[id]; !ok {
		return Status(http.StatusNotFound)
	}
	delete(t.dbs, id)
	return nil
}

// ── Containers ────────────────────────────────────────────────────────────────

func (t *Transport) ListContainers(ctx context.Context, databaseName string) ([]string, error) {
	if err := t.enter(ctx, MethodListContainers); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	db, ok := t.dbs[databaseName]
	if !ok {
		return nil, Status(http.StatusNotFound)
	}
	names := make([]string, 0, len(db.containers))
	for name := range db.containers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (t *Transport) CreateContainer(ctx context.Context, databaseName string, props cosmos.ContainerProperties) error {
	if err := t.enter(ctx, MethodCreateContainer); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	db, ok := t.dbs[databaseName]
	if !ok {
		return Status(http.StatusNotFound)
	}
	if _, ok := db.containers[props.ID]; ok {
		return Status(http.StatusConflict)
	}
	db.containers[props.ID] = &container{
		props: copyProperties(props),
		items: make(map[itemKey]*storedItem),
	}
	return nil
}

func (t *Transport) ReadContainer(ctx context.Context, ref cosmos.ContainerRef) (cosmos.ContainerProperties, error) {
	if err := t.enter(ctx, MethodReadContainer); err != nil {
		return cosmos.ContainerProperties{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.containerLocked(ref)
	if err != nil {
		return cosmos.ContainerProperties{}, err
	}
	props := copyProperties(c.props)
	props.Throughput = nil
	return props, nil
}

func (t *Transport) ReadContainerThroughput(ctx context.Context, ref cosmos.ContainerRef) (*cosmos.Throughput, error) {
	if err := t.enter(ctx, MethodReadThroughput); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.containerLocked(ref)
	if err != nil {
		return nil, err
	}
	return copyProperties(c.props).Throughput, nil
}

// ReplaceContainer replaces the indexing policy and TTL. Like the service,
// it refuses to change the partition key or the vector indexes.
func (t *Transport) ReplaceContainer(ctx context.Context, ref cosmos.ContainerRef, props cosmos.ContainerProperties) (cosmos.ContainerProperties, error) {
	if err := t.enter(ctx, MethodReplaceContainer); err != nil {
		return cosmos.ContainerProperties{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.containerLocked(ref)
	if err != nil {
		return cosmos.ContainerProperties{}, err
	}
	if props.PartitionKeyPath != c.props.PartitionKeyPath {
		return cosmos.ContainerProperties{}, &cosmos.ResponseError{
			StatusCode: http.StatusBadRequest,
			Code:       "BadRequest",
			Message:    "partition key cannot be changed",
		}
	}
	if !sameVectorIndexes(props.IndexPolicy.VectorIndexes, c.props.IndexPolicy.VectorIndexes) {
		return cosmos.ContainerProperties{}, &cosmos.ResponseError{
			StatusCode: http.StatusBadRequest,
			Code:       "BadRequest",
			Message:    "vector indexes cannot be modified",
		}
	}

	next := copyProperties(props)
	next.Throughput = c.props.Throughput
	next.VectorEmbeddings = c.props.VectorEmbeddings
	c.props = next
	return copyProperties(c.props), nil
}

func (t *Transport) DeleteContainer(ctx context.Context, ref cosmos.ContainerRef) error {
	if err := t.enter(ctx, MethodDeleteContainer); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.containerLocked(ref); err != nil {
		return err
	}
	delete(t.dbs[ref.Database].containers, ref.Container)
	return nil
}

// ── Items ─────────────────────────────────────────────────────────────────────

func (t *Transport) ReadItem(ctx context.Context, ref cosmos.ContainerRef, pk, id string) (cosmos.ItemResponse, error) {
	if err := t.enter(ctx, MethodReadItem); err != nil {
		return cosmos.ItemResponse{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.containerLocked(ref)
	if err != nil {
		return cosmos.ItemResponse{}, err
	}
	it, ok := c.items[itemKey{pk: pk, id: id}]
	if !ok {
		return cosmos.ItemResponse{}, Status(http.StatusNotFound)
	}
	return itemResponse(http.StatusOK, it, ReadCharge)
}

func (t *Transport) CreateItem(ctx context.Context, ref cosmos.ContainerRef, pk string, body []byte) (cosmos.ItemResponse, error) {
	if err := t.enter(ctx, MethodCreateItem); err != nil {
		return cosmos.ItemResponse{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.containerLocked(ref)
	if err != nil {
		return cosmos.ItemResponse{}, err
	}
	it, status, err := t.applyWrite(c.items, cosmos.BatchCreate, pk, "", body, "")
	if err != nil {
		return cosmos.ItemResponse{}, err
	}
	return itemResponse(status, it, WriteCharge)
}

func (t *Transport) UpsertItem(ctx context.Context, ref cosmos.ContainerRef, pk string, body []byte, ifMatch string) (cosmos.ItemResponse, error) {
	if err := t.enter(ctx, MethodUpsertItem); err != nil {
		return cosmos.ItemResponse{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.containerLocked(ref)
	if err != nil {
		return cosmos.ItemResponse{}, err
	}
	it, status, err := t.applyWrite(c.items, cosmos.BatchUpsert, pk, "", body, ifMatch)
	if err != nil {
		return cosmos.ItemResponse{}, err
	}
	return itemResponse(status, it, WriteCharge)
}

func (t *Transport) DeleteItem(ctx context.Context, ref cosmos.ContainerRef, pk, id string) (cosmos.ItemResponse, error) {
	if err := t.enter(ctx, MethodDeleteItem); err != nil {
		return cosmos.ItemResponse{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.containerLocked(ref)
	if err != nil {
		return cosmos.ItemResponse{}, err
	}
	k := itemKey{pk: pk, id: id}
	if _, ok := c.items[k]; !ok {
		return cosmos.ItemResponse{}, Status(http.StatusNotFound)
	}
	delete(c.items, k)
	return cosmos.ItemResponse{StatusCode: http.StatusNoContent, RequestCharge: WriteCharge}, nil
}

// applyWrite performs a create, upsert or replace on items and returns the
// stored item and the success status.
func (t *Transport) applyWrite(items map[itemKey]*storedItem, op cosmos.BatchOperationType, pk, id string, body []byte, ifMatch string) (*storedItem, int, error) {
	doc, err := cosmos.ParseDocument(body)
	if err != nil {
		return nil, 0, &cosmos.ResponseError{StatusCode: http.StatusBadRequest, Code: "BadRequest", Message: err.Error()}
	}
	docID := doc.ID()
	if docID == "" {
		return nil, 0, &cosmos.ResponseError{StatusCode: http.StatusBadRequest, Code: "BadRequest", Message: "missing id"}
	}
	if id != "" && id != docID {
		return nil, 0, &cosmos.ResponseError{StatusCode: http.StatusBadRequest, Code: "BadRequest", Message: "id mismatch"}
	}

	k := itemKey{pk: pk, id: docID}
	existing, exists := items[k]
	switch op {
	case cosmos.BatchCreate:
		if exists {
			return nil, 0, Status(http.StatusConflict)
		}
	case cosmos.BatchReplace:
		if !exists {
			return nil, 0, Status(http.StatusNotFound)
		}
	}
	if ifMatch != "" && (!exists || existing.etag != ifMatch) {
		return nil, 0, Status(http.StatusPreconditionFailed)
	}

	doc.Delete(cosmos.FieldETag)
	it := &storedItem{pk: pk, doc: doc, etag: t.nextETag()}
	items[k] = it

	status := http.StatusOK
	if !exists {
		status = http.StatusCreated
	}
	return it, status, nil
}

func itemResponse(status int, it *storedItem, charge float64) (cosmos.ItemResponse, error) {
	body, err := withETag(it).MarshalJSON()
	if err != nil {
		return cosmos.ItemResponse{}, err
	}
	return cosmos.ItemResponse{
		StatusCode:    status,
		Body:          body,
		ETag:          it.etag,
		RequestCharge: charge,
	}, nil
}

func withETag(it *storedItem) *cosmos.Document {
	return it.doc.Clone().Set(cosmos.FieldETag, cosmos.String(it.etag))
}

// ── Queries ───────────────────────────────────────────────────────────────────

// QueryPage evaluates req against the container. The continuation token is
// the offset of the next result.
func (t *Transport) QueryPage(ctx context.Context, ref cosmos.ContainerRef, req cosmos.QueryRequest) (cosmos.QueryPage, error) {
	if err := t.enter(ctx, MethodQueryPage); err != nil {
		return cosmos.QueryPage{}, err
	}
	q, err := parseQuery(req.SQL, req.Parameters)
	if err != nil {
		return cosmos.QueryPage{}, &cosmos.ResponseError{StatusCode: http.StatusBadRequest, Code: "BadRequest", Message: err.Error()}
	}

	offset := 0
	if req.Continuation != "" {
		offset, err = strconv.Atoi(req.Continuation)
		if err != nil || offset < 0 {
			return cosmos.QueryPage{}, &cosmos.ResponseError{StatusCode: http.StatusBadRequest, Code: "BadRequest", Message: "invalid continuation token"}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.containerLocked(ref)
	if err != nil {
		return cosmos.QueryPage{}, err
	}

	var matched []*storedItem
	for _, k := range sortedKeys(c.items) {
		if req.PartitionKey != nil && k.pk != *req.PartitionKey {
			continue
		}
		it := c.items[k]
		if q.matches(it.doc) {
			matched = append(matched, it)
		}
	}

	if q.count {
		return countPage(matched, req.PartitionKey == nil, offset)
	}

	size := req.PageSize
	if size <= 0 {
		size = cosmos.DefaultQueryPageSize
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + size
	if end > len(matched) {
		end = len(matched)
	}

	page := cosmos.QueryPage{RequestCharge: QueryCharge}
	for _, it := range matched[offset:end] {
		body, err := withETag(it).MarshalJSON()
		if err != nil {
			return cosmos.QueryPage{}, err
		}
		page.Items = append(page.Items, body)
	}
	if end < len(matched) {
		page.Continuation = strconv.Itoa(end)
	}
	return page, nil
}

// countPage answers a count. A cross-partition count is returned the way
// the service may return it: one partial count per partition, one page each.
// matched is in key order, so items of one partition are adjacent.
func countPage(matched []*storedItem, crossPartition bool, offset int) (cosmos.QueryPage, error) {
	if !crossPartition {
		return cosmos.QueryPage{
			Items:         [][]byte{[]byte(strconv.Itoa(len(matched)))},
			RequestCharge: QueryCharge,
		}, nil
	}

	var partitions []int
	last := ""
	for i, it := range matched {
		if i == 0 || it.pk != last {
			partitions = append(partitions, 0)
			last = it.pk
		}
		partitions[len(partitions)-1]++
	}
	if len(partitions) == 0 {
		return cosmos.QueryPage{Items: [][]byte{[]byte("0")}, RequestCharge: QueryCharge}, nil
	}
	if offset >= len(partitions) {
		return cosmos.QueryPage{RequestCharge: QueryCharge}, nil
	}

	page := cosmos.QueryPage{
		Items:         [][]byte{[]byte(strconv.Itoa(partitions[offset]))},
		RequestCharge: QueryCharge,
	}
	if offset+1 < len(partitions) {
		page.Continuation = strconv.Itoa(offset + 1)
	}
	return page, nil
}

// ── Batches ───────────────────────────────────────────────────────────────────

// ExecuteBatch applies ops to a copy of the partition and swaps it in only
// when every step succeeded. A failed step keeps its status; the others
// report 424.
func (t *Transport) ExecuteBatch(ctx context.Context, ref cosmos.ContainerRef, pk string, ops []cosmos.BatchStep) (cosmos.BatchResponse, error) {
	if err := t.enter(ctx, MethodExecuteBatch); err != nil {
		return cosmos.BatchResponse{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.containerLocked(ref)
	if err != nil {
		return cosmos.BatchResponse{}, err
	}

	work := make(map[itemKey]*storedItem, len(c.items))
	for k, v := range c.items {
		work[k] = v
	}

	results := make([]cosmos.ItemResponse, len(ops))
	failed := -1
	for i, op := range ops {
		res, err := t.applyStep(work, pk, op)
		if err != nil {
			failed = i
			results[i] = cosmos.ItemResponse{StatusCode: cosmos.StatusOf(err)}
			break
		}
		results[i] = res
	}

	resp := cosmos.BatchResponse{Results: results, RequestCharge: WriteCharge * float64(len(ops))}
	if failed >= 0 {
		for i := range results {
			if i != failed {
				results[i] = cosmos.ItemResponse{StatusCode: http.StatusFailedDependency}
			}
		}
		return resp, nil
	}

	c.items = work
	resp.Success = true
	return resp, nil
}

func (t *Transport) applyStep(items map[itemKey]*storedItem, pk string, op cosmos.BatchStep) (cosmos.ItemResponse, error) {
	switch op.Type {
	case cosmos.BatchCreate, cosmos.BatchUpsert, cosmos.BatchReplace:
		it, status, err := t.applyWrite(items, op.Type, pk, op.ID, op.Body, op.IfMatch)
		if err != nil {
			return cosmos.ItemResponse{}, err
		}
		return itemResponse(status, it, WriteCharge)
	case cosmos.BatchRead:
		it, ok := items[itemKey{pk: pk, id: op.ID}]
		if !ok {
			return cosmos.ItemResponse{}, Status(http.StatusNotFound)
		}
		return itemResponse(http.StatusOK, it, ReadCharge)
	case cosmos.BatchDelete:
		k := itemKey{pk: pk, id: op.ID}
		it, ok := items[k]
		if !ok {
			return cosmos.ItemResponse{}, Status(http.StatusNotFound)
		}
		if op.IfMatch != "" && it.etag != op.IfMatch {
			return cosmos.ItemResponse{}, Status(http.StatusPreconditionFailed)
		}
		delete(items, k)
		return cosmos.ItemResponse{StatusCode: http.StatusNoContent, RequestCharge: WriteCharge}, nil
	default:
		return cosmos.ItemResponse{}, Status(http.StatusBadRequest)
	}
}

// Close marks the transport closed. Later calls fail with
// ErrTransportClosed.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeCnt++
	t.closed = true
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func sortedKeys(items map[itemKey]*storedItem) []itemKey {
	keys := make([]itemKey, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].pk != keys[j].pk {
			return keys[i].pk < keys[j].pk
		}
		return keys[i].id < keys[j].id
	})
	return keys
}

func copyProperties(p cosmos.ContainerProperties) cosmos.ContainerProperties {
	out := p
	if p.Throughput != nil {
		tp := *p.Throughput
		out.Throughput = &tp
	}
	if p.DefaultTTL != nil {
		ttl := *p.DefaultTTL
		out.DefaultTTL = &ttl
	}
	out.IndexPolicy.IncludedPaths = append([]cosmos.IndexPath(nil), p.IndexPolicy.IncludedPaths...)
	out.IndexPolicy.ExcludedPaths = append([]cosmos.IndexPath(nil), p.IndexPolicy.ExcludedPaths...)
	out.IndexPolicy.VectorIndexes = append([]cosmos.VectorIndex(nil), p.IndexPolicy.VectorIndexes...)
	out.VectorEmbeddings = append([]cosmos.VectorEmbedding(nil), p.VectorEmbeddings...)
	return out
}

func sameVectorIndexes(a, b []cosmos.VectorIndex) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, v := range a {
		seen[v.Path+"|"+strings.ToLower(v.Type)]++
	}
	for _, v := range b {
		k := v.Path + "|" + strings.ToLower(v.Type)
		if seen[k] == 0 {
			return false
		}
		seen[k]--
	}
	return true
}
