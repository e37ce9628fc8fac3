package cosmos

import (
	"context"
)

// Transport is the remote protocol beneath the client. The production
// implementation speaks to the service through the Azure SDK; the cosmostest
// package provides an in-memory one.
//
// Implementations report service rejections as *ResponseError and must be
// safe for concurrent use. Every call is a single attempt: retries, timeouts
// and error classification are applied by the client.
//
//go:generate mockgen -source=transport.go -destination=mock_transport.go -package=cosmos
type Transport interface {
	ListDatabases(ctx context.Context) ([]string, error)
	// CreateDatabase fails with status 409 when the database exists.
	CreateDatabase(ctx context.Context, id string, throughput *Throughput) error
	ReadDatabase(ctx context.Context, id string) error
	DeleteDatabase(ctx context.Context, id string) error

	ListContainers(ctx context.Context, database string) ([]string, error)
	// CreateContainer fails with status 409 when the container exists.
	CreateContainer(ctx context.Context, database string, props ContainerProperties) error
	// ReadContainer returns the stored container definition with Throughput
	// left nil.
	ReadContainer(ctx context.Context, ref ContainerRef) (ContainerProperties, error)
	// ReadContainerThroughput returns the dedicated throughput of the
	// container, or nil when it shares database throughput or the account
	// has no provisioned throughput (serverless).
	ReadContainerThroughput(ctx context.Context, ref ContainerRef) (*Throughput, error)
	ReplaceContainer(ctx context.Context, ref ContainerRef, props ContainerProperties) (ContainerProperties, error)
	DeleteContainer(ctx context.Context, ref ContainerRef) error

	ReadItem(ctx context.Context, ref ContainerRef, pk, id string) (ItemResponse, error)
	CreateItem(ctx context.Context, ref ContainerRef, pk string, body []byte) (ItemResponse, error)
	UpsertItem(ctx context.Context, ref ContainerRef, pk string, body []byte, ifMatch string) (ItemResponse, error)
	DeleteItem(ctx context.Context, ref ContainerRef, pk, id string) (ItemResponse, error)

	// QueryPage fetches one page of results.
	QueryPage(ctx context.Context, ref ContainerRef, req QueryRequest) (QueryPage, error)

	ExecuteBatch(ctx context.Context, ref ContainerRef, pk string, ops []BatchStep) (BatchResponse, error)

	Close() error
}

// ItemResponse is the result of a point operation.
type ItemResponse struct {
	StatusCode    int
	Body          []byte
	ETag          string
	RequestCharge float64
}

// QueryRequest asks for one page of a query.
type QueryRequest struct {
	SQL string
	// PartitionKey restricts the query to one logical partition; nil means
	// a cross-partition query.
	PartitionKey *string
	Parameters   []QueryParameter
	PageSize     int
	// Continuation is the opaque token from the previous page; empty for
	// the first page.
	Continuation string
}

// QueryPage is one page of query results.
type QueryPage struct {
	Items [][]byte
	// Continuation is empty when there are no further pages.
	Continuation  string
	RequestCharge float64
}

// BatchStep is an encoded BatchOperation.
type BatchStep struct {
	Type    BatchOperationType
	ID      string
	Body    []byte
	IfMatch string
}

// BatchResponse is the transport view of a transactional batch.
type BatchResponse struct {
	Success       bool
	Results       []ItemResponse
	RequestCharge float64
}
