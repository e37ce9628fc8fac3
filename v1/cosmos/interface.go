package cosmos

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/trace"
)

// Logger is the logging contract of the client. *logger.LoggerClient
// satisfies it.
type Logger interface {
	DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// Tracer opens spans. *tracer.Tracer satisfies it.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, trace.Span)
	RecordErrorOnSpan(span trace.Span, err error)
	SetAttributes(span trace.Span, attrs map[string]interface{})
}

// Catalog manages databases and containers.
type Catalog interface {
	ListDatabases(ctx context.Context) ([]string, error)
	CreateDatabase(ctx context.Context, name string, throughput int) (bool, error)
	DeleteDatabase(ctx context.Context, name string) (int, error)
	SelectDatabase(ctx context.Context, name string) (DatabaseScope, error)

	ListContainers(ctx context.Context, db DatabaseScope) ([]string, error)
	CreateContainer(ctx context.Context, db DatabaseScope, name string, opts ...ContainerOption) (bool, error)
	CreateVectorContainer(ctx context.Context, db DatabaseScope, spec VectorContainerSpec) (bool, error)
	DeleteContainer(ctx context.Context, db DatabaseScope, name string) (int, error)
	SelectContainer(ctx context.Context, db DatabaseScope, name string) (ContainerScope, error)
	GetContainerProperties(ctx context.Context, scope ContainerScope) (ContainerProperties, error)
}

// Items performs point operations.
type Items interface {
	PointRead(ctx context.Context, scope ContainerScope, id, pk string) (*Document, error)
	Create(ctx context.Context, scope ContainerScope, doc *Document, pk string) (*Document, error)
	Upsert(ctx context.Context, scope ContainerScope, doc *Document, pk string, opts *ItemOptions) (*Document, error)
	Delete(ctx context.Context, scope ContainerScope, id, pk string) (DeleteOutcome, error)
	CountDocuments(ctx context.Context, scope ContainerScope, opts ...QueryOption) (int64, error)
}

// Bulk runs many point operations concurrently.
type Bulk interface {
	BulkUpsert(ctx context.Context, scope ContainerScope, docs []*Document, pkAttr string, opts ...BulkOption) BulkSummary
	BulkRead(ctx context.Context, scope ContainerScope, keys []ItemKey, opts ...BulkOption) BulkSummary
	BulkDelete(ctx context.Context, scope ContainerScope, keys []ItemKey, opts ...BulkOption) BulkSummary
	ExecuteBatch(ctx context.Context, scope ContainerScope, pk string, ops []BatchOperation) (BatchResult, error)
}

// Queries runs SQL queries.
type Queries interface {
	Query(ctx context.Context, scope ContainerScope, sql string, opts ...QueryOption) *QueryIterator
}

// IndexPolicies reads and replaces indexing policies.
type IndexPolicies interface {
	GetIndexPolicy(ctx context.Context, scope ContainerScope) (IndexPolicy, error)
	ReplaceIndexPolicy(ctx context.Context, scope ContainerScope, policy IndexPolicy) (IndexPolicy, error)
	InstallIndexPolicy(ctx context.Context, scope ContainerScope, r io.Reader) (IndexPolicy, error)
}

// DocumentStore is the full client surface, implemented by *Client.
type DocumentStore interface {
	Catalog
	Items
	Bulk
	Queries
	IndexPolicies
	Close() error
}

var _ DocumentStore = (*Client)(nil)
