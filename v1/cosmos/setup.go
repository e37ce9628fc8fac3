package cosmos

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Aleph-Alpha/docstore/v1/observability"
)

// Operation names used in errors, logs and observations.
const (
	opOpen                  = "open"
	opListDatabases         = "list_databases"
	opCreateDatabase        = "create_database"
	opDeleteDatabase        = "delete_database"
	opSelectDatabase        = "select_database"
	opListContainers        = "list_containers"
	opCreateContainer       = "create_container"
	opCreateVectorContainer = "create_vector_container"
	opDeleteContainer       = "delete_container"
	opSelectContainer       = "select_container"
	opContainerProperties   = "container_properties"
	opPointRead             = "point_read"
	opCreate                = "create"
	opUpsert                = "upsert"
	opDelete                = "delete"
	opCount                 = "count"
	opQuery                 = "query"
	opBulkUpsert            = "bulk_upsert"
	opBulkRead              = "bulk_read"
	opBulkDelete            = "bulk_delete"
	opBatch                 = "execute_batch"
	opGetIndexPolicy        = "get_index_policy"
	opReplaceIndexPolicy    = "replace_index_policy"
)

var (
	errMissingKey              = errors.New("auth mode key requires an account key")
	errMissingConnectionString = errors.New("auth mode connection-string requires a connection string")
)

// Client is a connection to one database account.
//
// A Client is safe for concurrent use. It holds no per-database or
// per-container state: every data operation takes the DatabaseScope or
// ContainerScope it acts on.
type Client struct {
	cfg       Config
	transport Transport
	logger    Logger
	observer  observability.Observer
	tracer    Tracer

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// Option customises Open.
type Option func(*Client)

// WithLogger attaches a logger. Without one the client logs nothing.
func WithLogger(l Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver attaches an operation observer, e.g. metrics.OperationObserver.
func WithObserver(o observability.Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithTracer makes bulk, batch, query and index policy calls open spans.
func WithTracer(t Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithTransport replaces the Azure SDK transport, typically with the
// in-memory one from cosmostest.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// Open validates cfg and builds a client. Nothing is sent to the service
// unless cfg.VerifyConnection is set, in which case the databases are listed
// once so that rejected credentials (ErrAuth) and unreachable endpoints
// (ErrNetwork) surface here rather than on first use.
//
// Configuration problems are reported before any connection attempt: an
// empty or malformed endpoint or an unknown auth mode yields ErrValidation,
// a missing key yields ErrAuth.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{cfg: cfg.withDefaults()}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		t, err := newAzureTransport(c.cfg)
		if err != nil {
			return nil, err
		}
		c.transport = t
	}

	if c.cfg.VerifyConnection {
		if _, err := c.ListDatabases(ctx); err != nil {
			_ = c.transport.Close()
			c.logError(ctx, "[Cosmos] connectivity check failed", err, map[string]interface{}{
				"endpoint": c.cfg.Endpoint,
			})
			return nil, err
		}
	}

	c.logInfo(ctx, "[Cosmos] client ready", nil, map[string]interface{}{
		"endpoint":  c.cfg.Endpoint,
		"auth_mode": string(c.cfg.AuthMode),
	})
	return c, nil
}

// Config returns the effective configuration with defaults applied. The key
// and connection string are redacted.
func (c *Client) Config() Config {
	cfg := c.cfg
	if cfg.Key != "" {
		cfg.Key = "REDACTED"
	}
	if cfg.ConnectionString != "" {
		cfg.ConnectionString = "REDACTED"
	}
	return cfg
}

// Close releases the transport. It is idempotent and safe on a nil client.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.transport != nil {
			c.closeErr = c.transport.Close()
		}
		c.logInfo(context.Background(), "[Cosmos] client closed", c.closeErr)
	})
	return c.closeErr
}

func (c *Client) checkOpen(op string) error {
	if c == nil || c.transport == nil || c.closed.Load() {
		return newError(KindClosed, op, 0, nil)
	}
	return nil
}

func (c *Client) logDebug(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	if c.logger != nil {
		c.logger.DebugWithContext(ctx, msg, err, fields...)
	}
}

func (c *Client) logInfo(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	if c.logger != nil {
		c.logger.InfoWithContext(ctx, msg, err, fields...)
	}
}

func (c *Client) logWarn(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	if c.logger != nil {
		c.logger.WarnWithContext(ctx, msg, err, fields...)
	}
}

func (c *Client) logError(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	if c.logger != nil {
		c.logger.ErrorWithContext(ctx, msg, err, fields...)
	}
}
