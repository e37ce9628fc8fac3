// Package cosmos is the access layer for Azure Cosmos DB (NoSQL API).
//
// It covers the connection lifecycle, database and container management,
// point reads and writes, concurrent bulk operations, transactional batches,
// paginated queries and indexing policy management, including the vector
// indexes used for similarity search. Storage, indexing and consistency are
// the service's business; this package only shapes requests and interprets
// responses.
//
// # Architecture
//
// The package follows the "accept interfaces, return structs" pattern:
//   - DocumentStore (and its parts Catalog, Items, Bulk, Queries and
//     IndexPolicies) describes the client surface; *Client implements it.
//   - Transport is the remote protocol. Open uses the Azure SDK unless
//     WithTransport supplies another implementation, such as the in-memory
//     one in the cosmostest package.
//   - Scopes (DatabaseScope, ContainerScope) are immutable values passed to
//     every call instead of "current database" state on the client.
//
// # Usage
//
//	cfg := cosmos.DefaultConfig().
//		WithEndpoint("https://myaccount.documents.azure.com:443/").
//		WithKey(os.Getenv("COSMOS_KEY"))
//
//	client, err := cosmos.Open(ctx, cfg, cosmos.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	db, _ := client.SelectDatabase(ctx, "retail")
//	orders, _ := client.SelectContainer(ctx, db, "orders")
//
//	doc, _ := cosmos.ParseDocument([]byte(`{"id":"o-1","pk":"A","total":12.5}`))
//	if _, err := client.Upsert(ctx, orders, doc, "A", nil); err != nil {
//		return err
//	}
//
//	summary := client.BulkUpsert(ctx, orders, docs, "pk", cosmos.WithConcurrency(32))
//	if summary.Outcome() != cosmos.Succeeded {
//		for _, f := range summary.Failures() {
//			log.Warn("upsert failed", f.Err, map[string]interface{}{"id": f.ID})
//		}
//	}
//
// # Documents
//
// Document is an ordered JSON object. Values are a closed set of variants
// (null, bool, number, string, object, array); numbers keep their original
// text. EnsureID, ExtractPartitionKey and Merge are the small helpers the
// write path relies on.
//
// # Errors
//
// Every error is an *Error matching one sentinel through errors.Is:
// ErrAuth, ErrNetwork, ErrNotFound, ErrConflict, ErrValidation,
// ErrQuerySyntax, ErrVectorIndexImmutable, ErrService, ErrCanceled or
// ErrClosed. Transient failures (throttling, timeouts, 5xx) are retried with
// exponential backoff before they are returned.
//
// # Concurrency
//
// A Client is safe for concurrent use. Only the bulk operations fan out, on
// an errgroup capped at Config.BulkConcurrency goroutines, and they always
// join every goroutine before returning.
package cosmos
