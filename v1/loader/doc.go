// Package loader opens the input files consumed by the document store
// tooling: JSON document arrays for bulk loads and indexing policies.
//
// A location is either a local path (optionally prefixed with "file://") or
// an object in an S3-compatible bucket written as "s3://bucket/key". Object
// access goes through minio-go and is only available when an object store
// endpoint is configured.
//
// Usage:
//
//	l, err := loader.New(loader.DefaultConfig().
//	    WithObjectStore("minio.internal:9000", accessKey, secretKey, true))
//	if err != nil {
//	    return err
//	}
//	docs, err := l.LoadDocuments(ctx, "s3://imports/orders.json")
//
// Every Open is size checked against Config.MaxObjectSize before any byte
// is read, and reported to the attached observability.Observer under the
// "loader" component.
package loader
