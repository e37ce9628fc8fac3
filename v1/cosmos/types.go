package cosmos

import (
	"strings"
	"time"
)

// DatabaseScope identifies a database selected through SelectDatabase.
// It is an immutable value and may be shared freely.
type DatabaseScope struct {
	name string
}

// NewDatabaseScope builds a scope for a database known to exist, without a
// round trip.
func NewDatabaseScope(name string) DatabaseScope {
	return DatabaseScope{name: name}
}

// Name returns the database name.
func (s DatabaseScope) Name() string { return s.name }

// IsZero reports whether s was never selected.
func (s DatabaseScope) IsZero() bool { return s.name == "" }

// ContainerScope identifies a container and records its partition key path.
// It is an immutable value and may be shared freely.
type ContainerScope struct {
	database         string
	container        string
	partitionKeyPath string
}

// NewContainerScope builds a scope for a container known to exist, without
// a round trip. pkPath may be empty, in which case writes are not checked
// against the partition key attribute.
func NewContainerScope(database, container, pkPath string) ContainerScope {
	return ContainerScope{database: database, container: container, partitionKeyPath: pkPath}
}

// Database returns the database name.
func (s ContainerScope) Database() string { return s.database }

// Container returns the container name.
func (s ContainerScope) Container() string { return s.container }

// PartitionKeyPath returns the partition key path, e.g. "/pk".
func (s ContainerScope) PartitionKeyPath() string { return s.partitionKeyPath }

// PartitionKeyAttr returns the partition key attribute name, e.g. "pk".
func (s ContainerScope) PartitionKeyAttr() string { return PartitionKeyAttr(s.partitionKeyPath) }

// IsZero reports whether s was never selected.
func (s ContainerScope) IsZero() bool { return s.database == "" || s.container == "" }

func (s ContainerScope) ref() ContainerRef {
	return ContainerRef{Database: s.database, Container: s.container}
}

func (s ContainerScope) String() string { return s.database + "/" + s.container }

// ContainerRef addresses a container at the transport level.
type ContainerRef struct {
	Database  string
	Container string
}

// Throughput describes provisioned request units.
type Throughput struct {
	// RU is the manual throughput, or the autoscale maximum.
	RU int
	// Autoscale selects autoscale provisioning.
	Autoscale bool
}

// IndexPath is one included or excluded indexing path.
type IndexPath struct {
	Path string `json:"path"`
}

// Vector index kinds.
const (
	VectorIndexFlat          = "flat"
	VectorIndexQuantizedFlat = "quantizedFlat"
	VectorIndexDiskANN       = "diskANN"
)

// canonicalVectorIndexType maps a vector index kind in any letter case to
// one of the VectorIndex constants.
func canonicalVectorIndexType(kind string) (string, bool) {
	for _, k := range []string{VectorIndexFlat, VectorIndexQuantizedFlat, VectorIndexDiskANN} {
		if strings.EqualFold(kind, k) {
			return k, true
		}
	}
	return "", false
}

// Vector distance functions.
const (
	DistanceCosine     = "cosine"
	DistanceEuclidean  = "euclidean"
	DistanceDotProduct = "dotproduct"
)

// Vector element data types.
const (
	VectorDataFloat32 = "float32"
	VectorDataUint8   = "uint8"
	VectorDataInt8    = "int8"
)

// VectorIndex declares an index over a vector embedding path.
type VectorIndex struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// VectorEmbedding declares the shape of a vector stored at Path.
type VectorEmbedding struct {
	Path             string `json:"path"`
	DataType         string `json:"dataType"`
	DistanceFunction string `json:"distanceFunction"`
	Dimensions       int    `json:"dimensions"`
}

// Indexing modes.
const (
	IndexingModeConsistent = "consistent"
	IndexingModeNone       = "none"
)

// IndexPolicy is the indexing policy of a container.
type IndexPolicy struct {
	Automatic     bool          `json:"automatic"`
	IndexingMode  string        `json:"indexingMode,omitempty"`
	IncludedPaths []IndexPath   `json:"includedPaths"`
	ExcludedPaths []IndexPath   `json:"excludedPaths"`
	VectorIndexes []VectorIndex `json:"vectorIndexes,omitempty"`
}

// DefaultIndexPolicy indexes every path except the system etag.
func DefaultIndexPolicy() IndexPolicy {
	return IndexPolicy{
		Automatic:     true,
		IndexingMode:  IndexingModeConsistent,
		IncludedPaths: []IndexPath{{Path: "/*"}},
		ExcludedPaths: []IndexPath{{Path: `/"_etag"/?`}},
	}
}

func (p IndexPolicy) clone() IndexPolicy {
	p.IncludedPaths = append([]IndexPath(nil), p.IncludedPaths...)
	p.ExcludedPaths = append([]IndexPath(nil), p.ExcludedPaths...)
	if p.VectorIndexes != nil {
		p.VectorIndexes = append(make([]VectorIndex, 0, len(p.VectorIndexes)), p.VectorIndexes...)
	}
	return p
}

// ContainerProperties describes a container as stored by the service.
type ContainerProperties struct {
	ID               string
	PartitionKeyPath string
	// Throughput is nil when the container shares database throughput or
	// when it was not requested.
	Throughput       *Throughput
	IndexPolicy      IndexPolicy
	VectorEmbeddings []VectorEmbedding
	// DefaultTTL in seconds; nil disables expiry, -1 enables per-item TTL.
	DefaultTTL *int
}

// ItemOptions tune a single write.
type ItemOptions struct {
	// IfMatchETag makes the write conditional on the stored etag.
	IfMatchETag string
}

// DeleteOutcome reports what a Delete found.
type DeleteOutcome int

const (
	// Deleted means the item existed and was removed.
	Deleted DeleteOutcome = iota + 1
	// NotFound means no item had that id and partition key.
	NotFound
)

func (o DeleteOutcome) String() string {
	switch o {
	case Deleted:
		return "deleted"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ItemKey addresses one item.
type ItemKey struct {
	ID           string
	PartitionKey string
}

// BulkOperationResult is the outcome for one input of a bulk call.
type BulkOperationResult struct {
	// Index is the position of the input in the caller's slice.
	Index         int
	ID            string
	PartitionKey  string
	Succeeded     bool
	StatusCode    int
	RequestCharge float64
	// Document holds the read item for BulkRead and the stored item for
	// BulkUpsert when the service returned it.
	Document *Document
	// Err is nil on success, otherwise an *Error.
	Err error
}

// BulkSummary collects the results of a bulk call, one per input in input
// order.
type BulkSummary struct {
	Results       []BulkOperationResult
	Succeeded     int
	Failed        int
	Canceled      int
	RequestCharge float64
	Elapsed       time.Duration
}

// Outcome classifies the run as a whole.
func (s BulkSummary) Outcome() Outcome {
	attempted := s.Succeeded + s.Failed
	switch {
	case attempted == 0:
		return NotAttempted
	case s.Succeeded == 0:
		return Rejected
	case s.Failed > 0 || s.Canceled > 0:
		return PartialSuccess
	default:
		return Succeeded
	}
}

// Failures returns the unsuccessful results, including canceled items.
func (s BulkSummary) Failures() []BulkOperationResult {
	var out []BulkOperationResult
	for _, r := range s.Results {
		if !r.Succeeded {
			out = append(out, r)
		}
	}
	return out
}

// QueryParameter binds a named parameter such as "@city".
type QueryParameter struct {
	Name  string
	Value interface{}
}

// BatchOperationType selects the action of a BatchOperation.
type BatchOperationType int

const (
	BatchCreate BatchOperationType = iota + 1
	BatchUpsert
	BatchReplace
	BatchRead
	BatchDelete
)

func (t BatchOperationType) String() string {
	switch t {
	case BatchCreate:
		return "create"
	case BatchUpsert:
		return "upsert"
	case BatchReplace:
		return "replace"
	case BatchRead:
		return "read"
	case BatchDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// BatchOperation is one step of a transactional batch. Document is required
// for create, upsert and replace; ID for replace, read and delete.
type BatchOperation struct {
	Type     BatchOperationType
	ID       string
	Document *Document
	// IfMatchETag makes the step conditional.
	IfMatchETag string
}

// BatchResult is the outcome of a transactional batch.
type BatchResult struct {
	// Committed is true when every step succeeded and the batch was applied.
	Committed     bool
	Operations    []BatchOperationResult
	RequestCharge float64
}

// BatchOperationResult is the outcome of one step.
type BatchOperationResult struct {
	StatusCode    int
	RequestCharge float64
	ETag          string
	Document      *Document
}
