package cosmos

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Container defaults.
const (
	DefaultPartitionKeyPath    = "/pk"
	DefaultContainerThroughput = 4000
	DefaultEmbeddingPath       = "/embedding"
	DefaultVectorDimensions    = 1536
)

// ListDatabases returns the names of all databases in the account.
func (c *Client) ListDatabases(ctx context.Context) ([]string, error) {
	if err := c.checkOpen(opListDatabases); err != nil {
		return nil, err
	}
	start := time.Now()

	var names []string
	err := c.call(ctx, opListDatabases, true, func(ctx context.Context) error {
		var err error
		names, err = c.transport.ListDatabases(ctx)
		return err
	})
	c.observeOperation(opListDatabases, "", "", start, err, int64(len(names)), nil)
	if err != nil {
		return nil, err
	}
	return names, nil
}

// CreateDatabase creates name unless it exists. throughput > 0 provisions
// that much autoscale throughput at database level; otherwise containers
// provision their own. created is false when the database already existed.
func (c *Client) CreateDatabase(ctx context.Context, name string, throughput int) (bool, error) {
	if err := c.checkOpen(opCreateDatabase); err != nil {
		return false, err
	}
	if err := validateName(opCreateDatabase, "database", name); err != nil {
		return false, err
	}
	start := time.Now()

	var tp *Throughput
	if throughput > 0 {
		tp = &Throughput{RU: throughput, Autoscale: true}
	}

	err := c.call(ctx, opCreateDatabase, false, func(ctx context.Context) error {
		return c.transport.CreateDatabase(ctx, name, tp)
	})
	created := true
	if err != nil && StatusOf(err) == http.StatusConflict {
		created, err = false, nil
	}
	c.observeOperation(opCreateDatabase, name, "", start, err, 0, nil)
	if err != nil {
		return false, err
	}

	c.logInfo(ctx, "[Cosmos] database ensured", nil, map[string]interface{}{
		"database": name,
		"created":  created,
	})
	return created, nil
}

// DeleteDatabase deletes name and everything in it. It returns the status
// of the delete; an absent database yields 404 and no error.
func (c *Client) DeleteDatabase(ctx context.Context, name string) (int, error) {
	if err := c.checkOpen(opDeleteDatabase); err != nil {
		return 0, err
	}
	if err := validateName(opDeleteDatabase, "database", name); err != nil {
		return 0, err
	}
	start := time.Now()

	err := c.call(ctx, opDeleteDatabase, true, func(ctx context.Context) error {
		return c.transport.DeleteDatabase(ctx, name)
	})
	c.observeOperation(opDeleteDatabase, name, "", start, err, 0, nil)

	switch {
	case err == nil:
		c.logInfo(ctx, "[Cosmos] database deleted", nil, map[string]interface{}{"database": name})
		return http.StatusNoContent, nil
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, nil
	default:
		return StatusOf(err), err
	}
}

// SelectDatabase returns a scope for name, or ErrNotFound.
func (c *Client) SelectDatabase(ctx context.Context, name string) (DatabaseScope, error) {
	if err := c.checkOpen(opSelectDatabase); err != nil {
		return DatabaseScope{}, err
	}
	if err := validateName(opSelectDatabase, "database", name); err != nil {
		return DatabaseScope{}, err
	}
	start := time.Now()

	err := c.call(ctx, opSelectDatabase, true, func(ctx context.Context) error {
		return c.transport.ReadDatabase(ctx, name)
	})
	c.observeOperation(opSelectDatabase, name, "", start, err, 0, nil)
	if err != nil {
		return DatabaseScope{}, err
	}
	return DatabaseScope{name: name}, nil
}

// ListContainers returns the container names of db.
func (c *Client) ListContainers(ctx context.Context, db DatabaseScope) ([]string, error) {
	if err := c.checkOpen(opListContainers); err != nil {
		return nil, err
	}
	if db.IsZero() {
		return nil, validationError(opListContainers, "database scope is not selected")
	}
	start := time.Now()

	var names []string
	err := c.call(ctx, opListContainers, true, func(ctx context.Context) error {
		var err error
		names, err = c.transport.ListContainers(ctx, db.name)
		return err
	})
	c.observeOperation(opListContainers, db.name, "", start, err, int64(len(names)), nil)
	if err != nil {
		return nil, err
	}
	return names, nil
}

type containerSettings struct {
	pkPath     string
	throughput int
	autoscale  bool
	policy     IndexPolicy
	ttl        *int
}

// ContainerOption customises CreateContainer.
type ContainerOption func(*containerSettings)

// WithPartitionKeyPath sets the partition key path, e.g. "/customerId".
func WithPartitionKeyPath(path string) ContainerOption {
	return func(s *containerSettings) { s.pkPath = path }
}

// WithThroughput sets the container throughput in RU/s. Zero or less
// creates the container on shared database throughput.
func WithThroughput(ru int) ContainerOption {
	return func(s *containerSettings) { s.throughput = ru }
}

// WithAutoscale selects autoscale (the default) or manual throughput.
func WithAutoscale(enabled bool) ContainerOption {
	return func(s *containerSettings) { s.autoscale = enabled }
}

// WithIndexPolicy replaces the default indexing policy.
func WithIndexPolicy(p IndexPolicy) ContainerOption {
	return func(s *containerSettings) { s.policy = p.clone() }
}

// WithDefaultTTL enables item expiry after seconds; -1 enables per-item TTL
// without a default.
func WithDefaultTTL(seconds int) ContainerOption {
	return func(s *containerSettings) { s.ttl = &seconds }
}

func (s containerSettings) throughputSpec() *Throughput {
	if s.throughput <= 0 {
		return nil
	}
	return &Throughput{RU: s.throughput, Autoscale: s.autoscale}
}

// CreateContainer creates a container in db unless it exists. By default the
// container is partitioned on /pk with 4000 RU/s autoscale and indexes all
// paths except /"_etag"/?.
func (c *Client) CreateContainer(ctx context.Context, db DatabaseScope, name string, opts ...ContainerOption) (bool, error) {
	s := containerSettings{
		pkPath:     DefaultPartitionKeyPath,
		throughput: DefaultContainerThroughput,
		autoscale:  true,
		policy:     DefaultIndexPolicy(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	props := ContainerProperties{
		ID:               name,
		PartitionKeyPath: s.pkPath,
		Throughput:       s.throughputSpec(),
		IndexPolicy:      s.policy,
		DefaultTTL:       s.ttl,
	}
	return c.createContainer(ctx, opCreateContainer, db, props)
}

// VectorContainerSpec describes a container holding vector embeddings.
// Zero fields take the defaults noted on each.
type VectorContainerSpec struct {
	Name string
	// PartitionKeyPath defaults to "/pk".
	PartitionKeyPath string
	// Throughput defaults to 4000 RU/s autoscale.
	Throughput int
	// EmbeddingPath defaults to "/embedding".
	EmbeddingPath string
	// Dimensions defaults to 1536.
	Dimensions int
	// DistanceFunction is cosine (default), euclidean or dotproduct.
	DistanceFunction string
	// IndexType is diskANN (default), quantizedFlat or flat.
	IndexType string
	// DataType is float32 (default), uint8 or int8.
	DataType string
	// IndexPolicy supplies the scalar paths; defaults to DefaultIndexPolicy.
	IndexPolicy *IndexPolicy
}

// CreateVectorContainer creates a container with a vector embedding policy
// and a matching vector index. The embedding path is excluded from the
// regular index. Unknown distance functions, index types or data types fall
// back to their defaults with a warning in the log.
func (c *Client) CreateVectorContainer(ctx context.Context, db DatabaseScope, spec VectorContainerSpec) (bool, error) {
	spec = c.normalizeVectorSpec(ctx, spec)

	policy := DefaultIndexPolicy()
	if spec.IndexPolicy != nil {
		policy = spec.IndexPolicy.clone()
	}
	excluded := strings.TrimSuffix(spec.EmbeddingPath, "/") + "/*"
	if !containsPath(policy.ExcludedPaths, excluded) {
		policy.ExcludedPaths = append(policy.ExcludedPaths, IndexPath{Path: excluded})
	}
	policy.VectorIndexes = []VectorIndex{{Path: spec.EmbeddingPath, Type: spec.IndexType}}

	props := ContainerProperties{
		ID:               spec.Name,
		PartitionKeyPath: spec.PartitionKeyPath,
		Throughput:       &Throughput{RU: spec.Throughput, Autoscale: true},
		IndexPolicy:      policy,
		VectorEmbeddings: []VectorEmbedding{{
			Path:             spec.EmbeddingPath,
			DataType:         spec.DataType,
			DistanceFunction: spec.DistanceFunction,
			Dimensions:       spec.Dimensions,
		}},
	}
	return c.createContainer(ctx, opCreateVectorContainer, db, props)
}

func (c *Client) normalizeVectorSpec(ctx context.Context, spec VectorContainerSpec) VectorContainerSpec {
	if spec.PartitionKeyPath == "" {
		spec.PartitionKeyPath = DefaultPartitionKeyPath
	}
	if spec.Throughput <= 0 {
		spec.Throughput = DefaultContainerThroughput
	}
	if spec.EmbeddingPath == "" {
		spec.EmbeddingPath = DefaultEmbeddingPath
	}
	if spec.Dimensions <= 0 {
		spec.Dimensions = DefaultVectorDimensions
	}

	fallback := func(field, given, def string) string {
		c.logWarn(ctx, "[Cosmos] unsupported vector setting, using default", nil, map[string]interface{}{
			"container": spec.Name,
			"field":     field,
			"requested": given,
			"default":   def,
		})
		return def
	}

	switch strings.ToLower(spec.DistanceFunction) {
	case "":
		spec.DistanceFunction = DistanceCosine
	case DistanceCosine, DistanceEuclidean, DistanceDotProduct:
		spec.DistanceFunction = strings.ToLower(spec.DistanceFunction)
	default:
		spec.DistanceFunction = fallback("distance_function", spec.DistanceFunction, DistanceCosine)
	}

	if spec.IndexType == "" {
		spec.IndexType = VectorIndexDiskANN
	} else if kind, ok := canonicalVectorIndexType(spec.IndexType); ok {
		spec.IndexType = kind
	} else {
		spec.IndexType = fallback("index_type", spec.IndexType, VectorIndexDiskANN)
	}

	switch strings.ToLower(spec.DataType) {
	case "":
		spec.DataType = VectorDataFloat32
	case VectorDataFloat32, VectorDataUint8, VectorDataInt8:
		spec.DataType = strings.ToLower(spec.DataType)
	default:
		spec.DataType = fallback("data_type", spec.DataType, VectorDataFloat32)
	}
	return spec
}

func (c *Client) createContainer(ctx context.Context, op string, db DatabaseScope, props ContainerProperties) (bool, error) {
	if err := c.checkOpen(op); err != nil {
		return false, err
	}
	if db.IsZero() {
		return false, validationError(op, "database scope is not selected")
	}
	if err := validateName(op, "container", props.ID); err != nil {
		return false, err
	}
	if !strings.HasPrefix(props.PartitionKeyPath, "/") || len(props.PartitionKeyPath) < 2 {
		return false, validationError(op, "partition key path %q must start with '/'", props.PartitionKeyPath)
	}
	policy, err := normalizeIndexPolicy(op, props.IndexPolicy)
	if err != nil {
		return false, err
	}
	props.IndexPolicy = policy
	start := time.Now()

	err = c.call(ctx, op, false, func(ctx context.Context) error {
		return c.transport.CreateContainer(ctx, db.name, props)
	})
	created := true
	if err != nil && StatusOf(err) == http.StatusConflict {
		created, err = false, nil
	}
	c.observeOperation(op, db.name, props.ID, start, err, 0, nil)
	if err != nil {
		return false, err
	}

	fields := map[string]interface{}{
		"database":      db.name,
		"container":     props.ID,
		"partition_key": props.PartitionKeyPath,
		"created":       created,
	}
	if props.Throughput != nil {
		fields["throughput"] = props.Throughput.RU
	}
	c.logInfo(ctx, "[Cosmos] container ensured", nil, fields)
	return created, nil
}

// DeleteContainer deletes name from db. An absent container yields 404 and
// no error.
func (c *Client) DeleteContainer(ctx context.Context, db DatabaseScope, name string) (int, error) {
	if err := c.checkOpen(opDeleteContainer); err != nil {
		return 0, err
	}
	if db.IsZero() {
		return 0, validationError(opDeleteContainer, "database scope is not selected")
	}
	if err := validateName(opDeleteContainer, "container", name); err != nil {
		return 0, err
	}
	start := time.Now()

	ref := ContainerRef{Database: db.name, Container: name}
	err := c.call(ctx, opDeleteContainer, true, func(ctx context.Context) error {
		return c.transport.DeleteContainer(ctx, ref)
	})
	c.observeOperation(opDeleteContainer, db.name, name, start, err, 0, nil)

	switch {
	case err == nil:
		c.logInfo(ctx, "[Cosmos] container deleted", nil, map[string]interface{}{
			"database":  db.name,
			"container": name,
		})
		return http.StatusNoContent, nil
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, nil
	default:
		return StatusOf(err), err
	}
}

// SelectContainer returns a scope for name in db, or ErrNotFound. The scope
// records the container's partition key path.
func (c *Client) SelectContainer(ctx context.Context, db DatabaseScope, name string) (ContainerScope, error) {
	if db.IsZero() {
		return ContainerScope{}, validationError(opSelectContainer, "database scope is not selected")
	}
	if err := validateName(opSelectContainer, "container", name); err != nil {
		return ContainerScope{}, err
	}
	props, err := c.readContainer(ctx, opSelectContainer, ContainerRef{Database: db.name, Container: name})
	if err != nil {
		return ContainerScope{}, err
	}
	return ContainerScope{
		database:         db.name,
		container:        name,
		partitionKeyPath: props.PartitionKeyPath,
	}, nil
}

// GetContainerProperties reads the container definition and throughput.
// Throughput is nil for containers on shared database throughput and on
// serverless accounts.
func (c *Client) GetContainerProperties(ctx context.Context, scope ContainerScope) (ContainerProperties, error) {
	if scope.IsZero() {
		return ContainerProperties{}, validationError(opContainerProperties, "container scope is not selected")
	}
	props, err := c.readContainer(ctx, opContainerProperties, scope.ref())
	if err != nil {
		return ContainerProperties{}, err
	}

	start := time.Now()
	err = c.call(ctx, opContainerProperties, true, func(ctx context.Context) error {
		var err error
		props.Throughput, err = c.transport.ReadContainerThroughput(ctx, scope.ref())
		return err
	})
	c.observeOperation(opContainerProperties, scope.Database(), scope.Container(), start, err, 0, nil)
	if err != nil {
		return ContainerProperties{}, err
	}
	return props, nil
}

func (c *Client) readContainer(ctx context.Context, op string, ref ContainerRef) (ContainerProperties, error) {
	if err := c.checkOpen(op); err != nil {
		return ContainerProperties{}, err
	}
	start := time.Now()

	var props ContainerProperties
	err := c.call(ctx, op, true, func(ctx context.Context) error {
		var err error
		props, err = c.transport.ReadContainer(ctx, ref)
		return err
	})
	c.observeOperation(op, ref.Database, ref.Container, start, err, 0, nil)
	if err != nil {
		return ContainerProperties{}, err
	}
	return props, nil
}

func validateName(op, what, name string) error {
	if strings.TrimSpace(name) == "" {
		return validationError(op, "%s name is empty", what)
	}
	if strings.ContainsAny(name, `/\#?`) {
		return validationError(op, "%s name %q contains a reserved character", what, name)
	}
	return nil
}

func containsPath(paths []IndexPath, p string) bool {
	for _, ip := range paths {
		if ip.Path == p {
			return true
		}
	}
	return false
}
