package cosmos

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"time"
)

// GetIndexPolicy returns the current indexing policy of the container.
func (c *Client) GetIndexPolicy(ctx context.Context, scope ContainerScope) (IndexPolicy, error) {
	if scope.IsZero() {
		return IndexPolicy{}, validationError(opGetIndexPolicy, "container scope is not selected")
	}
	props, err := c.readContainer(ctx, opGetIndexPolicy, scope.ref())
	if err != nil {
		return IndexPolicy{}, err
	}
	return props.IndexPolicy, nil
}

// ReplaceIndexPolicy installs policy on the container and returns the policy
// as stored by the service afterwards.
//
// Vector indexes are fixed when a container is created. If policy lists
// vector indexes that differ from the current ones (compared by path and
// type, ignoring order), ErrVectorIndexImmutable is returned and the
// container is left untouched. A policy with VectorIndexes == nil keeps the
// current vector indexes. An empty IndexingMode keeps the current mode and
// automatic flag.
func (c *Client) ReplaceIndexPolicy(ctx context.Context, scope ContainerScope, policy IndexPolicy) (IndexPolicy, error) {
	if err := c.checkOpen(opReplaceIndexPolicy); err != nil {
		return IndexPolicy{}, err
	}
	if scope.IsZero() {
		return IndexPolicy{}, validationError(opReplaceIndexPolicy, "container scope is not selected")
	}
	policy, err := normalizeIndexPolicy(opReplaceIndexPolicy, policy)
	if err != nil {
		return IndexPolicy{}, err
	}

	ctx, endSpan := c.startSpan(ctx, opReplaceIndexPolicy, map[string]interface{}{
		"db.container": scope.String(),
	})
	updated, err := c.replaceIndexPolicy(ctx, scope, policy)
	endSpan(err)
	return updated, err
}

func (c *Client) replaceIndexPolicy(ctx context.Context, scope ContainerScope, policy IndexPolicy) (IndexPolicy, error) {
	current, err := c.readContainer(ctx, opReplaceIndexPolicy, scope.ref())
	if err != nil {
		return IndexPolicy{}, err
	}

	next := policy.clone()
	if policy.VectorIndexes == nil {
		next.VectorIndexes = append([]VectorIndex(nil), current.IndexPolicy.VectorIndexes...)
	} else if !sameVectorIndexes(current.IndexPolicy.VectorIndexes, policy.VectorIndexes) {
		err := newError(KindVectorIndexImmutable, opReplaceIndexPolicy, 0, nil)
		c.logWarn(ctx, "[Cosmos] rejected index policy changing vector indexes", err, map[string]interface{}{
			"container": scope.String(),
			"current":   current.IndexPolicy.VectorIndexes,
			"requested": policy.VectorIndexes,
		})
		return IndexPolicy{}, err
	}
	if next.IndexingMode == "" {
		next.IndexingMode = current.IndexPolicy.IndexingMode
		next.Automatic = current.IndexPolicy.Automatic
	}

	props := current
	props.IndexPolicy = next

	start := time.Now()
	err = c.call(ctx, opReplaceIndexPolicy, true, func(ctx context.Context) error {
		_, err := c.transport.ReplaceContainer(ctx, scope.ref(), props)
		return err
	})
	c.observeOperation(opReplaceIndexPolicy, scope.Database(), scope.Container(), start, err, 0, nil)
	if err != nil {
		return IndexPolicy{}, err
	}

	stored, err := c.readContainer(ctx, opReplaceIndexPolicy, scope.ref())
	if err != nil {
		return IndexPolicy{}, err
	}
	c.logInfo(ctx, "[Cosmos] index policy replaced", nil, map[string]interface{}{
		"container":      scope.String(),
		"included_paths": len(stored.IndexPolicy.IncludedPaths),
		"excluded_paths": len(stored.IndexPolicy.ExcludedPaths),
	})
	return stored.IndexPolicy, nil
}

// InstallIndexPolicy decodes a policy document from r (see
// DecodeIndexPolicy) and installs it with ReplaceIndexPolicy.
func (c *Client) InstallIndexPolicy(ctx context.Context, scope ContainerScope, r io.Reader) (IndexPolicy, error) {
	policy, err := DecodeIndexPolicy(r)
	if err != nil {
		return IndexPolicy{}, err
	}
	return c.ReplaceIndexPolicy(ctx, scope, policy)
}

// indexPolicyFile mirrors the service's JSON representation. Pointer fields
// tell absent from empty.
type indexPolicyFile struct {
	Automatic     *bool          `json:"automatic"`
	IndexingMode  string         `json:"indexingMode"`
	IncludedPaths []IndexPath    `json:"includedPaths"`
	ExcludedPaths []IndexPath    `json:"excludedPaths"`
	VectorIndexes *[]VectorIndex `json:"vectorIndexes"`
}

// DecodeIndexPolicy reads a policy in the service's JSON format:
//
//	{
//	  "indexingMode": "consistent",
//	  "includedPaths": [{"path": "/*"}],
//	  "excludedPaths": [{"path": "/\"_etag\"/?"}],
//	  "vectorIndexes": [{"path": "/embedding", "type": "diskann"}]
//	}
//
// Unknown fields such as compositeIndexes are ignored. An absent
// "vectorIndexes" leaves the container's vector indexes as they are.
// Malformed input yields ErrValidation.
func DecodeIndexPolicy(r io.Reader) (IndexPolicy, error) {
	var f indexPolicyFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		return IndexPolicy{}, newError(KindValidation, "decode_index_policy", 0, err)
	}

	p := IndexPolicy{
		Automatic:     true,
		IndexingMode:  f.IndexingMode,
		IncludedPaths: f.IncludedPaths,
		ExcludedPaths: f.ExcludedPaths,
	}
	if f.Automatic != nil {
		p.Automatic = *f.Automatic
	}
	if f.VectorIndexes != nil {
		p.VectorIndexes = append([]VectorIndex{}, (*f.VectorIndexes)...)
	}
	return normalizeIndexPolicy("decode_index_policy", p)
}

// normalizeIndexPolicy validates p and returns a copy with the indexing mode
// and vector index types in their canonical spelling. Vector index types
// are matched case-insensitively, so "diskann" and "DiskANN" both name
// VectorIndexDiskANN.
func normalizeIndexPolicy(op string, p IndexPolicy) (IndexPolicy, error) {
	out := p.clone()
	out.IndexingMode = strings.ToLower(p.IndexingMode)
	switch out.IndexingMode {
	case "", IndexingModeConsistent, IndexingModeNone:
	default:
		return IndexPolicy{}, validationError(op, "unknown indexing mode %q", p.IndexingMode)
	}
	for _, ip := range p.IncludedPaths {
		if !strings.HasPrefix(ip.Path, "/") {
			return IndexPolicy{}, validationError(op, "included path %q must start with '/'", ip.Path)
		}
	}
	for _, ip := range p.ExcludedPaths {
		if !strings.HasPrefix(ip.Path, "/") {
			return IndexPolicy{}, validationError(op, "excluded path %q must start with '/'", ip.Path)
		}
	}
	for i, vi := range p.VectorIndexes {
		if !strings.HasPrefix(vi.Path, "/") {
			return IndexPolicy{}, validationError(op, "vector index path %q must start with '/'", vi.Path)
		}
		kind, ok := canonicalVectorIndexType(vi.Type)
		if !ok {
			return IndexPolicy{}, validationError(op, "unknown vector index type %q", vi.Type)
		}
		out.VectorIndexes[i].Type = kind
	}
	return out, nil
}

// sameVectorIndexes compares two vector index lists as sets of path/type.
func sameVectorIndexes(a, b []VectorIndex) bool {
	if len(a) != len(b) {
		return false
	}
	key := func(v VectorIndex) string { return v.Path + "\x00" + strings.ToLower(v.Type) }
	ka := make([]string, len(a))
	kb := make([]string, len(b))
	for i := range a {
		ka[i] = key(a[i])
		kb[i] = key(b[i])
	}
	sort.Strings(ka)
	sort.Strings(kb)
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}
