package cosmos

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
)

// The SDK's ContainerProperties has no vector embedding policy and its
// IndexingPolicy has no vector indexes. Container writes therefore send a
// resource document built here, and reads decode the raw response body.

// toAzureContainerProperties maps the fields the SDK models. Vector settings
// are added by patchContainerResource.
func toAzureContainerProperties(p ContainerProperties) azcosmos.ContainerProperties {
	props := azcosmos.ContainerProperties{
		ID: p.ID,
		PartitionKeyDefinition: azcosmos.PartitionKeyDefinition{
			Paths: []string{p.PartitionKeyPath},
		},
		IndexingPolicy: toAzureIndexingPolicy(p.IndexPolicy),
	}
	if p.DefaultTTL != nil {
		ttl := int32(*p.DefaultTTL)
		props.DefaultTimeToLive = &ttl
	}
	return props
}

func toAzureIndexingPolicy(p IndexPolicy) *azcosmos.IndexingPolicy {
	mode := azcosmos.IndexingModeConsistent
	if strings.EqualFold(p.IndexingMode, IndexingModeNone) {
		mode = azcosmos.IndexingModeNone
	}
	ip := &azcosmos.IndexingPolicy{
		Automatic:    p.Automatic,
		IndexingMode: mode,
	}
	for _, path := range p.IncludedPaths {
		ip.IncludedPaths = append(ip.IncludedPaths, azcosmos.IncludedPath{Path: path.Path})
	}
	for _, path := range p.ExcludedPaths {
		ip.ExcludedPaths = append(ip.ExcludedPaths, azcosmos.ExcludedPath{Path: path.Path})
	}
	return ip
}

// fromAzureContainerProperties maps the fields the SDK decodes. Vector
// settings are read by decodeContainerResource.
func fromAzureContainerProperties(p azcosmos.ContainerProperties) ContainerProperties {
	out := ContainerProperties{ID: p.ID}
	if len(p.PartitionKeyDefinition.Paths) > 0 {
		out.PartitionKeyPath = p.PartitionKeyDefinition.Paths[0]
	}
	if p.DefaultTimeToLive != nil {
		ttl := int(*p.DefaultTimeToLive)
		out.DefaultTTL = &ttl
	}
	if ip := p.IndexingPolicy; ip != nil {
		out.IndexPolicy.Automatic = ip.Automatic
		out.IndexPolicy.IndexingMode = strings.ToLower(string(ip.IndexingMode))
		for _, path := range ip.IncludedPaths {
			out.IndexPolicy.IncludedPaths = append(out.IndexPolicy.IncludedPaths, IndexPath{Path: path.Path})
		}
		for _, path := range ip.ExcludedPaths {
			out.IndexPolicy.ExcludedPaths = append(out.IndexPolicy.ExcludedPaths, IndexPath{Path: path.Path})
		}
	}
	return out
}

type vectorEmbeddingPolicy struct {
	VectorEmbeddings []VectorEmbedding `json:"vectorEmbeddings"`
}

// containerVectors is the part of a container resource the SDK drops.
type containerVectors struct {
	IndexingPolicy struct {
		VectorIndexes []VectorIndex `json:"vectorIndexes"`
	} `json:"indexingPolicy"`
	VectorEmbeddingPolicy vectorEmbeddingPolicy `json:"vectorEmbeddingPolicy"`
}

// decodeContainerResource decodes a container resource as returned by the
// service, vector settings included.
func decodeContainerResource(raw []byte) (ContainerProperties, error) {
	var typed azcosmos.ContainerProperties
	if err := json.Unmarshal(raw, &typed); err != nil {
		return ContainerProperties{}, err
	}
	var vectors containerVectors
	if err := json.Unmarshal(raw, &vectors); err != nil {
		return ContainerProperties{}, err
	}

	out := fromAzureContainerProperties(typed)
	for _, vi := range vectors.IndexingPolicy.VectorIndexes {
		if kind, ok := canonicalVectorIndexType(vi.Type); ok {
			vi.Type = kind
		}
		out.IndexPolicy.VectorIndexes = append(out.IndexPolicy.VectorIndexes, vi)
	}
	out.VectorEmbeddings = vectors.VectorEmbeddingPolicy.VectorEmbeddings
	return out, nil
}

// patchContainerResource overlays the indexing policy, TTL and vector
// embedding policy of p on the container resource JSON in base. Keys that p
// does not describe, such as compositeIndexes or the partition key version,
// are kept as they are.
func patchContainerResource(base []byte, p ContainerProperties) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(base, &doc); err != nil {
		return nil, err
	}

	ip := map[string]json.RawMessage{}
	if raw, ok := doc["indexingPolicy"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &ip); err != nil {
			return nil, err
		}
	}
	typed := toAzureIndexingPolicy(p.IndexPolicy)
	fields := map[string]interface{}{
		"automatic":     typed.Automatic,
		"indexingMode":  typed.IndexingMode,
		"includedPaths": nonNil(typed.IncludedPaths),
		"excludedPaths": nonNil(typed.ExcludedPaths),
	}
	switch {
	case len(p.IndexPolicy.VectorIndexes) == 0:
		delete(ip, "vectorIndexes")
	case !sameStoredVectorIndexes(ip["vectorIndexes"], p.IndexPolicy.VectorIndexes):
		fields["vectorIndexes"] = p.IndexPolicy.VectorIndexes
	}
	if err := setJSON(ip, fields); err != nil {
		return nil, err
	}

	top := map[string]interface{}{"indexingPolicy": ip}
	if p.DefaultTTL != nil {
		top["defaultTtl"] = *p.DefaultTTL
	} else {
		delete(doc, "defaultTtl")
	}
	if len(p.VectorEmbeddings) > 0 {
		top["vectorEmbeddingPolicy"] = vectorEmbeddingPolicy{VectorEmbeddings: p.VectorEmbeddings}
	}
	if err := setJSON(doc, top); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// sameStoredVectorIndexes reports whether raw already lists want. The stored
// form is then sent back as is, keeping settings such as
// quantizationByteSize that VectorIndex does not carry.
func sameStoredVectorIndexes(raw json.RawMessage, want []VectorIndex) bool {
	if len(raw) == 0 {
		return false
	}
	var stored []VectorIndex
	if err := json.Unmarshal(raw, &stored); err != nil {
		return false
	}
	return sameVectorIndexes(stored, want)
}

func setJSON(dst map[string]json.RawMessage, fields map[string]interface{}) error {
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		dst[k] = raw
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type containerBodyKey struct{}

// withContainerBody makes the container create or replace sent with ctx
// carry body instead of the SDK's encoding.
func withContainerBody(ctx context.Context, body []byte) context.Context {
	return context.WithValue(ctx, containerBodyKey{}, body)
}

// containerBodyPolicy is a per-call pipeline policy that swaps in the body
// attached by withContainerBody. Request signing covers the verb, resource
// link and date only, so the swap does not invalidate the signature.
type containerBodyPolicy struct{}

func (containerBodyPolicy) Do(req *policy.Request) (*http.Response, error) {
	raw := req.Raw()
	if body, ok := raw.Context().Value(containerBodyKey{}).([]byte); ok && isContainerWrite(raw) {
		if err := req.SetBody(streaming.NopCloser(bytes.NewReader(body)), "application/json"); err != nil {
			return nil, err
		}
	}
	return req.Next()
}

// isContainerWrite matches POST .../dbs/{db}/colls and PUT
// .../dbs/{db}/colls/{id}.
func isContainerWrite(r *http.Request) bool {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPost:
		return strings.HasSuffix(path, "/colls")
	case http.MethodPut:
		i := strings.LastIndex(path, "/colls/")
		return i >= 0 && !strings.Contains(path[i+len("/colls/"):], "/")
	default:
		return false
	}
}
