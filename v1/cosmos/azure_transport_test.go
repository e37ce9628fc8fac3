package cosmos

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	azruntime "github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storedChunks is a vector container as the service returns it.
const storedChunks = `{
	"id": "chunks",
	"indexingPolicy": {
		"indexingMode": "consistent",
		"automatic": true,
		"includedPaths": [{"path": "/*"}],
		"excludedPaths": [{"path": "/\"_etag\"/?"}, {"path": "/embedding/*"}],
		"compositeIndexes": [[{"path": "/pk", "order": "ascending"}, {"path": "/ts", "order": "descending"}]],
		"vectorIndexes": [{"path": "/embedding", "type": "diskANN", "quantizationByteSize": 96}]
	},
	"partitionKey": {"paths": ["/pk"], "kind": "Hash", "version": 2},
	"defaultTtl": -1,
	"vectorEmbeddingPolicy": {
		"vectorEmbeddings": [{"path": "/embedding", "dataType": "float32", "distanceFunction": "cosine", "dimensions": 1536}]
	},
	"_rid": "q0AsAA==",
	"_ts": 1717171717,
	"_self": "dbs/q0AsAA==/colls/q0AsAA==/",
	"_etag": "\"00000000-0000-0000-0000-000000000000\""
}`

func chunksProperties() ContainerProperties {
	ttl := -1
	return ContainerProperties{
		ID:               "chunks",
		PartitionKeyPath: "/pk",
		IndexPolicy: IndexPolicy{
			Automatic:     true,
			IndexingMode:  IndexingModeConsistent,
			IncludedPaths: []IndexPath{{Path: "/*"}},
			ExcludedPaths: []IndexPath{{Path: `/"_etag"/?`}, {Path: "/embedding/*"}},
			VectorIndexes: []VectorIndex{{Path: "/embedding", Type: VectorIndexDiskANN}},
		},
		VectorEmbeddings: []VectorEmbedding{{
			Path:             "/embedding",
			DataType:         VectorDataFloat32,
			DistanceFunction: DistanceCosine,
			Dimensions:       1536,
		}},
		DefaultTTL: &ttl,
	}
}

func decodeMap(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestToAzureContainerProperties(t *testing.T) {
	props := chunksProperties()
	props.IndexPolicy.IndexingMode = IndexingModeNone

	typed := toAzureContainerProperties(props)
	assert.Equal(t, "chunks", typed.ID)
	assert.Equal(t, []string{"/pk"}, typed.PartitionKeyDefinition.Paths)
	require.NotNil(t, typed.IndexingPolicy)
	assert.Equal(t, azcosmos.IndexingModeNone, typed.IndexingPolicy.IndexingMode)
	assert.Equal(t, []azcosmos.ExcludedPath{{Path: `/"_etag"/?`}, {Path: "/embedding/*"}}, typed.IndexingPolicy.ExcludedPaths)
	require.NotNil(t, typed.DefaultTimeToLive)
	assert.Equal(t, int32(-1), *typed.DefaultTimeToLive)

	back := fromAzureContainerProperties(typed)
	assert.Equal(t, IndexingModeNone, back.IndexPolicy.IndexingMode)
	assert.Equal(t, props.IndexPolicy.IncludedPaths, back.IndexPolicy.IncludedPaths)
	assert.Equal(t, props.DefaultTTL, back.DefaultTTL)
	assert.Empty(t, back.IndexPolicy.VectorIndexes, "the SDK type carries no vector indexes")
}

func TestContainerResource_CreateCarriesVectorSettings(t *testing.T) {
	props := chunksProperties()

	base, err := json.Marshal(toAzureContainerProperties(props))
	require.NoError(t, err)
	body, err := patchContainerResource(base, props)
	require.NoError(t, err)

	m := decodeMap(t, body)
	assert.Equal(t, "Hash", m["partitionKey"].(map[string]interface{})["kind"])
	ip := m["indexingPolicy"].(map[string]interface{})
	assert.Equal(t, []interface{}{map[string]interface{}{"path": "/embedding", "type": "diskANN"}}, ip["vectorIndexes"])
	embeddings := m["vectorEmbeddingPolicy"].(map[string]interface{})["vectorEmbeddings"].([]interface{})
	require.Len(t, embeddings, 1)
	assert.Equal(t, map[string]interface{}{
		"path":             "/embedding",
		"dataType":         "float32",
		"distanceFunction": "cosine",
		"dimensions":       float64(1536),
	}, embeddings[0])

	decoded, err := decodeContainerResource(body)
	require.NoError(t, err)
	assert.Equal(t, props, decoded)
}

func TestDecodeContainerResource_ServiceResponse(t *testing.T) {
	props, err := decodeContainerResource([]byte(storedChunks))
	require.NoError(t, err)
	assert.Equal(t, chunksProperties(), props)

	plain, err := decodeContainerResource([]byte(`{"id":"orders","partitionKey":{"paths":["/pk"],"kind":"Hash"},"indexingPolicy":{"indexingMode":"consistent","automatic":true,"includedPaths":[{"path":"/*"}],"excludedPaths":[]}}`))
	require.NoError(t, err)
	assert.Equal(t, "/pk", plain.PartitionKeyPath)
	assert.Nil(t, plain.IndexPolicy.VectorIndexes)
	assert.Nil(t, plain.VectorEmbeddings)
	assert.Nil(t, plain.DefaultTTL)

	_, err = decodeContainerResource([]byte(`{"id":`))
	assert.Error(t, err)
}

func TestPatchContainerResource_KeepsUnmodeledSettings(t *testing.T) {
	props := chunksProperties()
	props.IndexPolicy.ExcludedPaths = append(props.IndexPolicy.ExcludedPaths, IndexPath{Path: "/raw/*"})
	props.DefaultTTL = nil

	body, err := patchContainerResource([]byte(storedChunks), props)
	require.NoError(t, err)
	m := decodeMap(t, body)

	ip := m["indexingPolicy"].(map[string]interface{})
	assert.Len(t, ip["excludedPaths"], 3)
	assert.Len(t, ip["compositeIndexes"], 1)
	vi := ip["vectorIndexes"].([]interface{})
	require.Len(t, vi, 1)
	assert.Equal(t, float64(96), vi[0].(map[string]interface{})["quantizationByteSize"], "unchanged vector indexes are sent back as stored")

	assert.Equal(t, float64(2), m["partitionKey"].(map[string]interface{})["version"])
	assert.NotContains(t, m, "defaultTtl")
	assert.Contains(t, m, "vectorEmbeddingPolicy")
	assert.Equal(t, "q0AsAA==", m["_rid"])

	// A differing list is written out; the service decides whether to accept it.
	props.IndexPolicy.VectorIndexes = []VectorIndex{{Path: "/embedding", Type: VectorIndexFlat}}
	body, err = patchContainerResource([]byte(storedChunks), props)
	require.NoError(t, err)
	ip = decodeMap(t, body)["indexingPolicy"].(map[string]interface{})
	assert.Equal(t, []interface{}{map[string]interface{}{"path": "/embedding", "type": "flat"}}, ip["vectorIndexes"])
}

// captureTransporter records the request body and answers 201.
type captureTransporter struct {
	body []byte
}

func (c *captureTransporter) Do(req *http.Request) (*http.Response, error) {
	c.body = nil
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		c.body = b
	}
	return &http.Response{
		StatusCode: http.StatusCreated,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("{}")),
		Request:    req,
	}, nil
}

func TestContainerBodyPolicy(t *testing.T) {
	capture := &captureTransporter{}
	pl := azruntime.NewPipeline("docstore", "v0.0.0", azruntime.PipelineOptions{}, &policy.ClientOptions{
		PerCallPolicies: []policy.Policy{containerBodyPolicy{}},
		Retry:           policy.RetryOptions{MaxRetries: -1},
		Transport:       capture,
	})
	prepared := []byte(`{"id":"chunks","vectorEmbeddingPolicy":{"vectorEmbeddings":[]}}`)

	send := func(ctx context.Context, method, url string) []byte {
		t.Helper()
		req, err := azruntime.NewRequest(ctx, method, url)
		require.NoError(t, err)
		require.NoError(t, azruntime.MarshalAsJSON(req, map[string]string{"id": "sdk"}))
		resp, err := pl.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		return capture.body
	}

	const account = "https://acct.documents.azure.com:443/"
	ctx := withContainerBody(context.Background(), prepared)

	assert.JSONEq(t, string(prepared), string(send(ctx, http.MethodPost, account+"dbs/search/colls")))
	assert.JSONEq(t, string(prepared), string(send(ctx, http.MethodPut, account+"dbs/search/colls/chunks")))
	assert.JSONEq(t, `{"id":"sdk"}`, string(send(ctx, http.MethodPost, account+"dbs/search/colls/chunks/docs")), "item writes are left alone")
	assert.JSONEq(t, `{"id":"sdk"}`, string(send(context.Background(), http.MethodPost, account+"dbs/search/colls")), "no prepared body")
}

func TestThroughputFromResponse(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusBadRequest} {
		tp, err := throughputFromResponse(azcosmos.ThroughputResponse{}, &azcore.ResponseError{StatusCode: status})
		assert.NoError(t, err, "status %d", status)
		assert.Nil(t, tp)
	}

	_, err := throughputFromResponse(azcosmos.ThroughputResponse{}, &azcore.ResponseError{StatusCode: http.StatusTooManyRequests, ErrorCode: "TooManyRequests"})
	var re *ResponseError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusTooManyRequests, re.StatusCode)

	manual := azcosmos.NewManualThroughputProperties(400)
	tp, err := throughputFromResponse(azcosmos.ThroughputResponse{ThroughputProperties: &manual}, nil)
	require.NoError(t, err)
	assert.Equal(t, &Throughput{RU: 400}, tp)

	auto := azcosmos.NewAutoscaleThroughputProperties(4000)
	tp, err = throughputFromResponse(azcosmos.ThroughputResponse{ThroughputProperties: &auto}, nil)
	require.NoError(t, err)
	assert.Equal(t, &Throughput{RU: 4000, Autoscale: true}, tp)

	tp, err = throughputFromResponse(azcosmos.ThroughputResponse{}, nil)
	require.NoError(t, err)
	assert.Nil(t, tp)
}
