package cosmos_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/docstore/v1/cosmos"
	"github.com/Aleph-Alpha/docstore/v1/cosmos/cosmostest"
)

func vectorScope(t *testing.T, client *cosmos.Client) cosmos.ContainerScope {
	t.Helper()
	ctx := context.Background()
	_, err := client.CreateDatabase(ctx, "search", 0)
	require.NoError(t, err)
	db := cosmos.NewDatabaseScope("search")
	_, err = client.CreateVectorContainer(ctx, db, cosmos.VectorContainerSpec{Name: "chunks", Dimensions: 8})
	require.NoError(t, err)
	scope, err := client.SelectContainer(ctx, db, "chunks")
	require.NoError(t, err)
	return scope
}

func TestReplaceIndexPolicy_ExcludedPathsChange(t *testing.T) {
	ctx := context.Background()
	client, _ := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	policy := cosmos.DefaultIndexPolicy()
	policy.ExcludedPaths = append(policy.ExcludedPaths, cosmos.IndexPath{Path: "/notes/*"})

	updated, err := client.ReplaceIndexPolicy(ctx, scope, policy)
	require.NoError(t, err)
	assert.Contains(t, updated.ExcludedPaths, cosmos.IndexPath{Path: "/notes/*"})

	current, err := client.GetIndexPolicy(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, updated, current)

	props, err := client.GetContainerProperties(ctx, scope)
	require.NoError(t, err)
	require.NotNil(t, props.Throughput)
	assert.Equal(t, 4000, props.Throughput.RU, "throughput is left alone")
}

func TestReplaceIndexPolicy_VectorIndexesAreImmutable(t *testing.T) {
	ctx := context.Background()
	log := &recordingLogger{}
	client, tr := cosmostest.Open(t, cosmos.WithLogger(log))
	scope := vectorScope(t, client)

	before, err := client.GetIndexPolicy(ctx, scope)
	require.NoError(t, err)

	changed := before
	changed.VectorIndexes = []cosmos.VectorIndex{{Path: "/embedding", Type: cosmos.VectorIndexFlat}}
	_, err = client.ReplaceIndexPolicy(ctx, scope, changed)
	assert.ErrorIs(t, err, cosmos.ErrVectorIndexImmutable)
	assert.Equal(t, cosmos.NotAttempted, cosmos.OutcomeOf(err))
	assert.Zero(t, tr.Calls(cosmostest.MethodReplaceContainer))

	after, err := client.GetIndexPolicy(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	require.Len(t, log.byLevel("warn"), 1)

	// Leaving vector indexes out keeps them, so scalar paths can still change.
	scalar := cosmos.DefaultIndexPolicy()
	scalar.ExcludedPaths = append(scalar.ExcludedPaths, cosmos.IndexPath{Path: "/embedding/*"}, cosmos.IndexPath{Path: "/raw/*"})
	updated, err := client.ReplaceIndexPolicy(ctx, scope, scalar)
	require.NoError(t, err)
	assert.Equal(t, before.VectorIndexes, updated.VectorIndexes)
	assert.Contains(t, updated.ExcludedPaths, cosmos.IndexPath{Path: "/raw/*"})

	// The same indexes in a different spelling are not a change.
	same := updated
	same.VectorIndexes = []cosmos.VectorIndex{{Path: "/embedding", Type: "DiskANN"}}
	_, err = client.ReplaceIndexPolicy(ctx, scope, same)
	assert.NoError(t, err)
}

func TestReplaceIndexPolicy_Validation(t *testing.T) {
	ctx := context.Background()
	client, tr := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	bad := cosmos.DefaultIndexPolicy()
	bad.IncludedPaths = []cosmos.IndexPath{{Path: "name/?"}}
	_, err := client.ReplaceIndexPolicy(ctx, scope, bad)
	assert.ErrorIs(t, err, cosmos.ErrValidation)

	bad = cosmos.DefaultIndexPolicy()
	bad.IndexingMode = "lazy"
	_, err = client.ReplaceIndexPolicy(ctx, scope, bad)
	assert.ErrorIs(t, err, cosmos.ErrValidation)

	assert.Zero(t, tr.Calls(cosmostest.MethodReplaceContainer))
}

func TestInstallIndexPolicy_FromJSON(t *testing.T) {
	ctx := context.Background()
	client, _ := cosmostest.Open(t)
	scope := vectorScope(t, client)

	policy, err := client.InstallIndexPolicy(ctx, scope, strings.NewReader(`{
		"indexingMode": "consistent",
		"includedPaths": [{"path": "/*"}],
		"excludedPaths": [{"path": "/\"_etag\"/?"}, {"path": "/embedding/*"}, {"path": "/body/*"}],
		"compositeIndexes": []
	}`))
	require.NoError(t, err)
	assert.Len(t, policy.ExcludedPaths, 3)
	assert.Equal(t, []cosmos.VectorIndex{{Path: "/embedding", Type: cosmos.VectorIndexDiskANN}}, policy.VectorIndexes)

	_, err = client.InstallIndexPolicy(ctx, scope, strings.NewReader(`{
		"includedPaths": [{"path": "/*"}],
		"vectorIndexes": []
	}`))
	assert.ErrorIs(t, err, cosmos.ErrVectorIndexImmutable, "an explicit empty list would drop the vector index")

	_, err = client.InstallIndexPolicy(ctx, scope, strings.NewReader(`{"includedPaths": [`))
	assert.ErrorIs(t, err, cosmos.ErrValidation)
}

func TestDecodeIndexPolicy(t *testing.T) {
	p, err := cosmos.DecodeIndexPolicy(strings.NewReader(`{"automatic": false, "indexingMode": "none", "includedPaths": [], "excludedPaths": [{"path": "/*"}]}`))
	require.NoError(t, err)
	assert.False(t, p.Automatic)
	assert.Equal(t, cosmos.IndexingModeNone, p.IndexingMode)
	assert.Nil(t, p.VectorIndexes)

	_, err = cosmos.DecodeIndexPolicy(strings.NewReader(`{"vectorIndexes": [{"path": "/v", "type": "hnsw"}]}`))
	assert.ErrorIs(t, err, cosmos.ErrValidation)
}

func TestDecodeIndexPolicy_VectorIndexTypeCase(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"diskann", cosmos.VectorIndexDiskANN},
		{"DiskANN", cosmos.VectorIndexDiskANN},
		{"diskANN", cosmos.VectorIndexDiskANN},
		{"quantizedflat", cosmos.VectorIndexQuantizedFlat},
		{"QUANTIZEDFLAT", cosmos.VectorIndexQuantizedFlat},
		{"Flat", cosmos.VectorIndexFlat},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			p, err := cosmos.DecodeIndexPolicy(strings.NewReader(`{"includedPaths": [{"path": "/*"}], "vectorIndexes": [{"path": "/embedding", "type": "` + tt.kind + `"}]}`))
			require.NoError(t, err)
			assert.Equal(t, []cosmos.VectorIndex{{Path: "/embedding", Type: tt.want}}, p.VectorIndexes)
		})
	}
}

func TestInstallIndexPolicy_RepeatsVectorIndexInAnyCase(t *testing.T) {
	ctx := context.Background()
	client, tr := cosmostest.Open(t)
	scope := vectorScope(t, client)

	policy, err := client.InstallIndexPolicy(ctx, scope, strings.NewReader(`{
		"indexingMode": "consistent",
		"includedPaths": [{"path": "/*"}],
		"excludedPaths": [{"path": "/\"_etag\"/?"}, {"path": "/embedding/*"}, {"path": "/archive/*"}],
		"vectorIndexes": [{"path": "/embedding", "type": "diskann"}]
	}`))
	require.NoError(t, err)
	assert.Contains(t, policy.ExcludedPaths, cosmos.IndexPath{Path: "/archive/*"})
	assert.Equal(t, []cosmos.VectorIndex{{Path: "/embedding", Type: cosmos.VectorIndexDiskANN}}, policy.VectorIndexes)
	assert.Equal(t, 1, tr.Calls(cosmostest.MethodReplaceContainer))

	input := cosmos.DefaultIndexPolicy()
	input.VectorIndexes = []cosmos.VectorIndex{{Path: "/embedding", Type: "quantizedflat"}}
	_, err = client.ReplaceIndexPolicy(ctx, scope, input)
	assert.ErrorIs(t, err, cosmos.ErrVectorIndexImmutable)
	assert.Equal(t, "quantizedflat", input.VectorIndexes[0].Type, "the caller's policy is not modified")
}
