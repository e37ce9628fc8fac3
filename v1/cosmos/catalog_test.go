package cosmos_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/docstore/v1/cosmos"
	"github.com/Aleph-Alpha/docstore/v1/cosmos/cosmostest"
)

func TestCatalog_Databases(t *testing.T) {
	ctx := context.Background()
	client, _ := cosmostest.Open(t)

	created, err := client.CreateDatabase(ctx, "retail", 0)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = client.CreateDatabase(ctx, "retail", 0)
	require.NoError(t, err)
	assert.False(t, created, "an existing database is not an error")

	_, err = client.CreateDatabase(ctx, "analytics", 1000)
	require.NoError(t, err)

	names, err := client.ListDatabases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"analytics", "retail"}, names)

	_, err = client.SelectDatabase(ctx, "missing")
	assert.ErrorIs(t, err, cosmos.ErrNotFound)

	status, err := client.DeleteDatabase(ctx, "analytics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, status)

	status, err = client.DeleteDatabase(ctx, "analytics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)

	_, err = client.CreateDatabase(ctx, "bad/name", 0)
	assert.ErrorIs(t, err, cosmos.ErrValidation)
}

func TestCatalog_ContainerDefaults(t *testing.T) {
	ctx := context.Background()
	client, _ := cosmostest.Open(t)

	_, err := client.CreateDatabase(ctx, "retail", 0)
	require.NoError(t, err)
	db, err := client.SelectDatabase(ctx, "retail")
	require.NoError(t, err)

	created, err := client.CreateContainer(ctx, db, "orders")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = client.CreateContainer(ctx, db, "orders")
	require.NoError(t, err)
	assert.False(t, created)

	scope, err := client.SelectContainer(ctx, db, "orders")
	require.NoError(t, err)
	assert.Equal(t, "/pk", scope.PartitionKeyPath())
	assert.Equal(t, "pk", scope.PartitionKeyAttr())

	props, err := client.GetContainerProperties(ctx, scope)
	require.NoError(t, err)
	require.NotNil(t, props.Throughput)
	assert.Equal(t, cosmos.Throughput{RU: 4000, Autoscale: true}, *props.Throughput)
	assert.Equal(t, cosmos.DefaultIndexPolicy(), props.IndexPolicy)

	names, err := client.ListContainers(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, names)

	status, err := client.DeleteContainer(ctx, db, "orders")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, status)

	status, err = client.DeleteContainer(ctx, db, "orders")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)

	_, err = client.SelectContainer(ctx, db, "orders")
	assert.ErrorIs(t, err, cosmos.ErrNotFound)
}

func TestCatalog_ContainerOptions(t *testing.T) {
	ctx := context.Background()
	client, _ := cosmostest.Open(t)
	_, err := client.CreateDatabase(ctx, "retail", 0)
	require.NoError(t, err)
	db := cosmos.NewDatabaseScope("retail")

	_, err = client.CreateContainer(ctx, db, "events",
		cosmos.WithPartitionKeyPath("/tenantId"),
		cosmos.WithThroughput(400),
		cosmos.WithAutoscale(false),
		cosmos.WithDefaultTTL(3600),
	)
	require.NoError(t, err)

	props, err := client.GetContainerProperties(ctx, cosmos.NewContainerScope("retail", "events", ""))
	require.NoError(t, err)
	assert.Equal(t, "/tenantId", props.PartitionKeyPath)
	assert.Equal(t, cosmos.Throughput{RU: 400}, *props.Throughput)
	require.NotNil(t, props.DefaultTTL)
	assert.Equal(t, 3600, *props.DefaultTTL)

	_, err = client.CreateContainer(ctx, db, "bad", cosmos.WithPartitionKeyPath("tenantId"))
	assert.ErrorIs(t, err, cosmos.ErrValidation)

	_, err = client.CreateContainer(ctx, cosmos.DatabaseScope{}, "orphan")
	assert.ErrorIs(t, err, cosmos.ErrValidation)
}

func TestCatalog_VectorContainerDefaults(t *testing.T) {
	ctx := context.Background()
	client, _ := cosmostest.Open(t)
	_, err := client.CreateDatabase(ctx, "search", 0)
	require.NoError(t, err)
	db := cosmos.NewDatabaseScope("search")

	created, err := client.CreateVectorContainer(ctx, db, cosmos.VectorContainerSpec{Name: "chunks"})
	require.NoError(t, err)
	assert.True(t, created)

	props, err := client.GetContainerProperties(ctx, cosmos.NewContainerScope("search", "chunks", "/pk"))
	require.NoError(t, err)
	assert.Equal(t, "/pk", props.PartitionKeyPath)
	assert.Equal(t, []cosmos.VectorEmbedding{{
		Path:             "/embedding",
		DataType:         cosmos.VectorDataFloat32,
		DistanceFunction: cosmos.DistanceCosine,
		Dimensions:       1536,
	}}, props.VectorEmbeddings)
	assert.Equal(t, []cosmos.VectorIndex{{Path: "/embedding", Type: cosmos.VectorIndexDiskANN}}, props.IndexPolicy.VectorIndexes)
	assert.Contains(t, props.IndexPolicy.ExcludedPaths, cosmos.IndexPath{Path: "/embedding/*"})
	assert.Contains(t, props.IndexPolicy.ExcludedPaths, cosmos.IndexPath{Path: `/"_etag"/?`})
}

func TestCatalog_VectorContainerFallsBackOnUnknownSettings(t *testing.T) {
	ctx := context.Background()
	log := &recordingLogger{}
	client, _ := cosmostest.Open(t, cosmos.WithLogger(log))
	_, err := client.CreateDatabase(ctx, "search", 0)
	require.NoError(t, err)
	db := cosmos.NewDatabaseScope("search")

	_, err = client.CreateVectorContainer(ctx, db, cosmos.VectorContainerSpec{
		Name:             "chunks",
		EmbeddingPath:    "/vec",
		Dimensions:       384,
		DistanceFunction: "manhattan",
		IndexType:        "QuantizedFlat",
		DataType:         "float16",
	})
	require.NoError(t, err)

	props, err := client.GetContainerProperties(ctx, cosmos.NewContainerScope("search", "chunks", "/pk"))
	require.NoError(t, err)
	require.Len(t, props.VectorEmbeddings, 1)
	emb := props.VectorEmbeddings[0]
	assert.Equal(t, "/vec", emb.Path)
	assert.Equal(t, 384, emb.Dimensions)
	assert.Equal(t, cosmos.DistanceCosine, emb.DistanceFunction)
	assert.Equal(t, cosmos.VectorDataFloat32, emb.DataType)
	assert.Equal(t, []cosmos.VectorIndex{{Path: "/vec", Type: cosmos.VectorIndexQuantizedFlat}}, props.IndexPolicy.VectorIndexes)

	warnings := log.byLevel("warn")
	require.Len(t, warnings, 2)
	assert.Equal(t, "distance_function", warnings[0].fields["field"])
	assert.Equal(t, "data_type", warnings[1].fields["field"])
}

func TestCatalog_ThroughputIsReadOnlyForProperties(t *testing.T) {
	ctx := context.Background()
	client, tr := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	// Serverless accounts reject throughput reads; nothing but
	// GetContainerProperties may depend on them.
	tr.FailNext(cosmostest.MethodReadThroughput, cosmostest.Status(http.StatusBadRequest))

	_, err := client.SelectContainer(ctx, cosmos.NewDatabaseScope("retail"), "orders")
	require.NoError(t, err)
	_, err = client.GetIndexPolicy(ctx, scope)
	require.NoError(t, err)
	policy := cosmos.DefaultIndexPolicy()
	policy.ExcludedPaths = append(policy.ExcludedPaths, cosmos.IndexPath{Path: "/notes/*"})
	_, err = client.ReplaceIndexPolicy(ctx, scope, policy)
	require.NoError(t, err)
	assert.Zero(t, tr.Calls(cosmostest.MethodReadThroughput))

	_, err = client.GetContainerProperties(ctx, scope)
	assert.ErrorIs(t, err, cosmos.ErrValidation)
	assert.Equal(t, 1, tr.Calls(cosmostest.MethodReadThroughput))

	props, err := client.GetContainerProperties(ctx, scope)
	require.NoError(t, err)
	require.NotNil(t, props.Throughput)
	assert.Equal(t, 4000, props.Throughput.RU)
}
