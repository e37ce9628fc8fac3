package cosmos_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Aleph-Alpha/docstore/v1/cosmos"
	"github.com/Aleph-Alpha/docstore/v1/cosmos/cosmostest"
)

const emulatorImage = "mcr.microsoft.com/cosmosdb/linux/azure-cosmos-emulator:vnext-preview"

// startEmulator runs the Linux emulator in plain HTTP mode and returns its
// endpoint.
func startEmulator(ctx context.Context, t *testing.T) string {
	t.Helper()
	port := nat.Port("8081/tcp")

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        emulatorImage,
			ExposedPorts: []string{string(port)},
			Env:          map[string]string{"PROTOCOL": "http"},
			WaitingFor:   wait.ForListeningPort(port).WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)
	return fmt.Sprintf("http://%s:%s/", host, mapped.Port())
}

func TestEmulator_OrdersLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if os.Getenv("COSMOS_EMULATOR") != "1" {
		t.Skip("set COSMOS_EMULATOR=1 to run against the Cosmos DB emulator")
	}

	ctx := context.Background()
	endpoint := startEmulator(ctx, t)

	cfg := cosmos.DefaultConfig().
		WithEndpoint(endpoint).
		WithKey(cosmostest.Key).
		WithRequestTimeout(30*time.Second).
		WithRetry(5, 200*time.Millisecond, 2*time.Second).
		WithVerifyConnection(true)

	var client *cosmos.Client
	require.Eventually(t, func() bool {
		var err error
		client, err = cosmos.Open(ctx, cfg)
		return err == nil
	}, 2*time.Minute, 2*time.Second, "emulator did not accept connections")
	t.Cleanup(func() { _ = client.Close() })

	_, err := client.CreateDatabase(ctx, "retail", 0)
	require.NoError(t, err)
	db, err := client.SelectDatabase(ctx, "retail")
	require.NoError(t, err)
	_, err = client.CreateContainer(ctx, db, "orders", cosmos.WithThroughput(400), cosmos.WithAutoscale(false))
	require.NoError(t, err)
	scope, err := client.SelectContainer(ctx, db, "orders")
	require.NoError(t, err)

	summary := client.BulkUpsert(ctx, scope, orderDocs(t, 9), "pk", cosmos.WithConcurrency(3))
	require.Equal(t, cosmos.Succeeded, summary.Outcome(), "failures: %v", summary.Failures())

	n, err := client.CountDocuments(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	partA, err := client.Query(ctx, scope, "SELECT * FROM c WHERE c.pk = @pk",
		cosmos.WithParameters(cosmos.QueryParameter{Name: "@pk", Value: "A"})).Collect()
	require.NoError(t, err)
	assert.Len(t, partA, 3)

	outcome, err := client.Delete(ctx, scope, "o-000", "A")
	require.NoError(t, err)
	assert.Equal(t, cosmos.Deleted, outcome)

	status, err := client.DeleteDatabase(ctx, "retail")
	require.NoError(t, err)
	assert.Equal(t, 204, status)
}
