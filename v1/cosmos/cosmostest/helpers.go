package cosmostest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/docstore/v1/cosmos"
)

// Endpoint and Key are the values Config uses. The key is the well-known
// emulator key.
const (
	Endpoint = "https://localhost:8081/"
	Key      = "C2y6yDjf5/R+ob0N8A7Cgv30VRDJIWEHLM+4QDU5DE2nQ9nDuVTqobD4b8mGGyPMbIZnqyMsEcaGQy67XIw/Jw=="
)

// Config returns a valid key-authenticated configuration with short retry
// intervals so that tests exercising retries stay fast.
func Config() cosmos.Config {
	return cosmos.DefaultConfig().
		WithEndpoint(Endpoint).
		WithKey(Key).
		WithRequestTimeout(5*time.Second).
		WithRetry(3, time.Millisecond, 5*time.Millisecond)
}

// Open returns a client backed by a fresh Transport. The client is closed
// when the test ends.
func Open(t testing.TB, opts ...cosmos.Option) (*cosmos.Client, *Transport) {
	t.Helper()
	tr := NewTransport()
	client, err := cosmos.Open(context.Background(), Config(), append([]cosmos.Option{cosmos.WithTransport(tr)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, tr
}

// Container creates database and container (partitioned on pkPath) and
// returns the selected scope.
func Container(t testing.TB, client *cosmos.Client, database, container, pkPath string) cosmos.ContainerScope {
	t.Helper()
	ctx := context.Background()
	_, err := client.CreateDatabase(ctx, database, 0)
	require.NoError(t, err)
	db, err := client.SelectDatabase(ctx, database)
	require.NoError(t, err)
	_, err = client.CreateContainer(ctx, db, container, cosmos.WithPartitionKeyPath(pkPath))
	require.NoError(t, err)
	scope, err := client.SelectContainer(ctx, db, container)
	require.NoError(t, err)
	return scope
}

// MustParse parses a JSON object or fails the test.
func MustParse(t testing.TB, s string) *cosmos.Document {
	t.Helper()
	doc, err := cosmos.ParseDocument([]byte(s))
	require.NoError(t, err)
	return doc
}
