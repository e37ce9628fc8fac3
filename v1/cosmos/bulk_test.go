package cosmos_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Aleph-Alpha/docstore/v1/cosmos"
	"github.com/Aleph-Alpha/docstore/v1/cosmos/cosmostest"
)

func orderDocs(t *testing.T, n int) []*cosmos.Document {
	t.Helper()
	docs := make([]*cosmos.Document, n)
	for i := range docs {
		pk := []string{"A", "B", "C"}[i%3]
		docs[i] = cosmostest.MustParse(t, fmt.Sprintf(`{"id":"o-%03d","pk":%q,"n":%d}`, i, pk, i))
	}
	return docs
}

func TestBulkUpsert_OneResultPerInput(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	client, tr := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	docs := orderDocs(t, 25)
	docs[7] = cosmostest.MustParse(t, `{"id":"no-pk","n":7}`)
	docs[12].Delete("id")

	summary := client.BulkUpsert(ctx, scope, docs, "", cosmos.WithConcurrency(4))

	require.Len(t, summary.Results, 25)
	assert.Equal(t, 24, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.Canceled)
	assert.Equal(t, cosmos.PartialSuccess, summary.Outcome())
	assert.InDelta(t, 24*cosmostest.WriteCharge, summary.RequestCharge, 0.001)

	for i, r := range summary.Results {
		assert.Equal(t, i, r.Index)
	}
	failures := summary.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, 7, failures[0].Index)
	assert.ErrorIs(t, failures[0].Err, cosmos.ErrValidation)

	generated := summary.Results[12].ID
	assert.NotEmpty(t, generated)
	_, hasID := docs[12].Get("id")
	assert.False(t, hasID, "the caller's document is not modified")

	assert.Len(t, tr.Items("retail", "orders"), 24)
	_, err := client.PointRead(ctx, scope, generated, summary.Results[12].PartitionKey)
	assert.NoError(t, err)
}

func TestBulkUpsert_ExplicitPartitionKeyAttribute(t *testing.T) {
	ctx := context.Background()
	client, _ := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "tenants", "/tenantId")

	docs := []*cosmos.Document{
		cosmostest.MustParse(t, `{"id":"1","tenantId":"t1"}`),
		cosmostest.MustParse(t, `{"id":"2","tenantId":"t2"}`),
	}
	summary := client.BulkUpsert(ctx, scope, docs, "tenantId")
	assert.Equal(t, cosmos.Succeeded, summary.Outcome())
	assert.Equal(t, "t2", summary.Results[1].PartitionKey)
}

func TestBulkUpsert_CancellationStopsNewWork(t *testing.T) {
	defer goleak.VerifyNone(t)

	client, tr := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	started := make(chan struct{}, 32)
	release := make(chan struct{})
	tr.SetHook(func(ctx context.Context, method string) error {
		if method == cosmostest.MethodUpsertItem {
			started <- struct{}{}
			<-release
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs := orderDocs(t, 20)
	done := make(chan cosmos.BulkSummary)
	go func() {
		done <- client.BulkUpsert(ctx, scope, docs, "pk", cosmos.WithConcurrency(2))
	}()

	<-started
	<-started
	cancel()
	close(release)
	summary := <-done

	assert.Equal(t, 2, summary.Succeeded, "requests already sent run to completion")
	assert.Equal(t, 18, summary.Canceled)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, cosmos.PartialSuccess, summary.Outcome())
	assert.Equal(t, 2, tr.Calls(cosmostest.MethodUpsertItem))
	assert.Len(t, tr.Items("retail", "orders"), 2)

	for _, r := range summary.Failures() {
		assert.ErrorIs(t, r.Err, cosmos.ErrCanceled)
	}
}

func TestBulkUpsert_NoRetriesAfterCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	client, tr := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr.SetHook(func(_ context.Context, method string) error {
		if method == cosmostest.MethodUpsertItem {
			cancel()
			return cosmostest.Status(503)
		}
		return nil
	})

	summary := client.BulkUpsert(ctx, scope, orderDocs(t, 1), "pk")

	assert.Equal(t, 1, tr.Calls(cosmostest.MethodUpsertItem), "no attempt starts after cancellation")
	require.Len(t, summary.Results, 1)
	assert.False(t, summary.Results[0].Succeeded)
	assert.Equal(t, 503, summary.Results[0].StatusCode)
	assert.Equal(t, 1, summary.Failed)
}

func TestBulkUpsert_PresentIDIsNeverReplaced(t *testing.T) {
	ctx := context.Background()
	client, tr := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	docs := []*cosmos.Document{
		cosmostest.MustParse(t, `{"id":"","pk":"A"}`),
		cosmostest.MustParse(t, `{"id":null,"pk":"A"}`),
		cosmostest.MustParse(t, `{"id":"o-1","pk":"A"}`),
	}
	summary := client.BulkUpsert(ctx, scope, docs, "pk")

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	for _, r := range summary.Failures() {
		assert.ErrorIs(t, r.Err, cosmos.ErrValidation)
	}
	assert.Equal(t, 1, tr.Calls(cosmostest.MethodUpsertItem))
	assert.Len(t, tr.Items("retail", "orders"), 1)
}

func TestBulkUpsert_AlreadyCanceled(t *testing.T) {
	client, tr := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := client.BulkUpsert(ctx, scope, orderDocs(t, 5), "pk")
	assert.Equal(t, 5, summary.Canceled)
	assert.Equal(t, cosmos.NotAttempted, summary.Outcome())
	assert.Zero(t, tr.Calls(cosmostest.MethodUpsertItem))
}

func TestBulkUpsert_RespectsConcurrencyLimit(t *testing.T) {
	client, tr := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	var inFlight, peak atomic.Int32
	tr.SetHook(func(ctx context.Context, method string) error {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		return nil
	})

	summary := client.BulkUpsert(context.Background(), scope, orderDocs(t, 50), "pk",
		cosmos.WithConcurrency(3), cosmos.WithRateLimit(10000))
	assert.Equal(t, 50, summary.Succeeded)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestBulkRead_And_BulkDelete(t *testing.T) {
	ctx := context.Background()
	client, _ := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	require.Equal(t, 6, client.BulkUpsert(ctx, scope, orderDocs(t, 6), "pk").Succeeded)

	keys := []cosmos.ItemKey{
		{ID: "o-000", PartitionKey: "A"},
		{ID: "o-001", PartitionKey: "B"},
		{ID: "o-999", PartitionKey: "A"},
		{ID: "", PartitionKey: "A"},
	}
	read := client.BulkRead(ctx, scope, keys)
	require.Len(t, read.Results, 4)
	assert.Equal(t, 2, read.Succeeded)
	assert.Equal(t, "o-001", read.Results[1].Document.ID())
	assert.ErrorIs(t, read.Results[2].Err, cosmos.ErrNotFound)
	assert.ErrorIs(t, read.Results[3].Err, cosmos.ErrValidation)

	deleted := client.BulkDelete(ctx, scope, keys[:3])
	assert.Equal(t, 3, deleted.Succeeded, "already absent items count as deleted")
	assert.Equal(t, 404, deleted.Results[2].StatusCode)

	n, err := client.CountDocuments(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestBulk_LogsSummary(t *testing.T) {
	log := &recordingLogger{}
	client, _ := cosmostest.Open(t, cosmos.WithLogger(log))
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	docs := append(orderDocs(t, 3), cosmostest.MustParse(t, `{"id":"x"}`))
	client.BulkUpsert(context.Background(), scope, docs, "pk")

	warnings := log.byLevel("warn")
	require.Len(t, warnings, 1)
	assert.Equal(t, "[Cosmos] bulk operation finished with failures", warnings[0].msg)
	assert.Equal(t, 3, warnings[0].fields["succeeded"])
	assert.Equal(t, 1, warnings[0].fields["failed"])
	assert.Equal(t, "partial_success", warnings[0].fields["outcome"])
}
