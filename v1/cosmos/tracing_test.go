package cosmos_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Aleph-Alpha/docstore/v1/cosmos"
	"github.com/Aleph-Alpha/docstore/v1/cosmos/cosmostest"
	"github.com/Aleph-Alpha/docstore/v1/tracer"
)

func openTraced(t *testing.T) (*cosmos.Client, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	client, _ := cosmostest.Open(t, cosmos.WithTracer(tracer.NewWithProvider(tp)))
	return client, rec
}

func spanNamed(rec *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	for _, s := range rec.Ended() {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

func TestTracing_BulkAndBatchSpans(t *testing.T) {
	ctx := context.Background()
	client, rec := openTraced(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	summary := client.BulkUpsert(ctx, scope, orderDocs(t, 4), "pk")
	require.Equal(t, 4, summary.Succeeded)

	bulk := spanNamed(rec, "cosmos.bulk_upsert")
	require.NotNil(t, bulk)
	assert.NotEqual(t, codes.Error, bulk.Status().Code)

	_, err := client.ExecuteBatch(ctx, scope, "A", []cosmos.BatchOperation{
		{Type: cosmos.BatchCreate, Document: cosmostest.MustParse(t, `{"id":"o-000","pk":"A"}`)},
	})
	require.ErrorIs(t, err, cosmos.ErrConflict)

	batch := spanNamed(rec, "cosmos.execute_batch")
	require.NotNil(t, batch)
	assert.Equal(t, codes.Error, batch.Status().Code)
}

func TestTracing_FailedBulkMarksSpan(t *testing.T) {
	client, rec := openTraced(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	docs := append(orderDocs(t, 2), cosmostest.MustParse(t, `{"id":"no-pk"}`))
	client.BulkUpsert(context.Background(), scope, docs, "pk")

	bulk := spanNamed(rec, "cosmos.bulk_upsert")
	require.NotNil(t, bulk)
	assert.Equal(t, codes.Error, bulk.Status().Code)
}
