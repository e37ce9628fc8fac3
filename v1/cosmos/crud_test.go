package cosmos_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/docstore/v1/cosmos"
	"github.com/Aleph-Alpha/docstore/v1/cosmos/cosmostest"
)

func TestItems_UpsertThenReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, _ := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	doc := cosmostest.MustParse(t, `{"id":"o-1","pk":"A","total":12.5,"lines":[{"sku":"x","qty":2}]}`)
	stored, err := client.Upsert(ctx, scope, doc, "A", nil)
	require.NoError(t, err)
	etag, ok := stored.GetString(cosmos.FieldETag)
	require.True(t, ok)
	assert.NotEmpty(t, etag)

	read, err := client.PointRead(ctx, scope, "o-1", "A")
	require.NoError(t, err)
	read.Delete(cosmos.FieldETag)
	assert.True(t, read.Equal(doc), "read %s, want %s", read, doc)

	_, err = client.PointRead(ctx, scope, "o-1", "B")
	assert.ErrorIs(t, err, cosmos.ErrNotFound, "items are addressed by id and partition key")
}

func TestItems_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	client, tr := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	_, err := client.Upsert(ctx, scope, cosmostest.MustParse(t, `{"id":"o-1","pk":"A","status":"open"}`), "A", nil)
	require.NoError(t, err)
	_, err = client.Upsert(ctx, scope, cosmostest.MustParse(t, `{"id":"o-1","pk":"A","status":"paid"}`), "A", nil)
	require.NoError(t, err)

	items := tr.Items("retail", "orders")
	require.Len(t, items, 1)
	status, _ := items[0].GetString("status")
	assert.Equal(t, "paid", status)
}

func TestItems_ConditionalUpsert(t *testing.T) {
	ctx := context.Background()
	client, _ := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	first, err := client.Upsert(ctx, scope, cosmostest.MustParse(t, `{"id":"o-1","pk":"A","v":1}`), "A", nil)
	require.NoError(t, err)
	etag, _ := first.GetString(cosmos.FieldETag)

	_, err = client.Upsert(ctx, scope, cosmostest.MustParse(t, `{"id":"o-1","pk":"A","v":2}`), "A", &cosmos.ItemOptions{IfMatchETag: etag})
	require.NoError(t, err)

	_, err = client.Upsert(ctx, scope, cosmostest.MustParse(t, `{"id":"o-1","pk":"A","v":3}`), "A", &cosmos.ItemOptions{IfMatchETag: etag})
	assert.ErrorIs(t, err, cosmos.ErrConflict)
	assert.Equal(t, 412, cosmos.StatusOf(err))
	assert.True(t, cosmos.IsTemporaryError(err))
}

func TestItems_CreateConflicts(t *testing.T) {
	ctx := context.Background()
	client, _ := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	doc := cosmostest.MustParse(t, `{"id":"o-1","pk":"A"}`)
	_, err := client.Create(ctx, scope, doc, "A")
	require.NoError(t, err)

	_, err = client.Create(ctx, scope, doc, "A")
	assert.ErrorIs(t, err, cosmos.ErrConflict)
	assert.Equal(t, cosmos.Rejected, cosmos.OutcomeOf(err))
}

func TestItems_ValidationHappensBeforeSending(t *testing.T) {
	ctx := context.Background()
	client, tr := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	cases := map[string]struct {
		doc string
		pk  string
	}{
		"missing id":       {`{"pk":"A"}`, "A"},
		"non-string id":    {`{"id":7,"pk":"A"}`, "A"},
		"missing pk field": {`{"id":"o-1"}`, "A"},
		"mismatched pk":    {`{"id":"o-1","pk":"B"}`, "A"},
		"empty pk value":   {`{"id":"o-1","pk":"A"}`, ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := client.Upsert(ctx, scope, cosmostest.MustParse(t, tc.doc), tc.pk, nil)
			assert.ErrorIs(t, err, cosmos.ErrValidation)
			assert.Equal(t, cosmos.NotAttempted, cosmos.OutcomeOf(err))
		})
	}
	assert.Zero(t, tr.Calls(cosmostest.MethodUpsertItem))

	_, err := client.Upsert(ctx, cosmos.ContainerScope{}, cosmostest.MustParse(t, `{"id":"o-1","pk":"A"}`), "A", nil)
	assert.ErrorIs(t, err, cosmos.ErrValidation)
	_, err = client.PointRead(ctx, scope, "", "A")
	assert.ErrorIs(t, err, cosmos.ErrValidation)
}

func TestItems_DeleteReportsOutcome(t *testing.T) {
	ctx := context.Background()
	client, _ := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	outcome, err := client.Delete(ctx, scope, "nope", "A")
	require.NoError(t, err)
	assert.Equal(t, cosmos.NotFound, outcome)

	_, err = client.Upsert(ctx, scope, cosmostest.MustParse(t, `{"id":"o-1","pk":"A"}`), "A", nil)
	require.NoError(t, err)

	outcome, err = client.Delete(ctx, scope, "o-1", "A")
	require.NoError(t, err)
	assert.Equal(t, cosmos.Deleted, outcome)

	_, err = client.PointRead(ctx, scope, "o-1", "A")
	assert.ErrorIs(t, err, cosmos.ErrNotFound)
}

func TestItems_TransientFailuresAreRetried(t *testing.T) {
	ctx := context.Background()
	client, tr := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	tr.FailNext(cosmostest.MethodUpsertItem, cosmostest.Status(429), cosmostest.Status(503))
	_, err := client.Upsert(ctx, scope, cosmostest.MustParse(t, `{"id":"o-1","pk":"A"}`), "A", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, tr.Calls(cosmostest.MethodUpsertItem))

	tr.FailNext(cosmostest.MethodCreateItem, cosmostest.Status(500))
	_, err = client.Create(ctx, scope, cosmostest.MustParse(t, `{"id":"o-2","pk":"A"}`), "A")
	assert.ErrorIs(t, err, cosmos.ErrService)
	assert.Equal(t, 1, tr.Calls(cosmostest.MethodCreateItem), "a create is not resent after an ambiguous failure")
}

func TestItems_CountDocuments(t *testing.T) {
	ctx := context.Background()
	client, _ := cosmostest.Open(t)
	scope := cosmostest.Container(t, client, "retail", "orders", "/pk")

	n, err := client.CountDocuments(ctx, scope)
	require.NoError(t, err)
	assert.Zero(t, n)

	for _, raw := range []string{
		`{"id":"1","pk":"A"}`,
		`{"id":"2","pk":"A"}`,
		`{"id":"3","pk":"B"}`,
		`{"id":"4","pk":"C"}`,
	} {
		doc := cosmostest.MustParse(t, raw)
		_, err := client.Upsert(ctx, scope, doc, cosmos.ExtractPartitionKey(doc, "pk", ""), nil)
		require.NoError(t, err)
	}

	n, err = client.CountDocuments(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	n, err = client.CountDocuments(ctx, scope, cosmos.WithPartitionKey("A"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
