package dskind

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
)

func newTestKind() Accessor[testEntity] {
	return NewMemoryKind[testEntity, *testEntity]()
}

func TestMemoryKind_InsertAssignsIncreasingKeys(t *testing.T) {
	k := newTestKind()
	ctx := context.Background()

	first, err := k.InsertOne(ctx, &testEntity{Name: "a"})
	require.NoError(t, err)
	second, err := k.InsertOne(ctx, &testEntity{Name: "b"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestMemoryKind_GetReturnsDetachedCopy(t *testing.T) {
	k := newTestKind()
	ctx := context.Background()

	e := &testEntity{Name: "a", Tags: []string{"x"}}
	_, err := k.InsertOne(ctx, e)
	require.NoError(t, err)

	// Mutating the caller's record after insert must not leak into the
	// stored entity.
	e.Name = "changed"
	e.Tags[0] = "changed"

	got, err := k.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, []string{"x"}, got.Tags)

	// Nor must mutating a fetched record.
	got.Name = "changed again"
	again, err := k.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Name)
}

func TestMemoryKind_GetUnknownKey(t *testing.T) {
	k := newTestKind()

	_, err := k.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryKind_DeleteOne(t *testing.T) {
	k := newTestKind()
	ctx := context.Background()

	e := &testEntity{Name: "a"}
	_, err := k.InsertOne(ctx, e)
	require.NoError(t, err)

	require.NoError(t, k.DeleteOne(ctx, e.ID))
	_, err = k.Get(ctx, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, k.DeleteOne(ctx, 42))
}

func TestMemoryKind_FindOneAndReplace(t *testing.T) {
	k := newTestKind()
	ctx := context.Background()

	err := k.FindOneAndReplace(ctx, &testEntity{Name: "no key"})
	assert.ErrorIs(t, err, ErrNoKey)

	e := &testEntity{Name: "a", Tags: []string{"x"}}
	_, err = k.InsertOne(ctx, e)
	require.NoError(t, err)

	e.Name = "b"
	e.Tags = nil
	require.NoError(t, k.FindOneAndReplace(ctx, e))

	got, err := k.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Name)
	assert.Empty(t, got.Tags)
}

func TestMemoryKind_FindScansInInsertionOrder(t *testing.T) {
	k := newTestKind()
	ctx := context.Background()

	for _, name := range []string{"a", "b", "a"} {
		_, err := k.InsertOne(ctx, &testEntity{Name: name})
		require.NoError(t, err)
	}

	got, err := k.Find(ctx, Eq("Name", "a")).Collect()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
}

func TestMemoryKind_FindInVerifiesPerItem(t *testing.T) {
	k := newTestKind()
	ctx := context.Background()

	_, err := k.InsertOne(ctx, &testEntity{Name: "cross", Items: []testItem{
		{Kind: "plan", Value: "free"},
		{Kind: "team", Value: "pro"},
	}})
	require.NoError(t, err)
	_, err = k.InsertOne(ctx, &testEntity{Name: "exact", Items: []testItem{
		{Kind: "plan", Value: "pro"},
	}})
	require.NoError(t, err)

	got, err := k.FindIn(ctx, EqIn("Items", map[string]any{"Kind": "plan", "Value": "pro"})).Collect()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "exact", got[0].Name)
}

func TestMemoryKind_FindInRejectsEmptyFilter(t *testing.T) {
	k := newTestKind()

	_, err := k.FindIn(context.Background(), EqIn("Items", nil)).Collect()
	assert.Error(t, err)
}

func TestMemoryKind_IteratorEndsWithDone(t *testing.T) {
	k := newTestKind()
	ctx := context.Background()

	_, err := k.InsertOne(ctx, &testEntity{Name: "a"})
	require.NoError(t, err)

	it := k.All(ctx)

	_, err = it.Next()
	require.NoError(t, err)

	_, err = it.Next()
	assert.ErrorIs(t, err, iterator.Done)

	// Done is sticky.
	_, err = it.Next()
	assert.ErrorIs(t, err, iterator.Done)
}

func TestMemoryKind_FirstResolvesMultiples(t *testing.T) {
	k := newTestKind()
	ctx := context.Background()

	for range 2 {
		_, err := k.InsertOne(ctx, &testEntity{Name: "dup"})
		require.NoError(t, err)
	}

	got, err := k.Find(ctx, Eq("Name", "dup")).First()
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)

	_, err = k.Find(ctx, Eq("Name", "missing")).First()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryKind_HonorsCancellation(t *testing.T) {
	k := newTestKind()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := k.InsertOne(ctx, &testEntity{Name: "a"})
	require.Error(t, err)

	_, err = k.All(ctx).Collect()
	require.Error(t, err)
}
