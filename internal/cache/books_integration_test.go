//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelf/bookshelf/internal/model"
	"github.com/bookshelf/bookshelf/internal/testutil"
)

func newTestCache(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	c, err := New(ctx, testutil.RequireEnv(t, "REDIS_URL"), Options{BookListTTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, testutil.FlushRedis(ctx, c.Client()))
	return ctx, c
}

func TestIntegrationBookCache_RoundTripAndInvalidate(t *testing.T) {
	ctx, c := newTestCache(t)

	_, err := c.GetBooks(ctx, 1, "")
	assert.ErrorIs(t, err, ErrCacheMiss)

	gen, err := c.BookListGeneration(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, gen)

	books := []*model.Book{{ID: 2, OwnerID: 1, Title: "Emma", Author: "Jane Austen"}}
	require.NoError(t, c.SetBooks(ctx, 1, "", gen, books))
	require.NoError(t, c.SetBooks(ctx, 1, "emma", gen, books))
	require.NoError(t, c.SetBooks(ctx, 2, "", 0, nil))

	got, err := c.GetBooks(ctx, 1, "EMMA")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Emma", got[0].Title)

	ttl, err := c.Client().TTL(ctx, bookListKey(1)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.InvalidateOwner(ctx, 1))
	_, err = c.GetBooks(ctx, 1, "")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.GetBooks(ctx, 1, "emma")
	assert.ErrorIs(t, err, ErrCacheMiss)

	_, err = c.GetBooks(ctx, 2, "")
	assert.NoError(t, err, "other owners are untouched")
}

func TestIntegrationBookCache_StaleGenerationIsNotCached(t *testing.T) {
	ctx, c := newTestCache(t)

	gen, err := c.BookListGeneration(ctx, 5)
	require.NoError(t, err)

	// A write lands between the store read and the cache fill.
	require.NoError(t, c.InvalidateOwner(ctx, 5))

	stale := []*model.Book{}
	assert.ErrorIs(t, c.SetBooks(ctx, 5, "", gen, stale), ErrStaleGeneration)
	_, err = c.GetBooks(ctx, 5, "")
	assert.ErrorIs(t, err, ErrCacheMiss)

	current, err := c.BookListGeneration(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, gen+1, current)

	fresh := []*model.Book{{ID: 9, OwnerID: 5, Title: "New", Author: "A"}}
	require.NoError(t, c.SetBooks(ctx, 5, "", current, fresh))
	got, err := c.GetBooks(ctx, 5, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(9), got[0].ID)
}
