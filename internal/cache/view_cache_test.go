package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*ViewCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewViewCache(rdb, 24*time.Hour), mr
}

func TestMarkViewed_FirstOnly(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	first, err := c.MarkViewed(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := c.MarkViewed(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.False(t, again)

	// 不同读者互不影响
	other, err := c.MarkViewed(ctx, "p1", "u2")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestMarkViewed_TTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.MarkViewed(ctx, "p1", "u1")
	require.NoError(t, err)

	mr.FastForward(25 * time.Hour)

	first, err := c.MarkViewed(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.True(t, first, "expired marker counts as a fresh view")
}

func TestIncrPending(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	n, err := c.IncrPending(ctx, "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = c.IncrPending(ctx, "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestScanPendingSkipsDedupKeys(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.MarkViewed(ctx, "p1", "u1")
	require.NoError(t, err)
	_, err = c.IncrPending(ctx, "p1")
	require.NoError(t, err)
	_, err = c.IncrPending(ctx, "p2")
	require.NoError(t, err)

	var keys []string
	var cursor uint64
	for {
		page, next, err := c.ScanPending(ctx, cursor, 10)
		require.NoError(t, err)
		keys = append(keys, page...)
		if next == 0 {
			break
		}
		cursor = next
	}
	assert.ElementsMatch(t, []string{"post:view:pending:p1", "post:view:pending:p2"}, keys)
}

func TestPendingValuesAndDelete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.IncrPending(ctx, "p1")
	require.NoError(t, err)

	keys := []string{"post:view:pending:p1", "post:view:pending:missing"}
	vals, err := c.PendingValues(ctx, keys)
	require.NoError(t, err)
	require.Len(t, vals, 2)
	assert.Equal(t, "1", vals[0])
	assert.Nil(t, vals[1], "missing key comes back nil, not an error")

	require.NoError(t, c.DeleteKeys(ctx, keys[:1]))
	vals, err = c.PendingValues(ctx, keys[:1])
	require.NoError(t, err)
	assert.Nil(t, vals[0])

	// 空集合是空操作
	assert.NoError(t, c.DeleteKeys(ctx, nil))
}

func TestPostIDFromPendingKey(t *testing.T) {
	id, ok := PostIDFromPendingKey("post:view:pending:p42")
	assert.True(t, ok)
	assert.Equal(t, "p42", id)

	_, ok = PostIDFromPendingKey("post:view:dedup:p42:u1")
	assert.False(t, ok)
	_, ok = PostIDFromPendingKey("post:view:pending:")
	assert.False(t, ok)
}
