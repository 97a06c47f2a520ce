package cache

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Total string `json:"total"`
	Count int    `json:"count"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	c, mr, _ := newLoggedTestCache(t)
	return c, mr
}

// newLoggedTestCache also returns the buffer the cache logs into
func newLoggedTestCache(t *testing.T) (*Cache, *miniredis.Miniredis, *bytes.Buffer) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	return New(client, time.Minute, logger), mr, &logs
}

func countingLoader(calls *int, value payload) func(context.Context) (interface{}, error) {
	return func(context.Context) (interface{}, error) {
		*calls++
		return value, nil
	}
}

func TestFetchJSON_CachesUntilBump(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	calls := 0
	loader := countingLoader(&calls, payload{Total: "1500.00", Count: 3})

	var first, second payload
	require.NoError(t, c.FetchJSON(ctx, 1, []string{"breakdown", "2024-06-30"}, &first, loader))
	require.NoError(t, c.FetchJSON(ctx, 1, []string{"breakdown", "2024-06-30"}, &second, loader))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	require.NoError(t, c.Bump(ctx, 1))

	var third payload
	require.NoError(t, c.FetchJSON(ctx, 1, []string{"breakdown", "2024-06-30"}, &third, loader))
	assert.Equal(t, 2, calls, "a bump must force recomputation")
}

func TestBump_IsolatedPerTenant(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	callsA, callsB := 0, 0

	var out payload
	require.NoError(t, c.FetchJSON(ctx, 1, []string{"herd"}, &out, countingLoader(&callsA, payload{Count: 1})))
	require.NoError(t, c.FetchJSON(ctx, 2, []string{"herd"}, &out, countingLoader(&callsB, payload{Count: 2})))
	assert.Equal(t, 2, out.Count)

	require.NoError(t, c.Bump(ctx, 1))

	require.NoError(t, c.FetchJSON(ctx, 1, []string{"herd"}, &out, countingLoader(&callsA, payload{Count: 1})))
	require.NoError(t, c.FetchJSON(ctx, 2, []string{"herd"}, &out, countingLoader(&callsB, payload{Count: 2})))
	assert.Equal(t, 2, callsA)
	assert.Equal(t, 1, callsB, "another tenant's write must not evict this tenant")
}

func TestBuildKey(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	key, err := c.BuildKey(ctx, 7, "cashflow")
	require.NoError(t, err)
	assert.Equal(t, "herd:7:cashflow:v1", key)

	require.NoError(t, c.Bump(ctx, 7))
	key, err = c.BuildKey(ctx, 7, "cashflow")
	require.NoError(t, err)
	assert.Equal(t, "herd:7:cashflow:v2", key)
}

func TestFetchJSON_LoaderErrorIsNotCached(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	boom := errors.New("store down")

	var out payload
	err := c.FetchJSON(ctx, 1, []string{"x"}, &out, func(context.Context) (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	calls := 0
	require.NoError(t, c.FetchJSON(ctx, 1, []string{"x"}, &out, countingLoader(&calls, payload{Count: 9})))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 9, out.Count)
}

func TestFetchJSON_RedisDownFallsBackToLoader(t *testing.T) {
	c, mr, logs := newLoggedTestCache(t)
	mr.Close()

	calls := 0
	var out payload
	err := c.FetchJSON(context.Background(), 1, []string{"x"}, &out, countingLoader(&calls, payload{Count: 4}))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 4, out.Count)
	assert.Contains(t, logs.String(), "Cache unavailable, computing directly")
	assert.Contains(t, logs.String(), "tenant_id=1")
}

func TestNilCache_Passthrough(t *testing.T) {
	var c *Cache
	ctx := context.Background()
	calls := 0

	var out payload
	require.NoError(t, c.FetchJSON(ctx, 1, []string{"x"}, &out, countingLoader(&calls, payload{Count: 5})))
	require.NoError(t, c.FetchJSON(ctx, 1, []string{"x"}, &out, countingLoader(&calls, payload{Count: 5})))
	assert.Equal(t, 2, calls)
	assert.NoError(t, c.Bump(ctx, 1))
	assert.False(t, c.Enabled())
}
