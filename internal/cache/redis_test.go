package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := NewFromClient(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestJSONRoundTripAndTTL(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	type item struct {
		Name  string `json:"name"`
		Price int64  `json:"price"`
	}
	require.NoError(t, r.SetJSON(ctx, "k", []item{{Name: "Sultan TT", Price: 200000}}, time.Minute))

	var got []item
	ok, err := r.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Sultan TT", got[0].Name)

	mr.FastForward(2 * time.Minute)
	ok, err = r.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetJSONRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)
	require.NoError(t, mr.Set("bad", "{not json"))

	var dest map[string]any
	_, err := r.GetJSON(ctx, "bad", &dest)
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)
	require.NoError(t, r.SetJSON(ctx, "a", 1, 0))
	require.NoError(t, r.Delete(ctx, "a", "missing"))
	assert.False(t, mr.Exists("a"))
	require.NoError(t, r.Delete(ctx))
}

func TestLockIsExclusiveAndTokenChecked(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	token, ok, err := r.AcquireLock(ctx, "lock:order:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	_, ok, err = r.AcquireLock(ctx, "lock:order:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// A stale holder cannot release somebody else's lock.
	require.NoError(t, r.ReleaseLock(ctx, "lock:order:1", "stale"))
	assert.True(t, mr.Exists("lock:order:1"))

	require.NoError(t, r.ReleaseLock(ctx, "lock:order:1", token))
	assert.False(t, mr.Exists("lock:order:1"))

	_, ok, err = r.AcquireLock(ctx, "lock:order:1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	mr.FastForward(2 * time.Second)
	_, ok, err = r.AcquireLock(ctx, "lock:order:1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}
