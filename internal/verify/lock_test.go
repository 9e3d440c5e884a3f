package verify

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"misicuan-admin/internal/cache"
	"misicuan-admin/internal/logging"
)

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	release, ok, err := l.TryLock(ctx, "o1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "o1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = l.TryLock(ctx, "o2")
	require.NoError(t, err)
	assert.True(t, ok)

	release()
	release()
	_, ok, err = l.TryLock(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rc := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), logging.Discard())
	t.Cleanup(func() { _ = rc.Close() })

	first := NewRedisLocker(rc, time.Minute, logging.Discard())
	second := NewRedisLocker(rc, time.Minute, logging.Discard())

	release, ok, err := first.TryLock(ctx, "o1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("verify:lock:o1"))

	_, ok, err = second.TryLock(ctx, "o1")
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	assert.False(t, mr.Exists("verify:lock:o1"))

	_, ok, err = second.TryLock(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockerExpiredLockIsNotStolenBack(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rc := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), logging.Discard())
	t.Cleanup(func() { _ = rc.Close() })
	l := NewRedisLocker(rc, time.Second, logging.Discard())

	release, ok, err := l.TryLock(ctx, "o1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	_, ok, err = l.TryLock(ctx, "o1")
	require.NoError(t, err)
	require.True(t, ok)

	release()
	assert.True(t, mr.Exists("verify:lock:o1"))
}

type brokenReleaseStore struct{}

func (brokenReleaseStore) AcquireLock(context.Context, string, time.Duration) (string, bool, error) {
	return "token", true, nil
}

func (brokenReleaseStore) ReleaseLock(context.Context, string, string) error {
	return errors.New("connection refused")
}

func TestRedisLockerLogsFailedRelease(t *testing.T) {
	var buf bytes.Buffer
	l := NewRedisLocker(brokenReleaseStore{}, time.Minute, logging.New(&buf, "warn", "text"))

	release, ok, err := l.TryLock(context.Background(), "o1")
	require.NoError(t, err)
	require.True(t, ok)

	release()
	out := buf.String()
	assert.Contains(t, out, "release order lock failed")
	assert.Contains(t, out, "order_id=o1")
	assert.Contains(t, out, "connection refused")
}
