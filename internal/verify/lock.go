package verify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Locker provides per-order mutual exclusion around a verification run.
type Locker interface {
	// TryLock returns a release func, or ok=false when the order is held.
	TryLock(ctx context.Context, orderID string) (release func(), ok bool, err error)
}

// MemoryLocker guards orders within one process.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryLocker returns an empty in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

// TryLock marks orderID as held.
func (l *MemoryLocker) TryLock(_ context.Context, orderID string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[orderID]; busy {
		return nil, false, nil
	}
	l.held[orderID] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, orderID)
			l.mu.Unlock()
		})
	}, true, nil
}

// LockStore is the subset of *cache.Redis the distributed locker needs.
type LockStore interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// RedisLocker guards orders across processes sharing one Redis.
type RedisLocker struct {
	store  LockStore
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisLocker builds a locker whose keys expire after ttl.
func NewRedisLocker(store LockStore, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisLocker{store: store, ttl: ttl, logger: logger.With("component", "verify_lock")}
}

// TryLock sets verify:lock:<orderID> if it is free.
func (l *RedisLocker) TryLock(ctx context.Context, orderID string) (func(), bool, error) {
	key := lockKey(orderID)
	token, ok, err := l.store.AcquireLock(ctx, key, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("acquire order lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := l.store.ReleaseLock(ctx, key, token); err != nil {
				l.logger.Warn("release order lock failed", "order_id", orderID, "ttl", l.ttl, "error", err)
			}
		})
	}, true, nil
}

func lockKey(orderID string) string {
	return "verify:lock:" + orderID
}
