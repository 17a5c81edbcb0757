package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"brocode_arena/internal/common"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ExecutionLocker serializes executes on the same submission.
type ExecutionLocker interface {
	// Acquire blocks until the key is free or ctx ends. The returned func
	// releases the lock and is safe to call once.
	Acquire(ctx context.Context, key string) (func(), error)
}

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker holds one SET NX PX key per submission so several API
// replicas share the same serialization.
type RedisLocker struct {
	rdb   *redis.Client
	ttl   time.Duration
	retry time.Duration
	log   *zap.Logger
}

func NewRedisLocker(rdb *redis.Client, ttl, retry time.Duration, log *zap.Logger) *RedisLocker {
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, retry: retry, log: log}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := "execution_lock:" + key
	lockValue := uuid.NewString()

	// Never wait longer than a holder may keep the lock.
	waitCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(waitCtx, lockKey, lockValue, l.ttl).Result()
		if err != nil {
			if waitCtx.Err() != nil {
				return nil, l.waitError(ctx)
			}
			return nil, fmt.Errorf("acquire execution lock %s: %w", lockKey, err)
		}
		if ok {
			return l.releaser(lockKey, lockValue), nil
		}
		select {
		case <-waitCtx.Done():
			return nil, l.waitError(ctx)
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) waitError(parent context.Context) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	return common.ErrExecutionBusy
}

func (l *RedisLocker) releaser(lockKey, lockValue string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be cancelled; release anyway.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			deleted, err := releaseScript.Run(ctx, l.rdb, []string{lockKey}, lockValue).Int64()
			if err != nil && !errors.Is(err, redis.Nil) {
				l.log.Error("failed to release execution lock", zap.String("key", lockKey), zap.Error(err))
				return
			}
			if deleted == 0 {
				l.log.Warn("execution lock expired before release", zap.String("key", lockKey))
			}
		})
	}
}

// LocalLocker is the single-process fallback used when Redis is not configured.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		held, busy := l.slots[key]
		if !busy {
			done := make(chan struct{})
			l.slots[key] = done
			l.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.slots, key)
					l.mu.Unlock()
					close(done)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
