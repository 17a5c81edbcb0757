package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectRedis returns a pinged client, or nil when addr is empty so callers
// fall back to in-process coordination.
func ConnectRedis(ctx context.Context, addr, password string, db int, log *zap.Logger) (*redis.Client, error) {
	if addr == "" {
		log.Info("REDIS_ADDR not set, execution locks stay in process")
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}
	log.Info("connected to Redis", zap.String("addr", addr))
	return rdb, nil
}

func CloseRedis(rdb *redis.Client, log *zap.Logger) {
	if rdb != nil {
		rdb.Close()
		log.Info("Redis connection closed")
	}
}
