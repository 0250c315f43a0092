package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zfogg/reelgraph/internal/config"
	"go.uber.org/zap"
)

// RedisClient wraps the redis.Client with connection pooling
type RedisClient struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisClient connects and pings. A failed ping is returned so the
// caller can decide whether to run without rate limiting.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	rc := Wrap(client, log)
	if err := rc.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	log.Info("redis client connected", zap.String("address", cfg.Addr()))
	return rc, nil
}

// Wrap adopts an existing client
func Wrap(client *redis.Client, log *zap.Logger) *RedisClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisClient{client: client, log: log}
}

// Ping checks the connection with a 5s ceiling
func (rc *RedisClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return rc.client.Ping(ctx).Err()
}

// Close closes the Redis connection gracefully
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Close()
}

// IncrWindow bumps the counter at key and returns the new value. The
// first hit in a window sets its expiry, so the count resets once window
// has passed since that hit.
func (rc *RedisClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := rc.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		rc.log.Warn("redis window increment failed", zap.String("key", key), zap.Error(err))
		return 0, err
	}
	return incr.Val(), nil
}
