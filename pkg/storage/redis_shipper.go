package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"svcboot/pkg/config"
)

const (
	// redisPingTimeout bounds the connect test done at construction
	redisPingTimeout = 2 * time.Second
	// redisPushTimeout bounds a single RPUSH
	redisPushTimeout = 1 * time.Second
)

var _ LogShipperInterface = (*RedisLogShipper)(nil)

// RedisLogShipper appends records to a redis list
type RedisLogShipper struct {
	client *redis.Client
	key    string
}

// NewRedisLogShipper connects to redis and verifies the server answers PING
func NewRedisLogShipper(ctx context.Context, cfg *config.RedisConfig) (*RedisLogShipper, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: redisPingTimeout,
		MaxRetries:  -1,
	})

	// connect test
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}

	key := cfg.Key
	if key == "" {
		key = config.DefaultLogRedisKey
	}

	return &RedisLogShipper{
		client: client,
		key:    key,
	}, nil
}

// Write appends p to the list as a single element
func (r *RedisLogShipper) Write(p []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisPushTimeout)
	defer cancel()

	record := bytes.TrimRight(p, "\n")
	if err := r.client.RPush(ctx, r.key, record).Err(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Key returns the list key records are pushed to
func (r *RedisLogShipper) Key() string {
	return r.key
}

// Close close redis client
func (r *RedisLogShipper) Close() error {
	return r.client.Close()
}
