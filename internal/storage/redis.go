package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikbrunner/bundles/internal/logger"
)

// KeyPrefixRedis namespaces bundle keys inside a shared Redis database.
const KeyPrefixRedis = "bundles:"

// RedisOptions configures NewRedisBackend.
type RedisOptions struct {
	Addr           string
	Password       string
	DB             int
	ConnectTimeout time.Duration // total time allowed for the initial ping (default 5s)
	RetryInterval  time.Duration // wait between ping attempts (default 500ms)
	Logger         logger.Logger
}

// RedisBackend implements Backend with plain GET/SET on a Redis server.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to Redis, retrying the ping until ConnectTimeout.
func NewRedisBackend(ctx context.Context, opts RedisOptions) (*RedisBackend, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	log.Info("connecting to redis", logger.String("addr", opts.Addr), logger.Duration("timeout", opts.ConnectTimeout))

	attempt := 0
	for {
		attempt++
		err := client.Ping(ctx).Err()
		if err == nil {
			log.Info("redis connected", logger.Int("attempts", attempt))
			return &RedisBackend{client: client}, nil
		}

		log.Warn("redis ping failed", logger.Int("attempt", attempt), logger.Error(err))

		select {
		case <-ctx.Done():
			client.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
		case <-time.After(opts.RetryInterval):
		}
	}
}

// Get implements Backend.
func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, KeyPrefixRedis+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, true, nil
}

// Set implements Backend. No TTL: bundles only go away when deleted.
func (r *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, KeyPrefixRedis+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Close implements Backend.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
