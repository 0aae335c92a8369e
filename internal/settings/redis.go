package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each namespace as one Redis hash at "<prefix>:<namespace>".
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend wraps an existing client. Close closes the client.
func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{
		client: client,
		prefix: prefix,
	}
}

// Get implements Backend.
func (r *RedisBackend) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	if err := validateKey(namespace, key); err != nil {
		return "", false, err
	}

	value, err := r.client.HGet(ctx, r.hashKey(namespace), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis HGET %s/%s: %w", namespace, key, err)
	}
	return value, true, nil
}

// Set implements Backend.
func (r *RedisBackend) Set(ctx context.Context, namespace, key, value string) error {
	if err := validateKey(namespace, key); err != nil {
		return err
	}

	if err := r.client.HSet(ctx, r.hashKey(namespace), key, value).Err(); err != nil {
		return fmt.Errorf("redis HSET %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Erase implements Backend.
func (r *RedisBackend) Erase(ctx context.Context, namespace, key string) error {
	if err := validateKey(namespace, key); err != nil {
		return err
	}

	if err := r.client.HDel(ctx, r.hashKey(namespace), key).Err(); err != nil {
		return fmt.Errorf("redis HDEL %s/%s: %w", namespace, key, err)
	}
	return nil
}

// HealthCheck implements Backend.
func (r *RedisBackend) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close implements Backend.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}

// hashKey builds the Redis hash key for a namespace.
func (r *RedisBackend) hashKey(namespace string) string {
	if r.prefix == "" {
		return namespace
	}
	return r.prefix + ":" + namespace
}
