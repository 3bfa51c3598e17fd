package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/boxabirds/post-to-bluesky/domain"
)

// RedisStore implements domain.Store using Redis. Every context talks to the
// same instance, which gives the shared-but-eventually-consistent KV semantics
// the coordination layer is written against.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisClient creates a Redis client for the given address.
func NewRedisClient(addr, pass string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client) domain.Store {
	return &RedisStore{
		client: client,
		prefix: "postd:",
	}
}

// Get implements domain.Store
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", domain.ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to get %q: %w", key, err)
	}
	return val, nil
}

// Set implements domain.Store. Values have no TTL; lifecycle is owned by the
// services that write them.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

// Remove implements domain.Store. Removing an absent key is not an error.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}
	return nil
}
