package cache

import (
	"context"
	"fmt"

	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stocktrail/backend/internal/domain/shared"
)

// defaultKeyPrefix namespaces duplicate-scan keys in Redis
const defaultKeyPrefix = "scan:dedupe:"

// RedisIdempotencyStore implements IdempotencyStore using Redis. It lets
// duplicate-scan suppression hold across server instances, so a barcode
// bounced between two backends within the window is still dropped once.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStore creates a store on an existing Redis client
func NewRedisIdempotencyStore(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed records the key with a TTL.
// Returns true if the key was newly recorded, false if it already existed.
// Uses SETNX so two instances racing on the same scan agree on a single
// winner.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	result, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record scan key: %w", err)
	}
	return result, nil
}

// IsProcessed reports whether the key is currently recorded
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check scan key: %w", err)
	}
	return exists > 0, nil
}

// Clear drops the key before its TTL runs out
func (s *RedisIdempotencyStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to clear scan key: %w", err)
	}
	return nil
}

// Close releases the underlying Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

// Ensure RedisIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
