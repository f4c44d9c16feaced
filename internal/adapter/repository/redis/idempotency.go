// Package redis provides Redis-backed implementations of the usecase
// storage interfaces.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// placeholder marks a key claimed by a request that has not finished yet.
// It is deliberately not valid JSON so callers storing JSON envelopes can
// tell an in-flight claim from a cached response.
const placeholder = "processing"

// IdempotencyStore implements usecase.IdempotencyStore on Redis.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
}

// NewIdempotencyStore creates an IdempotencyStore on the given client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		prefix: "payreplay:idempotency:",
	}
}

// CheckAndSet claims the key if it is free and reports whether a value was
// already stored. When response is nil the claim is a placeholder that a
// later Update replaces with the real response.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.prefix + key

	value := response
	if value == nil {
		value = []byte(placeholder)
	}

	claimed, err := s.client.SetNX(ctx, fullKey, value, ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if claimed {
		return false, nil, nil
	}

	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Key expired between SetNX and Get. Treat the request as fresh.
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}

	return true, existing, nil
}

// Update replaces a claimed key with the final response. If the claim
// already expired the update is dropped rather than resurrecting the key.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.SetXX(ctx, s.prefix+key, response, ttl).Err()
}
