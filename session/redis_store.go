package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces session hashes in a shared Redis.
const redisKeyPrefix = "ancaSession:"

// RedisStore is a Redis-backed Store for deployments that want sessions to
// survive process restarts. Keys carry a TTL matching the record's destroy
// deadline so Redis reclaims abandoned sessions on its own.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Store over the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(hash string) string {
	return redisKeyPrefix + hash
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, hash string, rec *Record) error {
	const op = "session.(RedisStore).Put"
	if rec == nil {
		return fmt.Errorf("%s: record is nil: %w", op, ErrNilParameter)
	}
	ttl := time.Until(rec.DestroyAt)
	if ttl <= 0 {
		// Already past the hard deadline; storing would create a key Redis
		// refuses to expire.
		return s.Delete(ctx, hash)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%s: unable to marshal record: %w", op, err)
	}
	if err := s.client.Set(ctx, s.key(hash), data, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, hash string) (*Record, error) {
	const op = "session.(RedisStore).Get"
	data, err := s.client.Get(ctx, s.key(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", op, ErrNoSession)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%s: unable to unmarshal record: %w", op, err)
	}
	return &rec, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, hash string) error {
	const op = "session.(RedisStore).Delete"
	if err := s.client.Del(ctx, s.key(hash)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
