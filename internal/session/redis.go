package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// redisClient is the subset of *redis.Client the store uses
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetXX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps sessions in Redis with the key TTL tracking expiry,
// so sessions survive restarts and are shared between instances.
type RedisStore struct {
	client redisClient
	now    func() time.Time
}

// NewRedisStore wraps an existing client
func NewRedisStore(client redisClient) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func redisKey(token string) string {
	return redisKeyPrefix + token
}

func (s *RedisStore) Save(ctx context.Context, token string, rec Record) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(token), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, token string) (*Record, error) {
	value, err := s.client.Get(ctx, redisKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(value), &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if rec.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, redisKey(token)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Touch rewrites the record with the new deadline. Both the stored
// ExpiresAt and the key TTL move. The write uses SET XX, so a key deleted
// after the read stays deleted and Touch reports ErrNotFound.
func (s *RedisStore) Touch(ctx context.Context, token string, expiresAt time.Time) error {
	rec, err := s.Load(ctx, token)
	if err != nil {
		return err
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return s.Delete(ctx, token)
	}

	rec.ExpiresAt = expiresAt
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	updated, err := s.client.SetXX(ctx, redisKey(token), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis set xx: %w", err)
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}
