package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTokenStore persists the bearer token in Redis, for deployments where
// the dashboard runs on a shared host and the credentials file would not
// survive instance moves.
type RedisTokenStore struct {
	client *redis.Client
	key    string
}

// RedisOptions configures the redis-backed token store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// NewRedisTokenStore creates a token store backed by the given Redis instance.
func NewRedisTokenStore(opts RedisOptions) *RedisTokenStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &RedisTokenStore{client: client, key: opts.Key}
}

// Load reads the stored token, returning "" when the key is absent.
func (s *RedisTokenStore) Load(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis get token: %w", err)
	}
	return val, nil
}

// Save persists the token without expiry; the session layer owns expiry
// judgement so a stale key degrades to a purge on the next restore.
func (s *RedisTokenStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

// Clear deletes the token key. Deleting a missing key is a no-op.
func (s *RedisTokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del token: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (s *RedisTokenStore) Close() error {
	return s.client.Close()
}
