package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisKey is the hash that holds the session when no key is configured.
	DefaultRedisKey = "ladle:session"

	redisDialTimeout = 3 * time.Second
	redisPingTimeout = 2 * time.Second
)

// RedisStorage keeps the session in a Redis hash, letting several clients on
// different machines share one sign-in.
type RedisStorage struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStorage wraps an existing client. An empty key uses DefaultRedisKey.
func NewRedisStorage(client redis.UniversalClient, key string) *RedisStorage {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStorage{client: client, key: key}
}

// OpenRedis parses redisURL and verifies the server answers a PING.
func OpenRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	opts.DialTimeout = redisDialTimeout

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}

// Load reads the hash. A missing key is an empty session.
func (s *RedisStorage) Load(ctx context.Context) (Record, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return Record{}, fmt.Errorf("redis: load session: %w", err)
	}
	if len(values) == 0 {
		return Record{}, nil
	}
	authenticated, _ := strconv.ParseBool(values["authenticated"])
	rec := Record{
		Access:        values["access"],
		Refresh:       values["refresh"],
		User:          values["user"],
		Username:      values["username"],
		Authenticated: authenticated,
	}
	return rec.normalize(), nil
}

// Save replaces every field of the hash in one transaction.
func (s *RedisStorage) Save(ctx context.Context, rec Record) error {
	rec = rec.normalize()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key, map[string]any{
			"access":        rec.Access,
			"refresh":       rec.Refresh,
			"user":          rec.User,
			"username":      rec.Username,
			"authenticated": strconv.FormatBool(rec.Authenticated),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: save session: %w", err)
	}
	return nil
}

// Clear deletes the hash.
func (s *RedisStorage) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis: clear session: %w", err)
	}
	return nil
}
