package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/gradestats/internal/domain/stats"
)

const (
	redisKeyPrefix = "gradestats:stats:"
	redisScanCount = 100
)

// RedisConfig holds the connection settings of the redis cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis stores JSON encoded results in redis with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to redis and verifies the server answers.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &Redis{client: client, ttl: cfg.TTL}, nil
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) (*stats.Result, bool, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var res stats.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return &res, true, nil
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key string, res *stats.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return r.client.Set(ctx, redisKeyPrefix+key, data, r.ttl).Err()
}

// Flush implements Cache. Only keys written by this cache are removed.
func (r *Redis) Flush(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", redisScanCount).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Close implements Cache.
func (r *Redis) Close() error {
	return r.client.Close()
}
