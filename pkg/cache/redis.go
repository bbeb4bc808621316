package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Redis-backed BytesCache.
type RedisCache struct {
	cli *redis.Client
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisCache creates a Redis BytesCache.
func NewRedisCache(cfg RedisConfig) *RedisCache {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return &RedisCache{cli: rdb}
}

func (r *RedisCache) GetBytes(key string) ([]byte, bool, error) {
	b, err := r.cli.Get(context.Background(), key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	return r.cli.Set(context.Background(), key, value, ttl).Err()
}

// Ping checks connectivity.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.cli.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *RedisCache) Close() error {
	return r.cli.Close()
}
