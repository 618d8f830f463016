package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kilianp07/bikeprice/core/factory"
	"github.com/kilianp07/bikeprice/core/prediction"
)

// RedisConfig defines the Redis connection and entry lifetime.
type RedisConfig struct {
	Addr     string        `json:"addr"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	Prefix   string        `json:"prefix"`
	TTL      time.Duration `json:"ttl"`
	Timeout  time.Duration `json:"timeout"`
}

// SetDefaults fills the key prefix, TTL and operation timeout.
func (c *RedisConfig) SetDefaults() {
	if c.Prefix == "" {
		c.Prefix = "bikeprice:prediction:"
	}
	if c.TTL <= 0 {
		c.TTL = time.Hour
	}
	if c.Timeout <= 0 {
		c.Timeout = 200 * time.Millisecond
	}
}

// RedisCache stores predicted prices as strings under prefixed keys.
type RedisCache struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisCache connects to Redis and checks the connection with PING.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	cfg.SetDefaults()
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisCache{client: client, prefix: cfg.Prefix, ttl: cfg.TTL, timeout: cfg.Timeout}, nil
}

// Get returns the cached price for key.
func (r *RedisCache) Get(ctx context.Context, key string) (float64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	raw, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return price, true, nil
}

// Set stores price for key with the configured TTL.
func (r *RedisCache) Set(ctx context.Context, key string, price float64) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Set(ctx, r.prefix+key, strconv.FormatFloat(price, 'g', -1, 64), r.ttl).Err()
}

// Close closes the connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func init() {
	_ = prediction.RegisterCache("redis", func(conf map[string]any) (prediction.Cache, error) {
		var c RedisConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRedisCache(c)
	})
}
