package permcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache is a Cache backed by a shared Redis instance, for
// deployments where several API replicas must observe the same
// invalidations.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache from a redis URL
// (redis://host:port/db). A non-positive ttl falls back to DefaultTTL.
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// NewRedisCacheFromClient wraps an existing client. Used by tests.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func permissionsKey(principalID int64) string {
	return fmt.Sprintf("perm:%d", principalID)
}

func rolesKey(principalID int64) string {
	return fmt.Sprintf("roles:%d", principalID)
}

// GetPermissions returns the cached permission set for a principal.
func (c *RedisCache) GetPermissions(ctx context.Context, principalID int64) ([]string, bool, error) {
	return c.get(ctx, permissionsKey(principalID))
}

// SetPermissions stores the permission set for a principal.
func (c *RedisCache) SetPermissions(ctx context.Context, principalID int64, permissions []string) error {
	return c.set(ctx, permissionsKey(principalID), permissions)
}

// GetRoles returns the cached role-name set for a principal.
func (c *RedisCache) GetRoles(ctx context.Context, principalID int64) ([]string, bool, error) {
	return c.get(ctx, rolesKey(principalID))
}

// SetRoles stores the role-name set for a principal.
func (c *RedisCache) SetRoles(ctx context.Context, principalID int64, roles []string) error {
	return c.set(ctx, rolesKey(principalID), roles)
}

// Invalidate drops all cached entries for a principal.
func (c *RedisCache) Invalidate(ctx context.Context, principalID int64) error {
	return c.client.Del(ctx, permissionsKey(principalID), rolesKey(principalID)).Err()
}

// Ping checks Redis connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) get(ctx context.Context, key string) ([]string, bool, error) {
	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil // cache miss
	} else if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		// Corrupt entry: delete it and report a miss.
		c.client.Del(ctx, key)
		return nil, false, nil
	}
	return values, true, nil
}

func (c *RedisCache) set(ctx context.Context, key string, values []string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
