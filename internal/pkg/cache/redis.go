// Package cache defines the response-cache port used by the catalog client
// and its Redis implementation.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL applies when Set is called with a non-positive TTL.
const DefaultTTL = time.Minute

// Cache stores serialized responses under namespaced keys. Get reports
// (nil, false, nil) on a miss, same as the local record stores: a miss is
// not an error.
type Cache interface {
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Key(parts ...string) string
}

type redisCache struct {
	client    *redis.Client
	namespace string
}

// NewRedisCache returns a Cache backed by the Redis instance at addr.
// namespace prefixes every key so several apps can share one instance.
func NewRedisCache(addr, namespace string) Cache {
	return &redisCache{
		client:    redis.NewClient(&redis.Options{Addr: addr}),
		namespace: namespace,
	}
}

func (r *redisCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return r.client.Set(ctx, key, body, ttl).Err()
}

func (r *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func (r *redisCache) Key(parts ...string) string {
	return strings.Join(append([]string{r.namespace}, parts...), ":")
}
