package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/jcmexdev/storefront/internal/pkg/cache"
)

// CachedClient decorates a Client with a response cache for the read
// endpoints. Cache failures (down Redis, bad payload) degrade to a direct
// fetch and are logged at debug level; they never fail the call.
type CachedClient struct {
	*Client

	cache cache.Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewCachedClient wraps client. ttl <= 0 defaults to one minute.
func NewCachedClient(client *Client, c cache.Cache, ttl time.Duration, log *slog.Logger) *CachedClient {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &CachedClient{Client: client, cache: c, ttl: ttl, log: log}
}

// GetProduct serves the product from cache when possible.
func (c *CachedClient) GetProduct(ctx context.Context, id int64) (Product, error) {
	key := c.cache.Key("product", strconv.FormatInt(id, 10))

	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.DebugContext(ctx, "cache get failed", "key", key, "error", err)
	} else if ok {
		var p Product
		if err := json.Unmarshal(raw, &p); err == nil {
			return p, nil
		}
		c.log.DebugContext(ctx, "discarding undecodable cache entry", "key", key)
	}

	p, err := c.Client.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	c.store(ctx, key, p)
	return p, nil
}

// ListProducts serves the full catalog from cache when possible.
func (c *CachedClient) ListProducts(ctx context.Context) ([]Product, error) {
	key := c.cache.Key("products", "all")

	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.DebugContext(ctx, "cache get failed", "key", key, "error", err)
	} else if ok {
		var list []Product
		if err := json.Unmarshal(raw, &list); err == nil {
			return list, nil
		}
		c.log.DebugContext(ctx, "discarding undecodable cache entry", "key", key)
	}

	list, err := c.Client.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, list)
	return list, nil
}

func (c *CachedClient) store(ctx context.Context, key string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, body, c.ttl); err != nil {
		c.log.DebugContext(ctx, "cache set failed", "key", key, "error", err)
	}
}
