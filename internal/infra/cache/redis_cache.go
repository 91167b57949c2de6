package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"comazon/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	productKeyPrefix      = "product:"
	productFenceKeyPrefix = "product-fence:"
	idempotencyKeyPrefix  = "idempotency:order:"
	idempotencyKeyTTL     = 24 * time.Hour

	// ProductFenceTTL is how long an invalidation blocks cache fills for a
	// product. A read-through that loaded its row before the invalidation and
	// writes back later than this can still store a stale copy until the
	// regular TTL expires.
	ProductFenceTTL = 2 * time.Second
)

// setUnlessFenced stores a product only while no invalidation fence is set.
var setUnlessFenced = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

func NewClient(host string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         host + ":6379",
		DB:           0,
		PoolSize:     100,
		MinIdleConns: 10,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
}

func ProductKey(id string) string {
	return productKeyPrefix + id
}

func ProductFenceKey(id string) string {
	return productFenceKeyPrefix + id
}

func IdempotencyKey(key string) string {
	return idempotencyKeyPrefix + key
}

func (c *RedisCache) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	b, err := c.client.Get(ctx, ProductKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p domain.Product
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *RedisCache) SetProduct(ctx context.Context, p *domain.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	keys := []string{ProductKey(p.ID), ProductFenceKey(p.ID)}
	return setUnlessFenced.Run(ctx, c.client, keys, data, c.ttl.Milliseconds()).Err()
}

func (c *RedisCache) InvalidateProducts(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Set(ctx, ProductFenceKey(id), 1, ProductFenceTTL)
			pipe.Del(ctx, ProductKey(id))
		}
		return nil
	})
	return err
}

func (c *RedisCache) Claim(ctx context.Context, key string) (bool, error) {
	return c.client.SetNX(ctx, IdempotencyKey(key), 1, idempotencyKeyTTL).Result()
}

func (c *RedisCache) Release(ctx context.Context, key string) error {
	return c.client.Del(ctx, IdempotencyKey(key)).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
