package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func Ping(ctx context.Context, c *redis.Client) error {
	return c.Ping(ctx).Err()
}

// Deduper claims short lived keys so a retried client send is accepted once.
type Deduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDeduper(client *redis.Client, ttl time.Duration) *Deduper {
	return &Deduper{client: client, ttl: ttl}
}

// Claim reports true when key was not seen within the TTL.
func (d *Deduper) Claim(ctx context.Context, key string) (bool, error) {
	return d.client.SetNX(ctx, key, "1", d.ttl).Result()
}

func (d *Deduper) Release(ctx context.Context, key string) error {
	return d.client.Del(ctx, key).Err()
}
