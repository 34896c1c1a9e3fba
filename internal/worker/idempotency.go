package worker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisIdempotency struct {
	client *redis.Client
}

// NewRedisIdempotency keeps audit markers as Redis keys with a TTL.
func NewRedisIdempotency(client *redis.Client) Idempotency {
	return &redisIdempotency{client: client}
}

func (r *redisIdempotency) Seen(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *redisIdempotency) Mark(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Set(ctx, key, "1", ttl).Err()
}
