package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Marker records that a one-shot action (e.g. a reminder) already happened.
// Once returns true the first time a key is seen within the TTL.
type Marker interface {
	Once(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type redisMarker struct {
	client *redis.Client
}

func NewRedisMarker(client *redis.Client) Marker {
	return &redisMarker{client: client}
}

func (m *redisMarker) Once(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := m.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("set marker %s: %w", key, err)
	}
	return ok, nil
}
