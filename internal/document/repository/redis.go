package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisSlot stores the collection as one Redis string without expiry.
type RedisSlot struct {
	client *redis.Client
	key    string
}

// NewRedisSlot creates a Redis-backed slot. An empty key selects DefaultSlotKey.
func NewRedisSlot(client *redis.Client, key string) *RedisSlot {
	if key == "" {
		key = DefaultSlotKey
	}
	return &RedisSlot{client: client, key: key}
}

func (r *RedisSlot) Load(ctx context.Context) ([]byte, error) {
	b, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

func (r *RedisSlot) Store(ctx context.Context, data []byte) error {
	return r.client.Set(ctx, r.key, data, 0).Err()
}

func (r *RedisSlot) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
