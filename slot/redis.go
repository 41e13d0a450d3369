package slot

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisSlot stores the value under one redis key, so several processes of the
// same shopper share it.
type RedisSlot struct {
	client redis.UniversalClient
	key    string
}

var _ Slot = (*RedisSlot)(nil)

func NewRedisSlot(addr, key string) *RedisSlot {
	return NewRedisSlotWithClient(redis.NewClient(&redis.Options{Addr: addr}), key)
}

func NewRedisSlotWithClient(client redis.UniversalClient, key string) *RedisSlot {
	return &RedisSlot{client: client, key: key}
}

func (s *RedisSlot) Save(ctx context.Context, data []byte) error {
	return s.client.Set(ctx, s.key, data, 0).Err()
}

func (s *RedisSlot) Load(ctx context.Context) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisSlot) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

// Close releases the underlying client
func (s *RedisSlot) Close() error {
	return s.client.Close()
}
