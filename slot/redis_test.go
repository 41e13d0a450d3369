package slot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis answers the commands RedisSlot sends from a map. Any other
// command panics through the nil embedded client.
type fakeRedis struct {
	redis.UniversalClient
	mu     sync.Mutex
	data   map[string][]byte
	err    error
	closed bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	b, ok := value.([]byte)
	if !ok {
		cmd.SetErr(errors.New("fake redis stores bytes only"))
		return cmd
	}
	f.data[key] = append([]byte(nil), b...)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	b, ok := f.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(string(b))
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "del")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisSlotWithClient(t *testing.T) {
	client := newFakeRedis()
	s := NewRedisSlotWithClient(client, "minimarket:cart")
	exerciseSlot(t, s)

	require.NoError(t, s.Close())
	assert.True(t, client.closed)
}

func TestRedisSlotKeepsToItsKey(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	cartSlot := NewRedisSlotWithClient(client, "minimarket:cart")
	sessionSlot := NewRedisSlotWithClient(client, "minimarket:session")

	require.NoError(t, cartSlot.Save(ctx, []byte("[]")))
	require.NoError(t, sessionSlot.Save(ctx, []byte("token")))
	require.NoError(t, cartSlot.Clear(ctx))

	data, ok, err := sessionSlot.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "token", string(data))
}

func TestRedisSlotSurfacesErrors(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	client.err = errors.New("connection refused")
	s := NewRedisSlotWithClient(client, "k")

	assert.Error(t, s.Save(ctx, []byte("x")))
	_, ok, err := s.Load(ctx)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, s.Clear(ctx))
}
