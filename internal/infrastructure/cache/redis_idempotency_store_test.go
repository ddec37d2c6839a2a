package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReserver struct {
	held    map[string]time.Duration
	deleted []string
	err     error
}

func (f *fakeReserver) SetNX(_ context.Context, key string, _ any, expiration time.Duration) *redis.BoolCmd {
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.held[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.held[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeReserver) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	for _, key := range keys {
		delete(f.held, key)
		f.deleted = append(f.deleted, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisIdempotencyStore(t *testing.T) {
	client := &fakeReserver{held: map[string]time.Duration{}}
	store := NewRedisIdempotencyStore(client, "")
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "abc", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 24*time.Hour, client.held["sales:idempotency:abc"])

	ok, err = store.Reserve(ctx, "abc", 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Release(ctx, "abc"))
	assert.Equal(t, []string{"sales:idempotency:abc"}, client.deleted)
	assert.NoError(t, store.Close())
}

func TestRedisIdempotencyStore_Errors(t *testing.T) {
	client := &fakeReserver{held: map[string]time.Duration{}, err: errors.New("connection refused")}
	store := NewRedisIdempotencyStore(client, "pos:")

	_, err := store.Reserve(context.Background(), "abc", time.Hour)
	assert.ErrorContains(t, err, "connection refused")
	assert.Error(t, store.Release(context.Background(), "abc"))
}
