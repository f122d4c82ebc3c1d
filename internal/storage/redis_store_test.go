package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore on it
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	store := NewRedisStore(client)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestRedisStore(t *testing.T) {
	store, _ := setupTestRedis(t)
	runStoreContract(t, store)
}

func TestRedisStore_KeyFormatAndNoTTL(t *testing.T) {
	store, mr := setupTestRedis(t)

	err := store.Save(context.Background(), "@RocketShoes:cart", []byte(`[]`))
	require.NoError(t, err)

	stored, err := mr.Get("cart:@RocketShoes:cart")
	require.NoError(t, err)
	assert.Equal(t, "[]", stored)
	assert.Zero(t, mr.TTL("cart:@RocketShoes:cart"))
}

func TestRedisStore_ServerDown(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	_, err := store.Load(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "redis get failed")

	err = store.Save(context.Background(), "k", []byte(`[]`))
	assert.ErrorContains(t, err, "redis set failed")
}
