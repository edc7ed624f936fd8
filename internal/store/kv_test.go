package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/ChrisWondeFro/vivint-gateway/internal/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newTestKV(t *testing.T) store.KV {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return store.NewRedisKV(client)
}

func TestRedisKV_SetThenGet(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "k1", "v1", time.Minute))

	got, err := kv.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, "v1", got)
}

func TestRedisKV_GetMissReturnsErrMiss(t *testing.T) {
	kv := newTestKV(t)
	_, err := kv.Get(context.Background(), "absent")
	require.ErrorIs(t, err, store.ErrMiss)
}

func TestRedisKV_Delete(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "k1", "v1", time.Minute))
	require.NoError(t, kv.Delete(ctx, "k1"))

	_, err := kv.Get(ctx, "k1")
	require.ErrorIs(t, err, store.ErrMiss)
}

func TestRedisKV_ScanKeysMatchesPattern(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "session:a", "1", time.Minute))
	require.NoError(t, kv.Set(ctx, "session:b", "2", time.Minute))
	require.NoError(t, kv.Set(ctx, "other:c", "3", time.Minute))

	keys, err := kv.ScanKeys(ctx, "session:*")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"session:a", "session:b"}, keys)
}
