package cache_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/room"
	"github.com/jason-s-yu/uno/internal/room/storetest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRoomStoreContract(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := cache.Connect(ctx, addr, 0)
	if err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })

	storetest.Run(t, func(t *testing.T) room.Store {
		prefix := "unotest:" + uuid.NewString() + ":"
		t.Cleanup(func() { cleanup(t, rdb, prefix) })
		return cache.NewRoomStore(rdb, prefix)
	})
}

func cleanup(t *testing.T, rdb *redis.Client, prefix string) {
	ctx := context.Background()
	iter := rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		require.NoError(t, rdb.Del(ctx, iter.Val()).Err())
	}
	require.NoError(t, iter.Err())
}
