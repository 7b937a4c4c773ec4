package database_test

import (
	"context"
	"os"
	"testing"

	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/room"
	"github.com/jason-s-yu/uno/internal/room/storetest"
	"github.com/stretchr/testify/require"
)

func TestRoomStoreContract(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := database.Connect(ctx, url)
	if err != nil {
		t.Skipf("postgres unreachable: %v", err)
	}
	t.Cleanup(pool.Close)

	storetest.Run(t, func(t *testing.T) room.Store {
		s, err := database.NewRoomStore(ctx, pool)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `TRUNCATE rooms`)
		require.NoError(t, err)
		return s
	})
}
