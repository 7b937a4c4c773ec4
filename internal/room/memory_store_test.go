package room_test

import (
	"testing"

	"github.com/jason-s-yu/uno/internal/room"
	"github.com/jason-s-yu/uno/internal/room/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) room.Store {
		return room.NewMemoryStore()
	})
}
