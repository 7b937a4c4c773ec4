// Package storetest holds the shared conformance suite for room.Store
// implementations.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/jason-s-yu/uno/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SampleRoom returns a waiting room with one seated player and a short draw pile.
func SampleRoom(code string) *models.Room {
	id := uuid.New()
	pos := 0
	host := &models.Player{
		ID:        uuid.New(),
		Nickname:  "host",
		RoomID:    id,
		Position:  &pos,
		Connected: true,
		Hand:      []models.Card{{Kind: models.KindNumber, Color: models.ColorRed, Number: 3}},
		JoinedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	return &models.Room{
		ID:         id,
		JoinCode:   code,
		HostID:     host.ID,
		Status:     models.StatusWaiting,
		Direction:  models.Clockwise,
		MaxPlayers: 4,
		Rules:      models.DefaultHouseRules(),
		Players:    []*models.Player{host},
		DrawPile:   []models.Card{{Kind: models.KindWild4, Color: models.ColorNone}},
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
}

// Run exercises the Store contract. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) room.Store) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		s := newStore(t)
		r := SampleRoom(uniqueCode())
		require.NoError(t, s.Create(ctx, r))

		got, err := s.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, r.JoinCode, got.JoinCode)
		assert.Equal(t, r.HostID, got.HostID)
		require.Len(t, got.Players, 1)
		assert.Equal(t, r.Players[0].Hand, got.Players[0].Hand)
		assert.Equal(t, r.DrawPile, got.DrawPile)

		id, err := s.FindByCode(ctx, r.JoinCode)
		require.NoError(t, err)
		assert.Equal(t, r.ID, id)
	})

	t.Run("DuplicateJoinCode", func(t *testing.T) {
		s := newStore(t)
		code := uniqueCode()
		require.NoError(t, s.Create(ctx, SampleRoom(code)))
		assert.ErrorIs(t, s.Create(ctx, SampleRoom(code)), game.ErrJoinCodeTaken)
	})

	t.Run("NotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, game.ErrRoomNotFound)
		_, err = s.FindByCode(ctx, "NOPE99")
		assert.ErrorIs(t, err, game.ErrRoomNotFound)
		_, err = s.Update(ctx, uuid.New(), func(r *models.Room) error { return nil })
		assert.ErrorIs(t, err, game.ErrRoomNotFound)
	})

	t.Run("UpdateCommits", func(t *testing.T) {
		s := newStore(t)
		r := SampleRoom(uniqueCode())
		require.NoError(t, s.Create(ctx, r))

		updated, err := s.Update(ctx, r.ID, func(r *models.Room) error {
			r.Status = models.StatusPlaying
			r.Players[0].Hand = append(r.Players[0].Hand, models.Card{Kind: models.KindSkip, Color: models.ColorBlue})
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusPlaying, updated.Status)

		got, err := s.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPlaying, got.Status)
		assert.Len(t, got.Players[0].Hand, 2)
	})

	t.Run("UpdateErrorDiscards", func(t *testing.T) {
		s := newStore(t)
		r := SampleRoom(uniqueCode())
		require.NoError(t, s.Create(ctx, r))

		boom := errors.New("boom")
		_, err := s.Update(ctx, r.ID, func(r *models.Room) error {
			r.Status = models.StatusFinished
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := s.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusWaiting, got.Status)
	})

	t.Run("ConcurrentUpdatesSerialize", func(t *testing.T) {
		s := newStore(t)
		r := SampleRoom(uniqueCode())
		require.NoError(t, s.Create(ctx, r))

		const writers = 10
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Update(ctx, r.ID, func(r *models.Room) error {
					r.TurnID++
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := s.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, writers, got.TurnID)
	})

	t.Run("DeleteAndList", func(t *testing.T) {
		s := newStore(t)
		a := SampleRoom(uniqueCode())
		b := SampleRoom(uniqueCode())
		require.NoError(t, s.Create(ctx, a))
		require.NoError(t, s.Create(ctx, b))

		rooms, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, rooms, 2)

		require.NoError(t, s.Delete(ctx, a.ID))
		_, err = s.Get(ctx, a.ID)
		assert.ErrorIs(t, err, game.ErrRoomNotFound)
		_, err = s.FindByCode(ctx, a.JoinCode)
		assert.ErrorIs(t, err, game.ErrRoomNotFound)

		rooms, err = s.List(ctx)
		require.NoError(t, err)
		require.Len(t, rooms, 1)
		assert.Equal(t, b.ID, rooms[0].ID)
	})
}

func uniqueCode() string {
	return uuid.NewString()[:6]
}
