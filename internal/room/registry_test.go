package room

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	rooms  []*models.Room
	events []game.Event
}

func (n *recordingNotifier) Publish(r *models.Room, events []game.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rooms = append(n.rooms, r)
	n.events = append(n.events, events...)
}

func (n *recordingNotifier) count(typ game.EventType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, ev := range n.events {
		if ev.Type == typ {
			c++
		}
	}
	return c
}

func newTestRegistry(t *testing.T) (*Registry, *recordingNotifier) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	n := &recordingNotifier{}
	opts := DefaultOptions()
	opts.TimerUnit = 10 * time.Millisecond
	reg := NewRegistry(NewMemoryStore(), n, logger, opts)
	t.Cleanup(reg.Close)
	return reg, n
}

// newTestRoom creates a room with the host and joins players-1 more.
func newTestRoom(t *testing.T, reg *Registry, players int, rules map[string]interface{}) (*CreateRoomResult, []uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	created, err := reg.CreateRoom(ctx, CreateRoomRequest{HostName: "host", Rules: rules})
	require.NoError(t, err)
	ids := []uuid.UUID{created.HostID}
	for i := 1; i < players; i++ {
		res, err := reg.JoinRoom(ctx, JoinRoomRequest{JoinCode: created.JoinCode, Nickname: "guest"})
		require.NoError(t, err)
		ids = append(ids, res.PlayerID)
	}
	return created, ids
}

func TestCreateRoomValidation(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.CreateRoom(ctx, CreateRoomRequest{HostName: "  "})
	assert.ErrorIs(t, err, game.ErrInvalidName)

	_, err = reg.CreateRoom(ctx, CreateRoomRequest{HostName: "host", MaxPlayers: 11})
	assert.ErrorIs(t, err, game.ErrInvalidRules)

	_, err = reg.CreateRoom(ctx, CreateRoomRequest{HostName: "host", Rules: map[string]interface{}{"handSize": float64(0)}})
	assert.ErrorIs(t, err, game.ErrInvalidRules)
}

func TestCreateAndJoin(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	created, err := reg.CreateRoom(ctx, CreateRoomRequest{HostName: "alice"})
	require.NoError(t, err)
	assert.Len(t, created.JoinCode, codeLength)

	joined, err := reg.JoinRoom(ctx, JoinRoomRequest{JoinCode: " " + strings.ToLower(created.JoinCode), Nickname: "bob"})
	require.NoError(t, err)
	assert.Equal(t, created.RoomID, joined.RoomID)
	assert.False(t, joined.AsSpectator)

	snap, err := reg.GetRoomState(ctx, created.RoomID, joined.PlayerID)
	require.NoError(t, err)
	require.Len(t, snap.Players, 2)
	assert.Equal(t, created.HostID, snap.HostID)
	assert.Equal(t, models.StatusWaiting, snap.Status)

	_, err = reg.JoinRoom(ctx, JoinRoomRequest{JoinCode: "ZZZZZZ", Nickname: "carol"})
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
}

func TestJoinFullRoom(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	created, err := reg.CreateRoom(ctx, CreateRoomRequest{HostName: "alice", MaxPlayers: 2})
	require.NoError(t, err)
	_, err = reg.JoinRoom(ctx, JoinRoomRequest{JoinCode: created.JoinCode, Nickname: "bob"})
	require.NoError(t, err)
	_, err = reg.JoinRoom(ctx, JoinRoomRequest{JoinCode: created.JoinCode, Nickname: "carol"})
	assert.ErrorIs(t, err, game.ErrRoomFull)
}

func TestJoinAfterStartIsSpectator(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	created, _ := newTestRoom(t, reg, 2, nil)
	require.NoError(t, reg.StartGame(ctx, created.RoomID, created.HostID))

	res, err := reg.JoinRoom(ctx, JoinRoomRequest{JoinCode: created.JoinCode, Nickname: "late"})
	require.NoError(t, err)
	assert.True(t, res.AsSpectator)

	snap, err := reg.GetRoomState(ctx, created.RoomID, res.PlayerID)
	require.NoError(t, err)
	for _, p := range snap.Players {
		if p.ID == res.PlayerID {
			assert.True(t, p.IsSpectator)
			assert.Equal(t, 0, p.HandSize)
		}
	}
}

func TestJoinWithPassword(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	created, err := reg.CreateRoom(ctx, CreateRoomRequest{HostName: "alice", Password: "hunter2"})
	require.NoError(t, err)

	_, err = reg.JoinRoom(ctx, JoinRoomRequest{JoinCode: created.JoinCode, Nickname: "bob", Password: "nope"})
	assert.ErrorIs(t, err, game.ErrUnauthorized)

	_, err = reg.JoinRoom(ctx, JoinRoomRequest{JoinCode: created.JoinCode, Nickname: "bob", Password: "hunter2"})
	assert.NoError(t, err)
}

func TestStartGameHostOnly(t *testing.T) {
	reg, n := newTestRegistry(t)
	ctx := context.Background()
	created, ids := newTestRoom(t, reg, 3, nil)

	assert.ErrorIs(t, reg.StartGame(ctx, created.RoomID, ids[1]), game.ErrUnauthorized)
	require.NoError(t, reg.StartGame(ctx, created.RoomID, created.HostID))
	assert.ErrorIs(t, reg.StartGame(ctx, created.RoomID, created.HostID), game.ErrInvalidState)

	snap, err := reg.GetRoomState(ctx, created.RoomID, created.HostID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlaying, snap.Status)
	assert.Len(t, snap.Players[0].Hand, 7)
	assert.Nil(t, snap.Players[1].Hand)
	assert.Equal(t, 7, snap.Players[1].HandSize)

	n.mu.Lock()
	assert.NotEmpty(t, n.rooms)
	n.mu.Unlock()
}

func TestUpdateRules(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	created, ids := newTestRoom(t, reg, 2, nil)

	_, err := reg.UpdateRules(ctx, created.RoomID, ids[1], map[string]interface{}{"drawStacking": true})
	assert.ErrorIs(t, err, game.ErrUnauthorized)

	rules, err := reg.UpdateRules(ctx, created.RoomID, created.HostID, map[string]interface{}{"drawStacking": true})
	require.NoError(t, err)
	assert.True(t, rules.DrawStacking)

	require.NoError(t, reg.StartGame(ctx, created.RoomID, created.HostID))
	_, err = reg.UpdateRules(ctx, created.RoomID, created.HostID, map[string]interface{}{"drawStacking": false})
	assert.ErrorIs(t, err, game.ErrInvalidState)
}

func TestConcurrentJoinsGetDistinctSeats(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	created, err := reg.CreateRoom(ctx, CreateRoomRequest{HostName: "host"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = reg.JoinRoom(ctx, JoinRoomRequest{JoinCode: created.JoinCode, Nickname: "guest"})
		}()
	}
	wg.Wait()

	r, err := reg.Room(ctx, created.RoomID)
	require.NoError(t, err)
	require.Len(t, r.Players, models.MaxPlayersCap)
	seen := map[int]bool{}
	for _, p := range r.Players {
		require.NotNil(t, p.Position)
		assert.False(t, seen[*p.Position], "seat %d taken twice", *p.Position)
		seen[*p.Position] = true
	}
}

func TestTurnTimeoutPassesTurn(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	created, _ := newTestRoom(t, reg, 3, map[string]interface{}{"turnTimeoutSec": float64(5)})
	require.NoError(t, reg.StartGame(ctx, created.RoomID, created.HostID))

	before, err := reg.Room(ctx, created.RoomID)
	require.NoError(t, err)
	cur := before.CurrentPlayer()
	require.NotNil(t, cur)

	require.Eventually(t, func() bool {
		r, err := reg.Room(ctx, created.RoomID)
		return err == nil && r.TurnID > before.TurnID
	}, 2*time.Second, 5*time.Millisecond)

	after, err := reg.Room(ctx, created.RoomID)
	require.NoError(t, err)
	assert.NotEqual(t, cur.ID, after.CurrentPlayer().ID)
	assert.Greater(t, len(after.Player(cur.ID).Hand), len(cur.Hand))
}

func TestDisconnectGrace(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	created, ids := newTestRoom(t, reg, 3, map[string]interface{}{
		"turnTimeoutSec":     float64(0),
		"disconnectGraceSec": float64(3),
	})
	require.NoError(t, reg.StartGame(ctx, created.RoomID, created.HostID))

	// Reconnecting inside the grace period keeps the player present.
	first, second := uuid.New(), uuid.New()
	require.NoError(t, reg.Connect(ctx, created.RoomID, ids[2], first))
	require.NoError(t, reg.Disconnect(ctx, created.RoomID, ids[2], first))
	require.NoError(t, reg.Connect(ctx, created.RoomID, ids[2], second))
	time.Sleep(60 * time.Millisecond)
	r, err := reg.Room(ctx, created.RoomID)
	require.NoError(t, err)
	assert.True(t, r.Player(ids[2]).Connected)

	require.NoError(t, reg.Disconnect(ctx, created.RoomID, ids[2], second))
	require.Eventually(t, func() bool {
		r, err := reg.Room(ctx, created.RoomID)
		return err == nil && !r.Player(ids[2]).Connected
	}, 2*time.Second, 5*time.Millisecond)

	r, err = reg.Room(ctx, created.RoomID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlaying, r.Status)

	conn := uuid.New()
	require.NoError(t, reg.Disconnect(ctx, created.RoomID, ids[1], conn))
	require.Eventually(t, func() bool {
		r, err := reg.Room(ctx, created.RoomID)
		return err == nil && r.Status == models.StatusPaused
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, reg.Connect(ctx, created.RoomID, ids[1], uuid.New()))
	r, err = reg.Room(ctx, created.RoomID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlaying, r.Status)
}

func TestLateDisconnectFromReplacedConnectionIsIgnored(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	created, ids := newTestRoom(t, reg, 3, map[string]interface{}{
		"turnTimeoutSec":     float64(0),
		"disconnectGraceSec": float64(2),
	})
	require.NoError(t, reg.StartGame(ctx, created.RoomID, created.HostID))

	oldConn, newConn := uuid.New(), uuid.New()
	require.NoError(t, reg.Connect(ctx, created.RoomID, ids[1], oldConn))
	// the new socket connects before the old socket's teardown runs
	require.NoError(t, reg.Connect(ctx, created.RoomID, ids[1], newConn))
	require.NoError(t, reg.Disconnect(ctx, created.RoomID, ids[1], oldConn))

	time.Sleep(80 * time.Millisecond)
	r, err := reg.Room(ctx, created.RoomID)
	require.NoError(t, err)
	assert.True(t, r.Player(ids[1]).Connected)
	assert.Equal(t, models.StatusPlaying, r.Status)

	require.NoError(t, reg.Disconnect(ctx, created.RoomID, ids[1], newConn))
	require.Eventually(t, func() bool {
		r, err := reg.Room(ctx, created.RoomID)
		return err == nil && !r.Player(ids[1]).Connected
	}, 2*time.Second, 5*time.Millisecond)
}

func TestColorChoiceTimeout(t *testing.T) {
	reg, n := newTestRegistry(t)
	ctx := context.Background()
	created, _ := newTestRoom(t, reg, 2, map[string]interface{}{
		"turnTimeoutSec":        float64(0),
		"colorChoiceTimeoutSec": float64(2),
	})
	require.NoError(t, reg.StartGame(ctx, created.RoomID, created.HostID))

	var chooser uuid.UUID
	_, err := reg.store.Update(ctx, created.RoomID, func(r *models.Room) error {
		cur := r.CurrentPlayer()
		chooser = cur.ID
		r.PendingDrawCount = 0
		cur.Hand = []models.Card{
			{Kind: models.KindWild, Color: models.ColorNone},
			{Kind: models.KindNumber, Color: models.ColorGreen, Number: 4},
			{Kind: models.KindNumber, Color: models.ColorGreen, Number: 5},
		}
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, reg.PlayCard(ctx, created.RoomID, chooser, 0, ""))
	assert.Equal(t, 1, n.count(game.EventColorChoiceRequest))

	require.Eventually(t, func() bool {
		r, err := reg.Room(ctx, created.RoomID)
		return err == nil && r.PendingColor == nil
	}, 2*time.Second, 5*time.Millisecond)

	r, err := reg.Room(ctx, created.RoomID)
	require.NoError(t, err)
	assert.Equal(t, models.ColorGreen, r.CurrentColor)
	assert.NotEqual(t, chooser, r.CurrentPlayer().ID)

	assert.ErrorIs(t, reg.ChooseColor(ctx, created.RoomID, chooser, models.ColorRed), game.ErrColorAlreadyChosen)
}

func TestLeaveReassignsHost(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	created, ids := newTestRoom(t, reg, 2, nil)

	require.NoError(t, reg.LeaveRoom(ctx, created.RoomID, created.HostID))
	require.NoError(t, reg.LeaveRoom(ctx, created.RoomID, created.HostID))

	r, err := reg.Room(ctx, created.RoomID)
	require.NoError(t, err)
	assert.Equal(t, ids[1], r.HostID)
	assert.Nil(t, r.Player(created.HostID).Position)
}

func TestDisposeAndSweep(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	first, _ := newTestRoom(t, reg, 1, nil)
	second, _ := newTestRoom(t, reg, 1, nil)

	require.NoError(t, reg.Dispose(ctx, first.RoomID))
	_, err := reg.GetRoomState(ctx, first.RoomID, first.HostID)
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
	assert.ErrorIs(t, reg.StartGame(ctx, first.RoomID, first.HostID), game.ErrRoomNotFound)

	n, err := reg.Sweep(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = reg.Sweep(ctx, -time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = reg.Room(ctx, second.RoomID)
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
}

func TestSweepKeepsGamesWithConnectedPlayers(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	live, _ := newTestRoom(t, reg, 2, map[string]interface{}{"turnTimeoutSec": float64(0)})
	require.NoError(t, reg.StartGame(ctx, live.RoomID, live.HostID))

	deserted, ids := newTestRoom(t, reg, 2, map[string]interface{}{"turnTimeoutSec": float64(0)})
	require.NoError(t, reg.StartGame(ctx, deserted.RoomID, deserted.HostID))
	_, err := reg.store.Update(ctx, deserted.RoomID, func(r *models.Room) error {
		r.Status = models.StatusPaused
		for _, id := range ids {
			r.Player(id).Connected = false
		}
		return nil
	})
	require.NoError(t, err)

	n, err := reg.Sweep(ctx, -time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = reg.Room(ctx, live.RoomID)
	assert.NoError(t, err)
	_, err = reg.Room(ctx, deserted.RoomID)
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
}

func TestRestoreRearmsRooms(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := NewMemoryStore()
	opts := DefaultOptions()
	opts.TimerUnit = 10 * time.Millisecond

	first := NewRegistry(store, nil, logger, opts)
	created, _ := newTestRoom(t, first, 2, map[string]interface{}{"turnTimeoutSec": float64(2)})
	require.NoError(t, first.StartGame(context.Background(), created.RoomID, created.HostID))
	first.Close()

	before, err := store.Get(context.Background(), created.RoomID)
	require.NoError(t, err)

	second := NewRegistry(store, nil, logger, opts)
	t.Cleanup(second.Close)
	restored, err := second.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, restored)

	require.Eventually(t, func() bool {
		r, err := store.Get(context.Background(), created.RoomID)
		return err == nil && r.TurnID > before.TurnID
	}, 2*time.Second, 5*time.Millisecond)
}
