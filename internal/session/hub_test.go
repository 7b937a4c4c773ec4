package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() (*Hub, *logrus.Entry) {
	logger, _ := test.NewNullLogger()
	return NewHub(logger), logrus.NewEntry(logger)
}

func drain(c *Client) []interface{} {
	var out []interface{}
	for {
		select {
		case msg := <-c.OutChan:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func twoPlayerRoom() *models.Room {
	r := &models.Room{ID: uuid.New(), Status: models.StatusPlaying, Rules: models.DefaultHouseRules()}
	for i := 0; i < 2; i++ {
		pos := i
		r.Players = append(r.Players, &models.Player{
			ID:        uuid.New(),
			Nickname:  "p",
			RoomID:    r.ID,
			Position:  &pos,
			Connected: true,
			Hand:      []models.Card{{Kind: models.KindNumber, Color: models.ColorRed, Number: i}},
		})
	}
	r.DiscardPile = []models.Card{{Kind: models.KindNumber, Color: models.ColorRed, Number: 7}}
	r.CurrentColor = models.ColorRed
	return r
}

func TestBindReplacesPreviousConnection(t *testing.T) {
	hub, log := newTestHub()
	roomID, playerID := uuid.New(), uuid.New()

	first := NewClient(log)
	assert.Nil(t, hub.Bind(first, roomID, playerID))

	second := NewClient(log)
	assert.Same(t, first, hub.Bind(second, roomID, playerID))

	select {
	case <-first.Replaced():
	default:
		t.Fatal("first connection not marked replaced")
	}
	assert.False(t, hub.Unbind(first), "replaced connection must not count as current")

	cur, ok := hub.Current(playerID)
	require.True(t, ok)
	assert.Same(t, second, cur)

	assert.True(t, hub.Unbind(second))
	assert.Zero(t, hub.Connections())
}

func TestPublishSendsPerViewerState(t *testing.T) {
	hub, log := newTestHub()
	r := twoPlayerRoom()
	a, b := NewClient(log), NewClient(log)
	hub.Bind(a, r.ID, r.Players[0].ID)
	hub.Bind(b, r.ID, r.Players[1].ID)

	hub.Publish(r, nil)

	for i, c := range []*Client{a, b} {
		msgs := drain(c)
		require.Len(t, msgs, 1)
		ev, ok := msgs[0].(game.Event)
		require.True(t, ok)
		assert.Equal(t, game.EventRoomState, ev.Type)
		require.NotNil(t, ev.State)
		assert.Equal(t, r.Players[i].ID, ev.State.ViewerID)
		for j, pv := range ev.State.Players {
			if j == i {
				assert.Len(t, pv.Hand, 1)
			} else {
				assert.Nil(t, pv.Hand)
				assert.Equal(t, 1, pv.HandSize)
			}
		}
	}
}

func TestPublishRoutesTargetedEvents(t *testing.T) {
	hub, log := newTestHub()
	r := twoPlayerRoom()
	a, b := NewClient(log), NewClient(log)
	hub.Bind(a, r.ID, r.Players[0].ID)
	hub.Bind(b, r.ID, r.Players[1].ID)

	chooser := r.Players[0].ID
	hub.Publish(r, []game.Event{
		{Type: game.EventColorChoiceRequest, PlayerID: &chooser, Recipient: chooser},
		{Type: game.EventUnoPenalty, TargetPlayerID: &chooser, Count: 2},
	})

	assert.Len(t, drain(a), 3)
	bMsgs := drain(b)
	require.Len(t, bMsgs, 2)
	assert.Equal(t, game.EventUnoPenalty, bMsgs[1].(game.Event).Type)
}

func TestPublishSkipsOtherRooms(t *testing.T) {
	hub, log := newTestHub()
	r := twoPlayerRoom()
	other := NewClient(log)
	hub.Bind(other, uuid.New(), uuid.New())

	hub.Publish(r, nil)
	assert.Empty(t, drain(other))
}

func TestWriteFlagsLaggingClient(t *testing.T) {
	_, log := newTestHub()
	c := NewClient(log)
	for i := 0; i < OutboundBuffer; i++ {
		require.True(t, c.Write(i))
	}
	select {
	case <-c.Lagged():
		t.Fatal("connection flagged before anything was dropped")
	default:
	}

	assert.False(t, c.Write("overflow"))
	select {
	case <-c.Lagged():
	default:
		t.Fatal("dropping a message must flag the connection as lagging")
	}
	assert.False(t, c.Write("again"), "further overflow does not panic")
}

func TestWriteError(t *testing.T) {
	_, log := newTestHub()
	c := NewClient(log)
	c.WriteError(game.ErrNotYourTurn.Withf("wait for your turn"))

	msgs := drain(c)
	require.Len(t, msgs, 1)
	em := msgs[0].(ErrorMessage)
	assert.Equal(t, "error", em.Type)
	assert.Equal(t, game.ErrNotYourTurn.Code, em.Code)
	assert.Equal(t, game.ErrNotYourTurn.Kind, em.Kind)
	assert.Equal(t, "wait for your turn", em.Message)
}
