package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWildDrawFourColorHandshake(t *testing.T) {
	g, players := setupTestGame(t, 3, nil)
	rig(g, num(models.ColorRed, 4),
		[]models.Card{wild4(), num(models.ColorGreen, 1), num(models.ColorBlue, 2)},
		[]models.Card{num(models.ColorRed, 5)},
	)
	a, b := players[0], players[1]

	require.NoError(t, g.PlayCard(a.ID, 0, ""))
	require.NotNil(t, g.Room.PendingColor)
	assert.Equal(t, 0, g.Room.CurrentPlayerIndex, "turn waits for the color")

	reqs := eventsOfType(g.Events(), EventColorChoiceRequest)
	require.Len(t, reqs, 1)
	assert.Equal(t, a.ID, reqs[0].Recipient)
	assert.Equal(t, a.ID, *reqs[0].PlayerID)

	assert.ErrorIs(t, g.PlayCard(b.ID, 0, ""), ErrInvalidState)
	assert.ErrorIs(t, g.DrawAndPass(b.ID), ErrInvalidState)
	assert.ErrorIs(t, g.DrawAndPass(a.ID), ErrUnexpectedMessage)
	assert.ErrorIs(t, g.PlayCard(a.ID, 0, ""), ErrUnexpectedMessage)
	assert.ErrorIs(t, g.CallUno(a.ID), ErrUnexpectedMessage)
	assert.ErrorIs(t, g.ChooseColor(b.ID, models.ColorGreen), ErrNotYourTurn)
	assert.ErrorIs(t, g.ChooseColor(a.ID, models.Color("purple")), ErrInvalidColor)

	require.NoError(t, g.ChooseColor(a.ID, models.ColorBlue))
	assert.Equal(t, models.ColorBlue, g.Room.CurrentColor)
	assert.Nil(t, g.Room.PendingColor)
	assert.Equal(t, 4, g.Room.PendingDrawCount)
	assert.Equal(t, 1, g.Room.CurrentPlayerIndex)

	assert.ErrorIs(t, g.ChooseColor(a.ID, models.ColorGreen), ErrColorAlreadyChosen)
	assert.Equal(t, models.ColorBlue, g.Room.CurrentColor, "second choice is not applied")
	assert.ErrorIs(t, g.ChooseColor(b.ID, models.ColorGreen), ErrInvalidState)
}

func TestInlineColorSkipsHandshake(t *testing.T) {
	g, players := setupTestGame(t, 2, nil)
	rig(g, num(models.ColorRed, 4),
		[]models.Card{wild(), num(models.ColorGreen, 1)},
		[]models.Card{wild(), num(models.ColorBlue, 1)},
	)

	require.NoError(t, g.PlayCard(players[0].ID, 0, models.ColorGreen))
	assert.Nil(t, g.Room.PendingColor)
	assert.Equal(t, models.ColorGreen, g.Room.CurrentColor)
	assert.Equal(t, 1, g.Room.CurrentPlayerIndex)
	assert.Empty(t, eventsOfType(g.Events(), EventColorChoiceRequest))

	assert.ErrorIs(t, g.PlayCard(players[1].ID, 0, models.ColorNone), ErrInvalidColor)
}

func TestColorTimeoutPicksMostFrequentColor(t *testing.T) {
	g, players := setupTestGame(t, 2, nil)
	rig(g, num(models.ColorRed, 4),
		[]models.Card{wild(), num(models.ColorGreen, 1), num(models.ColorGreen, 2), num(models.ColorBlue, 2)},
	)
	require.NoError(t, g.PlayCard(players[0].ID, 0, ""))
	req := g.Room.PendingColor.RequestID

	assert.ErrorIs(t, g.ColorTimeout(uuid.New()), ErrNoChange)
	require.NoError(t, g.ColorTimeout(req))
	assert.Equal(t, models.ColorGreen, g.Room.CurrentColor)
	assert.Equal(t, 1, g.Room.CurrentPlayerIndex)
	assert.ErrorIs(t, g.ColorTimeout(req), ErrNoChange)
}

func TestAutoColorTieBreak(t *testing.T) {
	assert.Equal(t, models.ColorRed, autoColor(nil))
	assert.Equal(t, models.ColorBlue, autoColor([]models.Card{num(models.ColorYellow, 1), num(models.ColorBlue, 1)}))
	assert.Equal(t, models.ColorRed, autoColor([]models.Card{num(models.ColorGreen, 1), num(models.ColorRed, 1), wild()}))
	assert.Equal(t, models.ColorYellow, autoColor([]models.Card{num(models.ColorYellow, 1), num(models.ColorYellow, 2), num(models.ColorRed, 1)}))
}

func TestWildAsLastCardPicksColorImmediately(t *testing.T) {
	g, players := setupTestGame(t, 3, nil)
	rig(g, num(models.ColorRed, 4), []models.Card{wild()})

	require.NoError(t, g.PlayCard(players[0].ID, 0, ""))
	assert.Nil(t, g.Room.PendingColor)
	assert.Equal(t, models.ColorRed, g.Room.CurrentColor)
	require.NotNil(t, players[0].FinishPosition)
	assert.Equal(t, 1, *players[0].FinishPosition)
	assert.Equal(t, 1, g.Room.CurrentPlayerIndex)
}

func TestCatchAllowedDuringOtherPlayersColorChoice(t *testing.T) {
	g, players := setupTestGame(t, 3, nil)
	rig(g, num(models.ColorRed, 4),
		[]models.Card{wild(), num(models.ColorGreen, 1)},
		nil,
		[]models.Card{num(models.ColorBlue, 3)},
	)
	require.NoError(t, g.PlayCard(players[0].ID, 0, ""))

	require.NoError(t, g.CatchUno(players[1].ID, players[2].ID))
	assert.Len(t, players[2].Hand, 3)
}
