package game

import (
	"testing"

	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatchUnoPenalizesMissingCall(t *testing.T) {
	g, players := setupTestGame(t, 3, nil)
	rig(g, num(models.ColorRed, 4), []models.Card{num(models.ColorRed, 1), num(models.ColorRed, 2)})
	a, b := players[0], players[1]

	require.NoError(t, g.PlayCard(a.ID, 0, ""))
	require.Len(t, a.Hand, 1)
	g.Events()

	require.NoError(t, g.CatchUno(b.ID, a.ID))
	assert.Len(t, a.Hand, 3)
	assert.False(t, a.HasCalledUno)

	penalties := eventsOfType(g.Events(), EventUnoPenalty)
	require.Len(t, penalties, 1)
	assert.Equal(t, a.ID, *penalties[0].TargetPlayerID)
	assert.Equal(t, 2, penalties[0].Count)
	assert.Equal(t, 1, g.Room.CurrentPlayerIndex, "a catch does not move the turn")

	assert.ErrorIs(t, g.CatchUno(b.ID, a.ID), ErrNoViolation)
}

func TestCallBeforePlayPreventsCatch(t *testing.T) {
	g, players := setupTestGame(t, 3, nil)
	rig(g, num(models.ColorRed, 4), []models.Card{num(models.ColorRed, 1), num(models.ColorRed, 2)})
	a, b := players[0], players[1]

	require.NoError(t, g.CallUno(a.ID))
	require.NoError(t, g.PlayCard(a.ID, 0, ""))
	assert.True(t, a.HasCalledUno)

	assert.ErrorIs(t, g.CatchUno(b.ID, a.ID), ErrNoViolation)
	assert.Len(t, a.Hand, 1)
}

func TestCallUnoWindow(t *testing.T) {
	g, players := setupTestGame(t, 2, nil)
	a := players[0]
	assert.ErrorIs(t, g.CallUno(a.ID), ErrCannotCallUno)

	a.Hand = []models.Card{num(models.ColorRed, 1)}
	require.NoError(t, g.CallUno(a.ID))
	assert.ErrorIs(t, g.CallUno(a.ID), ErrNoChange)

	require.NoError(t, g.DrawCard(a.ID, 1))
	assert.False(t, a.HasCalledUno, "gaining a card clears the call")
}

func TestCatchUnoTargets(t *testing.T) {
	g, players := setupTestGame(t, 3, nil)
	a, b := players[0], players[1]
	b.Hand = []models.Card{num(models.ColorRed, 1)}

	assert.ErrorIs(t, g.CatchUno(a.ID, a.ID), ErrInvalidTarget)
	assert.ErrorIs(t, g.CatchUno(a.ID, players[2].ID), ErrNoViolation, "seven cards is not a violation")

	players[2].IsSpectator = true
	assert.ErrorIs(t, g.CatchUno(players[2].ID, b.ID), ErrInvalidState)

	b.HasLeft = true
	assert.ErrorIs(t, g.CatchUno(a.ID, b.ID), ErrNoViolation)
}

func TestUnoPenaltyUsesRules(t *testing.T) {
	rules := models.DefaultHouseRules()
	rules.UnoPenaltyCards = 4
	g, players := setupTestGame(t, 2, &rules)
	players[1].Hand = []models.Card{num(models.ColorRed, 1)}

	require.NoError(t, g.CatchUno(players[0].ID, players[1].ID))
	assert.Len(t, players[1].Hand, 5)
}
