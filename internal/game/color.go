// internal/game/color.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

func (g *Game) requestColor(p *models.Player, card models.Card, steps int) {
	req := uuid.New()
	g.Room.PendingColor = &models.ColorChoice{
		PlayerID:  p.ID,
		RequestID: req,
		CardKind:  card.Kind,
		Steps:     steps,
	}
	pid := p.ID
	g.fireEvent(Event{
		Type:      EventColorChoiceRequest,
		PlayerID:  &pid,
		RequestID: &req,
		Recipient: p.ID,
	})
}

// ChooseColor resolves the open color choice. Only the player who played the
// wild may answer, and only once.
func (g *Game) ChooseColor(playerID uuid.UUID, color models.Color) error {
	r := g.Room
	pc := r.PendingColor
	if pc == nil {
		if last := r.LastColorChoice; last != nil && last.PlayerID == playerID {
			return ErrColorAlreadyChosen
		}
		return ErrInvalidState
	}
	if r.Status != models.StatusPlaying {
		return ErrInvalidState
	}
	if pc.PlayerID != playerID {
		return ErrNotYourTurn
	}
	if !color.Valid() {
		return ErrInvalidColor
	}
	g.resolveColor(color)
	return nil
}

// ColorTimeout picks a color for the chooser if requestID is still open.
func (g *Game) ColorTimeout(requestID uuid.UUID) error {
	r := g.Room
	pc := r.PendingColor
	if r.Status != models.StatusPlaying || pc == nil || pc.RequestID != requestID {
		return ErrNoChange
	}
	var hand []models.Card
	if p := r.Player(pc.PlayerID); p != nil {
		hand = p.Hand
	}
	color := autoColor(hand)
	g.log.WithField("player", pc.PlayerID).WithField("color", color).Info("color choice timed out")
	g.resolveColor(color)
	return nil
}

func (g *Game) resolveColor(color models.Color) {
	r := g.Room
	resolved := *r.PendingColor
	resolved.Color = color
	r.CurrentColor = color
	r.PendingColor = nil
	r.LastColorChoice = &resolved
	g.completeTurn(resolved.Steps)
}

// guardColorChoice rejects actions while a color choice is open. The chooser
// gets ErrUnexpectedMessage; other players are only blocked from play and draw.
func (g *Game) guardColorChoice(playerID uuid.UUID, blockOthers bool) error {
	pc := g.Room.PendingColor
	if pc == nil {
		return nil
	}
	if pc.PlayerID == playerID {
		return ErrUnexpectedMessage
	}
	if blockOthers {
		return ErrInvalidState
	}
	return nil
}

// autoColor returns the most frequent color in hand. Ties go to the earlier
// entry of models.Colors.
func autoColor(hand []models.Card) models.Color {
	counts := make(map[models.Color]int, len(models.Colors))
	for _, c := range hand {
		counts[c.Color]++
	}
	best := models.Colors[0]
	for _, c := range models.Colors[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}
