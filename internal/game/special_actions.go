// internal/game/special_actions.go
package game

import "github.com/jason-s-yu/uno/internal/models"

// applyEffect resolves the effect of a card just placed on the discard pile and
// returns how many seats the turn should advance.
func (g *Game) applyEffect(card models.Card) int {
	r := g.Room
	switch card.Kind {
	case models.KindSkip:
		return 2
	case models.KindReverse:
		r.Direction = -r.Direction
		if g.activeCount() == 2 {
			return 2
		}
	case models.KindDraw2, models.KindWild4:
		r.PendingDrawCount += card.DrawPenalty()
	}
	return 1
}
