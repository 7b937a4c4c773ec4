// internal/game/rules.go
package game

import "github.com/jason-s-yu/uno/internal/models"

// legal checks whether card may be played from hand onto the room's discard
// pile, including any pending draw obligation.
func legal(r *models.Room, hand []models.Card, card models.Card) error {
	if err := playable(r, hand, card); err != nil {
		return err
	}
	return resolvesPendingDraw(r, card)
}

// playable matches by current color, by number between number cards, or by
// kind between action cards. Wilds always match unless the wild draw four
// restriction is on and the hand still holds the current color.
func playable(r *models.Room, hand []models.Card, card models.Card) error {
	if card.IsWild() {
		if card.Kind == models.KindWild4 && r.Rules.RestrictWildDrawFour && holdsColor(hand, r.CurrentColor) {
			return ErrIllegalWildDrawFour
		}
		return nil
	}
	if card.Color == r.CurrentColor {
		return nil
	}
	top, ok := r.Top()
	if !ok {
		return nil
	}
	if card.Kind == top.Kind && (card.Kind != models.KindNumber || card.Number == top.Number) {
		return nil
	}
	return ErrCardNotPlayable
}

// resolvesPendingDraw rejects plays while a draw is owed. With stacking on,
// another draw card passes the total onward instead.
func resolvesPendingDraw(r *models.Room, card models.Card) error {
	if r.PendingDrawCount == 0 {
		return nil
	}
	if r.Rules.DrawStacking && card.DrawPenalty() > 0 {
		return nil
	}
	return ErrMustResolvePendingDraw.Withf("draw %d cards or stack a draw card", r.PendingDrawCount)
}
