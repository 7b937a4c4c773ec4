// internal/game/utils.go
package game

import "github.com/jason-s-yu/uno/internal/models"

func removeCard(hand []models.Card, idx int) []models.Card {
	out := make([]models.Card, 0, len(hand)-1)
	out = append(out, hand[:idx]...)
	return append(out, hand[idx+1:]...)
}

func holdsColor(hand []models.Card, color models.Color) bool {
	for _, c := range hand {
		if c.Color == color {
			return true
		}
	}
	return false
}

// handChanged clears an UNO call once the hand no longer holds exactly one card.
func (g *Game) handChanged(p *models.Player) {
	if len(p.Hand) != 1 {
		p.HasCalledUno = false
	}
}

func (g *Game) eligibleCount() int {
	n := 0
	for _, p := range g.Room.Players {
		if p.Eligible() {
			n++
		}
	}
	return n
}

func (g *Game) activeCount() int {
	n := 0
	for _, p := range g.Room.Players {
		if p.Active() {
			n++
		}
	}
	return n
}

func (g *Game) finishedCount() int {
	n := 0
	for _, p := range g.Room.Players {
		if p.FinishPosition != nil {
			n++
		}
	}
	return n
}
