// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/jason-s-yu/uno/internal/models"
)

// DeckSize is the number of cards in one standard pack.
const DeckSize = 108

// NewDeck builds an unshuffled standard pack: per color one 0, two each of
// 1 through 9, two skip, two reverse and two draw2, plus four wild and four wild4.
func NewDeck() []models.Card {
	deck := make([]models.Card, 0, DeckSize)
	for _, color := range models.Colors {
		deck = append(deck, models.Card{Kind: models.KindNumber, Color: color, Number: 0})
		for n := 1; n <= 9; n++ {
			c := models.Card{Kind: models.KindNumber, Color: color, Number: n}
			deck = append(deck, c, c)
		}
		for _, kind := range []models.CardKind{models.KindSkip, models.KindReverse, models.KindDraw2} {
			c := models.Card{Kind: kind, Color: color}
			deck = append(deck, c, c)
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck,
			models.Card{Kind: models.KindWild, Color: models.ColorNone},
			models.Card{Kind: models.KindWild4, Color: models.ColorNone},
		)
	}
	return deck
}

func shuffle(rng *rand.Rand, cards []models.Card) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// deal shuffles a full pack, hands out cards round-robin in seat order and
// flips a colored starter card.
func (g *Game) deal() error {
	r := g.Room
	deck := NewDeck()
	shuffle(g.rng, deck)
	r.DrawPile = deck
	r.DiscardPile = nil

	var seated []*models.Player
	for _, p := range r.Players {
		p.Hand = nil
		p.HasCalledUno = false
		p.FinishPosition = nil
		if !p.IsSpectator && !p.HasLeft {
			seated = append(seated, p)
		}
	}

	handSize := r.Rules.HandSize
	if handSize <= 0 {
		handSize = models.DefaultHouseRules().HandSize
	}
	if handSize*len(seated)+1 > DeckSize {
		return ErrDeckExhausted
	}
	for i := 0; i < handSize; i++ {
		for _, p := range seated {
			p.Hand = append(p.Hand, g.popDraw())
		}
	}

	// A wild starter has no color, so it goes back into the pile.
	for {
		starter := g.popDraw()
		if !starter.IsWild() {
			r.DiscardPile = append(r.DiscardPile, starter)
			r.CurrentColor = starter.Color
			break
		}
		r.DrawPile = append(r.DrawPile, starter)
		shuffle(g.rng, r.DrawPile)
	}
	return nil
}

func (g *Game) popDraw() models.Card {
	r := g.Room
	last := len(r.DrawPile) - 1
	c := r.DrawPile[last]
	r.DrawPile = r.DrawPile[:last]
	return c
}

// reshuffleDiscard moves every discard except the top back into the draw pile.
func (g *Game) reshuffleDiscard() {
	r := g.Room
	if len(r.DiscardPile) <= 1 {
		return
	}
	top := r.DiscardPile[len(r.DiscardPile)-1]
	r.DrawPile = append(r.DrawPile, r.DiscardPile[:len(r.DiscardPile)-1]...)
	r.DiscardPile = []models.Card{top}
	shuffle(g.rng, r.DrawPile)

	g.log.WithField("drawPile", len(r.DrawPile)).Debug("reshuffled discard pile")
	g.fireEvent(Event{Type: EventDeckReshuffled, Count: len(r.DrawPile)})
}

// drawCards moves count cards to p's hand. Availability is checked up front
// so a failed draw moves nothing.
func (g *Game) drawCards(p *models.Player, count int) error {
	if count <= 0 {
		return ErrInvalidCount
	}
	r := g.Room
	available := len(r.DrawPile)
	if len(r.DiscardPile) > 1 {
		available += len(r.DiscardPile) - 1
	}
	if available < count {
		return ErrDeckExhausted.Withf("need %d cards, %d available", count, available)
	}
	for i := 0; i < count; i++ {
		if len(r.DrawPile) == 0 {
			g.reshuffleDiscard()
		}
		p.Hand = append(p.Hand, g.popDraw())
	}
	g.handChanged(p)
	return nil
}
