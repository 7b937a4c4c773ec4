// internal/game/turn.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// PlayCard plays the card at cardIndex. chosenColor only applies to wild
// cards; when it is empty the color choice handshake starts instead.
func (g *Game) PlayCard(playerID uuid.UUID, cardIndex int, chosenColor models.Color) error {
	r := g.Room
	if r.Status != models.StatusPlaying {
		return ErrInvalidState
	}
	if err := g.guardColorChoice(playerID, true); err != nil {
		return err
	}
	p := r.Player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if cur := r.CurrentPlayer(); cur == nil || cur.ID != playerID {
		return ErrNotYourTurn
	}
	if cardIndex < 0 || cardIndex >= len(p.Hand) {
		return ErrInvalidCard.Withf("card index %d out of range for %d cards", cardIndex, len(p.Hand))
	}
	card := p.Hand[cardIndex]
	if card.IsWild() && chosenColor != "" && !chosenColor.Valid() {
		return ErrInvalidColor
	}
	if err := legal(r, p.Hand, card); err != nil {
		return err
	}

	p.Hand = removeCard(p.Hand, cardIndex)
	r.DiscardPile = append(r.DiscardPile, card)
	r.LastColorChoice = nil
	g.handChanged(p)
	if !card.IsWild() {
		r.CurrentColor = card.Color
	}
	steps := g.applyEffect(card)

	g.log.WithFields(logrus.Fields{
		"player": p.ID,
		"card":   card.String(),
		"left":   len(p.Hand),
	}).Debug("card played")

	if len(p.Hand) == 0 {
		g.finish(p)
	}

	if card.IsWild() {
		color := chosenColor
		if color == "" && len(p.Hand) == 0 {
			color = autoColor(p.Hand)
		}
		if color == "" {
			g.requestColor(p, card, steps)
			return nil
		}
		r.CurrentColor = color
	}
	g.completeTurn(steps)
	return nil
}

// DrawCard moves count cards from the draw pile into the player's hand
// without passing the turn.
func (g *Game) DrawCard(playerID uuid.UUID, count int) error {
	r := g.Room
	if r.Status != models.StatusPlaying {
		return ErrInvalidState
	}
	p := r.Player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if !p.Eligible() {
		return ErrInvalidState
	}
	return g.drawCards(p, count)
}

// DrawAndPass draws the pending total, or one card when nothing is owed, and
// ends the player's turn.
func (g *Game) DrawAndPass(playerID uuid.UUID) error {
	r := g.Room
	if r.Status != models.StatusPlaying {
		return ErrInvalidState
	}
	if err := g.guardColorChoice(playerID, true); err != nil {
		return err
	}
	p := r.Player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if cur := r.CurrentPlayer(); cur == nil || cur.ID != playerID {
		return ErrNotYourTurn
	}
	count := 1
	if r.PendingDrawCount > 0 {
		count = r.PendingDrawCount
	}
	if err := g.drawCards(p, count); err != nil {
		return err
	}
	r.PendingDrawCount = 0
	g.advanceTurn(1)
	return nil
}

// TurnTimeout draws and passes for the current player if turnID is still the
// live turn.
func (g *Game) TurnTimeout(turnID int) error {
	r := g.Room
	if r.Status != models.StatusPlaying || r.TurnID != turnID || r.PendingColor != nil {
		return ErrNoChange
	}
	cur := r.CurrentPlayer()
	if cur == nil {
		return ErrNoChange
	}
	g.log.WithField("player", cur.ID).Info("turn timed out")
	g.autoPass(cur)
	return nil
}

// autoPass finishes the player's obligations on their behalf: an open color
// choice is picked from their hand, an open turn becomes draw and pass.
func (g *Game) autoPass(p *models.Player) {
	r := g.Room
	if pc := r.PendingColor; pc != nil {
		if pc.PlayerID == p.ID {
			g.resolveColor(autoColor(p.Hand))
		}
		return
	}
	if cur := r.CurrentPlayer(); cur == nil || cur.ID != p.ID {
		return
	}
	count := 1
	if r.PendingDrawCount > 0 {
		count = r.PendingDrawCount
	}
	if err := g.drawCards(p, count); err != nil {
		g.log.WithError(err).Warn("automatic draw failed, passing turn")
	}
	r.PendingDrawCount = 0
	g.advanceTurn(1)
}

// SetConnected records presence. Losing the last connection during play
// forfeits the player's open turn; the room pauses or resumes as the number of
// connected players crosses two.
func (g *Game) SetConnected(playerID uuid.UUID, connected bool) error {
	r := g.Room
	p := r.Player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if p.Connected == connected || p.HasLeft {
		return ErrNoChange
	}
	p.Connected = connected
	if r.Status != models.StatusPlaying && r.Status != models.StatusPaused {
		return nil
	}
	if !connected && p.Eligible() {
		switch r.Status {
		case models.StatusPlaying:
			g.autoPass(p)
		case models.StatusPaused:
			// nobody owes a turn while paused; only the color choice is settled
			if pc := r.PendingColor; pc != nil && pc.PlayerID == p.ID {
				g.resolveColor(autoColor(p.Hand))
			}
		}
	}
	if r.Status != models.StatusFinished {
		g.refreshPause()
	}
	return nil
}

// Leave marks the player as gone for good. Their record stays for rankings.
func (g *Game) Leave(playerID uuid.UUID) error {
	r := g.Room
	p := r.Player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if p.HasLeft {
		return ErrNoChange
	}
	inPlay := r.Status == models.StatusPlaying || r.Status == models.StatusPaused
	wasEligible := p.Eligible()
	cur := r.CurrentPlayer()
	wasTurn := inPlay && wasEligible && cur != nil && cur.ID == p.ID

	p.HasLeft = true
	p.Connected = false
	p.HasCalledUno = false
	if r.Status == models.StatusWaiting {
		p.Position = nil
	}
	g.systemMessage("%s left", p.Nickname)
	if r.HostID == p.ID {
		g.reassignHost()
	}

	if !inPlay || !wasEligible {
		return nil
	}

	steps := 1
	if pc := r.PendingColor; pc != nil && pc.PlayerID == p.ID {
		resolved := *pc
		resolved.Color = autoColor(p.Hand)
		r.CurrentColor = resolved.Color
		r.LastColorChoice = &resolved
		r.PendingColor = nil
		steps = pc.Steps
		wasTurn = true
	}
	if g.checkGameOver() {
		return nil
	}
	if wasTurn {
		g.advanceTurn(steps)
	}
	g.refreshPause()
	return nil
}

func (g *Game) reassignHost() {
	r := g.Room
	for _, p := range r.Players {
		if !p.HasLeft && !p.IsSpectator {
			r.HostID = p.ID
			return
		}
	}
	for _, p := range r.Players {
		if !p.HasLeft {
			r.HostID = p.ID
			return
		}
	}
}

// refreshPause moves between playing and paused based on connected players.
func (g *Game) refreshPause() {
	r := g.Room
	active := g.activeCount()
	switch {
	case r.Status == models.StatusPlaying && active < 2:
		r.Status = models.StatusPaused
		r.TurnID++
		g.systemMessage("Game paused")
		g.log.Info("room paused")
	case r.Status == models.StatusPaused && active >= 2:
		r.Status = models.StatusPlaying
		g.systemMessage("Game resumed")
		g.log.Info("room resumed")
		if pc := r.PendingColor; pc != nil {
			chooser := r.Player(pc.PlayerID)
			if chooser == nil || !chooser.Active() {
				var hand []models.Card
				if chooser != nil {
					hand = chooser.Hand
				}
				g.resolveColor(autoColor(hand))
				return
			}
		}
		if cur := r.CurrentPlayer(); cur == nil || !cur.Active() {
			r.CurrentPlayerIndex, _ = g.nextActive(r.CurrentPlayerIndex)
		}
		r.TurnID++
	}
}

// completeTurn ends the game if play is over, otherwise advances the turn.
func (g *Game) completeTurn(steps int) {
	if g.checkGameOver() {
		return
	}
	g.advanceTurn(steps)
}

// advanceTurn moves the turn steps seats in the current direction, counting
// only players that can take a turn.
func (g *Game) advanceTurn(steps int) {
	r := g.Room
	idx := r.CurrentPlayerIndex
	for i := 0; i < steps; i++ {
		next, ok := g.nextActive(idx)
		if !ok {
			break
		}
		idx = next
	}
	r.CurrentPlayerIndex = idx
	r.TurnID++
}

func (g *Game) nextActive(from int) (int, bool) {
	r := g.Room
	n := len(r.Players)
	if n == 0 {
		return from, false
	}
	dir := int(r.Direction)
	if dir == 0 {
		dir = 1
	}
	for i := 1; i <= n; i++ {
		j := ((from+i*dir)%n + n) % n
		if r.Players[j].Active() {
			return j, true
		}
	}
	return from, false
}
