// internal/game/uno.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// CallUno marks the player as having called UNO. A call is accepted with one
// card, or with two cards ahead of playing the second to last.
func (g *Game) CallUno(playerID uuid.UUID) error {
	r := g.Room
	if r.Status != models.StatusPlaying {
		return ErrInvalidState
	}
	if err := g.guardColorChoice(playerID, false); err != nil {
		return err
	}
	p := r.Player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if !p.Eligible() {
		return ErrInvalidState
	}
	if n := len(p.Hand); n != 1 && n != 2 {
		return ErrCannotCallUno
	}
	if p.HasCalledUno {
		return ErrNoChange
	}
	p.HasCalledUno = true
	g.log.WithField("player", p.ID).Debug("uno called")
	return nil
}

// CatchUno penalizes target if they hold one card without having called UNO.
// Any other outcome is ErrNoViolation so the result does not reveal hands.
func (g *Game) CatchUno(catcherID, targetID uuid.UUID) error {
	r := g.Room
	if r.Status != models.StatusPlaying {
		return ErrInvalidState
	}
	if err := g.guardColorChoice(catcherID, false); err != nil {
		return err
	}
	catcher := r.Player(catcherID)
	if catcher == nil {
		return ErrPlayerNotFound
	}
	if catcher.IsSpectator || catcher.HasLeft {
		return ErrInvalidState
	}
	if targetID == catcherID {
		return ErrInvalidTarget
	}
	target := r.Player(targetID)
	if target == nil {
		return ErrPlayerNotFound
	}
	if !target.Eligible() || len(target.Hand) != 1 || target.HasCalledUno {
		return ErrNoViolation
	}

	penalty := r.Rules.UnoPenaltyCards
	if penalty <= 0 {
		penalty = models.DefaultHouseRules().UnoPenaltyCards
	}
	if err := g.drawCards(target, penalty); err != nil {
		return err
	}
	tid := target.ID
	g.fireEvent(Event{Type: EventUnoPenalty, TargetPlayerID: &tid, Count: penalty})
	g.log.WithField("catcher", catcherID).WithField("target", tid).Info("uno penalty applied")
	return nil
}
