// internal/game/ranking.go
package game

import (
	"sort"

	"github.com/jason-s-yu/uno/internal/models"
)

// finish gives p the next unused rank and takes them out of the rotation.
func (g *Game) finish(p *models.Player) {
	rank := g.finishedCount() + 1
	p.FinishPosition = &rank
	p.HasCalledUno = false
	g.systemMessage("%s finished in position %d", p.Nickname, rank)
	g.log.WithField("player", p.ID).WithField("rank", rank).Info("player finished")
}

// checkGameOver ends the game once at most one eligible player is left.
func (g *Game) checkGameOver() bool {
	if g.Room.Status == models.StatusFinished {
		return true
	}
	if g.eligibleCount() > 1 {
		return false
	}
	g.endGame()
	return true
}

// endGame ranks every unranked player, remaining players first by ascending
// hand size, then players who left after being dealt in. Seat order breaks ties.
func (g *Game) endGame() {
	r := g.Room
	next := g.finishedCount() + 1

	rankBy := func(include func(p *models.Player) bool) {
		var group []*models.Player
		for _, p := range r.Players {
			if p.FinishPosition == nil && include(p) {
				group = append(group, p)
			}
		}
		sort.SliceStable(group, func(i, j int) bool {
			return len(group[i].Hand) < len(group[j].Hand)
		})
		for _, p := range group {
			rank := next
			p.FinishPosition = &rank
			next++
		}
	}
	rankBy(func(p *models.Player) bool { return p.Eligible() })
	rankBy(func(p *models.Player) bool { return !p.IsSpectator && p.HasLeft && p.Position != nil })

	r.Status = models.StatusFinished
	r.PendingColor = nil
	r.PendingDrawCount = 0
	r.TurnID++

	rankings := Rankings(r)
	g.systemMessage("Game over")
	g.log.WithField("rankings", len(rankings)).Info("game finished")
	g.fireEvent(Event{Type: EventGameEnd, Rankings: rankings})
}

// Rankings lists every ranked player by finish position.
func Rankings(r *models.Room) []Ranking {
	var out []Ranking
	for _, p := range r.Players {
		if p.FinishPosition != nil {
			out = append(out, Ranking{
				PlayerID:       p.ID,
				Nickname:       p.Nickname,
				FinishPosition: *p.FinishPosition,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FinishPosition < out[j].FinishPosition
	})
	return out
}
