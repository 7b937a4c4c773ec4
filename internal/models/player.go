// internal/models/player.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Player is a member of a room. Records are kept until the room is disposed so
// finished and departed players still show up in rankings.
type Player struct {
	ID             uuid.UUID `json:"id"`
	Nickname       string    `json:"nickname"`
	RoomID         uuid.UUID `json:"roomId"`
	Hand           []Card    `json:"hand"`
	Position       *int      `json:"position"`
	IsSpectator    bool      `json:"isSpectator"`
	HasCalledUno   bool      `json:"hasCalledUno"`
	HasLeft        bool      `json:"hasLeft"`
	FinishPosition *int      `json:"finishPosition"`
	Connected      bool      `json:"connected"`
	JoinedAt       time.Time `json:"joinedAt"`
}

// Eligible reports whether the player still takes turns: seated, present and
// without a finish position.
func (p *Player) Eligible() bool {
	return !p.IsSpectator && !p.HasLeft && p.FinishPosition == nil
}

// Active is Eligible plus a live connection.
func (p *Player) Active() bool {
	return p.Eligible() && p.Connected
}

// Clone returns a deep copy of the player.
func (p *Player) Clone() *Player {
	cp := *p
	cp.Hand = append([]Card(nil), p.Hand...)
	if p.Position != nil {
		pos := *p.Position
		cp.Position = &pos
	}
	if p.FinishPosition != nil {
		fp := *p.FinishPosition
		cp.FinishPosition = &fp
	}
	return &cp
}
