// internal/models/room.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomStatus is the lifecycle state of a room.
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusPaused   RoomStatus = "paused"
	StatusFinished RoomStatus = "finished"
)

// Direction is the turn order step, +1 clockwise and -1 counterclockwise.
type Direction int

const (
	Clockwise        Direction = 1
	CounterClockwise Direction = -1
)

func (d Direction) String() string {
	if d == CounterClockwise {
		return "counterclockwise"
	}
	return "clockwise"
}

// MaxPlayersCap is the hard upper bound on seated players in any room.
const MaxPlayersCap = 10

// ColorChoice is an outstanding wild color selection.
type ColorChoice struct {
	PlayerID  uuid.UUID `json:"playerId"`
	RequestID uuid.UUID `json:"requestId"`
	CardKind  CardKind  `json:"cardKind"`
	Steps     int       `json:"steps"` // seats to advance once resolved
	Color     Color     `json:"color,omitempty"`
}

// Room is the persisted state of one game, including its players.
type Room struct {
	ID                 uuid.UUID     `json:"id"`
	JoinCode           string        `json:"joinCode"`
	HostID             uuid.UUID     `json:"hostId"`
	Status             RoomStatus    `json:"status"`
	CurrentPlayerIndex int           `json:"currentPlayerIndex"`
	Direction          Direction     `json:"direction"`
	CurrentColor       Color         `json:"currentColor"`
	DrawPile           []Card        `json:"drawPile"`
	DiscardPile        []Card        `json:"discardPile"`
	PendingDrawCount   int           `json:"pendingDrawCount"`
	MaxPlayers         int           `json:"maxPlayers"`
	Rules              HouseRules    `json:"rules"`
	Players            []*Player     `json:"players"`
	PendingColor       *ColorChoice  `json:"pendingColor,omitempty"`
	LastColorChoice    *ColorChoice  `json:"lastColorChoice,omitempty"`
	TurnID             int           `json:"turnId"`
	Messages           []GameMessage `json:"messages"`
	PasswordHash       string        `json:"passwordHash,omitempty"`
	Version            int64         `json:"version"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// Player returns the player with the given id, or nil.
func (r *Room) Player(id uuid.UUID) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is, or nil outside play.
func (r *Room) CurrentPlayer() *Player {
	if r.CurrentPlayerIndex < 0 || r.CurrentPlayerIndex >= len(r.Players) {
		return nil
	}
	return r.Players[r.CurrentPlayerIndex]
}

// Top returns the discard pile's top card.
func (r *Room) Top() (Card, bool) {
	if len(r.DiscardPile) == 0 {
		return Card{}, false
	}
	return r.DiscardPile[len(r.DiscardPile)-1], true
}

// CardCount is the number of cards across both piles and every hand.
func (r *Room) CardCount() int {
	n := len(r.DrawPile) + len(r.DiscardPile)
	for _, p := range r.Players {
		n += len(p.Hand)
	}
	return n
}

// SeatedCount counts non-spectators that have not left.
func (r *Room) SeatedCount() int {
	n := 0
	for _, p := range r.Players {
		if !p.IsSpectator && !p.HasLeft {
			n++
		}
	}
	return n
}

// AppendMessage adds a transcript entry, dropping the oldest past MaxMessages.
func (r *Room) AppendMessage(msg GameMessage) {
	r.Messages = append(r.Messages, msg)
	if over := len(r.Messages) - MaxMessages; over > 0 {
		r.Messages = append([]GameMessage(nil), r.Messages[over:]...)
	}
}

// Clone returns a deep copy that shares no mutable state with r.
func (r *Room) Clone() *Room {
	cp := *r
	cp.DrawPile = append([]Card(nil), r.DrawPile...)
	cp.DiscardPile = append([]Card(nil), r.DiscardPile...)
	cp.Messages = append([]GameMessage(nil), r.Messages...)
	cp.Players = make([]*Player, len(r.Players))
	for i, p := range r.Players {
		cp.Players[i] = p.Clone()
	}
	if r.PendingColor != nil {
		pc := *r.PendingColor
		cp.PendingColor = &pc
	}
	if r.LastColorChoice != nil {
		lc := *r.LastColorChoice
		cp.LastColorChoice = &lc
	}
	return &cp
}
