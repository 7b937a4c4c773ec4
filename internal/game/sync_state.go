// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// PlayerView is one player as seen by a particular viewer. Hand is only
// filled in for the viewer's own record.
type PlayerView struct {
	ID             uuid.UUID     `json:"id"`
	Nickname       string        `json:"nickname"`
	Position       *int          `json:"position"`
	HandSize       int           `json:"handSize"`
	Hand           []models.Card `json:"hand,omitempty"`
	IsSpectator    bool          `json:"isSpectator"`
	HasCalledUno   bool          `json:"hasCalledUno"`
	HasLeft        bool          `json:"hasLeft"`
	FinishPosition *int          `json:"finishPosition"`
	Connected      bool          `json:"connected"`
	IsHost         bool          `json:"isHost"`
	IsCurrentTurn  bool          `json:"isCurrentTurn"`
}

// Snapshot is the full room state from one viewer's perspective.
type Snapshot struct {
	RoomID                uuid.UUID            `json:"roomId"`
	JoinCode              string               `json:"joinCode"`
	HostID                uuid.UUID            `json:"hostId"`
	ViewerID              uuid.UUID            `json:"viewerId"`
	Status                models.RoomStatus    `json:"status"`
	Direction             string               `json:"direction"`
	CurrentColor          models.Color         `json:"currentColor,omitempty"`
	CurrentPlayerID       *uuid.UUID           `json:"currentPlayerId,omitempty"`
	TopCard               *models.Card         `json:"topCard,omitempty"`
	DrawPileSize          int                  `json:"drawPileSize"`
	DiscardPileSize       int                  `json:"discardPileSize"`
	PendingDrawCount      int                  `json:"pendingDrawCount"`
	WaitingForColorChoice bool                 `json:"waitingForColorChoice"`
	ColorChooserID        *uuid.UUID           `json:"colorChooserId,omitempty"`
	PlayableCards         []int                `json:"playableCards,omitempty"`
	TurnID                int                  `json:"turnId"`
	MaxPlayers            int                  `json:"maxPlayers"`
	HasPassword           bool                 `json:"hasPassword"`
	Rules                 models.HouseRules    `json:"rules"`
	Players               []PlayerView         `json:"players"`
	Rankings              []Ranking            `json:"rankings,omitempty"`
	Messages              []models.GameMessage `json:"messages"`
}

// BuildSnapshot renders r for viewerID. Other players' hands are reduced to
// their sizes.
func BuildSnapshot(r *models.Room, viewerID uuid.UUID) *Snapshot {
	s := &Snapshot{
		RoomID:           r.ID,
		JoinCode:         r.JoinCode,
		HostID:           r.HostID,
		ViewerID:         viewerID,
		Status:           r.Status,
		Direction:        r.Direction.String(),
		DrawPileSize:     len(r.DrawPile),
		DiscardPileSize:  len(r.DiscardPile),
		PendingDrawCount: r.PendingDrawCount,
		TurnID:           r.TurnID,
		MaxPlayers:       r.MaxPlayers,
		HasPassword:      r.PasswordHash != "",
		Rules:            r.Rules,
		Players:          make([]PlayerView, 0, len(r.Players)),
		Messages:         append([]models.GameMessage(nil), r.Messages...),
	}
	if r.Status != models.StatusWaiting {
		s.CurrentColor = r.CurrentColor
		if top, ok := r.Top(); ok {
			s.TopCard = &top
		}
	}

	var current *models.Player
	if r.Status == models.StatusPlaying || r.Status == models.StatusPaused {
		current = r.CurrentPlayer()
		if current != nil {
			id := current.ID
			s.CurrentPlayerID = &id
		}
	}
	if pc := r.PendingColor; pc != nil {
		chooser := pc.PlayerID
		s.WaitingForColorChoice = true
		s.ColorChooserID = &chooser
	}
	if r.Status == models.StatusFinished {
		s.Rankings = Rankings(r)
	}

	for _, p := range r.Players {
		v := PlayerView{
			ID:             p.ID,
			Nickname:       p.Nickname,
			Position:       p.Position,
			HandSize:       len(p.Hand),
			IsSpectator:    p.IsSpectator,
			HasCalledUno:   p.HasCalledUno,
			HasLeft:        p.HasLeft,
			FinishPosition: p.FinishPosition,
			Connected:      p.Connected,
			IsHost:         p.ID == r.HostID,
			IsCurrentTurn:  current != nil && current.ID == p.ID,
		}
		if p.ID == viewerID {
			v.Hand = append([]models.Card(nil), p.Hand...)
		}
		s.Players = append(s.Players, v)
	}

	if current != nil && current.ID == viewerID && r.Status == models.StatusPlaying && r.PendingColor == nil {
		for i, c := range current.Hand {
			if legal(r, current.Hand, c) == nil {
				s.PlayableCards = append(s.PlayableCards, i)
			}
		}
	}
	return s
}
