package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageType classifies a transcript entry.
type MessageType string

const (
	MessageChat   MessageType = "chat"
	MessageEmoji  MessageType = "emoji"
	MessageSystem MessageType = "system"
)

// MaxMessages bounds the transcript kept on a room.
const MaxMessages = 50

// GameMessage is one transcript entry of a room.
type GameMessage struct {
	Type     MessageType `json:"type"`
	PlayerID *uuid.UUID  `json:"playerId,omitempty"`
	Text     string      `json:"text"`
	At       time.Time   `json:"at"`
}
