// Package session tracks which connection speaks for which player and fans
// committed room state out to them.
package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// Hub is the binding table. Its lock is never held while waiting on a room.
type Hub struct {
	mu      sync.RWMutex
	players map[uuid.UUID]*Client
	rooms   map[uuid.UUID]map[uuid.UUID]*Client
	log     *logrus.Entry
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		players: make(map[uuid.UUID]*Client),
		rooms:   make(map[uuid.UUID]map[uuid.UUID]*Client),
		log:     logger.WithField("component", "hub"),
	}
}

// Bind makes c the current connection for playerID. A previous connection for
// the same player is marked replaced and returned.
func (h *Hub) Bind(c *Client, roomID, playerID uuid.UUID) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.RoomID = roomID
	c.PlayerID = playerID

	old := h.players[playerID]
	if old != nil && old != c {
		h.remove(old)
		old.markReplaced()
	} else {
		old = nil
	}
	h.players[playerID] = c
	room := h.rooms[roomID]
	if room == nil {
		room = make(map[uuid.UUID]*Client)
		h.rooms[roomID] = room
	}
	room[playerID] = c

	h.log.WithFields(logrus.Fields{"room": roomID, "player": playerID, "conn": c.ConnID}).Debug("bound")
	return old
}

// Unbind drops c and reports whether it was still the player's current
// connection. A replaced connection returns false.
func (h *Hub) Unbind(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.players[c.PlayerID] != c {
		return false
	}
	h.remove(c)
	return true
}

func (h *Hub) remove(c *Client) {
	delete(h.players, c.PlayerID)
	if room := h.rooms[c.RoomID]; room != nil {
		delete(room, c.PlayerID)
		if len(room) == 0 {
			delete(h.rooms, c.RoomID)
		}
	}
}

// Current returns the bound connection for playerID.
func (h *Hub) Current(playerID uuid.UUID) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.players[playerID]
	return c, ok
}

// Publish sends each bound player in the room their own view of r, followed
// by the events addressed to them.
func (h *Hub) Publish(r *models.Room, events []game.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for playerID, c := range h.rooms[r.ID] {
		c.Write(game.Event{Type: game.EventRoomState, State: game.BuildSnapshot(r, playerID)})
		for _, ev := range events {
			if ev.Recipient != uuid.Nil && ev.Recipient != playerID {
				continue
			}
			c.Write(ev)
		}
	}
}

// Connections returns the number of bound connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.players)
}
