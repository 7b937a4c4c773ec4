package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/sirupsen/logrus"
)

// OutboundBuffer is the number of queued messages a slow client may lag behind
// before the connection is flagged as lagging.
const OutboundBuffer = 32

// ErrorMessage is the outbound form of a rejected action.
type ErrorMessage struct {
	Type    string         `json:"type"`
	Code    string         `json:"code"`
	Kind    game.ErrorKind `json:"kind"`
	Message string         `json:"message"`
}

// Client is one websocket connection. RoomID and PlayerID are set once the
// connection binds.
type Client struct {
	ConnID   uuid.UUID
	RoomID   uuid.UUID
	PlayerID uuid.UUID
	OutChan  chan interface{}

	replaced  chan struct{}
	closeOnce sync.Once
	lagged    chan struct{}
	lagOnce   sync.Once
	log       *logrus.Entry
}

func NewClient(logger *logrus.Entry) *Client {
	id := uuid.New()
	return &Client{
		ConnID:   id,
		OutChan:  make(chan interface{}, OutboundBuffer),
		replaced: make(chan struct{}),
		lagged:   make(chan struct{}),
		log:      logger.WithField("conn", id),
	}
}

// Write queues msg without blocking. When the queue is full the message is
// dropped, Lagged is closed and Write reports false. A lagging connection has
// missed state and must be closed so the client rebinds and resyncs.
func (c *Client) Write(msg interface{}) bool {
	select {
	case c.OutChan <- msg:
		return true
	default:
		c.lagOnce.Do(func() {
			c.log.WithField("player", c.PlayerID).Warn("outbound queue full, closing lagging connection")
			close(c.lagged)
		})
		return false
	}
}

// WriteError sends err as an error frame.
func (c *Client) WriteError(err error) {
	ge := game.AsError(err)
	c.Write(ErrorMessage{Type: "error", Code: ge.Code, Kind: ge.Kind, Message: ge.Message})
}

// Replaced is closed when a newer connection binds the same player.
func (c *Client) Replaced() <-chan struct{} {
	return c.replaced
}

// Lagged is closed once a message has been dropped for this connection.
func (c *Client) Lagged() <-chan struct{} {
	return c.lagged
}

func (c *Client) markReplaced() {
	c.closeOnce.Do(func() { close(c.replaced) })
}
