// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/middleware"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/jason-s-yu/uno/internal/session"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// Subprotocol is the websocket subprotocol clients must request.
	Subprotocol = "uno"

	bindTimeout  = 10 * time.Second
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second

	// inbound frames are throttled to a sustained 10/s with bursts of 10
	actionInterval = 100 * time.Millisecond
	actionBurst    = 10
)

// ClientMessage is any inbound frame. Only the fields of its Type are read.
type ClientMessage struct {
	Type string `json:"type"`

	// bind
	RoomID   string `json:"roomId,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
	Token    string `json:"token,omitempty"`

	// play_card
	CardIndex   *int         `json:"cardIndex,omitempty"`
	ChosenColor models.Color `json:"chosenColor,omitempty"`

	// catch_uno
	TargetPlayerID string `json:"targetPlayerId,omitempty"`

	// choose_color
	Color models.Color `json:"color,omitempty"`
}

type boundMessage struct {
	Type     string    `json:"type"`
	RoomID   uuid.UUID `json:"roomId"`
	PlayerID uuid.UUID `json:"playerId"`
}

// RoomWSHandler upgrades to the room socket. The first frame must bind the
// connection to a player; after that every frame is a game action applied in
// arrival order.
func (s *Server) RoomWSHandler(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{Subprotocol},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.Logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != Subprotocol {
		c.Close(BadSubprotocolError, "client must speak the uno subprotocol")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	roomID, playerID, code, err := s.readBind(ctx, c)
	if err != nil {
		s.Logger.WithField("remote", r.RemoteAddr).WithError(err).Info("bind rejected")
		c.Close(code, err.Error())
		return
	}

	log := s.Logger.WithFields(logrus.Fields{"room": roomID, "player": playerID})
	client := session.NewClient(log)
	if old := s.Hub.Bind(client, roomID, playerID); old != nil {
		log.WithField("replaced", old.ConnID).Info("session replaced by new connection")
	}
	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, roomID.String(), playerID.String())

	go writePump(ctx, c, client, log)

	client.Write(boundMessage{Type: "bound", RoomID: roomID, PlayerID: playerID})
	if err := s.Registry.Connect(ctx, roomID, playerID, client.ConnID); err != nil {
		client.WriteError(err)
	}
	if snap, err := s.Registry.GetRoomState(ctx, roomID, playerID); err == nil {
		client.Write(game.Event{Type: game.EventRoomState, State: snap})
	}

	readErr := s.readPump(ctx, c, client, log)

	if s.Hub.Unbind(client) {
		if err := s.Registry.Disconnect(context.Background(), roomID, playerID, client.ConnID); err != nil && !errors.Is(err, game.ErrRoomNotFound) {
			log.WithError(err).Warn("failed to start disconnect grace")
		}
	}
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, roomID.String(), playerID.String(), readErr)
}

// readBind waits for the bind frame and checks it against the room and token.
func (s *Server) readBind(ctx context.Context, c *websocket.Conn) (roomID, playerID uuid.UUID, code websocket.StatusCode, err error) {
	bindCtx, cancel := context.WithTimeout(ctx, bindTimeout)
	defer cancel()

	_, data, err := c.Read(bindCtx)
	if err != nil {
		return uuid.Nil, uuid.Nil, InvalidBindError, errors.New("no bind received")
	}
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "bind" {
		return uuid.Nil, uuid.Nil, InvalidBindError, errors.New("first message must be bind")
	}
	if roomID, err = uuid.Parse(msg.RoomID); err != nil {
		return uuid.Nil, uuid.Nil, InvalidBindError, errors.New("invalid roomId")
	}
	if playerID, err = uuid.Parse(msg.PlayerID); err != nil {
		return uuid.Nil, uuid.Nil, InvalidBindError, errors.New("invalid playerId")
	}
	if s.RequireToken || msg.Token != "" {
		if err := auth.VerifyBindToken(msg.Token, roomID, playerID); err != nil {
			return uuid.Nil, uuid.Nil, InvalidAuthTokenError, errors.New("invalid bind token")
		}
	}
	rm, err := s.Registry.Room(ctx, roomID)
	if err != nil {
		return uuid.Nil, uuid.Nil, InvalidRoomError, errors.New("room does not exist")
	}
	if p := rm.Player(playerID); p == nil || p.HasLeft {
		return uuid.Nil, uuid.Nil, InvalidRoomError, errors.New("player is not in this room")
	}
	return roomID, playerID, 0, nil
}

// readPump applies inbound frames one at a time until the connection closes.
func (s *Server) readPump(ctx context.Context, c *websocket.Conn, client *session.Client, log *logrus.Entry) error {
	l := rate.NewLimiter(rate.Every(actionInterval), actionBurst)
	for {
		if err := l.Wait(ctx); err != nil {
			return nil
		}
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			client.WriteError(game.ErrInvalidMessage.Withf("expected a text frame"))
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			client.WriteError(game.ErrInvalidMessage.Withf("invalid JSON"))
			continue
		}
		log.WithField("type", msg.Type).Debug("received action")

		if err := s.dispatch(ctx, client, msg); err != nil {
			client.WriteError(err)
		}
	}
}

func (s *Server) dispatch(ctx context.Context, client *session.Client, msg ClientMessage) error {
	reg := s.Registry
	roomID, playerID := client.RoomID, client.PlayerID

	switch msg.Type {
	case "play_card":
		if msg.CardIndex == nil {
			return game.ErrInvalidMessage.Withf("cardIndex is required")
		}
		return reg.PlayCard(ctx, roomID, playerID, *msg.CardIndex, msg.ChosenColor)
	case "draw_card":
		return reg.DrawCard(ctx, roomID, playerID)
	case "call_uno":
		return reg.CallUno(ctx, roomID, playerID)
	case "catch_uno":
		target, err := parseID(msg.TargetPlayerID, "targetPlayerId")
		if err != nil {
			return err
		}
		// losing a catch race is not worth an error frame
		if err := reg.CatchUno(ctx, roomID, playerID, target); err != nil && !errors.Is(err, game.ErrNoViolation) {
			return err
		}
		return nil
	case "choose_color":
		return reg.ChooseColor(ctx, roomID, playerID, msg.Color)
	case "ping":
		client.Write(map[string]string{"type": "pong"})
		return nil
	case "bind":
		return game.ErrInvalidState.Withf("connection is already bound")
	default:
		return game.ErrInvalidMessage.Withf("unknown message type %q", msg.Type)
	}
}

// writePump drains the client's queue onto the socket and pings periodically.
func writePump(ctx context.Context, c *websocket.Conn, client *session.Client, log *logrus.Entry) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Replaced():
			c.Close(SessionReplacedError, "session replaced by a newer connection")
			return
		case <-client.Lagged():
			c.Close(SlowConsumerError, "too far behind, rebind to resync")
			return
		case msg := <-client.OutChan:
			data, err := json.Marshal(msg)
			if err != nil {
				log.Warnf("failed to marshal outgoing message: %v", err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.Warnf("failed to write to websocket: %v", err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Warnf("failed to send ping: %v. Assuming disconnect.", err)
				return
			}
		}
	}
}
