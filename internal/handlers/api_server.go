// internal/handlers/api_server.go
package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/middleware"
	"github.com/jason-s-yu/uno/internal/room"
	"github.com/jason-s-yu/uno/internal/session"
	"github.com/sirupsen/logrus"
)

// Server wires the room registry and the session hub to HTTP.
type Server struct {
	Registry *room.Registry
	Hub      *session.Hub
	Logger   *logrus.Logger

	// RequireToken makes every player-scoped request present the bind token
	// issued at create or join.
	RequireToken bool
}

func NewServer(reg *room.Registry, hub *session.Hub, logger *logrus.Logger, requireToken bool) *Server {
	return &Server{Registry: reg, Hub: hub, Logger: logger, RequireToken: requireToken}
}

// Routes returns the full HTTP surface wrapped in request logging.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /rooms", s.CreateRoomHandler)
	mux.HandleFunc("POST /rooms/join", s.JoinRoomHandler)
	mux.HandleFunc("POST /rooms/{roomId}/start", s.StartGameHandler)
	mux.HandleFunc("GET /rooms/{roomId}", s.RoomStateHandler)
	mux.HandleFunc("POST /rooms/{roomId}/leave", s.LeaveRoomHandler)
	mux.HandleFunc("PATCH /rooms/{roomId}/rules", s.UpdateRulesHandler)
	mux.HandleFunc("GET /healthz", s.HealthHandler)
	mux.HandleFunc("GET /ws", s.RoomWSHandler)

	return middleware.LogMiddleware(s.Logger)(mux)
}

// authorize checks the request's bearer token against the seat it acts for.
func (s *Server) authorize(r *http.Request, roomID, playerID uuid.UUID) error {
	if !s.RequireToken {
		return nil
	}
	token := extractBearerToken(r)
	if token == "" {
		return game.ErrUnauthorized.Withf("missing bind token")
	}
	if err := auth.VerifyBindToken(token, roomID, playerID); err != nil {
		return game.ErrUnauthorized.Withf("invalid bind token")
	}
	return nil
}
