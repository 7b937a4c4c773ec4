package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/jason-s-yu/uno/internal/room"
)

type createRoomResponse struct {
	*room.CreateRoomResult
	Token string `json:"token"`
}

type joinRoomResponse struct {
	*room.JoinRoomResult
	Token string `json:"token"`
}

type requesterBody struct {
	RequesterID string `json:"requesterId"`
}

type leaveBody struct {
	PlayerID string `json:"playerId"`
}

type rulesBody struct {
	RequesterID string                 `json:"requesterId"`
	Rules       map[string]interface{} `json:"rules"`
}

// CreateRoomHandler opens a room with the caller as host.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req room.CreateRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	res, err := s.Registry.CreateRoom(r.Context(), req)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	token, err := auth.CreateBindToken(res.RoomID, res.HostID)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, createRoomResponse{CreateRoomResult: res, Token: token})
}

// JoinRoomHandler adds the caller to a room by join code.
func (s *Server) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req room.JoinRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	res, err := s.Registry.JoinRoom(r.Context(), req)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	token, err := auth.CreateBindToken(res.RoomID, res.PlayerID)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, joinRoomResponse{JoinRoomResult: res, Token: token})
}

func (s *Server) StartGameHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseID(r.PathValue("roomId"), "roomId")
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	var body requesterBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	requester, err := parseID(body.RequesterID, "requesterId")
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	if err := s.authorize(r, roomID, requester); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	if err := s.Registry.StartGame(r.Context(), roomID, requester); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	rm, err := s.Registry.Room(r.Context(), roomID)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.RoomStatus{"status": rm.Status})
}

// RoomStateHandler returns the snapshot for ?viewer=. Without a viewer no
// hand is revealed.
func (s *Server) RoomStateHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseID(r.PathValue("roomId"), "roomId")
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	viewer := uuid.Nil
	if raw := r.URL.Query().Get("viewer"); raw != "" {
		if viewer, err = parseID(raw, "viewer"); err != nil {
			writeError(w, s.Logger, err)
			return
		}
		if err := s.authorize(r, roomID, viewer); err != nil {
			writeError(w, s.Logger, err)
			return
		}
	}
	snap, err := s.Registry.GetRoomState(r.Context(), roomID, viewer)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) LeaveRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseID(r.PathValue("roomId"), "roomId")
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	var body leaveBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	playerID, err := parseID(body.PlayerID, "playerId")
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	if err := s.authorize(r, roomID, playerID); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	if err := s.Registry.LeaveRoom(r.Context(), roomID, playerID); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"left": true})
}

func (s *Server) UpdateRulesHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseID(r.PathValue("roomId"), "roomId")
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	var body rulesBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	requester, err := parseID(body.RequesterID, "requesterId")
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	if err := s.authorize(r, roomID, requester); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	rules, err := s.Registry.UpdateRules(r.Context(), roomID, requester, body.Rules)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.HouseRules{"rules": rules})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"connections": s.Hub.Connections(),
	})
}
