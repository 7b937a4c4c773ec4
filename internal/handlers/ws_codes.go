// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the room socket.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError   websocket.StatusCode = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError websocket.StatusCode = 3001 // Bind token was invalid, expired or for another seat.
	InvalidBindError      websocket.StatusCode = 3002 // First message was not a well formed bind.
	InvalidRoomError      websocket.StatusCode = 3003 // Room or player named in the bind does not exist.
	SessionReplacedError  websocket.StatusCode = 3004 // The same player bound from a newer connection.
	SlowConsumerError     websocket.StatusCode = 3005 // Outbound queue overflowed; rebind to resync.
)
