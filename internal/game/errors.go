// internal/game/errors.go
package game

import (
	"errors"
	"fmt"
)

// ErrorKind groups rejections by how callers should treat them.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindStateConflict ErrorKind = "state_conflict"
	KindNotFound      ErrorKind = "not_found"
	KindUnauthorized  ErrorKind = "unauthorized"
	KindExhaustion    ErrorKind = "exhaustion"
	KindInternal      ErrorKind = "internal"
)

// Error is a typed rejection. Two errors match under errors.Is when their
// codes are equal, so detail added with Withf still matches the sentinel.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Withf returns a copy of e with a more specific message.
func (e *Error) Withf(format string, args ...interface{}) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

func newError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrRoomNotFound   = newError(KindNotFound, "RoomNotFound", "room not found")
	ErrPlayerNotFound = newError(KindNotFound, "PlayerNotFound", "player not found")

	ErrUnauthorized = newError(KindUnauthorized, "Unauthorized", "not allowed")

	ErrInvalidCard    = newError(KindValidation, "InvalidCard", "card index out of range")
	ErrInvalidColor   = newError(KindValidation, "InvalidColor", "color must be red, blue, green or yellow")
	ErrInvalidCount   = newError(KindValidation, "InvalidCount", "draw count must be positive")
	ErrInvalidTarget  = newError(KindValidation, "InvalidTarget", "cannot target yourself")
	ErrInvalidName    = newError(KindValidation, "InvalidName", "name must be 1 to 32 characters")
	ErrInvalidRules   = newError(KindValidation, "InvalidRules", "invalid rules")
	ErrInvalidMessage = newError(KindValidation, "InvalidMessage", "malformed message")

	ErrRoomFull               = newError(KindStateConflict, "RoomFull", "room is full")
	ErrInsufficientPlayers    = newError(KindStateConflict, "InsufficientPlayers", "at least 2 players are required")
	ErrInvalidState           = newError(KindStateConflict, "InvalidState", "action not allowed in the current room state")
	ErrNotYourTurn            = newError(KindStateConflict, "NotYourTurn", "it is not your turn")
	ErrCardNotPlayable        = newError(KindStateConflict, "CardNotPlayable", "card does not match the discard pile")
	ErrIllegalWildDrawFour    = newError(KindStateConflict, "IllegalWildDrawFour", "wild draw four is only legal without a card of the current color")
	ErrMustResolvePendingDraw = newError(KindStateConflict, "MustResolvePendingDraw", "a pending draw must be resolved first")
	ErrUnexpectedMessage      = newError(KindStateConflict, "UnexpectedMessage", "a color choice is expected")
	ErrColorAlreadyChosen     = newError(KindStateConflict, "ColorAlreadyChosen", "color was already chosen")
	ErrCannotCallUno          = newError(KindStateConflict, "CannotCallUno", "UNO can only be called with one or two cards")
	ErrNoViolation            = newError(KindStateConflict, "NoViolation", "no violation")
	ErrJoinCodeTaken          = newError(KindStateConflict, "JoinCodeTaken", "join code already in use")
	ErrNoChange               = newError(KindStateConflict, "NoChange", "nothing to apply")

	ErrDeckExhausted = newError(KindExhaustion, "DeckExhausted", "not enough cards to draw")

	ErrInternal = newError(KindInternal, "Internal", "internal error")
)

// AsError extracts a typed error, mapping anything else to ErrInternal.
func AsError(err error) *Error {
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	return ErrInternal
}
