package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/sirupsen/logrus"
)

type errorBody struct {
	Error *game.Error `json:"error"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind game.ErrorKind) int {
	switch kind {
	case game.KindValidation:
		return http.StatusBadRequest
	case game.KindStateConflict, game.KindExhaustion:
		return http.StatusConflict
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {error:{code,kind,message}}. Untyped errors are
// logged and reported as internal.
func writeError(w http.ResponseWriter, logger *logrus.Logger, err error) {
	var ge *game.Error
	if !errors.As(err, &ge) {
		logger.WithError(err).Error("request failed")
		ge = game.ErrInternal
	}
	writeJSON(w, statusFor(ge.Kind), errorBody{Error: ge})
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return game.ErrInvalidMessage.Withf("missing request body")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return game.ErrInvalidMessage.Withf("invalid JSON: %v", err)
	}
	return nil
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, game.ErrInvalidMessage.Withf("invalid %s", field)
	}
	return id, nil
}

// extractBearerToken returns the token from an "Authorization: Bearer" header,
// or empty if there is none.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
