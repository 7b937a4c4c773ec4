// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// privateKey and publicKey sign and verify bind tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenTTL is how long a bind token stays valid. Zero means no expiry.
	tokenTTL time.Duration
)

// ErrTokenMismatch is returned when a valid token names a different seat.
var ErrTokenMismatch = errors.New("token does not match room and player")

// Init generates a fresh ed25519 key pair. Tokens issued before a restart stop
// verifying after it.
func Init(ttl time.Duration) error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	tokenTTL = ttl
	return nil
}

// InitFromPath loads a raw ed25519 key pair from disk so tokens survive restarts.
func InitFromPath(privatePath, publicPath string, ttl time.Duration) error {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}
	if len(privateKeyData) != ed25519.PrivateKeySize || len(publicKeyData) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid ed25519 key size")
	}
	privateKey = ed25519.PrivateKey(privateKeyData)
	publicKey = ed25519.PublicKey(publicKeyData)
	tokenTTL = ttl
	return nil
}

// CreateBindToken issues a token that lets its holder bind a realtime
// connection to playerID in roomID.
func CreateBindToken(roomID, playerID uuid.UUID) (string, error) {
	if privateKey == nil {
		return "", fmt.Errorf("auth keys not initialized")
	}
	claims := jwt.MapClaims{
		"sub":  playerID.String(),
		"room": roomID.String(),
		"iat":  time.Now().Unix(),
	}
	if tokenTTL != 0 {
		claims["exp"] = time.Now().Add(tokenTTL).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateBindToken verifies tokenString and returns the room and player it
// was issued for.
func AuthenticateBindToken(tokenString string) (roomID, playerID uuid.UUID, err error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("jwt parse error: %w", err)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok || !t.Valid {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid jwt claims")
	}
	sub, _ := claims["sub"].(string)
	room, _ := claims["room"].(string)
	if playerID, err = uuid.Parse(sub); err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid sub in jwt: %w", err)
	}
	if roomID, err = uuid.Parse(room); err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid room in jwt: %w", err)
	}
	return roomID, playerID, nil
}

// VerifyBindToken checks that tokenString was issued for exactly this seat.
func VerifyBindToken(tokenString string, roomID, playerID uuid.UUID) error {
	r, p, err := AuthenticateBindToken(tokenString)
	if err != nil {
		return err
	}
	if r != roomID || p != playerID {
		return ErrTokenMismatch
	}
	return nil
}
