package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindTokenRoundTrip(t *testing.T) {
	require.NoError(t, Init(time.Hour))
	roomID, playerID := uuid.New(), uuid.New()

	token, err := CreateBindToken(roomID, playerID)
	require.NoError(t, err)

	gotRoom, gotPlayer, err := AuthenticateBindToken(token)
	require.NoError(t, err)
	assert.Equal(t, roomID, gotRoom)
	assert.Equal(t, playerID, gotPlayer)

	assert.NoError(t, VerifyBindToken(token, roomID, playerID))
	assert.ErrorIs(t, VerifyBindToken(token, roomID, uuid.New()), ErrTokenMismatch)
}

func TestBindTokenRejectsForeignKey(t *testing.T) {
	require.NoError(t, Init(0))
	token, err := CreateBindToken(uuid.New(), uuid.New())
	require.NoError(t, err)

	require.NoError(t, Init(0))
	_, _, err = AuthenticateBindToken(token)
	assert.Error(t, err)

	_, _, err = AuthenticateBindToken("not-a-token")
	assert.Error(t, err)
}

func TestExpiredBindToken(t *testing.T) {
	require.NoError(t, Init(-time.Minute))
	token, err := CreateBindToken(uuid.New(), uuid.New())
	require.NoError(t, err)
	_, _, err = AuthenticateBindToken(token)
	assert.Error(t, err)
}

func TestRoomPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("x", "$argon2id$broken")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
