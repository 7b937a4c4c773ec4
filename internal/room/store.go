// internal/room/store.go
package room

import (
	"context"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// UpdateFunc mutates a private copy of a room. Returning an error discards
// the copy.
type UpdateFunc func(r *models.Room) error

// Store persists rooms keyed by id. Update must be an atomic
// read-modify-write: fn sees the latest committed state and its changes are
// stored only if fn succeeds. Implementations may call fn more than once when
// they retry a conflicting write.
type Store interface {
	// Create inserts a new room. It returns game.ErrJoinCodeTaken when the
	// join code is already used by another room.
	Create(ctx context.Context, r *models.Room) error
	// Get returns a copy of the room or game.ErrRoomNotFound.
	Get(ctx context.Context, id uuid.UUID) (*models.Room, error)
	// FindByCode resolves a join code to a room id or game.ErrRoomNotFound.
	FindByCode(ctx context.Context, code string) (uuid.UUID, error)
	// Update applies fn and returns a copy of the committed room.
	Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*models.Room, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*models.Room, error)
	Close() error
}
