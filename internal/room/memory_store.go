// internal/room/memory_store.go
package room

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
)

// MemoryStore keeps rooms in process. Callers only ever see clones.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]*models.Room
	codes map[string]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[uuid.UUID]*models.Room),
		codes: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) Create(_ context.Context, r *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.codes[r.JoinCode]; taken {
		return game.ErrJoinCodeTaken
	}
	s.rooms[r.ID] = r.Clone()
	s.codes[r.JoinCode] = r.ID
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, game.ErrRoomNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) FindByCode(_ context.Context, code string) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[code]
	if !ok {
		return uuid.Nil, game.ErrRoomNotFound
	}
	return id, nil
}

// Update runs fn outside the lock and commits only if no other write landed
// in between, retrying otherwise.
func (s *MemoryStore) Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*models.Room, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		version := cur.Version
		if err := fn(cur); err != nil {
			return nil, err
		}
		cur.Version = version + 1

		s.mu.Lock()
		stored, ok := s.rooms[id]
		switch {
		case !ok:
			s.mu.Unlock()
			return nil, game.ErrRoomNotFound
		case stored.Version != version:
			s.mu.Unlock()
			continue
		}
		s.rooms[id] = cur.Clone()
		s.mu.Unlock()
		return cur, nil
	}
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		delete(s.codes, r.JoinCode)
		delete(s.rooms, id)
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
