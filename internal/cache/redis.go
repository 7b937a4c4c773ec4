// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/jason-s-yu/uno/internal/room"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by RoomStore.
const DefaultPrefix = "uno:"

// maxRetries bounds optimistic retries when a watched room changes under us.
const maxRetries = 100

// Connect opens a Redis client and verifies it with a ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// RoomStore keeps each room as a JSON string under <prefix>room:<id>, with a
// <prefix>code:<joinCode> index and a <prefix>rooms set of ids.
type RoomStore struct {
	rdb    *redis.Client
	prefix string
}

var _ room.Store = (*RoomStore)(nil)

func NewRoomStore(rdb *redis.Client, prefix string) *RoomStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RoomStore{rdb: rdb, prefix: prefix}
}

func (s *RoomStore) roomKey(id uuid.UUID) string { return s.prefix + "room:" + id.String() }
func (s *RoomStore) codeKey(code string) string  { return s.prefix + "code:" + code }
func (s *RoomStore) indexKey() string            { return s.prefix + "rooms" }

// Create claims the join code with SETNX before writing the room.
func (s *RoomStore) Create(ctx context.Context, r *models.Room) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, s.codeKey(r.JoinCode), r.ID.String(), 0).Result()
	if err != nil {
		return fmt.Errorf("failed to claim join code: %w", err)
	}
	if !ok {
		return game.ErrJoinCodeTaken
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.roomKey(r.ID), data, 0)
		pipe.SAdd(ctx, s.indexKey(), r.ID.String())
		return nil
	})
	if err != nil {
		s.rdb.Del(ctx, s.codeKey(r.JoinCode))
		return fmt.Errorf("failed to store room %s: %w", r.ID, err)
	}
	return nil
}

func (s *RoomStore) Get(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	data, err := s.rdb.Get(ctx, s.roomKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, game.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load room %s: %w", id, err)
	}
	return decode(data)
}

func (s *RoomStore) FindByCode(ctx context.Context, code string) (uuid.UUID, error) {
	raw, err := s.rdb.Get(ctx, s.codeKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, game.ErrRoomNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve join code: %w", err)
	}
	return uuid.Parse(raw)
}

// Update watches the room key and retries when another writer commits first.
func (s *RoomStore) Update(ctx context.Context, id uuid.UUID, fn room.UpdateFunc) (*models.Room, error) {
	key := s.roomKey(id)
	var committed *models.Room
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return game.ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		r, err := decode(data)
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
		r.Version++
		next, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal room: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		if err == nil {
			committed = r
		}
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return committed, nil
	}
	return nil, fmt.Errorf("update room %s: too many concurrent writers", id)
}

func (s *RoomStore) Delete(ctx context.Context, id uuid.UUID) error {
	r, err := s.Get(ctx, id)
	if errors.Is(err, game.ErrRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.roomKey(id), s.codeKey(r.JoinCode))
		pipe.SRem(ctx, s.indexKey(), id.String())
		return nil
	})
	return err
}

func (s *RoomStore) List(ctx context.Context) ([]*models.Room, error) {
	ids, err := s.rdb.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		keys = append(keys, s.prefix+"room:"+raw)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load rooms: %w", err)
	}
	out := make([]*models.Room, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue // deleted between SMEMBERS and MGET
		}
		r, err := decode([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RoomStore) Close() error {
	return s.rdb.Close()
}

func decode(data []byte) (*models.Room, error) {
	var r models.Room
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}
	return &r, nil
}
