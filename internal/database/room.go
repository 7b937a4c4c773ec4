// internal/database/room.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/jason-s-yu/uno/internal/room"
)

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id         UUID PRIMARY KEY,
	join_code  TEXT NOT NULL UNIQUE,
	status     TEXT NOT NULL,
	state      JSONB NOT NULL,
	version    BIGINT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// RoomStore persists rooms in Postgres. Update locks the row with
// SELECT ... FOR UPDATE for the length of the transaction.
type RoomStore struct {
	pool *pgxpool.Pool
}

var _ room.Store = (*RoomStore)(nil)

// NewRoomStore creates the rooms table if needed.
func NewRoomStore(ctx context.Context, pool *pgxpool.Pool) (*RoomStore, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("migrate rooms: %w", err)
	}
	return &RoomStore{pool: pool}, nil
}

func (s *RoomStore) Create(ctx context.Context, r *models.Room) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode room: %w", err)
	}
	q := `
	INSERT INTO rooms (id, join_code, status, state, version, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, r.ID, r.JoinCode, string(r.Status), data, r.Version, r.UpdatedAt)
		return err
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return game.ErrJoinCodeTaken
	}
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (s *RoomStore) Get(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	return loadRoom(ctx, s.pool, `SELECT state FROM rooms WHERE id = $1`, id)
}

func (s *RoomStore) FindByCode(ctx context.Context, code string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `SELECT id FROM rooms WHERE join_code = $1`, code).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, game.ErrRoomNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("find room by code: %w", err)
	}
	return id, nil
}

func (s *RoomStore) Update(ctx context.Context, id uuid.UUID, fn room.UpdateFunc) (*models.Room, error) {
	var committed *models.Room
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		r, err := loadRoom(ctx, tx, `SELECT state FROM rooms WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
		r.Version++
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode room: %w", err)
		}
		q := `UPDATE rooms SET status = $2, state = $3, version = $4, updated_at = $5 WHERE id = $1`
		if _, err := tx.Exec(ctx, q, id, string(r.Status), data, r.Version, r.UpdatedAt); err != nil {
			return fmt.Errorf("update room: %w", err)
		}
		committed = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}

func (s *RoomStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	return err
}

func (s *RoomStore) List(ctx context.Context) ([]*models.Room, error) {
	rows, err := s.pool.Query(ctx, `SELECT state FROM rooms ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var out []*models.Room
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		r, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (s *RoomStore) Close() error {
	s.pool.Close()
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func loadRoom(ctx context.Context, q querier, query string, id uuid.UUID) (*models.Room, error) {
	var data []byte
	err := q.QueryRow(ctx, query, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", id, err)
	}
	return decode(data)
}

func decode(data []byte) (*models.Room, error) {
	var r models.Room
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}
	return &r, nil
}
