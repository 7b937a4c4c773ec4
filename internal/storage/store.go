// Package storage persists rooms in a local SQLite file.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/jason-s-yu/uno/internal/room"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// RoomStore is a room.Store backed by SQLite. Each room is one row holding the
// JSON encoded room.
type RoomStore struct {
	db *sql.DB
}

var _ room.Store = (*RoomStore)(nil)

// New opens (or creates) the database and runs migrations.
func New(path string) (*RoomStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one writer at a time; transactions serialize on this connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	s := &RoomStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *RoomStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS rooms (
			id         TEXT PRIMARY KEY,
			join_code  TEXT NOT NULL UNIQUE,
			status     TEXT NOT NULL,
			state_json TEXT NOT NULL,
			version    INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

func (s *RoomStore) Create(ctx context.Context, r *models.Room) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode room: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO rooms (id, join_code, status, state_json, version, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		r.ID.String(), r.JoinCode, string(r.Status), string(data), r.Version, r.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return game.ErrJoinCodeTaken
	}
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (s *RoomStore) Get(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	return getRoom(ctx, s.db, id)
}

func (s *RoomStore) FindByCode(ctx context.Context, code string) (uuid.UUID, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM rooms WHERE join_code = ?", code).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, game.ErrRoomNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("find room by code: %w", err)
	}
	return uuid.Parse(raw)
}

// Update runs fn inside a transaction on the single connection.
func (s *RoomStore) Update(ctx context.Context, id uuid.UUID, fn room.UpdateFunc) (*models.Room, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	r, err := getRoom(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(r); err != nil {
		return nil, err
	}
	r.Version++
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode room: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE rooms SET status = ?, state_json = ?, version = ?, updated_at = ? WHERE id = ?",
		string(r.Status), string(data), r.Version, r.UpdatedAt, id.String(),
	); err != nil {
		return nil, fmt.Errorf("update room: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit room: %w", err)
	}
	return r, nil
}

func (s *RoomStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id.String())
	return err
}

func (s *RoomStore) List(ctx context.Context) ([]*models.Room, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT state_json FROM rooms ORDER BY updated_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*models.Room
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		r, err := decode(data)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Close closes the database connection.
func (s *RoomStore) Close() error {
	return s.db.Close()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getRoom(ctx context.Context, q queryer, id uuid.UUID) (*models.Room, error) {
	var data string
	err := q.QueryRowContext(ctx, "SELECT state_json FROM rooms WHERE id = ?", id.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", id, err)
	}
	return decode(data)
}

func decode(data string) (*models.Room, error) {
	var r models.Room
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}
	return &r, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
