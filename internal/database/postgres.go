package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Paul-frank/todo-tracker-api/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS todos (
	owner TEXT  NOT NULL,
	id    TEXT  NOT NULL,
	data  JSONB NOT NULL,
	PRIMARY KEY (owner, id)
)`

// PostgresStore keeps the same documents as Database in a JSONB column.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresStore{Pool: pool}, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.Pool.Close()
	return nil
}

func (s *PostgresStore) GetAllByOwner(ctx context.Context, owner string) ([]models.RawRecord, error) {
	rows, err := s.Pool.Query(ctx, "SELECT id, data FROM todos WHERE owner = $1", owner)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	records := []models.RawRecord{}
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		raw, err := decodeRecord(data, owner, id)
		if err != nil {
			return nil, err
		}
		records = append(records, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) GetByKey(ctx context.Context, owner, id string) (models.RawRecord, bool, error) {
	var data []byte
	err := s.Pool.QueryRow(ctx, "SELECT data FROM todos WHERE owner = $1 AND id = $2", owner, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get todo: %w", err)
	}
	raw, err := decodeRecord(data, owner, id)
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *PostgresStore) PutWhole(ctx context.Context, t models.Todo) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode todo: %w", err)
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO todos (owner, id, data) VALUES ($1, $2, $3)
		ON CONFLICT (owner, id) DO UPDATE SET data = EXCLUDED.data`,
		t.Owner, t.ID, string(data))
	if err != nil {
		return fmt.Errorf("put todo: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteByKey(ctx context.Context, owner, id string) error {
	if _, err := s.Pool.Exec(ctx, "DELETE FROM todos WHERE owner = $1 AND id = $2", owner, id); err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}
