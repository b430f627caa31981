package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Paul-frank/todo-tracker-api/internal/models"
)

// Jede ToDo wird als ganzes JSON-Dokument unter (owner, id) gespeichert.
// So bleiben auch alte oder unvollständige Datensätze lesbar.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS todos (
	owner TEXT NOT NULL,
	id    TEXT NOT NULL,
	data  TEXT NOT NULL,
	PRIMARY KEY (owner, id)
)`

type Database struct { // Datenbankverbindung
	Connection *sql.DB // Zeiger auf sql.DB-Instanz, die die Verbindung zur Datenbank enthält
}

func NewDatabase(dataSourceName string) (*Database, error) {
	db, err := sql.Open("sqlite3", dataSourceName) // Öffnen der Datenbankverbindung
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dataSourceName, err)
	}
	db.SetMaxOpenConns(1) // sqlite schreibt ohnehin seriell; ":memory:" braucht genau eine Verbindung

	return &Database{ // Rückgabe einer Database Instanz
		Connection: db, // Zeiger auf offene Datenbankverbindung setzen
	}, nil
}

// Migrate creates the todos table if it does not exist.
func (db *Database) Migrate(ctx context.Context) error {
	if _, err := db.Connection.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

func (db *Database) Ping(ctx context.Context) error {
	return db.Connection.PingContext(ctx)
}

// Methode zum schließen der Datenbankverbindung
func (db *Database) Close() error {
	return db.Connection.Close()
}

func (db *Database) GetAllByOwner(ctx context.Context, owner string) ([]models.RawRecord, error) {
	rows, err := db.Connection.QueryContext(ctx, "SELECT id, data FROM todos WHERE owner = ?", owner)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	// Jede Zeile in einen Rohdatensatz umwandeln
	records := []models.RawRecord{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		raw, err := decodeRecord([]byte(data), owner, id)
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

func (db *Database) GetByKey(ctx context.Context, owner, id string) (models.RawRecord, bool, error) {
	var data string
	err := db.Connection.QueryRowContext(ctx, "SELECT data FROM todos WHERE owner = ? AND id = ?", owner, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get todo: %w", err)
	}
	raw, err := decodeRecord([]byte(data), owner, id)
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// PutWhole replaces the stored record; the last write wins.
func (db *Database) PutWhole(ctx context.Context, t models.Todo) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode todo: %w", err)
	}
	_, err = db.Connection.ExecContext(ctx, "INSERT OR REPLACE INTO todos (owner, id, data) VALUES (?, ?, ?)", t.Owner, t.ID, string(data))
	if err != nil {
		return fmt.Errorf("put todo: %w", err)
	}
	return nil
}

// DeleteByKey removes the record; a missing record is not an error.
func (db *Database) DeleteByKey(ctx context.Context, owner, id string) error {
	if _, err := db.Connection.ExecContext(ctx, "DELETE FROM todos WHERE owner = ? AND id = ?", owner, id); err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

// decodeRecord liest das JSON-Dokument einer Zeile. Der Schlüssel der Zeile
// gilt immer, auch wenn alte Dokumente user/id nicht oder anders enthalten.
func decodeRecord(data []byte, owner, id string) (models.RawRecord, error) {
	var raw models.RawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode todo %s: %w", id, err)
	}
	if raw == nil {
		raw = models.RawRecord{}
	}
	raw["user"] = owner
	raw["id"] = id
	return raw, nil
}
