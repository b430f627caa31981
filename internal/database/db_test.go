package database

import (
	"context"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/Paul-frank/todo-tracker-api/internal/models"
	"github.com/Paul-frank/todo-tracker-api/internal/todo"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func sampleTodo(owner, id, title string) models.Todo {
	now := time.Date(2025, 1, 8, 9, 30, 0, 0, time.UTC)
	return models.Todo{
		Owner:     owner,
		ID:        id,
		Title:     title,
		Tags:      []string{"work"},
		Priority:  models.PriorityHigh,
		Status:    models.StatusTodo,
		Order:     5,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	if err := store.PutWhole(ctx, sampleTodo("user-1", "a", "first")); err != nil {
		t.Fatalf("PutWhole() error: %v", err)
	}
	if err := store.PutWhole(ctx, sampleTodo("user-1", "b", "second")); err != nil {
		t.Fatalf("PutWhole() error: %v", err)
	}
	if err := store.PutWhole(ctx, sampleTodo("user-2", "a", "other owner")); err != nil {
		t.Fatalf("PutWhole() error: %v", err)
	}

	t.Run("get by key", func(t *testing.T) {
		raw, found, err := store.GetByKey(ctx, "user-1", "a")
		if err != nil || !found {
			t.Fatalf("GetByKey() = %v, %v, %v", raw, found, err)
		}
		if raw["title"] != "first" || raw["priority"] != "high" || raw["completed"] != false {
			t.Errorf("unexpected record: %v", raw)
		}
		if raw["createdAt"] != "2025-01-08T09:30:00.000Z" {
			t.Errorf("createdAt = %v", raw["createdAt"])
		}
	})

	t.Run("missing key", func(t *testing.T) {
		_, found, err := store.GetByKey(ctx, "user-2", "b")
		if err != nil || found {
			t.Errorf("GetByKey(missing) found=%v err=%v", found, err)
		}
	})

	t.Run("all by owner", func(t *testing.T) {
		records, err := store.GetAllByOwner(ctx, "user-1")
		if err != nil {
			t.Fatalf("GetAllByOwner() error: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("got %d records, want 2", len(records))
		}
		for _, raw := range records {
			if raw["user"] != "user-1" {
				t.Errorf("record of another owner returned: %v", raw)
			}
		}
	})

	t.Run("put replaces whole record", func(t *testing.T) {
		replaced := sampleTodo("user-1", "a", "renamed")
		replaced.Tags = nil
		if err := store.PutWhole(ctx, replaced); err != nil {
			t.Fatalf("PutWhole() error: %v", err)
		}
		raw, _, err := store.GetByKey(ctx, "user-1", "a")
		if err != nil {
			t.Fatal(err)
		}
		if raw["title"] != "renamed" {
			t.Errorf("title = %v, want renamed", raw["title"])
		}
		if tags, ok := raw["tags"].([]any); !ok || len(tags) != 0 {
			t.Errorf("tags = %#v, want empty array", raw["tags"])
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		if err := store.DeleteByKey(ctx, "user-1", "b"); err != nil {
			t.Fatalf("DeleteByKey() error: %v", err)
		}
		if err := store.DeleteByKey(ctx, "user-1", "b"); err != nil {
			t.Fatalf("DeleteByKey(again) error: %v", err)
		}
		if _, found, _ := store.GetByKey(ctx, "user-1", "b"); found {
			t.Error("record still present after delete")
		}
		if _, found, _ := store.GetByKey(ctx, "user-2", "a"); !found {
			t.Error("delete removed another owner's record")
		}
	})
}

func TestDatabase(t *testing.T) {
	testStore(t, setupTestDB(t))
}

func TestDatabaseReadsLegacyDocuments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.Connection.Exec(`INSERT INTO todos (owner, id, data) VALUES ('user-1', '1700000000000123', '{"user":"user-1","id":"1700000000000123","title":"old","completed":true}')`)
	if err != nil {
		t.Fatal(err)
	}

	raw, found, err := db.GetByKey(ctx, "user-1", "1700000000000123")
	if err != nil || !found {
		t.Fatalf("GetByKey() found=%v err=%v", found, err)
	}
	if raw["completed"] != true {
		t.Errorf("completed = %v, want true", raw["completed"])
	}
	if _, ok := raw["status"]; ok {
		t.Error("legacy document gained a status field")
	}
}

func TestDatabaseKeysDocumentsWithoutUserOrID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.Connection.Exec(`INSERT INTO todos (owner, id, data) VALUES ('user-1', '1700000000000123', '{"title":"old","completed":true}')`)
	if err != nil {
		t.Fatal(err)
	}

	raw, found, err := db.GetByKey(ctx, "user-1", "1700000000000123")
	if err != nil || !found {
		t.Fatalf("GetByKey() found=%v err=%v", found, err)
	}
	if raw["user"] != "user-1" || raw["id"] != "1700000000000123" {
		t.Errorf("GetByKey() key = %v/%v, want user-1/1700000000000123", raw["user"], raw["id"])
	}

	all, err := db.GetAllByOwner(ctx, "user-1")
	if err != nil || len(all) != 1 {
		t.Fatalf("GetAllByOwner() = %v, %v", all, err)
	}
	if all[0]["user"] != "user-1" || all[0]["id"] != "1700000000000123" {
		t.Errorf("GetAllByOwner() key = %v/%v", all[0]["user"], all[0]["id"])
	}
}

func TestServiceKeepsKeyOfLegacyRow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	const id = "1700000000000123"

	_, err := db.Connection.Exec(`INSERT INTO todos (owner, id, data) VALUES ('user-1', ?, '{"title":"old","completed":true}')`, id)
	if err != nil {
		t.Fatal(err)
	}

	now := time.Date(2025, 1, 8, 9, 30, 0, 0, time.UTC)
	svc := todo.NewService(db, todo.WithClock(func() time.Time { return now }))

	listed, err := svc.List(ctx, "user-1", url.Values{})
	if err != nil || len(listed) != 1 {
		t.Fatalf("List() = %v, %v", listed, err)
	}
	if listed[0].ID != id || listed[0].Owner != "user-1" {
		t.Errorf("List() key = %s/%s", listed[0].Owner, listed[0].ID)
	}

	updated, err := svc.Update(ctx, "user-1", id, models.RawRecord{"note": "x"})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if updated.ID != id || updated.Owner != "user-1" {
		t.Errorf("Update() key = %s/%s, want user-1/%s", updated.Owner, updated.ID, id)
	}
	if want := time.UnixMilli(1700000000000).UTC(); !updated.CreatedAt.Equal(want) {
		t.Errorf("createdAt = %v, want %v", updated.CreatedAt, want)
	}
	if updated.Status != models.StatusDone || updated.Note != "x" {
		t.Errorf("updated = %+v", updated)
	}

	var rows int
	if err := db.Connection.QueryRow("SELECT COUNT(*) FROM todos").Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Errorf("rows = %d, want 1", rows)
	}

	listed, err = svc.List(ctx, "user-1", url.Values{})
	if err != nil || len(listed) != 1 || listed[0].ID != id || listed[0].Note != "x" {
		t.Errorf("List() after update = %+v, %v", listed, err)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TODO_API_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TODO_API_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	store, err := NewPostgresStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore() error: %v", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	if _, err := store.Pool.Exec(ctx, "DELETE FROM todos WHERE owner IN ('user-1', 'user-2')"); err != nil {
		t.Fatal(err)
	}
	testStore(t, store)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "dsn"); err == nil {
		t.Error("Open(mysql) succeeded, want error")
	}
}
