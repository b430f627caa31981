package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Paul-frank/todo-tracker-api/internal/database"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMigrateCommand(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "todos.db")
	path := writeConfig(t, `
database:
  driver: sqlite3
  dsn: `+dsn+`
auth:
  jwt_secret: secret
log:
  format: logfmt
`)

	var stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "--config", path})
	cmd.SetErr(&stderr)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("migrate failed: %v (%s)", err, stderr.String())
	}
	if !strings.Contains(stderr.String(), "schema up to date") {
		t.Errorf("log output = %q", stderr.String())
	}

	db, err := database.NewDatabase(dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.GetAllByOwner(context.Background(), "alice"); err != nil {
		t.Errorf("todos table missing after migrate: %v", err)
	}
}

func TestInvalidConfigIsRejected(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: mongodb
  dsn: x
`)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "--config", path})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for invalid config")
	}
	if !strings.Contains(err.Error(), "database.driver") || !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("error = %v", err)
	}
}
