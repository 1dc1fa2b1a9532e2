package migrations_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/campusworks/winter-registry/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func appliedCount(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count applied migrations: %v", err)
	}
	return count
}

func TestRunAppliesInFilenameOrder(t *testing.T) {
	db := newTestDB(t)

	// 002 only works if 001 ran first.
	src := fstest.MapFS{
		"002_add_note.sql":      &fstest.MapFile{Data: []byte("ALTER TABLE things ADD COLUMN note TEXT;")},
		"001_create_things.sql": &fstest.MapFile{Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY);")},
		"notes.txt":             &fstest.MapFile{Data: []byte("not a migration")},
	}

	if err := migrations.Run(context.Background(), db, src); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	if _, err := db.Exec("INSERT INTO things (note) VALUES ('ok')"); err != nil {
		t.Fatalf("insert into migrated table: %v", err)
	}
	if got := appliedCount(t, db); got != 2 {
		t.Errorf("applied count = %d, want 2", got)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	src := fstest.MapFS{
		"001_create_things.sql": &fstest.MapFile{Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY);")},
	}

	for i := 0; i < 2; i++ {
		if err := migrations.Run(context.Background(), db, src); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}

	if got := appliedCount(t, db); got != 1 {
		t.Errorf("applied count = %d, want 1", got)
	}
}

func TestRunFailedMigrationNotRecorded(t *testing.T) {
	db := newTestDB(t)

	src := fstest.MapFS{
		"001_broken.sql": &fstest.MapFile{Data: []byte("CREATE TABBLE nope;")},
	}

	if err := migrations.Run(context.Background(), db, src); err == nil {
		t.Fatal("expected error for invalid sql")
	}
	if got := appliedCount(t, db); got != 0 {
		t.Errorf("applied count = %d, want 0", got)
	}
}

func TestRunEmbeddedSchema(t *testing.T) {
	db := newTestDB(t)

	if err := migrations.Run(context.Background(), db, migrations.Files); err != nil {
		t.Fatalf("run embedded migrations: %v", err)
	}

	_, err := db.Exec(
		"INSERT INTO registrations (identifier, phone, created_at) VALUES ('22b1234', '9876543210', CURRENT_TIMESTAMP)",
	)
	if err != nil {
		t.Fatalf("insert registration: %v", err)
	}
}
