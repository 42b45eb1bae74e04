package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func sqlFile(body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(body)}
}

func TestApplyRunsPendingOnce(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"contests/001_contests.sql": sqlFile("-- +migrate Up\nCREATE TABLE contests(id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE contests;"),
		"contests/notes.txt":        sqlFile("ignored"),
	}

	ran, err := Apply(ctx, db, fsys, "contests")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !slices.Equal(ran, []string{"contests/001_contests.sql"}) {
		t.Fatalf("ran = %v", ran)
	}
	if !hasTable(t, db, "contests") {
		t.Fatal("expected contests table")
	}

	fsys["contests/002_deltas.sql"] = sqlFile("CREATE TABLE deltas(id INTEGER PRIMARY KEY);")
	ran, err = Apply(ctx, db, fsys, "contests")
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if !slices.Equal(ran, []string{"contests/002_deltas.sql"}) {
		t.Fatalf("second pass ran = %v", ran)
	}
	if got := countApplied(t, db); got != 2 {
		t.Fatalf("recorded = %d, want 2", got)
	}
}

func TestApplyLeavesFailureUnrecorded(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	broken := fstest.MapFS{"001_things.sql": sqlFile("CREAT TABLE things(id INT);")}
	if _, err := Apply(ctx, db, broken, ""); err == nil {
		t.Fatal("expected syntax error")
	}
	if got := countApplied(t, db); got != 0 {
		t.Fatalf("recorded = %d after failure", got)
	}

	fixed := fstest.MapFS{"001_things.sql": sqlFile("CREATE TABLE things(id INTEGER PRIMARY KEY);")}
	ran, err := Apply(ctx, db, fixed, "")
	if err != nil {
		t.Fatalf("apply fixed: %v", err)
	}
	if !slices.Equal(ran, []string{"001_things.sql"}) {
		t.Fatalf("ran = %v", ran)
	}
}

func TestApplyToleratesExistingSchema(t *testing.T) {
	db := openDB(t)
	if _, err := db.Exec("CREATE TABLE legacy(id TEXT)"); err != nil {
		t.Fatalf("seed table: %v", err)
	}
	fsys := fstest.MapFS{"001_legacy.sql": sqlFile("CREATE TABLE legacy(id TEXT);")}
	if _, err := Apply(context.Background(), db, fsys, "."); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := countApplied(t, db); got != 1 {
		t.Fatalf("recorded = %d, want 1", got)
	}
}

func TestApplyRejectsNilDB(t *testing.T) {
	if _, err := Apply(context.Background(), nil, fstest.MapFS{}, ""); err == nil {
		t.Fatal("expected nil db error")
	}
}

func TestUpSection(t *testing.T) {
	tests := map[string]struct {
		content string
		want    string
	}{
		"plain":    {"SELECT 1;", "SELECT 1;"},
		"up only":  {"-- +migrate Up\nSELECT 1;", "\nSELECT 1;"},
		"up, down": {"-- +migrate Up\nSELECT 1;\n-- +migrate Down\nSELECT 2;", "\nSELECT 1;\n"},
	}
	for name, tt := range tests {
		if got := upSection(tt.content); got != tt.want {
			t.Errorf("%s: upSection = %q, want %q", name, got, tt.want)
		}
	}
}

func TestAlreadyApplied(t *testing.T) {
	tests := map[string]bool{
		"table contests already exists": true,
		"duplicate column name: note":   true,
		"near \"CREAT\": syntax error":  false,
	}
	for msg, want := range tests {
		if got := alreadyApplied(errors.New(msg)); got != want {
			t.Errorf("alreadyApplied(%q) = %v", msg, got)
		}
	}
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countApplied(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	return n
}

func hasTable(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var found string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		t.Fatalf("lookup table %s: %v", name, err)
	}
	return true
}
